package model

import "time"

// SchemaVersion tags the canonical claim schema. Bump on any incompatible
// change to the persisted claim layout.
const SchemaVersion = 1

// ClaimStatus represents the verification state of a claim.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusVerified ClaimStatus = "verified"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Terminal reports whether the status admits no further transition.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusVerified || s == ClaimStatusRejected
}

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusVerified, ClaimStatusRejected:
		return true
	}
	return false
}

// Role identifies what an actor is allowed to do. Issued by the external
// identity provider; this core only checks membership.
type Role string

const (
	RoleContributor Role = "contributor"
	RoleVerifier    Role = "verifier"
)

// Actor is the authenticated identity attached to every operation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// AuditEvent names a state-affecting event recorded on a claim.
type AuditEvent string

const (
	AuditClaimCreated       AuditEvent = "claim_created"
	AuditClaimUpdated       AuditEvent = "claim_updated"
	AuditEvidenceAdded      AuditEvent = "evidence_added"
	AuditClaimVerified      AuditEvent = "claim_verified"
	AuditClaimRejected      AuditEvent = "claim_rejected"
	AuditVegetationAttached AuditEvent = "vegetation_index_attached"
)

// AuditEntry is one append-only record in a claim's audit log.
type AuditEntry struct {
	Event     AuditEvent `json:"event"`
	ActorID   string     `json:"actor_id"`
	ActorName string     `json:"actor_name"`
	Note      string     `json:"note,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Evidence is one piece of supporting material attached to a claim.
// ContentID is the content-addressed identifier supplied by the upload
// transport; the core stores it but never fetches the bytes.
type Evidence struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	URL        string    `json:"url,omitempty"`
	ContentID  string    `json:"content_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Location describes where the restoration work took place. Polygon is a
// closed ring of lon/lat pairs (first vertex repeated last).
type Location struct {
	Country string       `json:"country"`
	State   string       `json:"state,omitempty"`
	City    string       `json:"city,omitempty"`
	Polygon [][2]float64 `json:"polygon"`
}

// VegetationIndex is the advisory score attached asynchronously by the
// external analysis service. Not enforced by the state machine.
type VegetationIndex struct {
	Before      float64   `json:"before"`
	After       float64   `json:"after"`
	Delta       float64   `json:"delta"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Claim is a contributor's assertion of land-restoration work.
type Claim struct {
	ID            string `json:"id"`
	ClaimID       string `json:"claim_id"`
	SchemaVersion int    `json:"schema_version"`

	Fingerprint      string `json:"fingerprint"`
	FingerprintNonce string `json:"fingerprint_nonce"`

	Status ClaimStatus `json:"status"`

	ContributorID    string `json:"contributor_id"`
	ContributorName  string `json:"contributor_name"`
	ContributorEmail string `json:"contributor_email,omitempty"`

	Location    Location `json:"location"`
	AreaUnit    float64  `json:"area_unit"`
	Description string   `json:"description,omitempty"`

	Evidence        []Evidence       `json:"evidence"`
	VegetationIndex *VegetationIndex `json:"vegetation_index,omitempty"`

	CreditsIssued *float64   `json:"credits_issued,omitempty"`
	VerifierID    string     `json:"verifier_id,omitempty"`
	VerifierName  string     `json:"verifier_name,omitempty"`
	VerifierNotes string     `json:"verifier_notes,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`

	AuditLog []AuditEntry `json:"audit_log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EvidenceContentIDs returns the content identifiers of all attached
// evidence, in attachment order.
func (c *Claim) EvidenceContentIDs() []string {
	ids := make([]string, 0, len(c.Evidence))
	for _, e := range c.Evidence {
		ids = append(ids, e.ContentID)
	}
	return ids
}

// ClaimDraft is the contributor-supplied input to claim submission.
type ClaimDraft struct {
	ContributorName  string     `json:"contributor_name"`
	ContributorEmail string     `json:"contributor_email,omitempty"`
	Location         Location   `json:"location"`
	AreaUnit         float64    `json:"area_unit"`
	Description      string     `json:"description,omitempty"`
	Evidence         []Evidence `json:"evidence"`
}
