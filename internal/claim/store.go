package claim

import (
	"context"
	"time"

	"github.com/air-restore/restore-cli/internal/model"
)

// Filter specifies criteria for listing claims.
type Filter struct {
	Status        model.ClaimStatus `json:"status,omitempty"`
	ContributorID string            `json:"contributor_id,omitempty"`
	Page          int               `json:"page,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	SortField     string            `json:"sort_field,omitempty"`
	SortOrder     string            `json:"sort_order,omitempty"`
}

// Page is one page of a claim listing.
type Page struct {
	Data  []model.Claim `json:"data"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
	Limit int           `json:"limit"`
}

// Update carries the contributor-mutable claim fields. Nil means unchanged.
// Status, fingerprint, and credit fields are never updatable through this
// path; they move only through the decision transition.
type Update struct {
	Description *string  `json:"description,omitempty"`
	AreaUnit    *float64 `json:"area_unit,omitempty"`
	Country     *string  `json:"country,omitempty"`
	State       *string  `json:"state,omitempty"`
	City        *string  `json:"city,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Description == nil && u.AreaUnit == nil &&
		u.Country == nil && u.State == nil && u.City == nil
}

// Decision is a verifier's terminal ruling on a pending claim.
type Decision struct {
	Approved     bool
	Credits      *float64
	Notes        string
	VerifierID   string
	VerifierName string
	DecidedAt    time.Time
}

// CreditFilter specifies criteria for listing credits.
type CreditFilter struct {
	OwnerID string `json:"owner_id,omitempty"`
	ClaimID string `json:"claim_id,omitempty"`
}

// RegistryStats is a point-in-time summary of the claim registry.
type RegistryStats struct {
	Total         int     `json:"total"`
	Pending       int     `json:"pending"`
	Verified      int     `json:"verified"`
	Rejected      int     `json:"rejected"`
	CreditsIssued float64 `json:"credits_issued"`
}

// Store is the persistence surface the claim service depends on. The
// guarded mutations (UpdateClaimFields, AppendEvidence, DecideClaim) must
// be conditional on the stored status still being pending, so concurrent
// callers racing on the same claim cannot both succeed.
type Store interface {
	CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error)
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	GetClaimByClaimID(ctx context.Context, claimID string) (*model.Claim, error)
	ListClaims(ctx context.Context, f Filter) (*Page, error)

	UpdateClaimFields(ctx context.Context, id string, upd Update, entry model.AuditEntry) (*model.Claim, error)
	AppendEvidence(ctx context.Context, id string, ev model.Evidence, entry model.AuditEntry) (*model.Claim, error)

	// DecideClaim applies the transition and, on approval with a positive
	// credit amount, creates the credit record in the same transaction.
	DecideClaim(ctx context.Context, id string, d Decision, entry model.AuditEntry) (*model.Claim, *model.Credit, error)

	AttachVegetationIndex(ctx context.Context, id string, vi model.VegetationIndex, entry model.AuditEntry) (*model.Claim, error)

	ListCredits(ctx context.Context, f CreditFilter) ([]model.Credit, error)

	// IncrementSubmissionCount atomically bumps the per-contributor counter
	// for the given calendar day and returns the new count.
	IncrementSubmissionCount(ctx context.Context, contributorID, day string) (int, error)

	Stats(ctx context.Context) (*RegistryStats, error)
}
