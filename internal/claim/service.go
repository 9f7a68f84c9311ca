package claim

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/air-restore/restore-cli/internal/model"
)

// DefaultDailySubmissionLimit caps claims per contributor per calendar day.
const DefaultDailySubmissionLimit = 10

// Limits configures the submission rate limiter.
type Limits struct {
	DailySubmissions int `yaml:"daily_submissions" mapstructure:"daily_submissions"`
}

// Service implements the claim verification lifecycle over a Store.
// All mutual exclusion is delegated to the store's conditional updates;
// the service itself holds no mutable state and is safe for concurrent use.
type Service struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// NewService creates a claim service. A zero daily limit falls back to
// DefaultDailySubmissionLimit.
func NewService(st Store, limits Limits) *Service {
	if limits.DailySubmissions <= 0 {
		limits.DailySubmissions = DefaultDailySubmissionLimit
	}
	return &Service{store: st, limits: limits, now: time.Now}
}

var titleCaser = cases.Title(language.English)

// Submit validates a contributor draft, enforces the daily cap, computes
// the integrity fingerprint, and persists the claim in pending state with
// its claim_created audit entry.
func (s *Service) Submit(ctx context.Context, actor model.Actor, draft model.ClaimDraft) (*model.Claim, error) {
	if actor.Role != model.RoleContributor {
		return nil, &AuthorizationError{ActorID: actor.ID, Reason: "only contributors may submit claims"}
	}
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := now.Format("2006-01-02")
	count, err := s.store.IncrementSubmissionCount(ctx, actor.ID, day)
	if err != nil {
		return nil, s.storage("count submissions", err)
	}
	if count > s.limits.DailySubmissions {
		return nil, &RateLimitError{ContributorID: actor.ID, Limit: s.limits.DailySubmissions}
	}

	// Evidence present at submission carries the claim timestamp; this is
	// the set the fingerprint is computed over, and it stays recoverable
	// after later appends.
	evidence := make([]model.Evidence, len(draft.Evidence))
	for i, ev := range draft.Evidence {
		ev.UploadedAt = now
		evidence[i] = ev
	}

	c := &model.Claim{
		SchemaVersion:    model.SchemaVersion,
		Status:           model.ClaimStatusPending,
		ContributorID:    actor.ID,
		ContributorName:  firstNonEmpty(draft.ContributorName, actor.Name),
		ContributorEmail: draft.ContributorEmail,
		Location: model.Location{
			Country: titleCaser.String(strings.TrimSpace(draft.Location.Country)),
			State:   strings.TrimSpace(draft.Location.State),
			City:    strings.TrimSpace(draft.Location.City),
			Polygon: draft.Location.Polygon,
		},
		AreaUnit:    draft.AreaUnit,
		Description: strings.TrimSpace(draft.Description),
		Evidence:    evidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	digest, nonce := Fingerprint(FingerprintInput{
		ContributorID:      c.ContributorID,
		CreatedAt:          c.CreatedAt,
		Polygon:            c.Location.Polygon,
		EvidenceContentIDs: c.EvidenceContentIDs(),
	}, "")
	c.Fingerprint = digest
	c.FingerprintNonce = nonce

	c.AuditLog = []model.AuditEntry{{
		Event:     model.AuditClaimCreated,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Timestamp: now,
	}}

	created, err := s.store.CreateClaim(ctx, c)
	if err != nil {
		return nil, s.storage("create claim", err)
	}
	zap.L().Info("claim submitted",
		zap.String("claim_id", created.ClaimID),
		zap.String("contributor_id", created.ContributorID),
		zap.Int("evidence", len(created.Evidence)),
	)
	return created, nil
}

// Get resolves ref as either a registry identifier (AIR-CLAIM-0001) or a
// storage key.
func (s *Service) Get(ctx context.Context, ref string) (*model.Claim, error) {
	c, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns a filtered, paginated view of the registry.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, NewValidationError("status", "unknown status")
	}
	page, err := s.store.ListClaims(ctx, f)
	if err != nil {
		return nil, s.storage("list claims", err)
	}
	return page, nil
}

// Update applies contributor edits to a pending claim. Only the claim's
// owner may update it.
func (s *Service) Update(ctx context.Context, actor model.Actor, ref string, upd Update) (*model.Claim, error) {
	if upd.Empty() {
		return nil, NewValidationError("update", "no updatable fields supplied")
	}
	if upd.AreaUnit != nil && *upd.AreaUnit <= 0 {
		return nil, NewValidationError("area_unit", "must be positive")
	}

	c, err := s.resolveOwned(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	entry := model.AuditEntry{
		Event:     model.AuditClaimUpdated,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Timestamp: s.now().UTC(),
	}
	updated, err := s.store.UpdateClaimFields(ctx, c.ID, upd, entry)
	if err != nil {
		return nil, s.storage("update claim", err)
	}
	return updated, nil
}

// AppendEvidence attaches an evidence item to a pending claim. The original
// fingerprint is deliberately not recomputed; post-submission evidence is
// informational.
func (s *Service) AppendEvidence(ctx context.Context, actor model.Actor, ref string, ev model.Evidence) (*model.Claim, error) {
	if ev.ContentID == "" {
		return nil, NewValidationError("evidence.content_id", "content identifier is required")
	}
	if ev.Name == "" {
		return nil, NewValidationError("evidence.name", "name is required")
	}

	c, err := s.resolveOwned(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ev.UploadedAt = now
	entry := model.AuditEntry{
		Event:     model.AuditEvidenceAdded,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Note:      ev.Name,
		Timestamp: now,
	}
	updated, err := s.store.AppendEvidence(ctx, c.ID, ev, entry)
	if err != nil {
		return nil, s.storage("append evidence", err)
	}
	return updated, nil
}

// Decide applies a verifier's terminal ruling. On approval with a positive
// credit amount the credit record is created atomically with the status
// transition; exactly one of any set of racing decisions succeeds.
//
// The credit amount is taken as supplied by the verifier and is not derived
// from or capped by the vegetation index.
func (s *Service) Decide(ctx context.Context, actor model.Actor, ref string, approved bool, credits *float64, notes string) (*model.Claim, *model.Credit, error) {
	if actor.Role != model.RoleVerifier {
		return nil, nil, &AuthorizationError{ActorID: actor.ID, Reason: "only verifiers may decide claims"}
	}
	if approved && credits != nil && *credits <= 0 {
		return nil, nil, NewValidationError("credits", "must be positive")
	}
	if !approved {
		credits = nil
	}

	c, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	d := Decision{
		Approved:     approved,
		Credits:      credits,
		Notes:        notes,
		VerifierID:   actor.ID,
		VerifierName: actor.Name,
		DecidedAt:    now,
	}
	event := model.AuditClaimRejected
	if approved {
		event = model.AuditClaimVerified
	}
	entry := model.AuditEntry{
		Event:     event,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Note:      notes,
		Timestamp: now,
	}

	updated, credit, err := s.store.DecideClaim(ctx, c.ID, d, entry)
	if err != nil {
		return nil, nil, s.storage("decide claim", err)
	}
	zap.L().Info("claim decided",
		zap.String("claim_id", updated.ClaimID),
		zap.Bool("approved", approved),
		zap.String("verifier_id", actor.ID),
	)
	return updated, credit, nil
}

// AttachVegetationIndex records the advisory score from the external
// analysis service. Advisory only; it never gates the state machine.
func (s *Service) AttachVegetationIndex(ctx context.Context, ref string, vi model.VegetationIndex) (*model.Claim, error) {
	c, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if vi.ProcessedAt.IsZero() {
		vi.ProcessedAt = s.now().UTC()
	}
	entry := model.AuditEntry{
		Event:     model.AuditVegetationAttached,
		ActorID:   "vegetation-analysis",
		ActorName: "vegetation analysis service",
		Timestamp: s.now().UTC(),
	}
	updated, err := s.store.AttachVegetationIndex(ctx, c.ID, vi, entry)
	if err != nil {
		return nil, s.storage("attach vegetation index", err)
	}
	return updated, nil
}

// Credits lists issued credits, optionally filtered by owner or claim.
func (s *Service) Credits(ctx context.Context, f CreditFilter) ([]model.Credit, error) {
	if f.ClaimID != "" && !IsClaimID(f.ClaimID) {
		c, err := s.resolve(ctx, f.ClaimID)
		if err != nil {
			return nil, err
		}
		f.ClaimID = c.ClaimID
	}
	credits, err := s.store.ListCredits(ctx, f)
	if err != nil {
		return nil, s.storage("list credits", err)
	}
	return credits, nil
}

// VerifyIntegrity recomputes the stored claim's fingerprint over the
// content known at submission time and reports whether it still matches.
func (s *Service) VerifyIntegrity(ctx context.Context, ref string) (*model.Claim, bool, error) {
	c, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	return c, VerifyClaim(c), nil
}

// Stats summarizes the registry.
func (s *Service) Stats(ctx context.Context) (*RegistryStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, s.storage("collect stats", err)
	}
	return stats, nil
}

func (s *Service) resolve(ctx context.Context, ref string) (*model.Claim, error) {
	var (
		c   *model.Claim
		err error
	)
	if IsClaimID(ref) {
		c, err = s.store.GetClaimByClaimID(ctx, ref)
	} else {
		c, err = s.store.GetClaim(ctx, ref)
	}
	if err != nil {
		return nil, s.storage("get claim", err)
	}
	return c, nil
}

func (s *Service) resolveOwned(ctx context.Context, actor model.Actor, ref string) (*model.Claim, error) {
	if actor.Role != model.RoleContributor {
		return nil, &AuthorizationError{ActorID: actor.ID, Reason: "only contributors may modify claims"}
	}
	c, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if c.ContributorID != actor.ID {
		return nil, &AuthorizationError{ActorID: actor.ID, Reason: "claim belongs to another contributor"}
	}
	return c, nil
}

// storage passes domain errors through untouched and wraps anything else
// as an opaque StorageError for the caller, keeping the cause attached for
// internal logging.
func (s *Service) storage(op string, err error) error {
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) || IsRateLimited(err) || IsAuthorization(err) {
		return err
	}
	zap.L().Error("storage operation failed", zap.String("op", op), zap.Error(err))
	return &StorageError{Op: op, Err: err}
}

func validateDraft(draft *model.ClaimDraft) error {
	if err := ValidatePolygon(draft.Location.Polygon); err != nil {
		return err
	}
	if strings.TrimSpace(draft.Location.Country) == "" {
		return NewValidationError("location.country", "country is required")
	}
	if draft.AreaUnit <= 0 {
		return NewValidationError("area_unit", "must be positive")
	}
	for i, ev := range draft.Evidence {
		if ev.ContentID == "" {
			return NewValidationError("evidence.content_id", "content identifier is required")
		}
		if ev.Name == "" {
			draft.Evidence[i].Name = ev.ContentID
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
