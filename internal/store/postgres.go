package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/db"
	"github.com/air-restore/restore-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS claims (
	id                TEXT PRIMARY KEY,
	claim_id          TEXT NOT NULL UNIQUE,
	schema_version    INTEGER NOT NULL DEFAULT 1,
	fingerprint       TEXT NOT NULL,
	fingerprint_nonce TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	contributor_id    TEXT NOT NULL,
	contributor_name  TEXT NOT NULL DEFAULT '',
	contributor_email TEXT NOT NULL DEFAULT '',
	country           TEXT NOT NULL DEFAULT '',
	state             TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	polygon           JSONB NOT NULL,
	area_unit         DOUBLE PRECISION NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	evidence          JSONB NOT NULL DEFAULT '[]',
	vegetation_index  JSONB,
	credits_issued    DOUBLE PRECISION,
	verifier_id       TEXT,
	verifier_name     TEXT,
	verifier_notes    TEXT,
	verified_at       TIMESTAMPTZ,
	audit_log         JSONB NOT NULL DEFAULT '[]',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
CREATE INDEX IF NOT EXISTS idx_claims_contributor ON claims(contributor_id);
CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at DESC);

CREATE TABLE IF NOT EXISTS credits (
	id        TEXT PRIMARY KEY,
	claim_id  TEXT NOT NULL UNIQUE REFERENCES claims(claim_id),
	owner_id  TEXT NOT NULL,
	amount    DOUBLE PRECISION NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_credits_owner ON credits(owner_id);
CREATE INDEX IF NOT EXISTS idx_credits_claim ON credits(claim_id);

CREATE TABLE IF NOT EXISTS claim_sequence (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS submission_counters (
	contributor_id TEXT NOT NULL,
	day            TEXT NOT NULL,
	count          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (contributor_id, day)
);
`

// claimColumns is the scan order shared by every claim query.
const claimColumns = `id, claim_id, schema_version, fingerprint, fingerprint_nonce, status,
	contributor_id, contributor_name, contributor_email, country, state, city,
	polygon, area_unit, description, evidence, vegetation_index, credits_issued,
	verifier_id, verifier_name, verifier_notes, verified_at, audit_log, created_at, updated_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error) {
	polygonJSON, evidenceJSON, auditJSON, err := marshalClaimJSON(c)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create claim")
	}
	defer tx.Rollback(ctx)

	// Registry numbers come from a dedicated counter row bumped in a single
	// statement, so concurrent submissions can never allocate the same one.
	var seq int64
	err = tx.QueryRow(ctx,
		`INSERT INTO claim_sequence (name, value) VALUES ('claim', 1)
		 ON CONFLICT (name) DO UPDATE SET value = claim_sequence.value + 1
		 RETURNING value`,
	).Scan(&seq)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: allocate claim sequence")
	}

	created := *c
	created.ID = uuid.New().String()
	created.ClaimID = claim.FormatClaimID(seq)

	_, err = tx.Exec(ctx,
		`INSERT INTO claims (id, claim_id, schema_version, fingerprint, fingerprint_nonce, status,
		   contributor_id, contributor_name, contributor_email, country, state, city,
		   polygon, area_unit, description, evidence, audit_log, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		created.ID, created.ClaimID, created.SchemaVersion,
		created.Fingerprint, created.FingerprintNonce, string(created.Status),
		created.ContributorID, created.ContributorName, created.ContributorEmail,
		created.Location.Country, created.Location.State, created.Location.City,
		polygonJSON, created.AreaUnit, created.Description,
		evidenceJSON, auditJSON, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert claim")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit create claim")
	}
	return &created, nil
}

func (s *PostgresStore) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return s.getClaimBy(ctx, "id", id)
}

func (s *PostgresStore) GetClaimByClaimID(ctx context.Context, claimID string) (*model.Claim, error) {
	return s.getClaimBy(ctx, "claim_id", claimID)
}

func (s *PostgresStore) getClaimBy(ctx context.Context, column, value string) (*model.Claim, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE `+column+` = $1`, value)
	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &claim.NotFoundError{Kind: "claim", ID: value}
		}
		return nil, eris.Wrapf(err, "postgres: get claim %s", value)
	}
	return c, nil
}

func (s *PostgresStore) ListClaims(ctx context.Context, f claim.Filter) (*claim.Page, error) {
	normalizePagination(&f)
	order, ok := sortClause(f)
	if !ok {
		return nil, claim.NewValidationError("sort", "unknown sort field or order")
	}

	where := ` WHERE true`
	args := []any{}
	argIdx := 1
	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(f.Status))
		argIdx++
	}
	if f.ContributorID != "" {
		where += fmt.Sprintf(` AND contributor_id = $%d`, argIdx)
		args = append(args, f.ContributorID)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "postgres: count claims")
	}

	query := `SELECT ` + claimColumns + ` FROM claims` + where +
		` ORDER BY ` + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list claims")
	}
	defer rows.Close()

	data := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan claim row")
		}
		data = append(data, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list claims iterate")
	}

	return &claim.Page{
		Data:  data,
		Total: total,
		Page:  f.Page,
		Pages: pageCount(total, f.Limit),
		Limit: f.Limit,
	}, nil
}

func (s *PostgresStore) UpdateClaimFields(ctx context.Context, id string, upd claim.Update, entry model.AuditEntry) (*model.Claim, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal audit entry")
	}

	set := `audit_log = audit_log || $1::jsonb, updated_at = $2`
	args := []any{entryJSON, entry.Timestamp}
	argIdx := 3
	for _, cv := range updateColumns(upd) {
		set += fmt.Sprintf(`, %s = $%d`, cv.col, argIdx)
		args = append(args, cv.val)
		argIdx++
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE claims SET %s WHERE id = $%d AND status = 'pending' RETURNING %s`,
		set, argIdx, claimColumns)

	c, err := scanClaim(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.pendingGuardError(ctx, id)
		}
		return nil, eris.Wrapf(err, "postgres: update claim %s", id)
	}
	return c, nil
}

func (s *PostgresStore) AppendEvidence(ctx context.Context, id string, ev model.Evidence, entry model.AuditEntry) (*model.Claim, error) {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal evidence")
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal audit entry")
	}

	c, err := scanClaim(s.pool.QueryRow(ctx,
		`UPDATE claims SET
		   evidence = evidence || $1::jsonb,
		   audit_log = audit_log || $2::jsonb,
		   updated_at = $3
		 WHERE id = $4 AND status = 'pending'
		 RETURNING `+claimColumns,
		evJSON, entryJSON, entry.Timestamp, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.pendingGuardError(ctx, id)
		}
		return nil, eris.Wrapf(err, "postgres: append evidence %s", id)
	}
	return c, nil
}

func (s *PostgresStore) DecideClaim(ctx context.Context, id string, d claim.Decision, entry model.AuditEntry) (*model.Claim, *model.Credit, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: marshal audit entry")
	}

	status := model.ClaimStatusRejected
	var credits *float64
	if d.Approved {
		status = model.ClaimStatusVerified
		if d.Credits != nil && *d.Credits > 0 {
			credits = d.Credits
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: begin decide claim")
	}
	defer tx.Rollback(ctx)

	// The transition is guarded by the WHERE clause: of any number of
	// concurrent decisions exactly one matches status = 'pending'.
	c, err := scanClaim(tx.QueryRow(ctx,
		`UPDATE claims SET
		   status = $1,
		   credits_issued = $2,
		   verifier_id = $3,
		   verifier_name = $4,
		   verifier_notes = $5,
		   verified_at = $6,
		   audit_log = audit_log || $7::jsonb,
		   updated_at = $6
		 WHERE id = $8 AND status = 'pending'
		 RETURNING `+claimColumns,
		string(status), credits, d.VerifierID, d.VerifierName, d.Notes,
		d.DecidedAt, entryJSON, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, s.pendingGuardError(ctx, id)
		}
		return nil, nil, eris.Wrapf(err, "postgres: decide claim %s", id)
	}

	var credit *model.Credit
	if credits != nil {
		credit = &model.Credit{
			ID:       uuid.New().String(),
			ClaimID:  c.ClaimID,
			OwnerID:  c.ContributorID,
			Amount:   *credits,
			IssuedAt: d.DecidedAt,
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO credits (id, claim_id, owner_id, amount, issued_at) VALUES ($1, $2, $3, $4, $5)`,
			credit.ID, credit.ClaimID, credit.OwnerID, credit.Amount, credit.IssuedAt,
		)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "postgres: issue credit for %s", c.ClaimID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: commit decide claim")
	}
	return c, credit, nil
}

func (s *PostgresStore) AttachVegetationIndex(ctx context.Context, id string, vi model.VegetationIndex, entry model.AuditEntry) (*model.Claim, error) {
	viJSON, err := json.Marshal(vi)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal vegetation index")
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal audit entry")
	}

	c, err := scanClaim(s.pool.QueryRow(ctx,
		`UPDATE claims SET
		   vegetation_index = $1::jsonb,
		   audit_log = audit_log || $2::jsonb,
		   updated_at = $3
		 WHERE id = $4
		 RETURNING `+claimColumns,
		viJSON, entryJSON, entry.Timestamp, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &claim.NotFoundError{Kind: "claim", ID: id}
		}
		return nil, eris.Wrapf(err, "postgres: attach vegetation index %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListCredits(ctx context.Context, f claim.CreditFilter) ([]model.Credit, error) {
	query := `SELECT id, claim_id, owner_id, amount, issued_at FROM credits WHERE true`
	args := []any{}
	argIdx := 1
	if f.OwnerID != "" {
		query += fmt.Sprintf(` AND owner_id = $%d`, argIdx)
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.ClaimID != "" {
		query += fmt.Sprintf(` AND claim_id = $%d`, argIdx)
		args = append(args, f.ClaimID)
		argIdx++
	}
	query += ` ORDER BY issued_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list credits")
	}
	defer rows.Close()

	var credits []model.Credit
	for rows.Next() {
		var cr model.Credit
		if err := rows.Scan(&cr.ID, &cr.ClaimID, &cr.OwnerID, &cr.Amount, &cr.IssuedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan credit")
		}
		credits = append(credits, cr)
	}
	return credits, eris.Wrap(rows.Err(), "postgres: list credits iterate")
}

func (s *PostgresStore) IncrementSubmissionCount(ctx context.Context, contributorID, day string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO submission_counters (contributor_id, day, count) VALUES ($1, $2, 1)
		 ON CONFLICT (contributor_id, day) DO UPDATE SET count = submission_counters.count + 1
		 RETURNING count`,
		contributorID, day,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: increment submission count")
	}
	return count, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*claim.RegistryStats, error) {
	var st claim.RegistryStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'verified'),
		        COUNT(*) FILTER (WHERE status = 'rejected')
		 FROM claims`,
	).Scan(&st.Total, &st.Pending, &st.Verified, &st.Rejected)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count claims by status")
	}
	err = s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM credits`).Scan(&st.CreditsIssued)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sum credits")
	}
	return &st, nil
}

// pendingGuardError distinguishes why a status-guarded update matched no
// row: the claim is either absent or already decided.
func (s *PostgresStore) pendingGuardError(ctx context.Context, id string) error {
	var claimID, status string
	err := s.pool.QueryRow(ctx, `SELECT claim_id, status FROM claims WHERE id = $1`, id).Scan(&claimID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &claim.NotFoundError{Kind: "claim", ID: id}
		}
		return eris.Wrapf(err, "postgres: check claim status %s", id)
	}
	return &claim.ConflictError{ClaimID: claimID, Status: status}
}

type columnValue struct {
	col string
	val any
}

// updateColumns maps the mutable fields to their columns in a fixed order
// so generated SQL is deterministic.
func updateColumns(upd claim.Update) []columnValue {
	var cols []columnValue
	if upd.Description != nil {
		cols = append(cols, columnValue{"description", *upd.Description})
	}
	if upd.AreaUnit != nil {
		cols = append(cols, columnValue{"area_unit", *upd.AreaUnit})
	}
	if upd.Country != nil {
		cols = append(cols, columnValue{"country", *upd.Country})
	}
	if upd.State != nil {
		cols = append(cols, columnValue{"state", *upd.State})
	}
	if upd.City != nil {
		cols = append(cols, columnValue{"city", *upd.City})
	}
	return cols
}

func marshalClaimJSON(c *model.Claim) (polygon, evidence, audit []byte, err error) {
	polygon, err = json.Marshal(c.Location.Polygon)
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal polygon")
	}
	if c.Evidence == nil {
		evidence = []byte(`[]`)
	} else if evidence, err = json.Marshal(c.Evidence); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal evidence")
	}
	if audit, err = json.Marshal(c.AuditLog); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal audit log")
	}
	return polygon, evidence, audit, nil
}

// scanClaim reads one claim row in claimColumns order.
func scanClaim(row pgx.Row) (*model.Claim, error) {
	var (
		c                              model.Claim
		status                         string
		polygonJSON, evidenceJSON      []byte
		vegJSON                        []byte
		auditJSON                      []byte
		verifierID, verifierName       *string
		verifierNotes                  *string
		verifiedAt                     *time.Time
	)
	err := row.Scan(
		&c.ID, &c.ClaimID, &c.SchemaVersion, &c.Fingerprint, &c.FingerprintNonce, &status,
		&c.ContributorID, &c.ContributorName, &c.ContributorEmail,
		&c.Location.Country, &c.Location.State, &c.Location.City,
		&polygonJSON, &c.AreaUnit, &c.Description,
		&evidenceJSON, &vegJSON, &c.CreditsIssued,
		&verifierID, &verifierName, &verifierNotes, &verifiedAt,
		&auditJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = model.ClaimStatus(status)
	if err := json.Unmarshal(polygonJSON, &c.Location.Polygon); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal polygon")
	}
	if len(evidenceJSON) > 0 {
		if err := json.Unmarshal(evidenceJSON, &c.Evidence); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal evidence")
		}
	}
	if len(vegJSON) > 0 {
		c.VegetationIndex = &model.VegetationIndex{}
		if err := json.Unmarshal(vegJSON, c.VegetationIndex); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal vegetation index")
		}
	}
	if len(auditJSON) > 0 {
		if err := json.Unmarshal(auditJSON, &c.AuditLog); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal audit log")
		}
	}
	if verifierID != nil {
		c.VerifierID = *verifierID
	}
	if verifierName != nil {
		c.VerifierName = *verifierName
	}
	if verifierNotes != nil {
		c.VerifierNotes = *verifierNotes
	}
	c.VerifiedAt = verifiedAt
	return &c, nil
}
