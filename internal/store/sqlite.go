package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// single-node local deployments and tests; the guarded updates rely on
// SQLite's serialized writes plus the same status = 'pending' condition
// the Postgres store uses.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	polygon           TEXT NOT NULL,
	area_unit         REAL NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	evidence          TEXT NOT NULL DEFAULT '[]',
	vegetation_index  TEXT,
	credits_issued    REAL,
	verifier_id       TEXT,
	verifier_name     TEXT,
	verifier_notes    TEXT,
	verified_at       DATETIME,
	audit_log         TEXT NOT NULL DEFAULT '[]',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
CREATE INDEX IF NOT EXISTS idx_claims_contributor ON claims(contributor_id);
CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at);

CREATE TABLE IF NOT EXISTS credits (
	id        TEXT PRIMARY KEY,
	claim_id  TEXT NOT NULL UNIQUE REFERENCES claims(claim_id),
	owner_id  TEXT NOT NULL,
	amount    REAL NOT NULL,
	issued_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_credits_owner ON credits(owner_id);
CREATE INDEX IF NOT EXISTS idx_credits_claim ON credits(claim_id);

CREATE TABLE IF NOT EXISTS claim_sequence (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submission_counters (
	contributor_id TEXT NOT NULL,
	day            TEXT NOT NULL,
	count          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (contributor_id, day)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error) {
	polygonJSON, evidenceJSON, auditJSON, err := marshalClaimJSON(c)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create claim")
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO claim_sequence (name, value) VALUES ('claim', 1)
		 ON CONFLICT (name) DO UPDATE SET value = value + 1
		 RETURNING value`,
	).Scan(&seq)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: allocate claim sequence")
	}

	created := *c
	created.ID = uuid.New().String()
	created.ClaimID = claim.FormatClaimID(seq)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (id, claim_id, schema_version, fingerprint, fingerprint_nonce, status,
		   contributor_id, contributor_name, contributor_email, country, state, city,
		   polygon, area_unit, description, evidence, audit_log, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.ClaimID, created.SchemaVersion,
		created.Fingerprint, created.FingerprintNonce, string(created.Status),
		created.ContributorID, created.ContributorName, created.ContributorEmail,
		created.Location.Country, created.Location.State, created.Location.City,
		string(polygonJSON), created.AreaUnit, created.Description,
		string(evidenceJSON), string(auditJSON), created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert claim")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create claim")
	}
	return &created, nil
}

func (s *SQLiteStore) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return s.getClaimBy(ctx, s.db, "id", id)
}

func (s *SQLiteStore) GetClaimByClaimID(ctx context.Context, claimID string) (*model.Claim, error) {
	return s.getClaimBy(ctx, s.db, "claim_id", claimID)
}

// queryer lets the claim read helpers run inside or outside a transaction.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getClaimBy(ctx context.Context, q queryer, column, value string) (*model.Claim, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE `+column+` = ?`, value)
	c, err := scanSQLiteClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &claim.NotFoundError{Kind: "claim", ID: value}
		}
		return nil, eris.Wrapf(err, "sqlite: get claim %s", value)
	}
	return c, nil
}

func (s *SQLiteStore) ListClaims(ctx context.Context, f claim.Filter) (*claim.Page, error) {
	normalizePagination(&f)
	order, ok := sortClause(f)
	if !ok {
		return nil, claim.NewValidationError("sort", "unknown sort field or order")
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.ContributorID != "" {
		where += ` AND contributor_id = ?`
		args = append(args, f.ContributorID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count claims")
	}

	query := `SELECT ` + claimColumns + ` FROM claims` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list claims")
	}
	defer rows.Close()

	data := []model.Claim{}
	for rows.Next() {
		c, err := scanSQLiteClaim(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan claim row")
		}
		data = append(data, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list claims iterate")
	}

	return &claim.Page{
		Data:  data,
		Total: total,
		Page:  f.Page,
		Pages: pageCount(total, f.Limit),
		Limit: f.Limit,
	}, nil
}

func (s *SQLiteStore) UpdateClaimFields(ctx context.Context, id string, upd claim.Update, entry model.AuditEntry) (*model.Claim, error) {
	return s.mutatePending(ctx, id, entry, func(c *model.Claim) {
		if upd.Description != nil {
			c.Description = *upd.Description
		}
		if upd.AreaUnit != nil {
			c.AreaUnit = *upd.AreaUnit
		}
		if upd.Country != nil {
			c.Location.Country = *upd.Country
		}
		if upd.State != nil {
			c.Location.State = *upd.State
		}
		if upd.City != nil {
			c.Location.City = *upd.City
		}
	})
}

func (s *SQLiteStore) AppendEvidence(ctx context.Context, id string, ev model.Evidence, entry model.AuditEntry) (*model.Claim, error) {
	return s.mutatePending(ctx, id, entry, func(c *model.Claim) {
		c.Evidence = append(c.Evidence, ev)
	})
}

// mutatePending applies fn to a pending claim inside one transaction. The
// final UPDATE repeats the status = 'pending' condition so a mutation that
// raced with a decision cannot win.
func (s *SQLiteStore) mutatePending(ctx context.Context, id string, entry model.AuditEntry, fn func(*model.Claim)) (*model.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin mutate claim")
	}
	defer tx.Rollback()

	c, err := s.getClaimBy(ctx, tx, "id", id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.ClaimStatusPending {
		return nil, &claim.ConflictError{ClaimID: c.ClaimID, Status: string(c.Status)}
	}

	fn(c)
	c.AuditLog = append(c.AuditLog, entry)
	c.UpdatedAt = entry.Timestamp

	polygonJSON, evidenceJSON, auditJSON, err := marshalClaimJSON(c)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE claims SET
		   country = ?, state = ?, city = ?, polygon = ?, area_unit = ?, description = ?,
		   evidence = ?, audit_log = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		c.Location.Country, c.Location.State, c.Location.City,
		string(polygonJSON), c.AreaUnit, c.Description,
		string(evidenceJSON), string(auditJSON), c.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: mutate claim %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, &claim.ConflictError{ClaimID: c.ClaimID, Status: string(c.Status)}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit mutate claim")
	}
	return c, nil
}

func (s *SQLiteStore) DecideClaim(ctx context.Context, id string, d claim.Decision, entry model.AuditEntry) (*model.Claim, *model.Credit, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: marshal audit entry")
	}

	status := model.ClaimStatusRejected
	var credits *float64
	if d.Approved {
		status = model.ClaimStatusVerified
		if d.Credits != nil && *d.Credits > 0 {
			credits = d.Credits
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: begin decide claim")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE claims SET
		   status = ?,
		   credits_issued = ?,
		   verifier_id = ?,
		   verifier_name = ?,
		   verifier_notes = ?,
		   verified_at = ?,
		   audit_log = json_insert(audit_log, '$[#]', json(?)),
		   updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		string(status), credits, d.VerifierID, d.VerifierName, d.Notes,
		d.DecidedAt, string(entryJSON), d.DecidedAt, id,
	)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: decide claim %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		c, err := s.getClaimBy(ctx, tx, "id", id)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, &claim.ConflictError{ClaimID: c.ClaimID, Status: string(c.Status)}
	}

	c, err := s.getClaimBy(ctx, tx, "id", id)
	if err != nil {
		return nil, nil, err
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
		_, err = tx.ExecContext(ctx,
			`INSERT INTO credits (id, claim_id, owner_id, amount, issued_at) VALUES (?, ?, ?, ?, ?)`,
			credit.ID, credit.ClaimID, credit.OwnerID, credit.Amount, credit.IssuedAt,
		)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "sqlite: issue credit for %s", c.ClaimID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: commit decide claim")
	}
	return c, credit, nil
}

func (s *SQLiteStore) AttachVegetationIndex(ctx context.Context, id string, vi model.VegetationIndex, entry model.AuditEntry) (*model.Claim, error) {
	viJSON, err := json.Marshal(vi)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal vegetation index")
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal audit entry")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET
		   vegetation_index = ?,
		   audit_log = json_insert(audit_log, '$[#]', json(?)),
		   updated_at = ?
		 WHERE id = ?`,
		string(viJSON), string(entryJSON), entry.Timestamp, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: attach vegetation index %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, &claim.NotFoundError{Kind: "claim", ID: id}
	}
	return s.GetClaim(ctx, id)
}

func (s *SQLiteStore) ListCredits(ctx context.Context, f claim.CreditFilter) ([]model.Credit, error) {
	query := `SELECT id, claim_id, owner_id, amount, issued_at FROM credits WHERE 1=1`
	args := []any{}
	if f.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.ClaimID != "" {
		query += ` AND claim_id = ?`
		args = append(args, f.ClaimID)
	}
	query += ` ORDER BY issued_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list credits")
	}
	defer rows.Close()

	var credits []model.Credit
	for rows.Next() {
		var cr model.Credit
		if err := rows.Scan(&cr.ID, &cr.ClaimID, &cr.OwnerID, &cr.Amount, &cr.IssuedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan credit")
		}
		credits = append(credits, cr)
	}
	return credits, eris.Wrap(rows.Err(), "sqlite: list credits iterate")
}

func (s *SQLiteStore) IncrementSubmissionCount(ctx context.Context, contributorID, day string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO submission_counters (contributor_id, day, count) VALUES (?, ?, 1)
		 ON CONFLICT (contributor_id, day) DO UPDATE SET count = count + 1
		 RETURNING count`,
		contributorID, day,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: increment submission count")
	}
	return count, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*claim.RegistryStats, error) {
	var st claim.RegistryStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN status = 'verified' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END)
		 FROM claims`,
	).Scan(&st.Total, &nullInt{&st.Pending}, &nullInt{&st.Verified}, &nullInt{&st.Rejected})
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count claims by status")
	}
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM credits`).Scan(&st.CreditsIssued)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sum credits")
	}
	return &st, nil
}

// nullInt scans a SUM() result that is NULL on an empty table as zero.
type nullInt struct{ dst *int }

func (n *nullInt) Scan(v any) error {
	if v == nil {
		*n.dst = 0
		return nil
	}
	switch t := v.(type) {
	case int64:
		*n.dst = int(t)
	case float64:
		*n.dst = int(t)
	default:
		return fmt.Errorf("unsupported sum type %T", v)
	}
	return nil
}

// scanSQLiteClaim reads one claim row in claimColumns order from a
// database/sql row.
func scanSQLiteClaim(row interface{ Scan(...any) error }) (*model.Claim, error) {
	var (
		c                         model.Claim
		status                    string
		polygonJSON, evidenceJSON string
		vegJSON                   sql.NullString
		auditJSON                 string
		creditsIssued             sql.NullFloat64
		verifierID, verifierName  sql.NullString
		verifierNotes             sql.NullString
		verifiedAt                sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.ClaimID, &c.SchemaVersion, &c.Fingerprint, &c.FingerprintNonce, &status,
		&c.ContributorID, &c.ContributorName, &c.ContributorEmail,
		&c.Location.Country, &c.Location.State, &c.Location.City,
		&polygonJSON, &c.AreaUnit, &c.Description,
		&evidenceJSON, &vegJSON, &creditsIssued,
		&verifierID, &verifierName, &verifierNotes, &verifiedAt,
		&auditJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = model.ClaimStatus(status)
	if err := json.Unmarshal([]byte(polygonJSON), &c.Location.Polygon); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal polygon")
	}
	if err := json.Unmarshal([]byte(evidenceJSON), &c.Evidence); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal evidence")
	}
	if vegJSON.Valid && vegJSON.String != "" {
		c.VegetationIndex = &model.VegetationIndex{}
		if err := json.Unmarshal([]byte(vegJSON.String), c.VegetationIndex); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal vegetation index")
		}
	}
	if err := json.Unmarshal([]byte(auditJSON), &c.AuditLog); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal audit log")
	}
	if creditsIssued.Valid {
		c.CreditsIssued = &creditsIssued.Float64
	}
	if verifierID.Valid {
		c.VerifierID = verifierID.String
	}
	if verifierName.Valid {
		c.VerifierName = verifierName.String
	}
	if verifierNotes.Valid {
		c.VerifierNotes = verifierNotes.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		c.VerifiedAt = &t
	}
	return &c, nil
}
