// Package store persists claims and credits. Two implementations are
// provided: PostgresStore for shared deployments and SQLiteStore for
// local single-node use. Both satisfy claim.Store.
package store

import (
	"context"

	"github.com/air-restore/restore-cli/internal/claim"
)

// Config selects and configures the database backend.
type Config struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Store is the full persistence surface: the claim service contract plus
// lifecycle management.
type Store interface {
	claim.Store

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// listDefaults normalizes pagination inputs: page is 1-based, limit is
// clamped to [1, maxPageLimit].
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePagination(f *claim.Filter) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
}

// sortColumns whitelists sortable fields so caller input never reaches SQL
// unchecked.
var sortColumns = map[string]string{
	"":           "created_at",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"claim_id":   "claim_id",
	"status":     "status",
	"area_unit":  "area_unit",
}

func sortClause(f claim.Filter) (string, bool) {
	col, ok := sortColumns[f.SortField]
	if !ok {
		return "", false
	}
	dir := "DESC"
	switch f.SortOrder {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return "", false
	}
	// Secondary key keeps pagination stable under concurrent writes.
	return col + " " + dir + ", id " + dir, true
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
