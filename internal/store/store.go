// Package store persists unified profiles and their secondary collections:
// graph edges, financial relationships, key-person interlocks, and failure
// records. Two implementations exist, SQLite for single-machine use and
// Postgres for shared deployments.
package store

import (
	"context"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// ProfileRef is a lightweight row identifying a stored profile and its
// quality verdict, used for retry selection.
type ProfileRef struct {
	CIK    string  `json:"cik"`
	Ticker string  `json:"ticker"`
	Grade  string  `json:"grade"`
	Score  float64 `json:"score"`
}

// Store defines the persistence interface for the profile engine. Lookup
// methods return (nil, nil) when no document exists; absence is not an
// error on the aggregation path.
type Store interface {
	// Profiles, upserted by cik.
	UpsertProfile(ctx context.Context, p *model.Profile) error
	GetProfile(ctx context.Context, cik string) (*model.Profile, error)
	ListProblematic(ctx context.Context) ([]ProfileRef, error)

	// Graph edges, upserted by (source_cik, target_cik, relationship_type).
	// Conflicts keep the maximum confidence, sum mention counts, and extend
	// the mention window.
	UpsertEdges(ctx context.Context, edges []model.Edge) error
	ListEdges(ctx context.Context, sourceCIK string) ([]model.Edge, error)

	// Financial relationships, upserted by cik.
	UpsertFinancialRelationships(ctx context.Context, fr *model.FinancialRelationships) error
	GetFinancialRelationships(ctx context.Context, cik string) (*model.FinancialRelationships, error)

	// Key-person interlocks, upserted by canonical person name; seats merge
	// on (cik, role).
	UpsertInterlocks(ctx context.Context, interlocks []model.Interlock) error
	GetInterlock(ctx context.Context, personName string) (*model.Interlock, error)

	// Failure records, one per ticker.
	GetFailure(ctx context.Context, ticker string) (*model.FailureRecord, error)
	UpsertFailure(ctx context.Context, rec *model.FailureRecord) error
	DeleteFailure(ctx context.Context, ticker string) error
	ListFailures(ctx context.Context) ([]model.FailureRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
