package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/edgar-profiler/internal/db"
	"github.com/sells-group/edgar-profiler/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_profile":    `SELECT document FROM profiles WHERE cik = $1`,
	"get_failure":    `SELECT document FROM failures WHERE ticker = $1`,
	"delete_failure": `DELETE FROM failures WHERE ticker = $1`,
	"get_fin_rel":    `SELECT document FROM financial_relationships WHERE cik = $1`,
	"get_interlock":  `SELECT document FROM key_person_interlocks WHERE person_name = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
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

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	cik          TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL DEFAULT '',
	grade        TEXT NOT NULL DEFAULT '',
	score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	document     JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS company_relationships (
	source_cik        TEXT NOT NULL,
	target_cik        TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	target_name       TEXT NOT NULL DEFAULT '',
	confidence        DOUBLE PRECISION NOT NULL,
	extraction_method TEXT NOT NULL DEFAULT '',
	context_excerpt   TEXT NOT NULL DEFAULT '',
	first_mentioned   TIMESTAMPTZ NOT NULL,
	last_mentioned    TIMESTAMPTZ NOT NULL,
	mention_count     INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (source_cik, target_cik, relationship_type)
);

CREATE TABLE IF NOT EXISTS financial_relationships (
	cik        TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS key_person_interlocks (
	person_name TEXT PRIMARY KEY,
	document    JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
	ticker      TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	cik         TEXT NOT NULL DEFAULT '',
	reason_code TEXT NOT NULL,
	document    JSONB NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_ticker ON profiles(ticker);
CREATE INDEX IF NOT EXISTS idx_profiles_grade ON profiles(grade);
CREATE INDEX IF NOT EXISTS idx_profiles_last_updated ON profiles(last_updated);
CREATE INDEX IF NOT EXISTS idx_company_relationships_target ON company_relationships(target_cik);
CREATE INDEX IF NOT EXISTS idx_failures_reason ON failures(reason_code);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (cik, ticker, grade, score, document, generated_at, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cik) DO UPDATE SET
		   ticker = EXCLUDED.ticker,
		   grade = EXCLUDED.grade,
		   score = EXCLUDED.score,
		   document = EXCLUDED.document,
		   generated_at = EXCLUDED.generated_at,
		   last_updated = EXCLUDED.last_updated`,
		p.CIK, p.CompanyInfo.Ticker, p.Quality.Grade, p.Quality.Score,
		doc, p.GeneratedAt.UTC(), p.LastUpdated.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert profile %s", p.CIK)
}

func (s *PostgresStore) GetProfile(ctx context.Context, cik string) (*model.Profile, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM profiles WHERE cik = $1`, cik,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", cik)
	}

	var p model.Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal profile %s", cik)
	}
	return &p, nil
}

func (s *PostgresStore) ListProblematic(ctx context.Context) ([]ProfileRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cik, ticker, grade, score FROM profiles
		 WHERE grade IN ('D', 'F') ORDER BY score ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list problematic")
	}
	defer rows.Close()

	var refs []ProfileRef
	for rows.Next() {
		var r ProfileRef
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.Grade, &r.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile ref")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "postgres: list problematic iterate")
}

// edgeColumns is the column order used for the bulk edge upsert.
var edgeColumns = []string{
	"source_cik", "target_cik", "relationship_type", "target_name", "confidence",
	"extraction_method", "context_excerpt", "first_mentioned", "last_mentioned", "mention_count",
}

func (s *PostgresStore) UpsertEdges(ctx context.Context, edges []model.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []any{
			e.SourceCIK, e.TargetCIK, string(e.RelationshipType), e.TargetName, e.Confidence,
			e.ExtractionMethod, e.ContextExcerpt, e.FirstMentioned.UTC(), e.LastMentioned.UTC(),
			e.MentionCount,
		})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "company_relationships",
		Columns:      edgeColumns,
		ConflictKeys: []string{"source_cik", "target_cik", "relationship_type"},
		UpdateCols:   []string{"target_name"},
		UpdateExprs: []string{
			`"extraction_method" = CASE WHEN EXCLUDED.confidence > company_relationships.confidence THEN EXCLUDED.extraction_method ELSE company_relationships.extraction_method END`,
			`"context_excerpt" = CASE WHEN EXCLUDED.confidence > company_relationships.confidence THEN EXCLUDED.context_excerpt ELSE company_relationships.context_excerpt END`,
			`"confidence" = GREATEST(company_relationships.confidence, EXCLUDED.confidence)`,
			`"first_mentioned" = LEAST(company_relationships.first_mentioned, EXCLUDED.first_mentioned)`,
			`"last_mentioned" = GREATEST(company_relationships.last_mentioned, EXCLUDED.last_mentioned)`,
			`"mention_count" = company_relationships.mention_count + EXCLUDED.mention_count`,
		},
	}, rows)
	return eris.Wrap(err, "postgres: upsert edges")
}

func (s *PostgresStore) ListEdges(ctx context.Context, sourceCIK string) ([]model.Edge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source_cik, target_cik, relationship_type, target_name, confidence,
		        extraction_method, context_excerpt, first_mentioned, last_mentioned, mention_count
		 FROM company_relationships WHERE source_cik = $1
		 ORDER BY confidence DESC, target_cik`,
		sourceCIK,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list edges %s", sourceCIK)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		var relType string
		if err := rows.Scan(&e.SourceCIK, &e.TargetCIK, &relType, &e.TargetName, &e.Confidence,
			&e.ExtractionMethod, &e.ContextExcerpt, &e.FirstMentioned, &e.LastMentioned,
			&e.MentionCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan edge")
		}
		e.RelationshipType = model.RelationshipType(relType)
		edges = append(edges, e)
	}
	return edges, eris.Wrap(rows.Err(), "postgres: list edges iterate")
}

func (s *PostgresStore) UpsertFinancialRelationships(ctx context.Context, fr *model.FinancialRelationships) error {
	doc, err := json.Marshal(fr)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal financial relationships")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO financial_relationships (cik, document, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (cik) DO UPDATE SET document = $2, updated_at = $3`,
		fr.CIK, doc, fr.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert financial relationships %s", fr.CIK)
}

func (s *PostgresStore) GetFinancialRelationships(ctx context.Context, cik string) (*model.FinancialRelationships, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM financial_relationships WHERE cik = $1`, cik,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get financial relationships %s", cik)
	}

	var fr model.FinancialRelationships
	if err := json.Unmarshal(doc, &fr); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal financial relationships")
	}
	return &fr, nil
}

func (s *PostgresStore) UpsertInterlocks(ctx context.Context, interlocks []model.Interlock) error {
	for _, in := range interlocks {
		merged := in
		existing, err := s.GetInterlock(ctx, in.PersonName)
		if err != nil {
			return err
		}
		if existing != nil {
			for _, seat := range in.Seats {
				existing.MergeSeat(seat)
			}
			existing.UpdatedAt = in.UpdatedAt
			merged = *existing
		}

		doc, err := json.Marshal(merged)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal interlock")
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO key_person_interlocks (person_name, document, updated_at) VALUES ($1, $2, $3)
			 ON CONFLICT (person_name) DO UPDATE SET document = $2, updated_at = $3`,
			merged.PersonName, doc, merged.UpdatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert interlock %s", in.PersonName)
		}
	}
	return nil
}

func (s *PostgresStore) GetInterlock(ctx context.Context, personName string) (*model.Interlock, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM key_person_interlocks WHERE person_name = $1`, personName,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get interlock %s", personName)
	}

	var in model.Interlock
	if err := json.Unmarshal(doc, &in); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal interlock")
	}
	return &in, nil
}

func (s *PostgresStore) GetFailure(ctx context.Context, ticker string) (*model.FailureRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM failures WHERE ticker = $1`, ticker,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get failure %s", ticker)
	}

	var rec model.FailureRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal failure")
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertFailure(ctx context.Context, rec *model.FailureRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal failure")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO failures (ticker, id, cik, reason_code, document, retry_count, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (ticker) DO UPDATE SET
		   id = EXCLUDED.id,
		   cik = EXCLUDED.cik,
		   reason_code = EXCLUDED.reason_code,
		   document = EXCLUDED.document,
		   retry_count = EXCLUDED.retry_count,
		   recorded_at = EXCLUDED.recorded_at`,
		rec.Ticker, rec.ID, rec.CIK, string(rec.Reason), doc, rec.RetryCount, rec.Timestamp.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert failure %s", rec.Ticker)
}

func (s *PostgresStore) DeleteFailure(ctx context.Context, ticker string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM failures WHERE ticker = $1`, ticker)
	return eris.Wrapf(err, "postgres: delete failure %s", ticker)
}

func (s *PostgresStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document FROM failures ORDER BY recorded_at ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failures")
	}
	defer rows.Close()

	var recs []model.FailureRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failure")
		}
		var rec model.FailureRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal failure")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list failures iterate")
}
