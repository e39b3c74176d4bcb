package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	cik          TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL DEFAULT '',
	grade        TEXT NOT NULL DEFAULT '',
	score        REAL NOT NULL DEFAULT 0,
	document     TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	last_updated DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS company_relationships (
	source_cik        TEXT NOT NULL,
	target_cik        TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	target_name       TEXT NOT NULL DEFAULT '',
	confidence        REAL NOT NULL,
	extraction_method TEXT NOT NULL DEFAULT '',
	context_excerpt   TEXT NOT NULL DEFAULT '',
	first_mentioned   DATETIME NOT NULL,
	last_mentioned    DATETIME NOT NULL,
	mention_count     INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (source_cik, target_cik, relationship_type)
);

CREATE TABLE IF NOT EXISTS financial_relationships (
	cik        TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS key_person_interlocks (
	person_name TEXT PRIMARY KEY,
	document    TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
	ticker      TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	cik         TEXT NOT NULL DEFAULT '',
	reason_code TEXT NOT NULL,
	document    TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_ticker ON profiles(ticker);
CREATE INDEX IF NOT EXISTS idx_profiles_grade ON profiles(grade);
CREATE INDEX IF NOT EXISTS idx_profiles_last_updated ON profiles(last_updated);
CREATE INDEX IF NOT EXISTS idx_company_relationships_target ON company_relationships(target_cik);
CREATE INDEX IF NOT EXISTS idx_failures_reason ON failures(reason_code);
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

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (cik, ticker, grade, score, document, generated_at, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (cik) DO UPDATE SET
		   ticker = excluded.ticker,
		   grade = excluded.grade,
		   score = excluded.score,
		   document = excluded.document,
		   generated_at = excluded.generated_at,
		   last_updated = excluded.last_updated`,
		p.CIK, p.CompanyInfo.Ticker, p.Quality.Grade, p.Quality.Score,
		string(doc), p.GeneratedAt.UTC(), p.LastUpdated.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert profile %s", p.CIK)
}

func (s *SQLiteStore) GetProfile(ctx context.Context, cik string) (*model.Profile, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE cik = ?`, cik,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", cik)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal profile %s", cik)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProblematic(ctx context.Context) ([]ProfileRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cik, ticker, grade, score FROM profiles
		 WHERE grade IN ('D', 'F') ORDER BY score ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list problematic")
	}
	defer rows.Close()

	var refs []ProfileRef
	for rows.Next() {
		var r ProfileRef
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.Grade, &r.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile ref")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: list problematic iterate")
}

func (s *SQLiteStore) UpsertEdges(ctx context.Context, edges []model.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin edges tx")
	}
	defer tx.Rollback()

	for _, e := range edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO company_relationships
			 (source_cik, target_cik, relationship_type, target_name, confidence,
			  extraction_method, context_excerpt, first_mentioned, last_mentioned, mention_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (source_cik, target_cik, relationship_type) DO UPDATE SET
			   target_name = excluded.target_name,
			   extraction_method = CASE WHEN excluded.confidence > confidence
			     THEN excluded.extraction_method ELSE extraction_method END,
			   context_excerpt = CASE WHEN excluded.confidence > confidence
			     THEN excluded.context_excerpt ELSE context_excerpt END,
			   confidence = MAX(confidence, excluded.confidence),
			   first_mentioned = MIN(first_mentioned, excluded.first_mentioned),
			   last_mentioned = MAX(last_mentioned, excluded.last_mentioned),
			   mention_count = mention_count + excluded.mention_count`,
			e.SourceCIK, e.TargetCIK, string(e.RelationshipType), e.TargetName, e.Confidence,
			e.ExtractionMethod, e.ContextExcerpt, e.FirstMentioned.UTC(), e.LastMentioned.UTC(),
			e.MentionCount,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert edge %s->%s", e.SourceCIK, e.TargetCIK)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit edges tx")
}

func (s *SQLiteStore) ListEdges(ctx context.Context, sourceCIK string) ([]model.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_cik, target_cik, relationship_type, target_name, confidence,
		        extraction_method, context_excerpt, first_mentioned, last_mentioned, mention_count
		 FROM company_relationships WHERE source_cik = ?
		 ORDER BY confidence DESC, target_cik`,
		sourceCIK,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list edges %s", sourceCIK)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		var relType string
		if err := rows.Scan(&e.SourceCIK, &e.TargetCIK, &relType, &e.TargetName, &e.Confidence,
			&e.ExtractionMethod, &e.ContextExcerpt, &e.FirstMentioned, &e.LastMentioned,
			&e.MentionCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan edge")
		}
		e.RelationshipType = model.RelationshipType(relType)
		edges = append(edges, e)
	}
	return edges, eris.Wrap(rows.Err(), "sqlite: list edges iterate")
}

func (s *SQLiteStore) UpsertFinancialRelationships(ctx context.Context, fr *model.FinancialRelationships) error {
	doc, err := json.Marshal(fr)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal financial relationships")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO financial_relationships (cik, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (cik) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		fr.CIK, string(doc), fr.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert financial relationships %s", fr.CIK)
}

func (s *SQLiteStore) GetFinancialRelationships(ctx context.Context, cik string) (*model.FinancialRelationships, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM financial_relationships WHERE cik = ?`, cik,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get financial relationships %s", cik)
	}

	var fr model.FinancialRelationships
	if err := json.Unmarshal([]byte(doc), &fr); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal financial relationships")
	}
	return &fr, nil
}

func (s *SQLiteStore) UpsertInterlocks(ctx context.Context, interlocks []model.Interlock) error {
	if len(interlocks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin interlocks tx")
	}
	defer tx.Rollback()

	for _, in := range interlocks {
		merged := in
		var doc string
		err := tx.QueryRowContext(ctx,
			`SELECT document FROM key_person_interlocks WHERE person_name = ?`, in.PersonName,
		).Scan(&doc)
		if err != nil && err != sql.ErrNoRows {
			return eris.Wrapf(err, "sqlite: get interlock %s", in.PersonName)
		}
		if err == nil {
			var existing model.Interlock
			if err := json.Unmarshal([]byte(doc), &existing); err != nil {
				return eris.Wrapf(err, "sqlite: unmarshal interlock %s", in.PersonName)
			}
			for _, seat := range in.Seats {
				existing.MergeSeat(seat)
			}
			existing.UpdatedAt = in.UpdatedAt
			merged = existing
		}

		out, err := json.Marshal(merged)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal interlock")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO key_person_interlocks (person_name, document, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (person_name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
			merged.PersonName, string(out), merged.UpdatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert interlock %s", in.PersonName)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit interlocks tx")
}

func (s *SQLiteStore) GetInterlock(ctx context.Context, personName string) (*model.Interlock, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM key_person_interlocks WHERE person_name = ?`, personName,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get interlock %s", personName)
	}

	var in model.Interlock
	if err := json.Unmarshal([]byte(doc), &in); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal interlock")
	}
	return &in, nil
}

func (s *SQLiteStore) GetFailure(ctx context.Context, ticker string) (*model.FailureRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM failures WHERE ticker = ?`, ticker,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get failure %s", ticker)
	}

	var rec model.FailureRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal failure")
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertFailure(ctx context.Context, rec *model.FailureRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO failures (ticker, id, cik, reason_code, document, retry_count, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker) DO UPDATE SET
		   id = excluded.id,
		   cik = excluded.cik,
		   reason_code = excluded.reason_code,
		   document = excluded.document,
		   retry_count = excluded.retry_count,
		   recorded_at = excluded.recorded_at`,
		rec.Ticker, rec.ID, rec.CIK, string(rec.Reason), string(doc), rec.RetryCount,
		rec.Timestamp.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert failure %s", rec.Ticker)
}

func (s *SQLiteStore) DeleteFailure(ctx context.Context, ticker string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM failures WHERE ticker = ?`, ticker)
	return eris.Wrapf(err, "sqlite: delete failure %s", ticker)
}

func (s *SQLiteStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM failures ORDER BY recorded_at ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failures")
	}
	defer rows.Close()

	var recs []model.FailureRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failure")
		}
		var rec model.FailureRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal failure")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list failures iterate")
}
