package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetProfile_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT document FROM profiles WHERE cik = \$1`).
		WithArgs("0000000001").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetProfile(context.Background(), "0000000001")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	doc, err := json.Marshal(&model.Profile{
		CIK:         "0000320193",
		CompanyInfo: model.Company{CIK: "0000320193", Ticker: "AAPL"},
		Quality:     model.Quality{Grade: "A", Score: 90},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document FROM profiles WHERE cik = \$1`).
		WithArgs("0000320193").
		WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(doc))

	got, err := s.GetProfile(context.Background(), "0000320193")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.CompanyInfo.Ticker)
	assert.Equal(t, "A", got.Quality.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO profiles .* ON CONFLICT \(cik\) DO UPDATE`).
		WithArgs("0000320193", "AAPL", "A", 90.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p := testProfile("0000320193", "AAPL", "A", 90)
	require.NoError(t, s.UpsertProfile(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProblematic(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT cik, ticker, grade, score FROM profiles`).
		WillReturnRows(pgxmock.NewRows([]string{"cik", "ticker", "grade", "score"}).
			AddRow("0000000003", "CCC", "F", 30.0).
			AddRow("0000000002", "BBB", "D", 55.0))

	refs, err := s.ListProblematic(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "CCC", refs[0].Ticker)
	assert.Equal(t, "D", refs[1].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertEdges_BulkPath(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_company_relationships"}, edgeColumns).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "company_relationships" .* ON CONFLICT`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	edges := []model.Edge{testEdge(0.90, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, s.UpsertEdges(context.Background(), edges))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertEdges_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.UpsertEdges(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEdges(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM company_relationships WHERE source_cik = \$1`).
		WithArgs("0000320193").
		WillReturnRows(pgxmock.NewRows([]string{
			"source_cik", "target_cik", "relationship_type", "target_name", "confidence",
			"extraction_method", "context_excerpt", "first_mentioned", "last_mentioned", "mention_count",
		}).AddRow("0000320193", "0001046179", "supplier", "TSMC", 0.92,
			"context_pattern", "relies on TSMC", t1, t1, 2))

	edges, err := s.ListEdges(context.Background(), "0000320193")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.RelSupplier, edges[0].RelationshipType)
	assert.Equal(t, 2, edges[0].MentionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFailure_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT document FROM failures WHERE ticker = \$1`).
		WithArgs("ZZZZ").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetFailure(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO failures .* ON CONFLICT \(ticker\) DO UPDATE`).
		WithArgs("AAPL", "f-1", "0000320193", "TIMEOUT_ERROR",
			pgxmock.AnyArg(), 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := &model.FailureRecord{
		ID:        "f-1",
		Ticker:    "AAPL",
		CIK:       "0000320193",
		Reason:    model.FailTimeout,
		Message:   "task timeout",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertFailure(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertInterlocks_MergesExisting(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing, err := json.Marshal(&model.Interlock{
		PersonName: "Jane Roe",
		Seats: []model.InterlockSeat{
			{CIK: "0000320193", Role: "Director", Active: true, LastSeen: t1},
		},
		UpdatedAt: t1,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document FROM key_person_interlocks WHERE person_name = \$1`).
		WithArgs("Jane Roe").
		WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(existing))
	mock.ExpectExec(`INSERT INTO key_person_interlocks .* ON CONFLICT \(person_name\) DO UPDATE`).
		WithArgs("Jane Roe", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	t2 := t1.AddDate(0, 5, 0)
	err = s.UpsertInterlocks(context.Background(), []model.Interlock{{
		PersonName: "Jane Roe",
		Seats: []model.InterlockSeat{
			{CIK: "0000789019", Role: "Chief Executive Officer", Active: true, LastSeen: t2},
		},
		UpdatedAt: t2,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinancialRelationships_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO financial_relationships .* ON CONFLICT \(cik\) DO UPDATE`).
		WithArgs("0000320193", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	fr := &model.FinancialRelationships{CIK: "0000320193", UpdatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertFinancialRelationships(context.Background(), fr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
