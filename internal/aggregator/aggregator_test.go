package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/config"
	"github.com/sells-group/edgar-profiler/internal/directory"
	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/relationship"
	"github.com/sells-group/edgar-profiler/internal/store"
)

type fakeSource struct {
	mu     sync.Mutex
	calls  int
	delay  time.Duration
	bundle *model.Bundle
	cached bool
	err    error
	onCall func(ctx context.Context)
}

func (s *fakeSource) Bundle(ctx context.Context, ticker, cik string) (*model.Bundle, bool, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.onCall != nil {
		s.onCall(ctx)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.bundle, s.cached, s.err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeStore is an in-memory Store for aggregator tests.
type fakeStore struct {
	mu               sync.Mutex
	profiles         map[string]*model.Profile
	edges            []model.Edge
	finRels          map[string]*model.FinancialRelationships
	interlocks       map[string]*model.Interlock
	failures         map[string]*model.FailureRecord
	upsertProfileErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:   make(map[string]*model.Profile),
		finRels:    make(map[string]*model.FinancialRelationships),
		interlocks: make(map[string]*model.Interlock),
		failures:   make(map[string]*model.FailureRecord),
	}
}

func (s *fakeStore) UpsertProfile(ctx context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertProfileErr != nil {
		return s.upsertProfileErr
	}
	s.profiles[p.CIK] = p
	return nil
}

func (s *fakeStore) GetProfile(ctx context.Context, cik string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[cik], nil
}

func (s *fakeStore) ListProblematic(ctx context.Context) ([]store.ProfileRef, error) {
	return nil, nil
}

func (s *fakeStore) UpsertEdges(ctx context.Context, edges []model.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edges...)
	return nil
}

func (s *fakeStore) ListEdges(ctx context.Context, sourceCIK string) ([]model.Edge, error) {
	return nil, nil
}

func (s *fakeStore) UpsertFinancialRelationships(ctx context.Context, fr *model.FinancialRelationships) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finRels[fr.CIK] = fr
	return nil
}

func (s *fakeStore) GetFinancialRelationships(ctx context.Context, cik string) (*model.FinancialRelationships, error) {
	return nil, nil
}

func (s *fakeStore) UpsertInterlocks(ctx context.Context, interlocks []model.Interlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range interlocks {
		in := interlocks[i]
		s.interlocks[in.PersonName] = &in
	}
	return nil
}

func (s *fakeStore) GetInterlock(ctx context.Context, personName string) (*model.Interlock, error) {
	return nil, nil
}

func (s *fakeStore) GetFailure(ctx context.Context, ticker string) (*model.FailureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[ticker], nil
}

func (s *fakeStore) UpsertFailure(ctx context.Context, rec *model.FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[rec.Ticker] = rec
	return nil
}

func (s *fakeStore) DeleteFailure(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, ticker)
	return nil
}

func (s *fakeStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	return nil, nil
}

func (s *fakeStore) Ping(ctx context.Context) error    { return nil }
func (s *fakeStore) Migrate(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                      { return nil }

type fakeAnalyzer struct {
	result map[string]any
	err    error
}

func (a *fakeAnalyzer) Enabled() bool { return true }

func (a *fakeAnalyzer) Analyze(ctx context.Context, p *model.Profile) (map[string]any, error) {
	return a.result, a.err
}

func testBundle() *model.Bundle {
	return &model.Bundle{
		CIK:           "0000320193",
		Ticker:        "AAPL",
		CompanyName:   "Apple Inc.",
		LookbackYears: 5,
		FetchedAt:     time.Now().UTC(),
		Filings: []model.FilingRef{
			{CIK: "0000320193", Accession: "0000320193-24-000001", FormType: model.Form10K, FilingDate: "2024-11-01"},
			{CIK: "0000320193", Accession: "0000320193-24-000002", FormType: model.Form8K, FilingDate: "2024-08-15"},
		},
		Documents: make(map[string][]byte),
	}
}

func newTestAggregator(source BundleSource, st store.Store, analyzer Analyzer) *Aggregator {
	extractor := relationship.New(directory.New(nil), relationship.Config{})
	return New(config.AggregatorConfig{}, config.ParsersConfig{}, source, extractor, st, analyzer)
}

func TestAggregator_ProfileTicker_HappyPath(t *testing.T) {
	st := newFakeStore()
	st.failures["AAPL"] = &model.FailureRecord{Ticker: "AAPL", Reason: model.FailTimeout}
	src := &fakeSource{bundle: testBundle()}
	agg := newTestAggregator(src, st, nil)

	var stages []model.TickerStage
	var stageMu sync.Mutex
	p, err := agg.ProfileTicker(context.Background(), "AAPL", "320193", func(pr model.Progress) {
		stageMu.Lock()
		stages = append(stages, pr.Stage)
		stageMu.Unlock()
	})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "0000320193", p.CIK)
	assert.Equal(t, "AAPL", p.CompanyInfo.Ticker)
	assert.True(t, p.FilingMetadata.Available)
	assert.True(t, p.MaterialEvents.Available)
	assert.NotEmpty(t, p.Quality.Grade)

	stored, _ := st.GetProfile(context.Background(), "0000320193")
	assert.Same(t, p, stored)
	// A successful persist clears the prior failure record.
	rec, _ := st.GetFailure(context.Background(), "AAPL")
	assert.Nil(t, rec)

	assert.Contains(t, stages, model.StageFetching)
	assert.Contains(t, stages, model.StageAggregating)
	assert.Contains(t, stages, model.StageValidating)
	assert.Equal(t, model.StagePersisted, stages[len(stages)-1])
}

func TestAggregator_ProfileTicker_NoFilings(t *testing.T) {
	st := newFakeStore()
	src := &fakeSource{err: ErrNoFilings}
	agg := newTestAggregator(src, st, nil)

	var last model.Progress
	p, err := agg.ProfileTicker(context.Background(), "ZZZZ", "999999", func(pr model.Progress) {
		last = pr
	})
	require.Error(t, err)
	assert.Nil(t, p)

	assert.Equal(t, model.StageFailed, last.Stage)
	assert.Equal(t, model.FailNoFilings, last.Reason)
	rec, _ := st.GetFailure(context.Background(), "ZZZZ")
	require.NotNil(t, rec)
	assert.Equal(t, model.FailNoFilings, rec.Reason)
	assert.Empty(t, st.profiles)
}

func TestAggregator_ProfileTicker_AllUnavailable(t *testing.T) {
	st := newFakeStore()
	src := &fakeSource{bundle: &model.Bundle{
		CIK:       "0000000001",
		Ticker:    "EMPT",
		Documents: make(map[string][]byte),
	}}
	agg := newTestAggregator(src, st, nil)

	p, err := agg.ProfileTicker(context.Background(), "EMPT", "1", nil)
	require.Error(t, err)
	assert.Nil(t, p)

	rec, _ := st.GetFailure(context.Background(), "EMPT")
	require.NotNil(t, rec)
	assert.Equal(t, model.FailInsufficientData, rec.Reason)
	assert.Empty(t, st.profiles)
}

func TestAggregator_ProfileTicker_Cancelled(t *testing.T) {
	st := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{
		bundle: testBundle(),
		onCall: func(context.Context) { cancel() },
	}
	agg := newTestAggregator(src, st, nil)

	p, err := agg.ProfileTicker(ctx, "AAPL", "320193", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, p)

	rec, _ := st.GetFailure(context.Background(), "AAPL")
	require.NotNil(t, rec)
	assert.Equal(t, model.FailCancelled, rec.Reason)
	assert.Empty(t, st.profiles)
}

func TestAggregator_ProfileTicker_PersistFailure(t *testing.T) {
	st := newFakeStore()
	st.upsertProfileErr = errors.New("disk full")
	src := &fakeSource{bundle: testBundle()}
	agg := newTestAggregator(src, st, nil)

	_, err := agg.ProfileTicker(context.Background(), "AAPL", "320193", nil)
	require.Error(t, err)

	rec, _ := st.GetFailure(context.Background(), "AAPL")
	require.NotNil(t, rec)
	assert.Equal(t, model.FailProfileSave, rec.Reason)
}

func TestAggregator_ProfileTicker_CoalescesConcurrentRequests(t *testing.T) {
	st := newFakeStore()
	src := &fakeSource{bundle: testBundle(), delay: 50 * time.Millisecond}
	agg := newTestAggregator(src, st, nil)

	var wg sync.WaitGroup
	results := make([]*model.Profile, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := agg.ProfileTicker(context.Background(), "AAPL", "320193", nil)
			require.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, src.callCount())
	assert.Same(t, results[0], results[1])
}

func TestAggregator_AnalyzerFailureIsNonFatal(t *testing.T) {
	st := newFakeStore()
	src := &fakeSource{bundle: testBundle()}
	agg := newTestAggregator(src, st, &fakeAnalyzer{err: errors.New("model unavailable")})

	p, err := agg.ProfileTicker(context.Background(), "AAPL", "320193", nil)
	require.NoError(t, err)
	assert.Nil(t, p.AIAnalysis)
	assert.Len(t, st.profiles, 1)
}

func TestAggregator_AnalyzerResultAttached(t *testing.T) {
	st := newFakeStore()
	src := &fakeSource{bundle: testBundle()}
	agg := newTestAggregator(src, st, &fakeAnalyzer{result: map[string]any{"summary": "stable large-cap"}})

	p, err := agg.ProfileTicker(context.Background(), "AAPL", "320193", nil)
	require.NoError(t, err)
	require.NotNil(t, p.AIAnalysis)
	assert.Equal(t, "stable large-cap", p.AIAnalysis["summary"])
}

func TestBuildInterlocks(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := &model.Profile{
		CIK:         "0000320193",
		CompanyInfo: model.Company{CIK: "0000320193", Ticker: "AAPL"},
		GeneratedAt: now,
	}
	p.KeyPersons.Available = true
	p.KeyPersons.Executives = []model.KeyPerson{
		{Name: "Jane Roe", Title: "Chief Executive Officer", Active: true, LastFiling: "2025-04-15"},
	}
	p.KeyPersons.BoardMembers = []model.KeyPerson{
		{Name: "Jane Roe", Active: true, LastFiling: "2025-04-15"},
		{Name: "John Smith", Active: false, LastFiling: "2023-01-10"},
	}

	interlocks := buildInterlocks(p, now)
	require.Len(t, interlocks, 2)

	byName := make(map[string]model.Interlock, len(interlocks))
	for _, in := range interlocks {
		byName[in.PersonName] = in
	}

	jane := byName["Jane Roe"]
	// Same person, two distinct roles at one company: two seats.
	require.Len(t, jane.Seats, 2)
	roles := []string{jane.Seats[0].Role, jane.Seats[1].Role}
	assert.Contains(t, roles, "Chief Executive Officer")
	assert.Contains(t, roles, "Director")
	assert.Equal(t, "AAPL", jane.Seats[0].Ticker)

	john := byName["John Smith"]
	require.Len(t, john.Seats, 1)
	assert.False(t, john.Seats[0].Active)
	assert.Equal(t, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC), john.Seats[0].LastSeen)
}

func TestBuildInterlocks_UnavailableKeyPersons(t *testing.T) {
	p := &model.Profile{CIK: "0000320193"}
	assert.Nil(t, buildInterlocks(p, time.Now()))
}
