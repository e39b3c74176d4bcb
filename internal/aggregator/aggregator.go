// Package aggregator orchestrates per-company profile assembly: bundle
// acquisition, parallel extractor tasks over a bounded worker pool, derived
// metrics, validation, and persistence.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/edgar-profiler/internal/config"
	"github.com/sells-group/edgar-profiler/internal/metrics"
	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/parsers"
	"github.com/sells-group/edgar-profiler/internal/relationship"
	"github.com/sells-group/edgar-profiler/internal/store"
	"github.com/sells-group/edgar-profiler/internal/validate"
)

// Analyzer is the optional AI profile analyzer. A nil Analyzer (or one that
// reports disabled) leaves the ai_analysis key absent from profiles.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, p *model.Profile) (map[string]any, error)
}

// ProgressFunc receives per-ticker stage transitions.
type ProgressFunc func(model.Progress)

// Aggregator builds unified profiles. Concurrent requests for the same cik
// coalesce onto one aggregation; distinct ciks proceed independently.
type Aggregator struct {
	cfg       config.AggregatorConfig
	parserCfg config.ParsersConfig
	source    BundleSource
	registry  *parsers.Registry
	extractor *relationship.Extractor
	store     store.Store
	tracker   *validate.Tracker
	analyzer  Analyzer

	mu       sync.Mutex
	inflight map[string]*inflight
}

type inflight struct {
	done    chan struct{}
	profile *model.Profile
	err     error
}

// New wires an aggregator. analyzer may be nil.
func New(
	cfg config.AggregatorConfig,
	parserCfg config.ParsersConfig,
	source BundleSource,
	extractor *relationship.Extractor,
	st store.Store,
	analyzer Analyzer,
) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		parserCfg: parserCfg,
		source:    source,
		registry:  parsers.NewRegistry(),
		extractor: extractor,
		store:     st,
		tracker:   validate.NewTracker(st),
		analyzer:  analyzer,
		inflight:  make(map[string]*inflight),
	}
}

func (a *Aggregator) taskTimeout() time.Duration {
	if a.cfg.TaskTimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.cfg.TaskTimeoutSec) * time.Second
}

func (a *Aggregator) taskWorkers() int {
	if a.cfg.TaskWorkers <= 0 {
		return 8
	}
	return a.cfg.TaskWorkers
}

// ProfileTicker aggregates one company. A second call for the same cik while
// the first is running waits for and shares the first result instead of
// fetching twice.
func (a *Aggregator) ProfileTicker(ctx context.Context, ticker, cik string, onProgress ProgressFunc) (*model.Profile, error) {
	padded := model.PadCIK(cik)

	a.mu.Lock()
	if fl, ok := a.inflight[padded]; ok {
		a.mu.Unlock()
		select {
		case <-fl.done:
			return fl.profile, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &inflight{done: make(chan struct{})}
	a.inflight[padded] = fl
	a.mu.Unlock()

	fl.profile, fl.err = a.aggregate(ctx, ticker, padded, onProgress)

	a.mu.Lock()
	delete(a.inflight, padded)
	a.mu.Unlock()
	close(fl.done)

	return fl.profile, fl.err
}

func (a *Aggregator) aggregate(ctx context.Context, ticker, cik string, onProgress ProgressFunc) (*model.Profile, error) {
	log := zap.L().With(zap.String("ticker", ticker), zap.String("cik", cik))
	emit := func(stage model.TickerStage, pct float64, msg string, reason model.FailureReason) {
		if onProgress != nil {
			onProgress(model.Progress{Ticker: ticker, Stage: stage, Percent: pct, Message: msg, Reason: reason})
		}
	}
	fail := func(reason model.FailureReason, err error) (*model.Profile, error) {
		if recErr := a.tracker.Record(ctx, ticker, cik, reason, err.Error()); recErr != nil {
			log.Warn("aggregate: failure record not saved", zap.Error(recErr))
		}
		emit(model.StageFailed, 100, err.Error(), reason)
		return nil, err
	}

	emit(model.StageFetching, 10, "", "")
	bundle, fromCache, err := a.source.Bundle(ctx, ticker, cik)
	if err != nil {
		if err == ErrNoFilings {
			return fail(model.FailNoFilings, err)
		}
		return fail(validate.ClassifyError(err), err)
	}
	if !fromCache {
		emit(model.StageCacheStored, 25, "", "")
	}
	log.Info("aggregate: bundle ready",
		zap.Bool("from_cache", fromCache),
		zap.Int("filings", len(bundle.Filings)),
		zap.Int64("bytes", bundle.TotalSize()),
	)

	emit(model.StageAggregating, 40, "", "")
	now := time.Now().UTC()
	p := &model.Profile{
		CIK: cik,
		CompanyInfo: model.Company{
			CIK:    cik,
			Ticker: bundle.Ticker,
			Name:   bundle.CompanyName,
		},
		GeneratedAt: now,
	}

	var profileMu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(a.taskWorkers())
	for _, t := range a.firstWave(bundle, now) {
		t := t
		g.Go(func() error {
			a.runTask(ctx, t, p, &profileMu, log)
			return nil
		})
	}
	_ = g.Wait()

	// Key persons read the insider, governance, and institutional partials,
	// so they aggregate only after the first wave settles.
	a.runTask(ctx, a.keyPersonsTask(now), p, &profileMu, log)

	if ctx.Err() != nil {
		for _, env := range p.ExtractorPartials() {
			if !env.Available && !env.Cancelled {
				env.Cancelled = true
			}
		}
		return fail(model.FailCancelled, ctx.Err())
	}

	a.deriveMetrics(p, now)

	if !anyAvailable(p) {
		return fail(model.FailInsufficientData, eris.New("aggregate: all extractors unavailable"))
	}

	a.runAnalyzer(ctx, p, log)

	emit(model.StageValidating, 80, "", "")
	p.LastUpdated = time.Now().UTC()
	p.Quality = validate.Validate(p, p.LastUpdated)
	log.Info("aggregate: validated",
		zap.Float64("score", p.Quality.Score),
		zap.String("grade", p.Quality.Grade),
		zap.Int("issues", len(p.Quality.Issues)),
	)

	if err := a.persist(ctx, p, now); err != nil {
		return fail(model.FailProfileSave, err)
	}
	if err := a.tracker.Clear(ctx, ticker); err != nil {
		log.Warn("aggregate: failure record not cleared", zap.Error(err))
	}
	emit(model.StagePersisted, 100, "", "")
	return p, nil
}

// task is one extractor unit: run produces an apply closure that merges the
// result into the profile under the profile mutex.
type task struct {
	key string
	run func(ctx context.Context) func(p *model.Profile)
}

// runTask enforces the per-task timeout. A task that misses its deadline is
// abandoned; its key stays unavailable and never touches the profile.
func (a *Aggregator) runTask(ctx context.Context, t task, p *model.Profile, mu *sync.Mutex, log *zap.Logger) {
	taskCtx, cancel := context.WithTimeout(ctx, a.taskTimeout())
	defer cancel()

	start := time.Now()
	resCh := make(chan func(*model.Profile), 1)
	go func() { resCh <- t.run(taskCtx) }()

	var apply func(*model.Profile)
	select {
	case apply = <-resCh:
	case <-taskCtx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	if apply != nil {
		apply(p)
	}
	env := p.ExtractorPartials()[t.key]
	switch {
	case apply == nil && ctx.Err() != nil:
		env.Available = false
		env.Cancelled = true
	case apply == nil:
		env.Available = false
		env.Error = fmt.Sprintf("task timed out after %s", a.taskTimeout())
		log.Warn("aggregate: task timed out", zap.String("task", t.key))
	default:
		log.Debug("aggregate: task complete",
			zap.String("task", t.key),
			zap.Bool("available", env.Available),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// deriveMetrics computes ratios, growth, health, summaries, and volatility
// once the financial time series is in place.
func (a *Aggregator) deriveMetrics(p *model.Profile, now time.Time) {
	if !p.FinancialTimeSeries.Available || len(p.FinancialTimeSeries.Series) == 0 {
		return
	}
	series := p.FinancialTimeSeries.Series
	p.LatestFinancials = metrics.LatestFinancials(series, now)
	p.FinancialRatios = metrics.ComputeRatios(p.LatestFinancials)
	p.GrowthRates = metrics.GrowthRates(series)
	p.HealthIndicators = metrics.HealthScore(p.FinancialRatios, p.GrowthRates)
	p.StatisticalSummary = metrics.Summaries(series)
	p.VolatilityMetrics = metrics.Volatility(series, p.GrowthRates)
}

// runAnalyzer invokes the optional AI analyzer under the task timeout.
// Analyzer failure degrades to a log line; the profile persists without the
// ai_analysis key.
func (a *Aggregator) runAnalyzer(ctx context.Context, p *model.Profile, log *zap.Logger) {
	if a.analyzer == nil || !a.analyzer.Enabled() {
		return
	}
	aiCtx, cancel := context.WithTimeout(ctx, a.taskTimeout())
	defer cancel()

	result, err := a.analyzer.Analyze(aiCtx, p)
	if err != nil {
		log.Warn("aggregate: ai analysis failed",
			zap.String("reason", string(model.FailAIAnalysis)),
			zap.Error(err),
		)
		return
	}
	p.AIAnalysis = result
}

func (a *Aggregator) persist(ctx context.Context, p *model.Profile, now time.Time) error {
	if err := a.store.UpsertProfile(ctx, p); err != nil {
		return err
	}
	if len(p.Relationships.Edges) > 0 {
		if err := a.store.UpsertEdges(ctx, p.Relationships.Edges); err != nil {
			return err
		}
	}
	if p.Relationships.Financial != nil {
		if err := a.store.UpsertFinancialRelationships(ctx, p.Relationships.Financial); err != nil {
			return err
		}
	}
	if interlocks := buildInterlocks(p, now); len(interlocks) > 0 {
		if err := a.store.UpsertInterlocks(ctx, interlocks); err != nil {
			return err
		}
	}
	return nil
}

func anyAvailable(p *model.Profile) bool {
	for _, env := range p.ExtractorPartials() {
		if env.Available {
			return true
		}
	}
	return false
}
