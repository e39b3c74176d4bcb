// Package batch runs profile aggregation over a queue of tickers with
// bounded ticker-level concurrency, progress reporting, pause/cancel, and
// retry of failed or low-quality tickers.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/edgar-profiler/internal/aggregator"
	"github.com/sells-group/edgar-profiler/internal/config"
	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/store"
	"github.com/sells-group/edgar-profiler/internal/validate"
)

// Profiler produces one profile per ticker. Satisfied by *aggregator.Aggregator.
type Profiler interface {
	ProfileTicker(ctx context.Context, ticker, cik string, onProgress aggregator.ProgressFunc) (*model.Profile, error)
}

// TickerResolver maps a ticker symbol to its CIK and company name.
type TickerResolver interface {
	Resolve(ctx context.Context, ticker string) (cik, name string, err error)
}

// Result summarizes one batch run.
type Result struct {
	BatchID   string                         `json:"batch_id"`
	Total     int                            `json:"total"`
	Succeeded int                            `json:"succeeded"`
	Failed    int                            `json:"failed"`
	Failures  map[string]model.FailureReason `json:"failures,omitempty"`
	Cancelled bool                           `json:"cancelled"`
	Elapsed   time.Duration                  `json:"elapsed"`
}

// ExitCode maps the batch outcome onto the process exit code: 0 for full
// success, 4 for partial success, 5 when the run was cancelled.
func (r *Result) ExitCode() int {
	switch {
	case r.Cancelled:
		return 5
	case r.Failed > 0:
		return 4
	default:
		return 0
	}
}

// Controller processes a queue of tickers through the profiler.
type Controller struct {
	cfg      config.AggregatorConfig
	profiler Profiler
	resolver TickerResolver
	store    store.Store
	tracker  *validate.Tracker

	mu     sync.Mutex
	queue  []string
	paused chan struct{} // non-nil while paused; closed on resume

	onProgress aggregator.ProgressFunc
}

// New creates a batch controller. onProgress may be nil.
func New(cfg config.AggregatorConfig, profiler Profiler, resolver TickerResolver, st store.Store, onProgress aggregator.ProgressFunc) *Controller {
	return &Controller{
		cfg:        cfg,
		profiler:   profiler,
		resolver:   resolver,
		store:      st,
		tracker:    validate.NewTracker(st),
		onProgress: onProgress,
	}
}

// Add queues tickers for the next Run. Duplicates are dropped.
func (c *Controller) Add(tickers ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool, len(c.queue))
	for _, t := range c.queue {
		seen[t] = true
	}
	for _, t := range tickers {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		c.queue = append(c.queue, t)
	}
}

// Pause holds back unstarted tickers; in-flight profiles run to completion.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused == nil {
		c.paused = make(chan struct{})
	}
}

// Resume releases a prior Pause.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused != nil {
		close(c.paused)
		c.paused = nil
	}
}

// waitIfPaused blocks while the controller is paused.
func (c *Controller) waitIfPaused(ctx context.Context) error {
	for {
		c.mu.Lock()
		gate := c.paused
		c.mu.Unlock()
		if gate == nil {
			return ctx.Err()
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) tickerConcurrency() int {
	if c.cfg.TickerConcurrency <= 0 {
		return 4
	}
	return c.cfg.TickerConcurrency
}

func (c *Controller) progressInterval() time.Duration {
	if c.cfg.ProgressIntervalSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.cfg.ProgressIntervalSec) * time.Second
}

// Run drains the queue. Individual ticker failures never stop the batch;
// only context cancellation does. The returned Result is valid even on error.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	tickers := c.queue
	c.queue = nil
	c.mu.Unlock()

	result := &Result{
		BatchID:  uuid.NewString(),
		Total:    len(tickers),
		Failures: make(map[string]model.FailureReason),
	}
	if len(tickers) == 0 {
		return result, nil
	}

	log := zap.L().With(zap.String("batch_id", result.BatchID))
	log.Info("batch: starting",
		zap.Int("tickers", len(tickers)),
		zap.Int("concurrency", c.tickerConcurrency()),
	)
	start := time.Now()

	var resMu sync.Mutex
	done := 0

	progressCtx, stopProgress := context.WithCancel(context.Background())
	defer stopProgress()
	go c.logProgress(progressCtx, log, &resMu, &done, len(tickers))

	g := new(errgroup.Group)
	g.SetLimit(c.tickerConcurrency())
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			reason, err := c.processTicker(ctx, ticker)
			resMu.Lock()
			done++
			if err != nil {
				result.Failed++
				result.Failures[ticker] = reason
			} else {
				result.Succeeded++
			}
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	stopProgress()

	result.Elapsed = time.Since(start)
	result.Cancelled = ctx.Err() != nil

	log.Info("batch: complete",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Bool("cancelled", result.Cancelled),
		zap.Duration("elapsed", result.Elapsed),
	)
	if result.Cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// processTicker resolves and profiles one ticker, recording resolution
// failures that the aggregator never sees.
func (c *Controller) processTicker(ctx context.Context, ticker string) (model.FailureReason, error) {
	if err := c.waitIfPaused(ctx); err != nil {
		return model.FailCancelled, err
	}
	c.emit(model.Progress{Ticker: ticker, Stage: model.StageQueued, Percent: 0})

	cik, _, err := c.resolver.Resolve(ctx, ticker)
	if err != nil {
		reason := model.FailCIKLookup
		if errors.Is(err, ErrUnknownTicker) {
			reason = model.FailCompanyNotFound
		}
		if ctx.Err() != nil {
			reason = model.FailCancelled
		}
		if recErr := c.tracker.Record(ctx, ticker, "", reason, err.Error()); recErr != nil {
			zap.L().Warn("batch: failure record not saved",
				zap.String("ticker", ticker), zap.Error(recErr))
		}
		c.emit(model.Progress{Ticker: ticker, Stage: model.StageFailed, Percent: 100, Message: err.Error(), Reason: reason})
		return reason, err
	}

	_, err = c.profiler.ProfileTicker(ctx, ticker, cik, c.onProgress)
	if err != nil {
		// The aggregator already recorded the failure and emitted the
		// terminal progress event.
		return validate.ClassifyError(err), err
	}
	return "", nil
}

func (c *Controller) emit(p model.Progress) {
	if c.onProgress != nil {
		c.onProgress(p)
	}
}

// logProgress emits a periodic count of completed tickers until cancelled.
func (c *Controller) logProgress(ctx context.Context, log *zap.Logger, mu *sync.Mutex, done *int, total int) {
	t := time.NewTicker(c.progressInterval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			mu.Lock()
			completed := *done
			mu.Unlock()
			log.Info("batch: progress",
				zap.Int("completed", completed),
				zap.Int("total", total),
			)
		}
	}
}

// RetryFailed re-queues every ticker with a failure record and runs the
// batch. Retry counts advance through the tracker when tickers fail again.
func (c *Controller) RetryFailed(ctx context.Context) (*Result, error) {
	records, err := c.store.ListFailures(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(records))
	for _, rec := range records {
		tickers = append(tickers, rec.Ticker)
	}
	zap.L().Info("batch: retrying failed tickers", zap.Int("count", len(tickers)))
	c.Add(tickers...)
	return c.Run(ctx)
}

// RetryProblematic re-queues every persisted profile whose quality grade is
// D or F and runs the batch.
func (c *Controller) RetryProblematic(ctx context.Context) (*Result, error) {
	refs, err := c.store.ListProblematic(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Ticker != "" {
			tickers = append(tickers, ref.Ticker)
		}
	}
	zap.L().Info("batch: retrying problematic profiles", zap.Int("count", len(tickers)))
	c.Add(tickers...)
	return c.Run(ctx)
}
