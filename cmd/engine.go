package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/aggregator"
	"github.com/sells-group/edgar-profiler/internal/ai"
	"github.com/sells-group/edgar-profiler/internal/batch"
	"github.com/sells-group/edgar-profiler/internal/cache"
	"github.com/sells-group/edgar-profiler/internal/directory"
	"github.com/sells-group/edgar-profiler/internal/edgar"
	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/relationship"
	"github.com/sells-group/edgar-profiler/internal/store"
)

// initStore opens the configured profile store: Postgres when the URI is a
// postgres connection string, SQLite otherwise. Unreachable stores are a
// startup failure with exit code 3.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	uri := cfg.Store.URI
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		st, err = store.NewPostgres(ctx, uri, nil)
	case uri == "":
		st, err = store.NewSQLite(cfg.Store.Database + ".db")
	default:
		st, err = store.NewSQLite(uri)
	}
	if err != nil {
		return nil, exitWith(3, eris.Wrap(err, "open store"))
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, exitWith(3, eris.Wrap(err, "store unreachable"))
	}
	return st, nil
}

// initEDGAR builds the rate-limited EDGAR client from config.
func initEDGAR() (*edgar.Client, error) {
	client, err := edgar.New(edgar.Options{
		Contact:       cfg.EDGAR.Contact,
		RatePerSecond: cfg.EDGAR.RatePerSecond,
		MaxRetries:    cfg.EDGAR.MaxRetries,
	})
	if err != nil {
		return nil, exitWith(2, err)
	}
	return client, nil
}

// initCache opens the filing cache, or returns nil when caching is disabled.
func initCache() (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	c, err := cache.Open(cfg.Cache.Dir, cfg.Cache.MaxBytes)
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}
	return c, nil
}

// initDirectory loads the known-companies directory when configured,
// falling back to the built-in large-cap directory.
func initDirectory() *directory.Directory {
	path := cfg.Relationship.DirectoryPath
	if path == "" {
		return directory.Default()
	}
	dir, err := directory.Load(path)
	if err != nil {
		zap.L().Warn("company directory not loaded, using built-in directory",
			zap.String("path", path), zap.Error(err))
		return directory.Default()
	}
	zap.L().Info("company directory loaded", zap.Int("companies", dir.Len()))
	return dir
}

// engine bundles the wired processing stack behind the CLI commands.
type engine struct {
	store      store.Store
	client     *edgar.Client
	aggregator *aggregator.Aggregator
	resolver   *batch.Resolver
	controller *batch.Controller
}

func (e *engine) Close() {
	e.store.Close()
}

// initEngine wires the full stack: store, EDGAR client, cache, directory,
// extractor, aggregator, and batch controller.
func initEngine(ctx context.Context) (*engine, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, exitWith(3, eris.Wrap(err, "migrate store"))
	}

	client, err := initEDGAR()
	if err != nil {
		st.Close()
		return nil, err
	}

	filingCache, err := initCache()
	if err != nil {
		st.Close()
		return nil, err
	}

	dir := initDirectory()
	extractor := relationship.New(dir, relationship.Config{
		FuzzyThreshold: cfg.Relationship.FuzzyThreshold,
		MinConfidence:  cfg.Relationship.MinConfidence,
	})

	fetcher := aggregator.NewFetcher(client, filingCache, cfg.Aggregator.LookbackYears, cfg.Parsers)
	agg := aggregator.New(cfg.Aggregator, cfg.Parsers, fetcher, extractor, st, ai.New(cfg.AI))
	resolver := batch.NewResolver(client, dir)
	controller := batch.New(cfg.Aggregator, agg, resolver, st, logProgress)

	return &engine{
		store:      st,
		client:     client,
		aggregator: agg,
		resolver:   resolver,
		controller: controller,
	}, nil
}

// logProgress surfaces per-ticker stage transitions on the log.
func logProgress(p model.Progress) {
	fields := []zap.Field{
		zap.String("ticker", p.Ticker),
		zap.String("stage", string(p.Stage)),
		zap.Float64("percent", p.Percent),
	}
	if p.Stage == model.StageFailed {
		fields = append(fields,
			zap.String("reason", string(p.Reason)),
			zap.String("message", p.Message),
		)
		zap.L().Warn("ticker failed", fields...)
		return
	}
	zap.L().Info("ticker progress", fields...)
}

// batchExit maps a batch result onto the CLI exit contract.
func batchExit(res *batch.Result, err error) error {
	switch res.ExitCode() {
	case 0:
		return nil
	case 5:
		return exitWith(5, eris.New("batch cancelled"))
	default:
		if err == nil {
			err = eris.Errorf("%d of %d tickers failed", res.Failed, res.Total)
		}
		return exitWith(res.ExitCode(), err)
	}
}
