package batch

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/directory"
	"github.com/sells-group/edgar-profiler/internal/edgar"
	"github.com/sells-group/edgar-profiler/internal/model"
)

// ErrUnknownTicker means the ticker appears in neither the local directory
// nor the SEC ticker index.
var ErrUnknownTicker = errors.New("batch: unknown ticker")

// tickerIndex is the minimal interface the resolver needs from the EDGAR
// client.
type tickerIndex interface {
	GetCompanyTickers(ctx context.Context) ([]edgar.TickerEntry, error)
}

// Resolver maps tickers to CIKs: local company directory first, then the
// SEC ticker index, fetched once and held for the life of the process.
type Resolver struct {
	client tickerIndex
	dir    *directory.Directory

	mu       sync.Mutex
	byTicker map[string]edgar.TickerEntry
}

// NewResolver wires a resolver. dir may be nil.
func NewResolver(client tickerIndex, dir *directory.Directory) *Resolver {
	return &Resolver{client: client, dir: dir}
}

// Resolve returns the zero-padded CIK and company name for a ticker.
// ErrUnknownTicker is terminal; an index fetch failure is not.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (cik, name string, err error) {
	upper := strings.ToUpper(strings.TrimSpace(ticker))
	if upper == "" {
		return "", "", ErrUnknownTicker
	}

	if r.dir != nil {
		if entry, ok := r.dir.ByTicker(upper); ok {
			return entry.CIK, entry.Name, nil
		}
	}

	idx, err := r.index(ctx)
	if err != nil {
		return "", "", eris.Wrap(err, "batch: load ticker index")
	}
	entry, ok := idx[upper]
	if !ok {
		return "", "", ErrUnknownTicker
	}
	return model.PadCIK(strconv.Itoa(entry.CIK)), entry.Name, nil
}

func (r *Resolver) index(ctx context.Context) (map[string]edgar.TickerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byTicker != nil {
		return r.byTicker, nil
	}

	entries, err := r.client.GetCompanyTickers(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]edgar.TickerEntry, len(entries))
	for _, e := range entries {
		key := strings.ToUpper(e.Ticker)
		if _, dup := idx[key]; !dup {
			idx[key] = e
		}
	}
	r.byTicker = idx
	zap.L().Info("batch: ticker index loaded", zap.Int("tickers", len(idx)))
	return idx, nil
}
