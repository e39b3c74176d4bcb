package aggregator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/cache"
	"github.com/sells-group/edgar-profiler/internal/config"
	"github.com/sells-group/edgar-profiler/internal/edgar"
	"github.com/sells-group/edgar-profiler/internal/model"
)

// ErrNoFilings means the company has no filings inside the lookback window.
var ErrNoFilings = errors.New("aggregator: no filings in lookback window")

// BundleSource produces the filing bundle for one company. The boolean
// reports whether the bundle came from cache.
type BundleSource interface {
	Bundle(ctx context.Context, ticker, cik string) (*model.Bundle, bool, error)
}

// Fetcher is the production BundleSource: cache first, EDGAR on miss, with
// per-form document caps bounding how much filing detail is downloaded.
type Fetcher struct {
	client   *edgar.Client
	cache    *cache.Cache // nil when caching is disabled
	lookback int
	caps     config.ParsersConfig
}

// NewFetcher wires a fetcher over the EDGAR client and optional cache.
func NewFetcher(client *edgar.Client, c *cache.Cache, lookbackYears int, caps config.ParsersConfig) *Fetcher {
	if lookbackYears <= 0 {
		lookbackYears = 5
	}
	return &Fetcher{client: client, cache: c, lookback: lookbackYears, caps: caps}
}

func (f *Fetcher) Bundle(ctx context.Context, ticker, cik string) (*model.Bundle, bool, error) {
	padded := model.PadCIK(cik)

	if f.cache != nil {
		if b, ok := f.cache.Lookup(padded, f.lookback); ok {
			return b, true, nil
		}
	}

	sub, err := f.client.GetSubmissions(ctx, padded)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(-f.lookback, 0, 0).Format("2006-01-02")
	refs := filingRefs(sub, padded, cutoff)
	if len(refs) == 0 {
		return nil, false, ErrNoFilings
	}

	if ticker == "" && len(sub.Tickers) > 0 {
		ticker = sub.Tickers[0]
	}

	bundle := &model.Bundle{
		CIK:           padded,
		Ticker:        ticker,
		CompanyName:   sub.Name,
		LookbackYears: f.lookback,
		FetchedAt:     now,
		Filings:       refs,
		Documents:     make(map[string][]byte),
	}

	log := zap.L().With(zap.String("cik", padded), zap.String("ticker", ticker))

	// Company facts power the financial time series; their absence degrades
	// the profile but never fails the fetch.
	facts, err := f.client.GetCompanyFacts(ctx, padded)
	switch {
	case err == nil:
		bundle.Facts = facts
	case errors.Is(err, edgar.ErrNotAvailable):
		log.Info("fetch: no company facts published")
	case errors.Is(err, context.Canceled):
		return nil, false, err
	default:
		log.Warn("fetch: company facts unavailable", zap.Error(err))
	}

	if err := f.fetchDocuments(ctx, bundle); err != nil {
		return nil, false, err
	}

	if f.cache != nil {
		if err := f.cache.Store(padded, f.lookback, bundle); err != nil {
			log.Warn("fetch: cache store failed", zap.Error(err))
		}
	}
	return bundle, false, nil
}

// fetchDocuments downloads primary documents for the detail-bearing forms,
// bounded per form by the parser caps. Individual document failures degrade
// to warnings; a cancelled context aborts the fetch.
func (f *Fetcher) fetchDocuments(ctx context.Context, bundle *model.Bundle) error {
	plan := []struct {
		forms []model.FormType
		max   int
	}{
		{[]model.FormType{model.Form4}, f.caps.Form4Max},
		{[]model.FormType{model.FormSC13D, model.FormSC13G}, f.caps.SC13Max},
		{[]model.FormType{model.FormDEF14}, f.caps.DEF14AMax},
		{[]model.FormType{model.Form10K}, f.caps.ReportsPerForm},
		{[]model.FormType{model.Form10Q}, f.caps.ReportsPerForm},
	}

	log := zap.L().With(zap.String("cik", bundle.CIK))
	for _, group := range plan {
		fetched := 0
		for _, form := range group.forms {
			for _, ref := range bundle.FilingsOfType(form) {
				if fetched >= group.max {
					break
				}
				if ref.PrimaryDocument == "" {
					continue
				}
				body, err := f.client.FetchArchive(ctx, ref.CIK, ref.Accession, ref.PrimaryDocument)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.Warn("fetch: document download failed",
						zap.String("form", string(form)),
						zap.String("accession", ref.Accession),
						zap.Error(err),
					)
					continue
				}
				bundle.Documents[ref.Accession] = body
				fetched++
			}
		}
	}
	return nil
}

// filingRefs flattens the column-oriented submissions index into refs,
// keeping only filings on or after the cutoff date.
func filingRefs(sub *edgar.SubmissionsDoc, cik, cutoff string) []model.FilingRef {
	var refs []model.FilingRef
	list := sub.Filings
	for i := 0; i < list.Len(); i++ {
		filed := at(list.FilingDate, i)
		if filed < cutoff {
			continue
		}
		ref := model.FilingRef{
			CIK:             cik,
			Accession:       list.AccessionNumber[i],
			FormType:        model.FormType(at(list.Form, i)),
			FilingDate:      filed,
			ReportDate:      at(list.ReportDate, i),
			PrimaryDocument: at(list.PrimaryDocument, i),
		}
		if i < len(list.Size) {
			ref.Size = list.Size[i]
		}
		refs = append(refs, ref)
	}
	return refs
}

// at guards the parallel arrays: malformed documents may ship short columns.
func at(col []string, i int) string {
	if i < len(col) {
		return col[i]
	}
	return ""
}
