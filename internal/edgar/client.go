// Package edgar implements a rate-limited client for SEC EDGAR: company
// submissions (with continuation-page merging), XBRL company facts, and
// archive document retrieval.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/edgar-profiler/internal/model"
	"github.com/sells-group/edgar-profiler/internal/resilience"
)

const (
	defaultDataURL    = "https://data.sec.gov"
	defaultArchiveURL = "https://www.sec.gov"
	defaultTimeout    = 30 * time.Second
	defaultBurst      = 10
)

// Options configures the EDGAR client.
type Options struct {
	// Contact identifies the operator (name + email). SEC requires it on
	// every request; an empty value is a startup failure.
	Contact       string
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	Timeout       time.Duration

	// DataURL and ArchiveURL override the SEC endpoints in tests.
	DataURL    string
	ArchiveURL string
}

// Client talks to SEC EDGAR. All requests pass through a single token
// bucket shared across callers, so the process as a whole never exceeds the
// configured request rate.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates an EDGAR client. Fails with ErrConfig when contact is unset.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Contact) == "" {
		return nil, wrapKind(ErrConfig, "contact header is required")
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DataURL == "" {
		opts.DataURL = defaultDataURL
	}
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = defaultArchiveURL
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
	}, nil
}

// Limiter exposes the shared token bucket (used by tests to assert the
// configured rate).
func (c *Client) Limiter() *rate.Limiter {
	return c.limiter
}

// get fetches a URL with rate limiting, identity header, and retry on
// transient failures. 404 is terminal and returns ErrNotFound without retry.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts: c.opts.MaxRetries + 1,
		OnRetry:     resilience.RetryLogger("edgar", url),
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "edgar: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "edgar: create request")
		}
		req.Header.Set("User-Agent", c.opts.Contact)
		req.Header.Set("Accept-Encoding", "gzip, deflate")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "edgar: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, wrapKind(ErrNotFound, url)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				eris.Errorf("edgar: http %d from %s", resp.StatusCode, url),
				resp.StatusCode,
			)
		case resp.StatusCode != http.StatusOK:
			return nil, eris.Errorf("edgar: unexpected status %d from %s", resp.StatusCode, url)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "edgar: read body")
		}
		return data, nil
	})
	if err != nil {
		return nil, c.classify(err, url)
	}
	return body, nil
}

// classify maps an exhausted-retry error onto the client's sentinel kinds.
func (c *Client) classify(err error, url string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}

	var te *resilience.TransientError
	if errors.As(err, &te) {
		if te.StatusCode == http.StatusTooManyRequests {
			return wrapKind(ErrRateLimited, url)
		}
		if te.StatusCode >= 500 {
			return wrapKind(ErrUpstream, fmt.Sprintf("%s: %v", url, err))
		}
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapKind(ErrTimeout, url)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapKind(ErrTimeout, url)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if resilience.IsTransient(err) {
		return wrapKind(ErrNetwork, fmt.Sprintf("%s: %v", url, err))
	}
	return err
}

// GetSubmissions returns the company's metadata and full filings index,
// following files.filings continuation chunks until exhausted. Array order
// is preserved: base document first, then chunks in listed order.
func (c *Client) GetSubmissions(ctx context.Context, cik string) (*SubmissionsDoc, error) {
	padded := model.PadCIK(cik)
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.opts.DataURL, padded)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw submissionsJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: decode submissions")
	}

	doc := &SubmissionsDoc{
		CIK:           padded,
		Name:          raw.Name,
		Tickers:       raw.Tickers,
		Exchanges:     raw.Exchanges,
		SIC:           raw.SIC,
		SICDesc:       raw.SICDesc,
		EntityType:    raw.EntityType,
		FiscalYearEnd: raw.FiscalYearEnd,
		Filings:       raw.Filings.Recent,
	}

	for _, file := range raw.Filings.Files {
		if file.Name == "" {
			continue
		}
		chunkURL := fmt.Sprintf("%s/submissions/%s", c.opts.DataURL, file.Name)
		chunkBody, err := c.get(ctx, chunkURL)
		if err != nil {
			return nil, eris.Wrapf(err, "edgar: continuation %s", file.Name)
		}
		var chunk continuationJSON
		if err := json.Unmarshal(chunkBody, &chunk); err != nil {
			return nil, eris.Wrapf(err, "edgar: decode continuation %s", file.Name)
		}
		doc.Filings.Append(chunk)
	}

	zap.L().Debug("edgar: submissions fetched",
		zap.String("cik", padded),
		zap.Int("filings", doc.Filings.Len()),
		zap.Int("continuations", len(raw.Filings.Files)),
	)

	return doc, nil
}

// GetCompanyFacts returns the raw XBRL company facts document. Companies
// without XBRL data fail with ErrNotAvailable.
func (c *Client) GetCompanyFacts(ctx context.Context, cik string) ([]byte, error) {
	padded := model.PadCIK(cik)
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.opts.DataURL, padded)

	body, err := c.get(ctx, url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, wrapKind(ErrNotAvailable, fmt.Sprintf("company facts for CIK %s", padded))
		}
		return nil, err
	}
	return body, nil
}

// TickerEntry is one row of the SEC company ticker index.
type TickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Name   string `json:"title"`
}

// GetCompanyTickers returns the full SEC ticker-to-CIK index. The document
// is an object keyed by row position, not an array.
func (c *Client) GetCompanyTickers(ctx context.Context) ([]TickerEntry, error) {
	url := fmt.Sprintf("%s/files/company_tickers.json", c.opts.ArchiveURL)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw map[string]TickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: decode company tickers")
	}

	entries := make([]TickerEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, e)
	}
	zap.L().Debug("edgar: company tickers fetched", zap.Int("entries", len(entries)))
	return entries, nil
}

// FetchArchive returns the raw content of one filed document.
func (c *Client) FetchArchive(ctx context.Context, cik, accession, document string) ([]byte, error) {
	cikInt, err := strconv.Atoi(strings.TrimLeft(model.PadCIK(cik), "0"))
	if err != nil {
		return nil, wrapKind(ErrConfig, fmt.Sprintf("bad cik %q", cik))
	}
	accNoDashes := strings.ReplaceAll(accession, "-", "")
	url := fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s",
		c.opts.ArchiveURL, cikInt, accNoDashes, document)

	return c.get(ctx, url)
}
