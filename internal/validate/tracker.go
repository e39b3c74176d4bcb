package validate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/edgar"
	"github.com/sells-group/edgar-profiler/internal/model"
)

// FailureStore is the slice of the document store the tracker needs.
type FailureStore interface {
	GetFailure(ctx context.Context, ticker string) (*model.FailureRecord, error)
	UpsertFailure(ctx context.Context, rec *model.FailureRecord) error
	DeleteFailure(ctx context.Context, ticker string) error
}

// Tracker maintains one failure record per ticker: recorded on terminal
// failure, retry count bumped on repeats, cleared when a profile persists.
type Tracker struct {
	store FailureStore
}

// NewTracker wires the tracker to its store.
func NewTracker(store FailureStore) *Tracker {
	return &Tracker{store: store}
}

// Record writes (or updates) the ticker's failure document. An existing
// record for the ticker keeps its identity and increments retry_count.
func (t *Tracker) Record(ctx context.Context, ticker, cik string, reason model.FailureReason, message string) error {
	rec := &model.FailureRecord{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		CIK:       cik,
		Reason:    reason,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	if prev, err := t.store.GetFailure(ctx, ticker); err == nil && prev != nil {
		rec.ID = prev.ID
		rec.RetryCount = prev.RetryCount + 1
	}

	zap.L().Warn("ticker failed",
		zap.String("ticker", ticker),
		zap.String("reason", string(reason)),
		zap.Int("retry_count", rec.RetryCount),
		zap.String("message", message),
	)
	return t.store.UpsertFailure(ctx, rec)
}

// Clear removes the ticker's failure record after a successful persist.
func (t *Tracker) Clear(ctx context.Context, ticker string) error {
	return t.store.DeleteFailure(ctx, ticker)
}

// ClassifyError maps an error from the fetch/aggregate path onto the fixed
// failure reason codes.
func ClassifyError(err error) model.FailureReason {
	switch {
	case err == nil:
		return model.FailUnknown
	case errors.Is(err, context.Canceled):
		return model.FailCancelled
	case errors.Is(err, edgar.ErrNotFound):
		return model.FailCompanyNotFound
	case errors.Is(err, edgar.ErrConfig):
		return model.FailCIKLookup
	case errors.Is(err, edgar.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return model.FailTimeout
	case errors.Is(err, edgar.ErrRateLimited),
		errors.Is(err, edgar.ErrUpstream),
		errors.Is(err, edgar.ErrNetwork):
		return model.FailFilingFetch
	case errors.Is(err, edgar.ErrNotAvailable):
		return model.FailInsufficientData
	default:
		return model.FailUnknown
	}
}
