package model

import "time"

// FailureReason enumerates terminal failure codes recorded per ticker.
type FailureReason string

const (
	FailCompanyNotFound  FailureReason = "COMPANY_NOT_FOUND"
	FailCIKLookup        FailureReason = "CIK_LOOKUP_FAILED"
	FailNoFilings        FailureReason = "NO_FILINGS"
	FailFilingFetch      FailureReason = "FILING_FETCH_ERROR"
	FailDataExtraction   FailureReason = "DATA_EXTRACTION_ERROR"
	FailInsufficientData FailureReason = "INSUFFICIENT_DATA"
	FailAIAnalysis       FailureReason = "AI_ANALYSIS_FAILED"
	FailProfileSave      FailureReason = "PROFILE_SAVE_ERROR"
	FailTimeout          FailureReason = "TIMEOUT_ERROR"
	FailCancelled        FailureReason = "CANCELLED"
	FailUnknown          FailureReason = "UNKNOWN_ERROR"
)

// FailureRecord is one document per ticker's latest terminal failure.
// Retries increment RetryCount; a successful persist clears the record.
type FailureRecord struct {
	ID         string         `json:"id"`
	Ticker     string         `json:"ticker"`
	CIK        string         `json:"cik,omitempty"`
	Reason     FailureReason  `json:"reason_code"`
	Message    string         `json:"message"`
	Stack      string         `json:"stack,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	RetryCount int            `json:"retry_count"`
	Timestamp  time.Time      `json:"timestamp"`
}

// TickerStage is the per-ticker state machine position. Terminal stages are
// StagePersisted and StageFailed.
type TickerStage string

const (
	StageQueued      TickerStage = "queued"
	StageFetching    TickerStage = "fetching"
	StageCacheStored TickerStage = "cache_stored"
	StageAggregating TickerStage = "aggregating"
	StageValidating  TickerStage = "validating"
	StagePersisted   TickerStage = "persisted"
	StageFailed      TickerStage = "failed"
)

// Progress is one progress event emitted by the batch controller.
type Progress struct {
	Ticker  string      `json:"ticker"`
	Stage   TickerStage `json:"stage"`
	Percent float64     `json:"percent"`
	Message string      `json:"message,omitempty"`
	Reason  FailureReason `json:"reason,omitempty"`
}
