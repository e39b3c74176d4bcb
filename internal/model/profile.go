package model

import "time"

// Ratios holds financial ratios at the latest period. Nil means the ratio
// could not be computed (missing inputs or division by zero).
type Ratios struct {
	ROE              *float64 `json:"roe"`
	ROA              *float64 `json:"roa"`
	DebtToEquity     *float64 `json:"debt_to_equity"`
	NetMargin        *float64 `json:"net_margin"`
	OperatingMargin  *float64 `json:"operating_margin"`
	GrossMargin      *float64 `json:"gross_margin"`
	CurrentRatio     *float64 `json:"current_ratio"`
	AssetTurnover    *float64 `json:"asset_turnover"`
	EquityMultiplier *float64 `json:"equity_multiplier"`
}

// GrowthStats summarizes period-over-period growth for one metric.
type GrowthStats struct {
	Rates      []float64 `json:"rates"`
	Avg        float64   `json:"avg"`
	Median     float64   `json:"median"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Volatility float64   `json:"volatility"`
}

// HealthIndicators is the composite financial health score.
type HealthIndicators struct {
	Overall        float64 `json:"overall"`
	Profitability  float64 `json:"profitability"`
	Leverage       float64 `json:"leverage"`
	Growth         float64 `json:"growth"`
	Classification string  `json:"classification"`
}

// MetricSummary holds descriptive statistics for one metric series.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	CV     float64 `json:"cv"`
}

// TrendClass qualifies the direction and strength of a metric trend.
type TrendClass struct {
	Direction string  `json:"direction"`
	Strength  string  `json:"strength"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
}

// VolatilityMetrics holds growth volatility and trend per metric.
type VolatilityMetrics struct {
	GrowthVolatility map[string]float64    `json:"growth_volatility"`
	Trends           map[string]TrendClass `json:"trends"`
}

// IssueCategory classifies a validation finding.
type IssueCategory string

const (
	IssueIncomplete   IssueCategory = "INCOMPLETE"
	IssueInconsistent IssueCategory = "INCONSISTENT"
	IssueOutOfOrder   IssueCategory = "OUT_OF_ORDER"
	IssueImproper     IssueCategory = "IMPROPER"
)

// Issue is one validation finding attached to a profile.
type Issue struct {
	Category IssueCategory `json:"category"`
	Message  string        `json:"message"`
}

// Quality is the validator's verdict on a profile.
type Quality struct {
	Score  float64 `json:"score"`
	Grade  string  `json:"grade"`
	Issues []Issue `json:"issues"`
}

// RelationshipsPartial carries extracted edges and financial relationships
// inside the profile document.
type RelationshipsPartial struct {
	Partial
	Edges     []Edge                  `json:"edges,omitempty"`
	Financial *FinancialRelationships `json:"financial,omitempty"`
}

// Profile is the single aggregated document produced per company. Every
// extractor key is always present with its available flag; a missing key is
// never allowed.
type Profile struct {
	CIK                    string                 `json:"cik"`
	CompanyInfo            Company                `json:"company_info"`
	FilingMetadata         FilingMetadata         `json:"filing_metadata"`
	FinancialTimeSeries    FinancialTimeSeries    `json:"financial_time_series"`
	LatestFinancials       map[string]PeriodValue `json:"latest_financials"`
	FinancialRatios        Ratios                 `json:"financial_ratios"`
	GrowthRates            map[string]GrowthStats `json:"growth_rates"`
	HealthIndicators       HealthIndicators       `json:"health_indicators"`
	MaterialEvents         MaterialEvents         `json:"material_events"`
	InsiderTrading         InsiderTrading         `json:"insider_trading"`
	InstitutionalOwnership InstitutionalOwnership `json:"institutional_ownership"`
	CorporateGovernance    CorporateGovernance    `json:"corporate_governance"`
	KeyPersons             KeyPersons             `json:"key_persons"`
	NarrativeAnalysis      NarrativeAnalysis      `json:"narrative_analysis"`
	Relationships          RelationshipsPartial   `json:"relationships"`
	StatisticalSummary     map[string]MetricSummary `json:"statistical_summary"`
	VolatilityMetrics      VolatilityMetrics      `json:"volatility_metrics"`
	AIAnalysis             map[string]any         `json:"ai_analysis,omitempty"`
	Quality                Quality                `json:"quality"`
	GeneratedAt            time.Time              `json:"generated_at"`
	LastUpdated            time.Time              `json:"last_updated"`
}

// ExtractorKeys lists the profile keys written by aggregator tasks, in
// dispatch order.
var ExtractorKeys = []string{
	"filing_metadata",
	"material_events",
	"corporate_governance",
	"insider_trading",
	"institutional_ownership",
	"key_persons",
	"financial_time_series",
	"relationships",
}

// ExtractorPartials returns the Partial envelope for each extractor key.
func (p *Profile) ExtractorPartials() map[string]*Partial {
	return map[string]*Partial{
		"filing_metadata":         &p.FilingMetadata.Partial,
		"material_events":         &p.MaterialEvents.Partial,
		"corporate_governance":    &p.CorporateGovernance.Partial,
		"insider_trading":         &p.InsiderTrading.Partial,
		"institutional_ownership": &p.InstitutionalOwnership.Partial,
		"key_persons":             &p.KeyPersons.Partial,
		"financial_time_series":   &p.FinancialTimeSeries.Partial,
		"relationships":           &p.Relationships.Partial,
	}
}
