package model

// Partial is the shared envelope for every extractor result. Parsers never
// fail the caller on malformed input: they return Available=false with a
// warning instead.
type Partial struct {
	Available bool     `json:"available"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
	Cancelled bool     `json:"cancelled,omitempty"`
}

// Warn appends a warning message to the partial.
func (p *Partial) Warn(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// Envelope returns the partial itself. Types embedding Partial inherit it,
// giving every extractor result a uniform availability surface.
func (p *Partial) Envelope() *Partial {
	return p
}

// PeriodValue is one point in a metric time series.
type PeriodValue struct {
	PeriodEnd string  `json:"period_end"`
	Value     float64 `json:"value"`
}

// FinancialTimeSeries maps recognized metric names to ascending period series.
type FinancialTimeSeries struct {
	Partial
	Series map[string][]PeriodValue `json:"series"`
}

// FilingMetadata summarizes a company's filing index.
type FilingMetadata struct {
	Partial
	TotalFilings  int            `json:"total_filings"`
	FormCounts    map[string]int `json:"form_counts"`
	FirstFiled    string         `json:"first_filed,omitempty"`
	LastFiled     string         `json:"last_filed,omitempty"`
	LookbackYears int            `json:"lookback_years"`
}

// TransactionKind classifies a Form 4 transaction line.
type TransactionKind string

const (
	TxPurchase       TransactionKind = "purchase"
	TxSale           TransactionKind = "sale"
	TxOptionExercise TransactionKind = "option_exercise"
	TxAward          TransactionKind = "award"
	TxOther          TransactionKind = "other"
)

// InsiderTransaction is one line item from a Form 4.
type InsiderTransaction struct {
	Date             string          `json:"date"`
	Kind             TransactionKind `json:"kind"`
	Shares           float64         `json:"shares"`
	PricePerShare    float64         `json:"price_per_share"`
	TotalValue       float64         `json:"total_value"`
	SharesOwnedAfter float64         `json:"shares_owned_after"`
}

// InsiderSignal classifies aggregate insider activity by net value traded.
type InsiderSignal string

const (
	SignalStrongBullish InsiderSignal = "strong_bullish"
	SignalBullish       InsiderSignal = "bullish"
	SignalNeutral       InsiderSignal = "neutral"
	SignalBearish       InsiderSignal = "bearish"
	SignalStrongBearish InsiderSignal = "strong_bearish"
)

// InsiderActivity is the parsed result of one Form 4 filing.
type InsiderActivity struct {
	InsiderName  string               `json:"insider_name"`
	InsiderTitle string               `json:"insider_title,omitempty"`
	IsDirector   bool                 `json:"is_director,omitempty"`
	IsOfficer    bool                 `json:"is_officer,omitempty"`
	Transactions []InsiderTransaction `json:"transactions"`
	NetShares    float64              `json:"net_shares"`
	NetValue     float64              `json:"net_value"`
	Signal       InsiderSignal        `json:"signal"`
	FiledDate    string               `json:"filed_date,omitempty"`
}

// InsiderTrading aggregates Form 4 activity for a company.
type InsiderTrading struct {
	Partial
	Activity      []InsiderActivity `json:"activity"`
	NetShares     float64           `json:"net_shares"`
	NetValue      float64           `json:"net_value"`
	OverallSignal InsiderSignal     `json:"overall_signal"`
}

// ActivistIntent tags the purpose of an SC 13D filing.
type ActivistIntent string

const (
	IntentAcquisition     ActivistIntent = "acquisition"
	IntentBoardGovernance ActivistIntent = "board_governance"
	IntentStrategicAlts   ActivistIntent = "strategic_alternatives"
	IntentInvestmentOnly  ActivistIntent = "investment_only"
	IntentGeneralActivism ActivistIntent = "general_activism"
)

// InstitutionalHolding is the parsed result of one SC 13D/G filing.
type InstitutionalHolding struct {
	InvestorName     string         `json:"investor_name"`
	OwnershipPercent float64        `json:"ownership_percent"`
	SharesOwned      float64        `json:"shares_owned"`
	IsActivist       bool           `json:"is_activist"`
	ActivistIntent   ActivistIntent `json:"activist_intent,omitempty"`
	PurposeExcerpt   string         `json:"purpose_excerpt,omitempty"`
	FormType         FormType       `json:"form_type"`
	FiledDate        string         `json:"filed_date,omitempty"`
}

// InstitutionalOwnership aggregates SC 13D/G holdings.
type InstitutionalOwnership struct {
	Partial
	Holdings      []InstitutionalHolding `json:"holdings"`
	ActivistCount int                    `json:"activist_count"`
}

// ExecComp holds DEF 14A executive compensation figures in whole dollars.
type ExecComp struct {
	CEOTotal       float64 `json:"ceo_total,omitempty"`
	CEOSalary      float64 `json:"ceo_salary,omitempty"`
	CEOBonus       float64 `json:"ceo_bonus,omitempty"`
	CEOStock       float64 `json:"ceo_stock,omitempty"`
	MedianEmployee float64 `json:"median_employee,omitempty"`
	PayRatio       float64 `json:"pay_ratio,omitempty"`
}

// BoardComposition holds DEF 14A board independence counts. Directors whose
// independence could not be determined stay counted in TotalDirectors.
type BoardComposition struct {
	TotalDirectors       int     `json:"total_directors"`
	IndependentDirectors int     `json:"independent_directors"`
	UnknownDirectors     int     `json:"unknown_directors"`
	IndependenceRatio    float64 `json:"independence_ratio"`
}

// Director is one board member named in a proxy statement. Independent is
// "yes" or "unknown"; proxies rarely assert non-independence outright.
type Director struct {
	Name        string `json:"name"`
	Independent string `json:"independent"`
}

// CorporateGovernance is the parsed DEF 14A result.
type CorporateGovernance struct {
	Partial
	Compensation ExecComp         `json:"compensation"`
	Board        BoardComposition `json:"board"`
	Directors    []Director       `json:"directors,omitempty"`
}

// MaterialEvents summarizes 8-K filing cadence without fetching bodies.
type MaterialEvents struct {
	Partial
	TotalCount      int            `json:"total_count"`
	Recent90Days    int            `json:"recent_90_days"`
	PerQuarter      map[string]int `json:"per_quarter"`
	RiskFlags       []string       `json:"risk_flags,omitempty"`
	PositiveSignals []string       `json:"positive_signals,omitempty"`
}

// SectionAnalysis holds keyword counts for one narrative section.
type SectionAnalysis struct {
	Section       string         `json:"section"`
	WordCount     int            `json:"word_count"`
	KeywordCounts map[string]int `json:"keyword_counts"`
}

// ReportAnalysis holds the section breakdown for one 10-K or 10-Q.
type ReportAnalysis struct {
	Accession string            `json:"accession"`
	FormType  FormType          `json:"form_type"`
	FiledDate string            `json:"filed_date"`
	Sections  []SectionAnalysis `json:"sections"`
}

// NarrativeAnalysis aggregates 10-K/10-Q section analysis across reports.
type NarrativeAnalysis struct {
	Partial
	Reports       []ReportAnalysis `json:"reports"`
	RiskKeywords  map[string]int   `json:"risk_keywords"`
	TotalWords    int              `json:"total_words"`
	SectionTexts  map[string]string `json:"-"`
}

// KeyPerson is one executive, director, or institutional investor tied to
// the company through filings.
type KeyPerson struct {
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Role        string  `json:"role"`
	Independent string  `json:"independent,omitempty"`
	Shares      float64 `json:"shares,omitempty"`
	NetValue    float64 `json:"net_value,omitempty"`
	Signal      InsiderSignal `json:"signal,omitempty"`
	LastFiling  string  `json:"last_filing,omitempty"`
	Active      bool    `json:"active"`
}

// KeyPersons aggregates people across Form 4, DEF 14A, and SC 13D/G partials.
type KeyPersons struct {
	Partial
	Executives             []KeyPerson `json:"executives"`
	BoardMembers           []KeyPerson `json:"board_members"`
	InsiderHoldings        []KeyPerson `json:"insider_holdings"`
	InstitutionalInvestors []KeyPerson `json:"institutional_investors"`
}
