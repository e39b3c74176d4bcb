package parsers

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// companyFacts mirrors the EDGAR Company Facts JSON-LD structure.
type companyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]factNS `json:"facts"`
}

type factNS map[string]fact

type fact struct {
	Label string                 `json:"label"`
	Units map[string][]factValue `json:"units"`
}

type factValue struct {
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
}

// revenueTags is the fallback chain for revenue: the first tag yielding a
// non-empty series wins, later tags are ignored. Companies report revenue
// under wildly different us-gaap concepts depending on era and industry.
var revenueTags = []string{
	"Revenues",
	"RevenueFromContractWithCustomerExcludingAssessedTax",
	"SalesRevenueNet",
	"RevenueFromContractWithCustomerIncludingAssessedTax",
	"SalesRevenueGoodsNet",
	"SalesRevenueServicesNet",
	"RevenuesNetOfInterestExpense",
	"RegulatedAndUnregulatedOperatingRevenue",
	"HealthCareOrganizationRevenue",
	"InterestAndDividendIncomeOperating",
	"OperatingLeasesIncomeStatementLeaseRevenue",
}

// metricTags maps the recognized metric set to its canonical tag plus aliases.
// Unlike revenue, these merge: the first tag carrying a value for a period wins.
var metricTags = map[string][]string{
	"net_income":          {"NetIncomeLoss", "ProfitLoss", "NetIncomeLossAvailableToCommonStockholdersBasic"},
	"assets":              {"Assets"},
	"liabilities":         {"Liabilities"},
	"equity":              {"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"},
	"cash":                {"CashAndCashEquivalentsAtCarryingValue", "CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents"},
	"operating_income":    {"OperatingIncomeLoss"},
	"current_assets":      {"AssetsCurrent"},
	"current_liabilities": {"LiabilitiesCurrent"},
	"long_term_debt":      {"LongTermDebt", "LongTermDebtNoncurrent"},
	"gross_profit":        {"GrossProfit"},
	"cost_of_revenue":     {"CostOfRevenue", "CostOfGoodsAndServicesSold", "CostOfGoodsSold"},
}

// ParseFacts extracts the recognized metric series from an XBRL company
// facts document. Series come back sorted ascending by period end with
// duplicate periods resolved by latest filed date.
func ParseFacts(data []byte) *model.FinancialTimeSeries {
	out := &model.FinancialTimeSeries{Series: make(map[string][]model.PeriodValue)}

	if len(data) == 0 {
		out.Warn("empty facts document")
		return out
	}

	var facts companyFacts
	if err := json.Unmarshal(data, &facts); err != nil {
		out.Warn(fmt.Sprintf("malformed facts document: %v", err))
		return out
	}

	gaap, ok := facts.Facts["us-gaap"]
	if !ok || len(gaap) == 0 {
		out.Warn("no us-gaap facts present")
		return out
	}

	for _, tag := range revenueTags {
		if series := extractSeries(gaap, tag); len(series) > 0 {
			out.Series["revenue"] = series
			break
		}
	}

	for metric, tags := range metricTags {
		for _, tag := range tags {
			if series := extractSeries(gaap, tag); len(series) > 0 {
				out.Series[metric] = series
				break
			}
		}
	}

	if len(out.Series) == 0 {
		out.Warn("no recognized metrics in facts document")
		return out
	}

	out.Available = true
	return out
}

// extractSeries flattens one tag's USD annual values into an ascending
// series, resolving duplicate period ends by the latest-filed entry.
func extractSeries(ns factNS, tag string) []model.PeriodValue {
	f, ok := ns[tag]
	if !ok {
		return nil
	}
	values, ok := f.Units["USD"]
	if !ok {
		return nil
	}

	// period end → (value, filed) with latest filed winning.
	type pick struct {
		value float64
		filed string
	}
	byPeriod := make(map[string]pick)
	for _, v := range values {
		if v.End == "" {
			continue
		}
		// Prefer full-year figures where the form distinguishes them.
		if v.FP != "" && v.FP != "FY" && v.Form == "10-K" {
			continue
		}
		cur, seen := byPeriod[v.End]
		if !seen || v.Filed > cur.filed {
			byPeriod[v.End] = pick{value: v.Val, filed: v.Filed}
		}
	}
	if len(byPeriod) == 0 {
		return nil
	}

	series := make([]model.PeriodValue, 0, len(byPeriod))
	for end, p := range byPeriod {
		series = append(series, model.PeriodValue{PeriodEnd: end, Value: p.value})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].PeriodEnd < series[j].PeriodEnd })
	return series
}
