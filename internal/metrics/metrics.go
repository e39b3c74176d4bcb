// Package metrics computes financial ratios, growth statistics, health
// scores, and trend classification from extracted time series. Everything
// here is pure and deterministic.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// LatestFinancials returns, per metric, the most recent value whose period
// end is not in the future.
func LatestFinancials(series map[string][]model.PeriodValue, now time.Time) map[string]model.PeriodValue {
	today := now.Format("2006-01-02")
	out := make(map[string]model.PeriodValue, len(series))
	for metric, points := range series {
		for i := len(points) - 1; i >= 0; i-- {
			if points[i].PeriodEnd <= today {
				out[metric] = points[i]
				break
			}
		}
	}
	return out
}

// ratio returns num/den, or nil when the denominator is zero. Infinity never
// enters a profile.
func ratio(num, den float64, haveNum, haveDen bool) *float64 {
	if !haveNum || !haveDen || den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// ComputeRatios derives the standard ratio set at the latest period.
func ComputeRatios(latest map[string]model.PeriodValue) model.Ratios {
	get := func(metric string) (float64, bool) {
		pv, ok := latest[metric]
		return pv.Value, ok
	}

	netIncome, hasNI := get("net_income")
	equity, hasEq := get("equity")
	assets, hasAssets := get("assets")
	revenue, hasRev := get("revenue")
	opIncome, hasOp := get("operating_income")
	grossProfit, hasGP := get("gross_profit")
	curAssets, hasCA := get("current_assets")
	curLiab, hasCL := get("current_liabilities")
	debt, hasDebt := get("long_term_debt")

	return model.Ratios{
		ROE:              ratio(netIncome, equity, hasNI, hasEq),
		ROA:              ratio(netIncome, assets, hasNI, hasAssets),
		DebtToEquity:     ratio(debt, equity, hasDebt, hasEq),
		NetMargin:        ratio(netIncome, revenue, hasNI, hasRev),
		OperatingMargin:  ratio(opIncome, revenue, hasOp, hasRev),
		GrossMargin:      ratio(grossProfit, revenue, hasGP, hasRev),
		CurrentRatio:     ratio(curAssets, curLiab, hasCA, hasCL),
		AssetTurnover:    ratio(revenue, assets, hasRev, hasAssets),
		EquityMultiplier: ratio(assets, equity, hasAssets, hasEq),
	}
}

// GrowthRates computes period-over-period growth per metric. Periods with a
// zero or missing prior value are skipped, never infinite.
func GrowthRates(series map[string][]model.PeriodValue) map[string]model.GrowthStats {
	out := make(map[string]model.GrowthStats, len(series))
	for metric, points := range series {
		var rates []float64
		for i := 1; i < len(points); i++ {
			prior := points[i-1].Value
			if prior == 0 {
				continue
			}
			rates = append(rates, (points[i].Value-prior)/math.Abs(prior))
		}
		if len(rates) == 0 {
			continue
		}
		out[metric] = model.GrowthStats{
			Rates:      rates,
			Avg:        mean(rates),
			Median:     median(rates),
			Min:        minOf(rates),
			Max:        maxOf(rates),
			Volatility: stdDev(rates),
		}
	}
	return out
}

// Summaries computes descriptive statistics per metric series.
func Summaries(series map[string][]model.PeriodValue) map[string]model.MetricSummary {
	out := make(map[string]model.MetricSummary, len(series))
	for metric, points := range series {
		if len(points) == 0 {
			continue
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		m := mean(values)
		sd := stdDev(values)
		summary := model.MetricSummary{
			Mean:   m,
			Median: median(values),
			Min:    minOf(values),
			Max:    maxOf(values),
			StdDev: sd,
		}
		if m != 0 {
			summary.CV = sd / math.Abs(m)
		}
		out[metric] = summary
	}
	return out
}

// Volatility classifies growth volatility and trend per metric.
func Volatility(series map[string][]model.PeriodValue, growth map[string]model.GrowthStats) model.VolatilityMetrics {
	out := model.VolatilityMetrics{
		GrowthVolatility: make(map[string]float64),
		Trends:           make(map[string]model.TrendClass),
	}
	for metric, g := range growth {
		out.GrowthVolatility[metric] = g.Volatility
	}
	for metric, points := range series {
		if len(points) >= 2 {
			out.Trends[metric] = classifyTrend(points)
		}
	}
	return out
}

// classifyTrend fits a least-squares line over the series (x = index) and
// reads direction from the slope sign and strength from R².
func classifyTrend(points []model.PeriodValue) model.TrendClass {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return model.TrendClass{Direction: "flat", Strength: "none"}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, p := range points {
		fit := intercept + slope*float64(i)
		ssTot += (p.Value - meanY) * (p.Value - meanY)
		ssRes += (p.Value - fit) * (p.Value - fit)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	tc := model.TrendClass{Slope: slope, R2: r2}

	// Direction needs a slope that is material relative to the series scale.
	scale := math.Abs(meanY)
	switch {
	case scale > 0 && math.Abs(slope)/scale < 0.01:
		tc.Direction = "flat"
	case slope > 0:
		tc.Direction = "up"
	case slope < 0:
		tc.Direction = "down"
	default:
		tc.Direction = "flat"
	}
	switch {
	case r2 >= 0.8:
		tc.Strength = "strong"
	case r2 >= 0.5:
		tc.Strength = "moderate"
	default:
		tc.Strength = "weak"
	}
	return tc
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
