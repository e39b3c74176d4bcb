package metrics

import "github.com/sells-group/edgar-profiler/internal/model"

// Health score component weights.
const (
	weightProfitability = 0.40
	weightLeverage      = 0.30
	weightGrowth        = 0.30
)

// curvePoint anchors a piecewise-linear mapping from a raw value to a
// sub-score. Inputs below the first anchor or above the last clamp.
type curvePoint struct {
	raw   float64
	score float64
}

var (
	// Profitability from net margin: breakeven scores 40, a 20% margin 90.
	profitabilityCurve = []curvePoint{
		{-0.20, 0}, {0, 40}, {0.10, 70}, {0.20, 90}, {0.35, 100},
	}
	// Leverage from debt-to-equity: unlevered scores 100, 2x equity 50.
	leverageCurve = []curvePoint{
		{0, 100}, {0.5, 85}, {1.0, 70}, {2.0, 50}, {4.0, 20}, {6.0, 0},
	}
	// Growth from average revenue growth: flat scores 50, 20% a year 90.
	growthCurve = []curvePoint{
		{-0.20, 0}, {0, 50}, {0.10, 75}, {0.20, 90}, {0.40, 100},
	}
)

func interpolate(curve []curvePoint, raw float64) float64 {
	if raw <= curve[0].raw {
		return curve[0].score
	}
	if raw >= curve[len(curve)-1].raw {
		return curve[len(curve)-1].score
	}
	for i := 1; i < len(curve); i++ {
		if raw <= curve[i].raw {
			lo, hi := curve[i-1], curve[i]
			frac := (raw - lo.raw) / (hi.raw - lo.raw)
			return lo.score + frac*(hi.score-lo.score)
		}
	}
	return curve[len(curve)-1].score
}

// HealthScore combines profitability, leverage, and growth sub-scores into
// the overall health indicator. Missing inputs score a neutral 50 so one
// absent ratio does not zero the composite.
func HealthScore(ratios model.Ratios, growth map[string]model.GrowthStats) model.HealthIndicators {
	h := model.HealthIndicators{
		Profitability: 50,
		Leverage:      50,
		Growth:        50,
	}

	if ratios.NetMargin != nil {
		h.Profitability = interpolate(profitabilityCurve, *ratios.NetMargin)
	}
	if ratios.DebtToEquity != nil {
		h.Leverage = interpolate(leverageCurve, *ratios.DebtToEquity)
	}
	if g, ok := growth["revenue"]; ok {
		h.Growth = interpolate(growthCurve, g.Avg)
	}

	h.Overall = weightProfitability*h.Profitability +
		weightLeverage*h.Leverage +
		weightGrowth*h.Growth
	h.Classification = classifyHealth(h.Overall)
	return h
}

func classifyHealth(overall float64) string {
	switch {
	case overall >= 90:
		return "Excellent"
	case overall >= 70:
		return "Good"
	case overall >= 50:
		return "Fair"
	case overall >= 30:
		return "Poor"
	default:
		return "Critical"
	}
}
