// Package validate scores aggregated profiles: completeness, consistency,
// ordering, and value plausibility checks roll up into a quality score and
// letter grade.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// Deductions per issue category. Incompleteness alone never drags the score
// below its floor; the other categories can take it to zero.
const (
	deductIncomplete   = 10.0
	incompleteFloor    = 40.0
	deductInconsistent = 15.0
	deductOutOfOrder   = 10.0
	deductImproper     = 20.0

	// maxPlausibleValue caps believable per-period currency magnitudes.
	maxPlausibleValue = 1e13
)

// roeBand bounds plausible return-on-equity.
var roeBand = [2]float64{-5, 5}

// Validate runs the deterministic quality pass over a profile and returns
// the verdict. The profile itself is not modified.
func Validate(p *model.Profile, now time.Time) model.Quality {
	var issues []model.Issue
	add := func(cat model.IssueCategory, format string, args ...any) {
		issues = append(issues, model.Issue{
			Category: cat,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	// Completeness: every extractor key carries an availability verdict.
	for _, key := range model.ExtractorKeys {
		env, ok := p.ExtractorPartials()[key]
		if !ok || env == nil {
			add(model.IssueIncomplete, "extractor key %s missing", key)
			continue
		}
		if !env.Available {
			add(model.IssueIncomplete, "extractor %s unavailable", key)
		}
	}
	if p.CIK == "" {
		add(model.IssueIncomplete, "profile has no cik")
	}

	// Consistency: plausible ratio bands and non-negative monetary values.
	if p.FinancialRatios.ROE != nil {
		if v := *p.FinancialRatios.ROE; v < roeBand[0] || v > roeBand[1] {
			add(model.IssueInconsistent, "roe %.2f outside plausible band [%v, %v]", v, roeBand[0], roeBand[1])
		}
	}
	if pr := p.CorporateGovernance.Compensation.PayRatio; pr < 0 {
		add(model.IssueInconsistent, "negative pay ratio %.2f", pr)
	}
	for _, metric := range []string{"assets", "current_assets", "liabilities", "current_liabilities", "long_term_debt"} {
		if pv, ok := p.LatestFinancials[metric]; ok && pv.Value < 0 {
			add(model.IssueInconsistent, "negative %s value %.2f", metric, pv.Value)
		}
	}

	// Order: series strictly ascending, timestamps not in the future.
	for metric, points := range p.FinancialTimeSeries.Series {
		for i := 1; i < len(points); i++ {
			if points[i].PeriodEnd <= points[i-1].PeriodEnd {
				add(model.IssueOutOfOrder, "series %s not strictly ascending at %s", metric, points[i].PeriodEnd)
				break
			}
		}
	}
	if p.GeneratedAt.After(now) {
		add(model.IssueOutOfOrder, "generated_at %s is in the future", p.GeneratedAt.Format(time.RFC3339))
	}
	if p.LastUpdated.Before(p.GeneratedAt) {
		add(model.IssueOutOfOrder, "last_updated precedes generated_at")
	}

	// Proper values: parseable dates and non-absurd magnitudes.
	for _, d := range []struct{ name, value string }{
		{"filing_metadata.first_filed", p.FilingMetadata.FirstFiled},
		{"filing_metadata.last_filed", p.FilingMetadata.LastFiled},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			add(model.IssueImproper, "unparseable date in %s: %q", d.name, d.value)
		}
	}
	for metric, points := range p.FinancialTimeSeries.Series {
		for _, point := range points {
			if math.Abs(point.Value) >= maxPlausibleValue || math.IsNaN(point.Value) || math.IsInf(point.Value, 0) {
				add(model.IssueImproper, "absurd %s value %.4g at %s", metric, point.Value, point.PeriodEnd)
				break
			}
		}
	}

	return model.Quality{
		Score:  Score(issues),
		Grade:  Grade(Score(issues)),
		Issues: issues,
	}
}

// Score converts issues to a 0-100 quality score. Incomplete deductions
// floor at 40 before the remaining categories subtract further.
func Score(issues []model.Issue) float64 {
	var incomplete, rest float64
	for _, issue := range issues {
		switch issue.Category {
		case model.IssueIncomplete:
			incomplete += deductIncomplete
		case model.IssueInconsistent:
			rest += deductInconsistent
		case model.IssueOutOfOrder:
			rest += deductOutOfOrder
		case model.IssueImproper:
			rest += deductImproper
		}
	}
	score := math.Max(incompleteFloor, 100-incomplete) - rest
	return math.Max(0, score)
}

// Grade maps a score to its letter band.
func Grade(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 75:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// ProblematicGrades lists the grade bands targeted by retry-problematic.
var ProblematicGrades = map[string]bool{"D": true, "F": true}
