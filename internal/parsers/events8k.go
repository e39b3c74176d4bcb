package parsers

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/edgar-profiler/internal/model"
)

const (
	recentWindow      = 90 * 24 * time.Hour
	clusterWindow     = 14 * 24 * time.Hour
	clusterThreshold  = 3
	elevatedRecent8Ks = 8
)

// Analyze8K summarizes a company's 8-K cadence from filing references alone.
// Document bodies are never fetched: frequency and clustering carry the signal.
func Analyze8K(refs []model.FilingRef, now time.Time) *model.MaterialEvents {
	out := &model.MaterialEvents{PerQuarter: make(map[string]int)}
	if len(refs) == 0 {
		out.Warn("no 8-K filings in window")
		return out
	}

	var dates []time.Time
	for _, ref := range refs {
		d, err := time.Parse("2006-01-02", ref.FilingDate)
		if err != nil {
			out.Warn(fmt.Sprintf("unparseable filing date %q on %s", ref.FilingDate, ref.Accession))
			continue
		}
		dates = append(dates, d)
		out.TotalCount++
		out.PerQuarter[fmt.Sprintf("%d-Q%d", d.Year(), (int(d.Month())-1)/3+1)]++
		if now.Sub(d) <= recentWindow {
			out.Recent90Days++
		}
	}
	if out.TotalCount == 0 {
		return out
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if out.Recent90Days >= elevatedRecent8Ks {
		out.RiskFlags = append(out.RiskFlags,
			fmt.Sprintf("elevated disclosure frequency: %d filings in last 90 days", out.Recent90Days))
	}
	if n := maxCluster(dates); n >= clusterThreshold {
		out.RiskFlags = append(out.RiskFlags,
			fmt.Sprintf("clustered filings: %d within a 14-day span", n))
	}
	if steadyCadence(out.PerQuarter, now) {
		out.PositiveSignals = append(out.PositiveSignals,
			"steady disclosure pattern across recent quarters")
	}

	out.Available = true
	return out
}

// maxCluster returns the largest number of filings inside any clusterWindow
// span. Dates must be ascending.
func maxCluster(dates []time.Time) int {
	best, lo := 0, 0
	for hi := range dates {
		for dates[hi].Sub(dates[lo]) > clusterWindow {
			lo++
		}
		if n := hi - lo + 1; n > best {
			best = n
		}
	}
	return best
}

// steadyCadence reports whether each of the last four complete quarters saw
// at least one filing with none spiking past triple the quarterly median.
func steadyCadence(perQuarter map[string]int, now time.Time) bool {
	counts := make([]int, 0, 4)
	q := now.AddDate(0, -3, 0)
	for range 4 {
		key := fmt.Sprintf("%d-Q%d", q.Year(), (int(q.Month())-1)/3+1)
		n, ok := perQuarter[key]
		if !ok || n == 0 {
			return false
		}
		counts = append(counts, n)
		q = q.AddDate(0, -3, 0)
	}
	sort.Ints(counts)
	median := counts[len(counts)/2]
	return counts[len(counts)-1] <= 3*median
}
