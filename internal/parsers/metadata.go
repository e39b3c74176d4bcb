package parsers

import (
	"github.com/sells-group/edgar-profiler/internal/model"
)

// FilingMetadata summarizes a bundle's filing index: counts per form type
// and the covered date range.
func FilingMetadata(bundle *model.Bundle) *model.FilingMetadata {
	out := &model.FilingMetadata{
		FormCounts:    make(map[string]int),
		LookbackYears: bundle.LookbackYears,
	}
	if len(bundle.Filings) == 0 {
		out.Warn("company has no filings in window")
		return out
	}

	for _, f := range bundle.Filings {
		out.TotalFilings++
		out.FormCounts[string(f.FormType)]++
		if f.FilingDate == "" {
			continue
		}
		if out.FirstFiled == "" || f.FilingDate < out.FirstFiled {
			out.FirstFiled = f.FilingDate
		}
		if f.FilingDate > out.LastFiled {
			out.LastFiled = f.FilingDate
		}
	}

	out.Available = true
	return out
}
