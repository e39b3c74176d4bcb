package parsers

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// executiveTitles are the officer titles promoted into the executives list.
var executiveTitles = []string{
	"chief executive officer", "ceo",
	"chief financial officer", "cfo",
	"chief operating officer", "coo",
	"chief technology officer", "cto",
	"president", "chairman", "general counsel",
}

func isExecutiveTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, t := range executiveTitles {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// AggregateKeyPersons builds the people view of a company from the insider,
// governance, and institutional partials. activeWindowMonths controls the
// recency cutoff for the active flag.
func AggregateKeyPersons(
	insider *model.InsiderTrading,
	gov *model.CorporateGovernance,
	inst *model.InstitutionalOwnership,
	now time.Time,
	activeWindowMonths int,
) *model.KeyPersons {
	out := &model.KeyPersons{}
	cutoff := now.AddDate(0, -activeWindowMonths, 0)

	active := func(lastFiling string) bool {
		d, err := time.Parse("2006-01-02", lastFiling)
		if err != nil {
			return false
		}
		return !d.Before(cutoff)
	}

	if insider != nil && insider.Available {
		type agg struct {
			name       string
			title      string
			shares     float64
			netValue   float64
			lastFiling string
		}
		byName := make(map[string]*agg)
		for _, a := range insider.Activity {
			if !ValidPersonName(a.InsiderName) {
				continue
			}
			key := strings.ToLower(a.InsiderName)
			entry, ok := byName[key]
			if !ok {
				entry = &agg{name: a.InsiderName}
				byName[key] = entry
			}
			if a.InsiderTitle != "" {
				entry.title = a.InsiderTitle
			}
			entry.shares += a.NetShares
			entry.netValue += a.NetValue
			if a.FiledDate > entry.lastFiling {
				entry.lastFiling = a.FiledDate
			}
		}

		names := make([]string, 0, len(byName))
		for k := range byName {
			names = append(names, k)
		}
		sort.Strings(names)

		for _, key := range names {
			e := byName[key]
			person := model.KeyPerson{
				Name:       e.name,
				Title:      e.title,
				Role:       "insider",
				Shares:     e.shares,
				NetValue:   e.netValue,
				Signal:     SignalForNetValue(e.netValue),
				LastFiling: e.lastFiling,
				Active:     active(e.lastFiling),
			}
			out.InsiderHoldings = append(out.InsiderHoldings, person)
			if isExecutiveTitle(e.title) {
				exec := person
				exec.Role = "executive"
				out.Executives = append(out.Executives, exec)
			}
		}
	}

	if gov != nil && gov.Available {
		for _, d := range gov.Directors {
			if !ValidPersonName(d.Name) {
				continue
			}
			out.BoardMembers = append(out.BoardMembers, model.KeyPerson{
				Name:        d.Name,
				Role:        "director",
				Independent: d.Independent,
				Active:      true,
			})
		}
	}

	if inst != nil && inst.Available {
		for _, h := range inst.Holdings {
			if !ValidPersonName(h.InvestorName) {
				continue
			}
			out.InstitutionalInvestors = append(out.InstitutionalInvestors, model.KeyPerson{
				Name:       h.InvestorName,
				Role:       "institutional_investor",
				Shares:     h.SharesOwned,
				LastFiling: h.FiledDate,
				Active:     active(h.FiledDate),
			})
		}
	}

	out.Available = len(out.Executives) > 0 || len(out.BoardMembers) > 0 ||
		len(out.InsiderHoldings) > 0 || len(out.InstitutionalInvestors) > 0
	if !out.Available {
		out.Warn("no key persons identified from available filings")
	}
	return out
}
