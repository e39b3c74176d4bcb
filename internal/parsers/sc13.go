package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/edgar-profiler/internal/model"
)

var (
	reportingPersonRE = regexp.MustCompile(`(?i)names?\s+of\s+reporting\s+persons?`)
	percentOfClassRE  = regexp.MustCompile(`(?is)percent(?:age)?\s+of\s+class.{0,200}?([\d.]+)\s*%`)
	aggregateAmountRE = regexp.MustCompile(`(?is)aggregate\s+amount\s+(?:of\s+shares\s+)?beneficially\s+owned.{0,200}?([\d,]{4,})`)
	item4RE           = regexp.MustCompile(`(?is)item\s+4[.:\s]+purpose\s+of\s+(?:the\s+)?transaction(.{0,1000}.{0,1000}.{0,1000}.{0,1000})`)
)

// intentPattern pairs an activist-intent tag with its trigger keywords.
// Order matters: ties between tags resolve to the first listed.
type intentPattern struct {
	intent   model.ActivistIntent
	keywords []string
}

var intentPatterns = []intentPattern{
	{model.IntentAcquisition, []string{"acquire control", "acquisition of", "merger", "tender offer", "business combination"}},
	{model.IntentBoardGovernance, []string{"board of directors", "board representation", "director nominee", "corporate governance", "board seat"}},
	{model.IntentStrategicAlts, []string{"strategic alternatives", "strategic review", "divestiture", "spin-off", "sale of the company"}},
	{model.IntentInvestmentOnly, []string{"investment purposes", "ordinary course of business", "passive investment", "not with the purpose"}},
	{model.IntentGeneralActivism, []string{"discussions with management", "engage with", "shareholder value", "maximize value"}},
}

// ParseSC13 parses one SC 13D or 13G document into an institutional holding.
// Returns nil when no valid reporting person can be extracted.
func ParseSC13(data []byte, formType model.FormType) *model.InstitutionalHolding {
	text := htmlToText(data)
	if text == "" {
		return nil
	}

	name := extractReportingPerson(text)
	if name == "" {
		return nil
	}

	h := &model.InstitutionalHolding{
		InvestorName: name,
		FormType:     formType,
		IsActivist:   formType == model.FormSC13D,
	}

	if m := percentOfClassRE.FindStringSubmatch(text); m != nil {
		h.OwnershipPercent = parseNum(m[1])
	}
	if m := aggregateAmountRE.FindStringSubmatch(text); m != nil {
		h.SharesOwned = parseNum(m[1])
	}

	// Intent only carries meaning on a 13D; a 13G filer is passive by form.
	if h.IsActivist {
		if m := item4RE.FindStringSubmatch(text); m != nil {
			purpose := m[1]
			h.ActivistIntent = classifyIntent(purpose)
			h.PurposeExcerpt = excerpt(purpose, 300)
		} else {
			h.ActivistIntent = model.IntentGeneralActivism
		}
	}
	return h
}

// extractReportingPerson finds the filer name following a "Name of Reporting
// Person" label, skipping form boilerplate via the shared name validation.
func extractReportingPerson(text string) string {
	loc := reportingPersonRE.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	for _, line := range strings.SplitN(rest, "\n", 12) {
		line = strings.TrimSpace(strings.Trim(line, ":.-"))
		if line == "" {
			continue
		}
		candidate := NormalizePersonName(line)
		if ValidPersonName(candidate) {
			return candidate
		}
	}
	return ""
}

// classifyIntent scores the Item 4 text against the pattern bank and returns
// the highest-scoring intent; enumeration order breaks ties.
func classifyIntent(purpose string) model.ActivistIntent {
	lower := strings.ToLower(purpose)
	best := model.IntentGeneralActivism
	bestScore := 0
	for _, p := range intentPatterns {
		score := 0
		for _, kw := range p.keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			best = p.intent
			bestScore = score
		}
	}
	return best
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// AggregateInstitutional rolls per-filing holdings up to the company level,
// deduplicating by investor name with the most recent filing winning.
func AggregateInstitutional(holdings []model.InstitutionalHolding, parsed, total int) *model.InstitutionalOwnership {
	out := &model.InstitutionalOwnership{}
	if total == 0 {
		out.Warn("no SC 13D/G filings in window")
		return out
	}
	if parsed < total {
		out.Warn(fmt.Sprintf("%d of %d SC 13D/G documents unparseable", total-parsed, total))
	}
	if len(holdings) == 0 {
		return out
	}

	seen := make(map[string]int)
	for _, h := range holdings {
		key := strings.ToLower(h.InvestorName)
		if i, ok := seen[key]; ok {
			if h.FiledDate > out.Holdings[i].FiledDate {
				out.Holdings[i] = h
			}
			continue
		}
		seen[key] = len(out.Holdings)
		out.Holdings = append(out.Holdings, h)
	}

	for _, h := range out.Holdings {
		if h.IsActivist {
			out.ActivistCount++
		}
	}
	out.Available = true
	return out
}
