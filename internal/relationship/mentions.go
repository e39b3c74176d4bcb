// Package relationship extracts company-to-company edges and financial
// relationships from filing narrative text, using a known-companies
// directory for mention detection.
package relationship

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sells-group/edgar-profiler/internal/directory"
)

// Mention confidence tiers by match method.
const (
	confExactName = 0.99
	confTicker    = 0.98
	confAlias     = 0.95
	fuzzyFloor    = 0.80
	fuzzyCeil     = 0.95
)

// Mention is one detected reference to a known company in text.
type Mention struct {
	TargetCIK  string
	TargetName string
	Confidence float64
	Method     string
}

var tickerTokenRE = regexp.MustCompile(`\$?[A-Z]{2,5}\b`)

// Mentions scans text for references to directory companies and returns one
// mention per target CIK, keeping the highest-confidence match. sourceCIK
// mentions of itself are dropped.
func Mentions(text string, dir *directory.Directory, sourceCIK string, fuzzyThreshold float64) []Mention {
	if text == "" || dir == nil || dir.Len() == 0 {
		return nil
	}
	lower := strings.ToLower(text)

	best := make(map[string]Mention)
	record := func(e directory.Entry, conf float64, method string) {
		if e.CIK == sourceCIK {
			return
		}
		if cur, ok := best[e.CIK]; !ok || conf > cur.Confidence {
			best[e.CIK] = Mention{
				TargetCIK:  e.CIK,
				TargetName: e.Name,
				Confidence: conf,
				Method:     method,
			}
		}
	}

	for _, e := range dir.Entries() {
		canonical := strings.ToLower(e.Name)
		if canonical != "" && containsWord(lower, canonical) {
			record(e, confExactName, "exact_name")
			continue
		}

		aliasHit := false
		for _, alias := range e.Aliases {
			if a := strings.ToLower(alias); a != "" && containsWord(lower, a) {
				record(e, confAlias, "alias")
				aliasHit = true
				break
			}
		}
		if aliasHit {
			continue
		}

		// Fuzzy: compare the normalized canonical name against candidate
		// spans of the same token length.
		if sim := bestFuzzy(lower, directory.NormalizeName(e.Name)); sim >= fuzzyThreshold {
			conf := fuzzyFloor + (fuzzyCeil-fuzzyFloor)*(sim-fuzzyThreshold)/(1-fuzzyThreshold)
			record(e, conf, "fuzzy")
		}
	}

	// Ticker pass over the original casing: $TSM or a stand-alone uppercase
	// token bounded by non-word characters.
	for _, tok := range tickerTokenRE.FindAllString(text, -1) {
		ticker := strings.TrimPrefix(tok, "$")
		if e, ok := dir.ByTicker(ticker); ok {
			record(e, confTicker, "ticker")
		}
	}

	out := make([]Mention, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].TargetCIK < out[j].TargetCIK
	})
	return out
}

// containsWord reports whether needle appears in haystack at word boundaries.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// bestFuzzy slides a window of the target's token count across the text and
// returns the best token-set similarity seen.
func bestFuzzy(lowerText, normalizedTarget string) float64 {
	targetTokens := strings.Fields(normalizedTarget)
	if len(targetTokens) == 0 {
		return 0
	}
	textTokens := strings.Fields(strings.Map(stripPunct, lowerText))
	if len(textTokens) < len(targetTokens) {
		return 0
	}

	best := 0.0
	for i := 0; i+len(targetTokens) <= len(textTokens); i++ {
		candidate := strings.Join(textTokens[i:i+len(targetTokens)], " ")
		if sim := levenshtein.Similarity(candidate, normalizedTarget, nil); sim > best {
			best = sim
		}
	}
	return best
}

func stripPunct(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '\n', r == '\t':
		return r
	default:
		return ' '
	}
}
