package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// narrativeKeywords is the fixed list counted per section.
var narrativeKeywords = []string{
	"risk", "litigation", "cyber", "regulatory", "liquidity",
	"macroeconomic", "revenue", "cash", "debt",
}

// sectionAnchors pairs each tracked section with the heading regex that
// opens it. Item numbers appear with varied punctuation across filers.
var sectionAnchors = []struct {
	name string
	re   *regexp.Regexp
}{
	{"item_1", regexp.MustCompile(`(?i)item\s+1[.:\s]+business`)},
	{"item_1a", regexp.MustCompile(`(?i)item\s+1a[.:\s]+risk\s+factors`)},
	{"item_7", regexp.MustCompile(`(?i)item\s+7[.:\s]+management.{0,3}s\s+discussion`)},
	{"item_7a", regexp.MustCompile(`(?i)item\s+7a[.:\s]+quantitative\s+and\s+qualitative`)},
	{"item_8", regexp.MustCompile(`(?i)item\s+8[.:\s]+financial\s+statements`)},
}

// NarrativeDoc is one report body handed to the narrative parser.
type NarrativeDoc struct {
	Ref  model.FilingRef
	Body []byte
}

// ParseNarrative analyzes the supplied 10-K/10-Q bodies: splits out the
// tracked sections, counts keywords per section, and aggregates risk
// language across reports. Section text is retained (unserialized) for the
// relationship extractor.
func ParseNarrative(docs []NarrativeDoc) *model.NarrativeAnalysis {
	out := &model.NarrativeAnalysis{
		RiskKeywords: make(map[string]int),
		SectionTexts: make(map[string]string),
	}
	if len(docs) == 0 {
		out.Warn("no 10-K or 10-Q bodies available")
		return out
	}

	for _, doc := range docs {
		text := htmlToText(doc.Body)
		if text == "" {
			out.Warn(fmt.Sprintf("empty or unparseable body for %s", doc.Ref.Accession))
			continue
		}

		report := model.ReportAnalysis{
			Accession: doc.Ref.Accession,
			FormType:  doc.Ref.FormType,
			FiledDate: doc.Ref.FilingDate,
		}

		secs := splitSections(text)
		for _, anchor := range sectionAnchors {
			body, ok := secs[anchor.name]
			if !ok {
				continue
			}
			sa := model.SectionAnalysis{
				Section:       anchor.name,
				WordCount:     len(strings.Fields(body)),
				KeywordCounts: countKeywords(body),
			}
			report.Sections = append(report.Sections, sa)
			out.TotalWords += sa.WordCount
			for kw, n := range sa.KeywordCounts {
				out.RiskKeywords[kw] += n
			}

			key := string(doc.Ref.FormType)
			if out.SectionTexts[key] != "" {
				out.SectionTexts[key] += "\n"
			}
			out.SectionTexts[key] += body
		}

		if len(report.Sections) == 0 {
			out.Warn(fmt.Sprintf("no recognizable sections in %s", doc.Ref.Accession))
			continue
		}
		out.Reports = append(out.Reports, report)
	}

	out.Available = len(out.Reports) > 0
	return out
}

// splitSections slices the document at each matched section anchor. A
// section runs to the next anchor match or end of document.
func splitSections(text string) map[string]string {
	type hit struct {
		name  string
		start int
	}
	var hits []hit
	for _, anchor := range sectionAnchors {
		// Skip the table-of-contents region; headings repeat there.
		locs := anchor.re.FindAllStringIndex(text, 2)
		if locs == nil {
			continue
		}
		loc := locs[len(locs)-1]
		hits = append(hits, hit{name: anchor.name, start: loc[0]})
	}
	if len(hits) == 0 {
		return nil
	}

	out := make(map[string]string, len(hits))
	for _, h := range hits {
		end := len(text)
		for _, other := range hits {
			if other.start > h.start && other.start < end {
				end = other.start
			}
		}
		out[h.name] = text[h.start:end]
	}
	return out
}

func countKeywords(body string) map[string]int {
	lower := strings.ToLower(body)
	counts := make(map[string]int, len(narrativeKeywords))
	for _, kw := range narrativeKeywords {
		if n := strings.Count(lower, kw); n > 0 {
			counts[kw] = n
		}
	}
	return counts
}
