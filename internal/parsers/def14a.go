package parsers

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/edgar-profiler/internal/model"
)

var (
	payRatioRE       = regexp.MustCompile(`(?i)(?:pay\s+)?ratio[^.\d]{0,120}?([\d,]+(?:\.\d+)?)\s*(?:to|:)\s*1`)
	medianEmployeeRE = regexp.MustCompile(`(?i)median\s+(?:annual\s+total\s+compensation\s+of\s+)?(?:all\s+)?employee[s]?[^$]{0,160}?\$\s*([\d,]+)`)
	ceoTotalRE       = regexp.MustCompile(`(?i)(?:chief\s+executive\s+officer|ceo)[^$]{0,200}?(?:annual\s+total\s+compensation|total\s+compensation)[^$]{0,80}?\$\s*([\d,]+)`)
	dollarRE         = regexp.MustCompile(`\$?\s*([\d,]+(?:\.\d+)?)`)

	// directorNameRE matches a title-cased person name ahead of a Director
	// designation in proxy text.
	directorNameRE = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z]\.?)?(?:\s+[A-Z][a-zA-Z'-]+){1,2})[\s,]{1,10}(?:an?\s+)?(?:Independent\s+)?Director`)

	independentKeywords = []string{"independent", "non-employee", "outside director"}
)

const independenceWindow = 50

// ParseDEF14A extracts executive compensation and board composition from a
// proxy statement. Malformed documents come back unavailable with warnings.
func ParseDEF14A(data []byte) *model.CorporateGovernance {
	out := &model.CorporateGovernance{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		out.Warn("proxy statement not parseable as HTML")
		return out
	}
	doc.Find("script, style").Remove()
	text := normalizeText(doc.Text())
	if text == "" {
		out.Warn("proxy statement has no text content")
		return out
	}

	compFound := parseCompensation(doc, text, out)
	boardFound := parseBoard(text, out)

	if !compFound {
		out.Warn("no executive compensation figures found")
	}
	if !boardFound {
		out.Warn("no director information found")
	}
	out.Available = compFound || boardFound
	return out
}

// parseCompensation reads the summary compensation table when present and
// falls back to narrative pay-ratio disclosures.
func parseCompensation(doc *goquery.Document, text string, out *model.CorporateGovernance) bool {
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		tableText := strings.ToLower(table.Text())
		if !strings.Contains(tableText, "salary") || !strings.Contains(tableText, "total") {
			return true
		}

		// CEO is the first data row of the summary compensation table.
		header, row := compTableRows(table)
		if header == nil || row == nil {
			return true
		}

		salaryIdx := columnIndex(header, "salary")
		bonusIdx := columnIndex(header, "bonus")
		stockIdx := columnIndex(header, "stock")
		totalIdx := columnIndex(header, "total")

		if v := cellDollar(row, salaryIdx); v > 0 {
			out.Compensation.CEOSalary = v
			found = true
		}
		if v := cellDollar(row, bonusIdx); v > 0 {
			out.Compensation.CEOBonus = v
			found = true
		}
		if v := cellDollar(row, stockIdx); v > 0 {
			out.Compensation.CEOStock = v
			found = true
		}
		if v := cellDollar(row, totalIdx); v > 0 {
			out.Compensation.CEOTotal = v
			found = true
		}
		return !found
	})

	if out.Compensation.CEOTotal == 0 {
		if m := ceoTotalRE.FindStringSubmatch(text); m != nil {
			out.Compensation.CEOTotal = parseNum(m[1])
			found = found || out.Compensation.CEOTotal > 0
		}
	}
	if m := medianEmployeeRE.FindStringSubmatch(text); m != nil {
		out.Compensation.MedianEmployee = parseNum(m[1])
		found = found || out.Compensation.MedianEmployee > 0
	}
	if m := payRatioRE.FindStringSubmatch(text); m != nil {
		out.Compensation.PayRatio = parseNum(m[1])
	}
	// Computed ratio when disclosed components exist but the ratio is absent.
	if out.Compensation.PayRatio == 0 && out.Compensation.CEOTotal > 0 && out.Compensation.MedianEmployee > 0 {
		out.Compensation.PayRatio = out.Compensation.CEOTotal / out.Compensation.MedianEmployee
	}
	return found
}

// compTableRows returns the header cells and the first data row of a
// summary compensation table.
func compTableRows(table *goquery.Selection) (header, firstData *goquery.Selection) {
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		rowText := strings.ToLower(tr.Text())
		if header == nil {
			if strings.Contains(rowText, "salary") {
				header = tr
			}
			return true
		}
		if dollarRE.MatchString(tr.Text()) && len(strings.TrimSpace(tr.Text())) > 10 {
			firstData = tr
			return false
		}
		return true
	})
	return header, firstData
}

func columnIndex(header *goquery.Selection, label string) int {
	idx := -1
	header.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		if idx < 0 && strings.Contains(strings.ToLower(cell.Text()), label) {
			idx = i
		}
	})
	return idx
}

func cellDollar(row *goquery.Selection, idx int) float64 {
	if idx < 0 {
		return 0
	}
	cells := row.Find("td, th")
	if idx >= cells.Length() {
		return 0
	}
	m := dollarRE.FindStringSubmatch(cells.Eq(idx).Text())
	if m == nil {
		return 0
	}
	return parseNum(m[1])
}

// parseBoard finds director names and decides independence by keyword
// proximity within the surrounding text window. Directors whose independence
// cannot be determined stay counted.
func parseBoard(text string, out *model.CorporateGovernance) bool {
	matches := directorNameRE.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return false
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if !ValidPersonName(name) || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out.Board.TotalDirectors++

		lo := max(0, m[2]-independenceWindow)
		hi := min(len(text), m[3]+independenceWindow)
		window := strings.ToLower(text[lo:hi])

		independent := "unknown"
		for _, kw := range independentKeywords {
			if strings.Contains(window, kw) {
				independent = "yes"
				break
			}
		}
		if independent == "yes" {
			out.Board.IndependentDirectors++
		} else {
			out.Board.UnknownDirectors++
		}
		out.Directors = append(out.Directors, model.Director{Name: name, Independent: independent})
	}

	if out.Board.TotalDirectors > 0 {
		out.Board.IndependenceRatio = float64(out.Board.IndependentDirectors) / float64(out.Board.TotalDirectors)
	}
	return out.Board.TotalDirectors > 0
}
