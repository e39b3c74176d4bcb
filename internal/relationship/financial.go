package relationship

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/edgar-profiler/internal/model"
)

const (
	customerShareConfidence = 0.85
	supplierListConfidence  = 0.75

	hhiModerate = 1500.0
	hhiHigh     = 2500.0
)

var (
	customerShareRE = regexp.MustCompile(
		`([A-Z][A-Za-z0-9.,&' -]{2,50}?)\s+(?:accounted\s+for|represented)\s+(?:approximately\s+)?([\d.]+)%\s+of\s+(?:our\s+|total\s+|net\s+|consolidated\s+)?(?:revenue|revenues|net\s+sales|sales)`)

	supplierListRE = regexp.MustCompile(
		`(?i)(?:principal|primary|key|significant)\s+suppliers\s+(?:include|are)\s+([^.]{5,300})`)

	segmentRevenueRE = regexp.MustCompile(
		`(?i)(?:the\s+)?([A-Z][A-Za-z &]{2,40}?)\s+segment\s+(?:generated|reported|had)\s+(?:revenue|revenues|net\s+sales)\s+of\s+\$([\d,.]+)\s*(billion|million|thousand)?`)
)

// ExtractFinancial pulls disclosed customer shares, supplier lists, and
// segment revenues out of 10-K/10-Q narrative text and computes customer
// concentration over the known shares.
func ExtractFinancial(cik, text string) *model.FinancialRelationships {
	if text == "" {
		return nil
	}

	out := &model.FinancialRelationships{CIK: cik}

	seenCustomers := make(map[string]bool)
	for _, m := range customerShareRE.FindAllStringSubmatch(text, -1) {
		name := cleanEntityName(m[1])
		pct, err := strconv.ParseFloat(m[2], 64)
		if name == "" || err != nil || pct <= 0 || pct > 100 {
			continue
		}
		if seenCustomers[strings.ToLower(name)] {
			continue
		}
		seenCustomers[strings.ToLower(name)] = true
		out.TopCustomers = append(out.TopCustomers, model.CustomerShare{
			Name:           name,
			RevenuePercent: pct,
			Confidence:     customerShareConfidence,
		})
	}
	sort.Slice(out.TopCustomers, func(i, j int) bool {
		return out.TopCustomers[i].RevenuePercent > out.TopCustomers[j].RevenuePercent
	})

	seenSuppliers := make(map[string]bool)
	for _, m := range supplierListRE.FindAllStringSubmatch(text, -1) {
		for _, name := range splitEnumeration(m[1]) {
			if name == "" || seenSuppliers[strings.ToLower(name)] {
				continue
			}
			seenSuppliers[strings.ToLower(name)] = true
			out.Suppliers = append(out.Suppliers, model.SupplierMention{
				Name:       name,
				Confidence: supplierListConfidence,
			})
		}
	}

	for _, m := range segmentRevenueRE.FindAllStringSubmatch(text, -1) {
		revenue := parseDollar(m[2], m[3])
		if revenue <= 0 {
			continue
		}
		out.Segments = append(out.Segments, model.SegmentRevenue{
			Segment: strings.TrimSpace(m[1]),
			Revenue: revenue,
		})
	}

	if len(out.TopCustomers) > 0 {
		out.Concentration = Concentrate(out.TopCustomers)
	}

	if len(out.TopCustomers) == 0 && len(out.Suppliers) == 0 && len(out.Segments) == 0 {
		return nil
	}
	return out
}

// Concentrate computes the Herfindahl index over known customer shares
// (percent points squared, so one 100% customer scores 10000) and the top-5
// concentration ratio.
func Concentrate(customers []model.CustomerShare) *model.Concentration {
	c := &model.Concentration{}
	for i, cust := range customers {
		c.HHI += cust.RevenuePercent * cust.RevenuePercent
		if i < 5 {
			c.Top5Ratio += cust.RevenuePercent / 100
		}
	}
	switch {
	case c.HHI >= hhiHigh:
		c.Classification = "HIGH"
	case c.HHI >= hhiModerate:
		c.Classification = "MODERATE"
	default:
		c.Classification = "LOW"
	}
	return c
}

// splitEnumeration breaks "X, Y and Z" style lists into entity names.
func splitEnumeration(list string) []string {
	list = strings.ReplaceAll(list, " and ", ",")
	list = strings.ReplaceAll(list, ";", ",")
	var out []string
	for _, part := range strings.Split(list, ",") {
		if name := cleanEntityName(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// cleanEntityName trims connective noise around an extracted entity name
// and rejects fragments that do not look like names.
func cleanEntityName(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"and ", "of ", "our ", "the ", "including "} {
		s = strings.TrimPrefix(s, prefix)
		s = strings.TrimPrefix(s, strings.ToUpper(prefix[:1])+prefix[1:])
	}
	s = strings.Trim(s, " .,;:")
	if len(s) < 3 || len(s) > 60 {
		return ""
	}
	if s == strings.ToLower(s) {
		// All-lowercase fragments are prose, not proper names.
		return ""
	}
	return s
}

func parseDollar(amount, scale string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(scale) {
	case "billion":
		return v * 1e9
	case "million":
		return v * 1e6
	case "thousand":
		return v * 1e3
	default:
		return v
	}
}
