package parsers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameDenyList holds lowercase substrings that mark a candidate "name" as
// form boilerplate rather than a person or investor. Matched case-insensitively.
var nameDenyList = []string{
	"check the appropriate",
	"cusip",
	"irs identification",
	"i.r.s.",
	"employer identification",
	"table of contents",
	"schedule 13",
	"securities and exchange",
	"washington, d.c",
	"commission file",
	"pursuant to",
	"amendment no",
	"name of reporting person",
	"name of issuer",
	"title of class",
	"sole voting power",
	"shared voting power",
	"sole dispositive",
	"shared dispositive",
	"aggregate amount",
	"percent of class",
	"type of reporting",
	"item 4",
	"source of funds",
	"citizenship or place",
	"not applicable",
	"see instructions",
	"page ",
	"exhibit ",
}

var titleCaser = cases.Title(language.English)

// ValidPersonName reports whether s looks like a real person or investor
// name: 5-50 chars, at least one space, digit ratio below 30%, not on the
// boilerplate deny-list, not an all-uppercase heading.
func ValidPersonName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 5 || len(s) > 50 {
		return false
	}
	if !strings.Contains(s, " ") {
		return false
	}

	var digits int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if float64(digits)/float64(len(s)) >= 0.30 {
		return false
	}

	lower := strings.ToLower(s)
	for _, deny := range nameDenyList {
		if strings.Contains(lower, deny) {
			return false
		}
	}

	if s == strings.ToUpper(s) && strings.ToLower(s) != s {
		return false
	}
	return true
}

// NormalizePersonName title-cases an SEC-style all-caps name ("COOK TIMOTHY D"
// becomes "Cook Timothy D") and collapses interior whitespace.
func NormalizePersonName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == strings.ToUpper(s) {
		return titleCaser.String(strings.ToLower(s))
	}
	return s
}
