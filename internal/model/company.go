// Package model defines the shared data types for the profile engine:
// companies, filing references, extractor partials, unified profiles,
// relationship edges, and failure records.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Company identifies a US-listed company. CIK is the canonical key,
// rendered as a 10-digit zero-padded string.
type Company struct {
	CIK    string `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// PadCIK normalizes a CIK string to the canonical 10-digit zero-padded form.
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	return fmt.Sprintf("%010s", cik)
}

// ValidCIK reports whether s is a well-formed CIK (1-10 digits).
func ValidCIK(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormType tags a filing with its SEC form. The engine treats the tag as an
// opaque discriminant routed to the matching parser.
type FormType string

const (
	Form10K   FormType = "10-K"
	Form10Q   FormType = "10-Q"
	Form8K    FormType = "8-K"
	Form4     FormType = "4"
	FormSC13D FormType = "SC 13D"
	FormSC13G FormType = "SC 13G"
	FormDEF14 FormType = "DEF 14A"
)

// FilingRef is one entry in a company's filing index. Immutable.
type FilingRef struct {
	CIK             string   `json:"cik"`
	Accession       string   `json:"accession"`
	FormType        FormType `json:"form_type"`
	FilingDate      string   `json:"filed_date"`
	ReportDate      string   `json:"report_date"`
	PrimaryDocument string   `json:"primary_document"`
	Size            int      `json:"size,omitempty"`
}

// Bundle is the cached byte payload representing one company's fetched
// filings for a given lookback window.
type Bundle struct {
	CIK           string            `json:"cik"`
	Ticker        string            `json:"ticker"`
	CompanyName   string            `json:"company_name"`
	LookbackYears int               `json:"lookback_years"`
	FetchedAt     time.Time         `json:"fetched_at"`
	Filings       []FilingRef       `json:"filings"`
	Facts         []byte            `json:"facts,omitempty"`
	Documents     map[string][]byte `json:"documents,omitempty"`
}

// FilingsOfType returns the bundle's filing references for one form type,
// in index order (EDGAR serves most-recent first).
func (b *Bundle) FilingsOfType(ft FormType) []FilingRef {
	var out []FilingRef
	for _, f := range b.Filings {
		if f.FormType == ft {
			out = append(out, f)
		}
	}
	return out
}

// Document returns the cached document body for an accession, if present.
func (b *Bundle) Document(accession string) ([]byte, bool) {
	doc, ok := b.Documents[accession]
	return doc, ok
}

// TotalSize returns the approximate in-memory size of the bundle payload.
func (b *Bundle) TotalSize() int64 {
	size := int64(len(b.Facts))
	for _, doc := range b.Documents {
		size += int64(len(doc))
	}
	return size
}
