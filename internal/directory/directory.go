// Package directory holds the known-companies directory used for company
// mention detection: canonical names, tickers, and aliases keyed by CIK.
package directory

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// Entry is one known company.
type Entry struct {
	CIK     string   `yaml:"cik" json:"cik"`
	Ticker  string   `yaml:"ticker" json:"ticker"`
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

type directoryFile struct {
	Companies []Entry `yaml:"companies"`
}

// Directory indexes known companies by canonical name, ticker, and alias.
// Name keys are normalized (lowercase, punctuation and corporate suffixes
// stripped) so lookups survive formatting differences.
type Directory struct {
	entries  []Entry
	byCIK    map[string]int
	byTicker map[string]int
	byName   map[string]int // normalized canonical name
	byAlias  map[string]int // normalized alias
}

// Load reads a YAML company directory from path.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "directory: read file")
	}
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "directory: parse yaml")
	}
	return New(f.Companies), nil
}

// New builds a directory from entries. Entries without a CIK are skipped;
// later duplicates of a CIK are ignored.
func New(entries []Entry) *Directory {
	d := &Directory{
		byCIK:    make(map[string]int),
		byTicker: make(map[string]int),
		byName:   make(map[string]int),
		byAlias:  make(map[string]int),
	}
	for _, e := range entries {
		if !model.ValidCIK(strings.TrimLeft(e.CIK, "0")) {
			continue
		}
		e.CIK = model.PadCIK(e.CIK)
		if _, dup := d.byCIK[e.CIK]; dup {
			continue
		}
		idx := len(d.entries)
		d.entries = append(d.entries, e)
		d.byCIK[e.CIK] = idx
		if e.Ticker != "" {
			d.byTicker[strings.ToUpper(e.Ticker)] = idx
		}
		if key := NormalizeName(e.Name); key != "" {
			d.byName[key] = idx
		}
		for _, alias := range e.Aliases {
			if key := NormalizeName(alias); key != "" {
				d.byAlias[key] = idx
			}
		}
	}
	return d
}

// Entries returns all companies in insertion order.
func (d *Directory) Entries() []Entry {
	return d.entries
}

// Len returns the number of companies in the directory.
func (d *Directory) Len() int {
	return len(d.entries)
}

// ByCIK looks a company up by CIK in any zero-padding.
func (d *Directory) ByCIK(cik string) (Entry, bool) {
	idx, ok := d.byCIK[model.PadCIK(cik)]
	if !ok {
		return Entry{}, false
	}
	return d.entries[idx], true
}

// ByTicker looks a company up by ticker, case-insensitively.
func (d *Directory) ByTicker(ticker string) (Entry, bool) {
	idx, ok := d.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return Entry{}, false
	}
	return d.entries[idx], true
}

// ByName looks a company up by canonical name after normalization.
func (d *Directory) ByName(name string) (Entry, bool) {
	idx, ok := d.byName[NormalizeName(name)]
	if !ok {
		return Entry{}, false
	}
	return d.entries[idx], true
}

// ByAlias looks a company up by one of its aliases after normalization.
func (d *Directory) ByAlias(name string) (Entry, bool) {
	idx, ok := d.byAlias[NormalizeName(name)]
	if !ok {
		return Entry{}, false
	}
	return d.entries[idx], true
}

var (
	punctRE = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

	// corporateSuffixes are stripped from the tail of normalized names.
	corporateSuffixes = []string{
		"incorporated", "corporation", "company", "limited",
		"inc", "corp", "co", "ltd", "plc", "llc", "lp", "sa", "nv", "ag",
	}
)

// NormalizeName lowercases, strips punctuation, and drops trailing corporate
// suffixes so "Apple Inc." and "apple" compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = punctRE.ReplaceAllString(name, "")
	tokens := strings.Fields(name)

	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		stripped := false
		for _, suffix := range corporateSuffixes {
			if last == suffix {
				tokens = tokens[:len(tokens)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(tokens, " ")
}
