package edgar

// SubmissionsDoc is the merged view of a company's submissions index: the
// base document plus any continuation chunks, arrays concatenated in the
// order returned.
type SubmissionsDoc struct {
	CIK           string     `json:"cik"`
	Name          string     `json:"name"`
	Tickers       []string   `json:"tickers"`
	Exchanges     []string   `json:"exchanges"`
	SIC           string     `json:"sic"`
	SICDesc       string     `json:"sicDescription"`
	EntityType    string     `json:"entityType"`
	FiscalYearEnd string     `json:"fiscalYearEnd"`
	Filings       FilingList `json:"-"`
}

// FilingList holds the column-oriented filing index EDGAR serves: parallel
// arrays indexed by filing position.
type FilingList struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	PrimaryDocDesc  []string `json:"primaryDocDescription"`
	Items           []string `json:"items"`
	Size            []int    `json:"size"`
	IsXBRL          []int    `json:"isXBRL"`
	IsInlineXBRL    []int    `json:"isInlineXBRL"`
}

// Len returns the number of filings in the list (bounded by the accession
// array; other arrays may be shorter in malformed documents).
func (l *FilingList) Len() int {
	return len(l.AccessionNumber)
}

// Append concatenates another chunk onto the list, order preserved.
func (l *FilingList) Append(other FilingList) {
	l.AccessionNumber = append(l.AccessionNumber, other.AccessionNumber...)
	l.FilingDate = append(l.FilingDate, other.FilingDate...)
	l.ReportDate = append(l.ReportDate, other.ReportDate...)
	l.Form = append(l.Form, other.Form...)
	l.PrimaryDocument = append(l.PrimaryDocument, other.PrimaryDocument...)
	l.PrimaryDocDesc = append(l.PrimaryDocDesc, other.PrimaryDocDesc...)
	l.Items = append(l.Items, other.Items...)
	l.Size = append(l.Size, other.Size...)
	l.IsXBRL = append(l.IsXBRL, other.IsXBRL...)
	l.IsInlineXBRL = append(l.IsInlineXBRL, other.IsInlineXBRL...)
}

// submissionsJSON mirrors the raw EDGAR submissions document.
type submissionsJSON struct {
	CIK           any      `json:"cik"`
	Name          string   `json:"name"`
	Tickers       []string `json:"tickers"`
	Exchanges     []string `json:"exchanges"`
	SIC           string   `json:"sic"`
	SICDesc       string   `json:"sicDescription"`
	EntityType    string   `json:"entityType"`
	FiscalYearEnd string   `json:"fiscalYearEnd"`
	Filings       struct {
		Recent FilingList `json:"recent"`
		Files  []struct {
			Name        string `json:"name"`
			FilingCount int    `json:"filingCount"`
			FilingFrom  string `json:"filingFrom"`
			FilingTo    string `json:"filingTo"`
		} `json:"files"`
	} `json:"filings"`
}

// continuationJSON mirrors a filings continuation chunk, which is a bare
// FilingList document.
type continuationJSON = FilingList
