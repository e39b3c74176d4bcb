package model

import "time"

// RelationshipType classifies a directed edge between two companies.
type RelationshipType string

const (
	RelSupplier   RelationshipType = "supplier"
	RelCustomer   RelationshipType = "customer"
	RelCompetitor RelationshipType = "competitor"
	RelPartner    RelationshipType = "partner"
	RelInvestor   RelationshipType = "investor"
	RelSubsidiary RelationshipType = "subsidiary"
	RelParent     RelationshipType = "parent"
)

// Edge is a directed, typed relationship between two companies. Uniqueness
// key is (source_cik, target_cik, relationship_type); upserts increment
// mention_count, extend last_mentioned, and keep the maximum confidence.
type Edge struct {
	SourceCIK        string           `json:"source_cik"`
	TargetCIK        string           `json:"target_cik"`
	TargetName       string           `json:"target_name,omitempty"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Confidence       float64          `json:"confidence"`
	ExtractionMethod string           `json:"extraction_method"`
	ContextExcerpt   string           `json:"context_excerpt,omitempty"`
	FirstMentioned   time.Time        `json:"first_mentioned"`
	LastMentioned    time.Time        `json:"last_mentioned"`
	MentionCount     int              `json:"mention_count"`
}

// CustomerShare is one disclosed customer revenue concentration.
type CustomerShare struct {
	Name           string  `json:"name"`
	RevenuePercent float64 `json:"revenue_percent"`
	Confidence     float64 `json:"confidence"`
}

// SupplierMention is one supplier named in narrative text.
type SupplierMention struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// SegmentRevenue is one reporting-segment revenue line.
type SegmentRevenue struct {
	Segment string  `json:"segment"`
	Revenue float64 `json:"revenue"`
}

// Concentration quantifies customer concentration via the Herfindahl index
// over known customer shares (%-points squared) plus the top-5 ratio.
type Concentration struct {
	HHI            float64 `json:"hhi"`
	Classification string  `json:"classification"`
	Top5Ratio      float64 `json:"top5_ratio"`
}

// FinancialRelationships holds customer/supplier/segment extraction for one
// company, upserted keyed by cik.
type FinancialRelationships struct {
	CIK           string            `json:"cik"`
	TopCustomers  []CustomerShare   `json:"top_customers,omitempty"`
	Suppliers     []SupplierMention `json:"suppliers,omitempty"`
	Segments      []SegmentRevenue  `json:"segments,omitempty"`
	Concentration *Concentration    `json:"concentration,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
