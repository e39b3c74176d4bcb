package relationship

import (
	"strings"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// Pattern base confidences for the context classifier.
const (
	strongPatternBase = 0.90
	mediumPatternBase = 0.65
)

// relationshipPattern labels one relationship type with its trigger phrases.
// Order matters: the first type whose patterns match a sentence wins.
type relationshipPattern struct {
	relType model.RelationshipType
	strong  []string
	medium  []string
}

var relationshipPatterns = []relationshipPattern{
	{
		relType: model.RelSupplier,
		strong:  []string{"supplier of", "supplies", "sources components from", "purchase components from", "purchases components from", "procures from"},
		medium:  []string{"manufactures for", "provides components", "sourcing agreement"},
	},
	{
		relType: model.RelCustomer,
		strong:  []string{"customer of", "sells to", "largest customer", "accounted for"},
		medium:  []string{"sales to", "orders from"},
	},
	{
		relType: model.RelCompetitor,
		strong:  []string{"competes with", "competitor", "competes directly"},
		medium:  []string{"competition from", "rival", "competitive pressure from"},
	},
	{
		relType: model.RelPartner,
		strong:  []string{"partnership with", "joint venture", "strategic alliance", "collaborates with"},
		medium:  []string{"agreement with", "works with", "alliance"},
	},
	{
		relType: model.RelInvestor,
		strong:  []string{"invested in", "equity stake in", "acquired a stake"},
		medium:  []string{"shareholder of", "holds shares"},
	},
	{
		relType: model.RelSubsidiary,
		strong:  []string{"subsidiary of", "wholly owned subsidiary", "wholly-owned subsidiary"},
		medium:  []string{"owned by"},
	},
	{
		relType: model.RelParent,
		strong:  []string{"parent company of", "parent of"},
		medium:  []string{"controls"},
	},
}

// classifySentence returns the relationship type and pattern base confidence
// for a sentence, or false when no pattern matches.
func classifySentence(sentence string) (model.RelationshipType, float64, bool) {
	lower := strings.ToLower(sentence)
	for _, p := range relationshipPatterns {
		for _, phrase := range p.strong {
			if strings.Contains(lower, phrase) {
				return p.relType, strongPatternBase, true
			}
		}
	}
	for _, p := range relationshipPatterns {
		for _, phrase := range p.medium {
			if strings.Contains(lower, phrase) {
				return p.relType, mediumPatternBase, true
			}
		}
	}
	return "", 0, false
}
