package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPersonName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"normal name", "Timothy Cook", true},
		{"fund name", "Starboard Value LP", true},
		{"too short", "T C", false},
		{"too long", "A Person With An Extremely Long Name That Keeps Going Forever", false},
		{"no space", "TimothyCook", false},
		{"irs number", "I.R.S. Identification No. 13-3434400", false},
		{"digit heavy", "13-3434400 88 77", false},
		{"cusip boilerplate", "CUSIP No. 037833100", false},
		{"reporting person label", "Name of Reporting Person", false},
		{"all caps heading", "TABLE OF RESULTS", false},
		{"voting power row", "Sole Voting Power", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPersonName(tt.input))
		})
	}
}

func TestNormalizePersonName(t *testing.T) {
	assert.Equal(t, "Cook Timothy D", NormalizePersonName("COOK TIMOTHY D"))
	assert.Equal(t, "Jane Doe", NormalizePersonName("  Jane   Doe "))
	assert.Equal(t, "Berkshire Hathaway Inc", NormalizePersonName("Berkshire Hathaway Inc"))
}
