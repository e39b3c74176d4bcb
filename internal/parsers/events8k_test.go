package parsers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/model"
)

func ref8k(date string) model.FilingRef {
	return model.FilingRef{
		Accession:  "0000000000-24-00" + date[5:7] + date[8:10],
		FormType:   model.Form8K,
		FilingDate: date,
	}
}

func TestAnalyze8K_CountsAndQuarters(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	refs := []model.FilingRef{
		ref8k("2024-05-01"),
		ref8k("2024-02-10"),
		ref8k("2023-11-05"),
	}

	out := Analyze8K(refs, now)
	require.True(t, out.Available)
	assert.Equal(t, 3, out.TotalCount)
	assert.Equal(t, 1, out.Recent90Days)
	assert.Equal(t, 1, out.PerQuarter["2024-Q2"])
	assert.Equal(t, 1, out.PerQuarter["2024-Q1"])
	assert.Equal(t, 1, out.PerQuarter["2023-Q4"])
}

func TestAnalyze8K_Empty(t *testing.T) {
	out := Analyze8K(nil, time.Now())
	assert.False(t, out.Available)
	assert.NotEmpty(t, out.Warnings)
}

func TestAnalyze8K_ClusterFlag(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	refs := []model.FilingRef{
		ref8k("2024-06-01"),
		ref8k("2024-06-05"),
		ref8k("2024-06-10"),
	}

	out := Analyze8K(refs, now)
	require.True(t, out.Available)
	assert.NotEmpty(t, out.RiskFlags)
	assert.Contains(t, out.RiskFlags[0], "clustered")
}

func TestAnalyze8K_ElevatedFrequencyFlag(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	var refs []model.FilingRef
	for i := 1; i <= 9; i++ {
		refs = append(refs, ref8k(fmt.Sprintf("2024-0%d-1%d", (i%3)+4, i)))
	}

	out := Analyze8K(refs, now)
	require.True(t, out.Available)

	var found bool
	for _, f := range out.RiskFlags {
		if strings.HasPrefix(f, "elevated") {
			found = true
		}
	}
	assert.True(t, found, "expected elevated frequency flag, got %v", out.RiskFlags)
}

func TestAnalyze8K_SteadyCadenceSignal(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	refs := []model.FilingRef{
		ref8k("2024-02-01"), // 2024-Q1
		ref8k("2023-11-01"), // 2023-Q4
		ref8k("2023-08-01"), // 2023-Q3
		ref8k("2023-05-01"), // 2023-Q2
	}

	out := Analyze8K(refs, now)
	require.True(t, out.Available)
	assert.Contains(t, out.PositiveSignals, "steady disclosure pattern across recent quarters")
}

func TestAnalyze8K_BadDatesBecomeWarnings(t *testing.T) {
	out := Analyze8K([]model.FilingRef{
		{FormType: model.Form8K, FilingDate: "not-a-date", Accession: "x"},
		ref8k("2024-01-05"),
	}, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	assert.True(t, out.Available)
	assert.Equal(t, 1, out.TotalCount)
	assert.NotEmpty(t, out.Warnings)
}
