package relationship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/directory"
	"github.com/sells-group/edgar-profiler/internal/model"
)

func testDirectory() *directory.Directory {
	return directory.New([]directory.Entry{
		{CIK: "320193", Ticker: "AAPL", Name: "Apple Inc.", Aliases: []string{"Apple"}},
		{CIK: "1046179", Ticker: "TSM", Name: "Taiwan Semiconductor Manufacturing Company", Aliases: []string{"TSMC"}},
		{CIK: "789019", Ticker: "MSFT", Name: "Microsoft Corporation", Aliases: []string{"Microsoft"}},
		{CIK: "1318605", Ticker: "TSLA", Name: "Tesla, Inc.", Aliases: []string{"Tesla"}},
	})
}

const sourceAAPL = "0000320193"

func TestMentions_ConfidenceTiers(t *testing.T) {
	dir := testDirectory()

	tests := []struct {
		name       string
		text       string
		wantCIK    string
		wantConf   float64
		wantMethod string
	}{
		{"exact canonical name", "We work with Taiwan Semiconductor Manufacturing Company on wafers.", "0001046179", 0.99, "exact_name"},
		{"dollar ticker", "Analysts compared us to $TSM this quarter.", "0001046179", 0.98, "ticker"},
		{"alias", "TSMC fabricates our leading-edge silicon.", "0001046179", 0.95, "alias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mentions(tt.text, dir, sourceAAPL, 0.82)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.wantCIK, got[0].TargetCIK)
			assert.Equal(t, tt.wantConf, got[0].Confidence)
			assert.Equal(t, tt.wantMethod, got[0].Method)
		})
	}
}

func TestMentions_FuzzyScaledConfidence(t *testing.T) {
	dir := testDirectory()

	// "Microsoft Corporattion" is a near miss on the canonical name.
	got := Mentions("Our agreement with Microsoft Corporattion continues.", dir, sourceAAPL, 0.82)
	require.NotEmpty(t, got)

	var msft *Mention
	for i := range got {
		if got[i].TargetCIK == "0000789019" {
			msft = &got[i]
		}
	}
	require.NotNil(t, msft)
	assert.Equal(t, "alias", msft.Method, "alias hit outranks fuzzy for Microsoft token")
}

func TestMentions_FuzzyOnly(t *testing.T) {
	dir := directory.New([]directory.Entry{
		{CIK: "1318605", Ticker: "TSLA", Name: "Tesla, Inc."},
	})

	got := Mentions("Competition from Teslaa intensified.", dir, sourceAAPL, 0.82)
	require.Len(t, got, 1)
	assert.Equal(t, "fuzzy", got[0].Method)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.80)
	assert.LessOrEqual(t, got[0].Confidence, 0.95)
}

func TestMentions_DedupesKeepingHighest(t *testing.T) {
	dir := testDirectory()

	got := Mentions("TSMC, also known as Taiwan Semiconductor Manufacturing Company, supplies us.", dir, sourceAAPL, 0.82)
	count := 0
	for _, m := range got {
		if m.TargetCIK == "0001046179" {
			count++
			assert.Equal(t, 0.99, m.Confidence, "exact name beats alias")
		}
	}
	assert.Equal(t, 1, count, "one mention per target cik")
}

func TestMentions_ExcludesSource(t *testing.T) {
	dir := testDirectory()
	got := Mentions("Apple Inc. designs products.", dir, sourceAAPL, 0.82)
	for _, m := range got {
		assert.NotEqual(t, sourceAAPL, m.TargetCIK)
	}
}

func TestExtract_SupplierEdge(t *testing.T) {
	e := New(testDirectory(), Config{FuzzyThreshold: 0.82, MinConfidence: 0.50})
	texts := map[string]string{
		"10-K": "We purchase components from TSMC under long-term supply agreements. " +
			"TSMC supplies substantially all of our advanced chips.",
	}

	now := time.Now().UTC()
	out := e.Extract(sourceAAPL, texts, now)
	require.True(t, out.Available)
	require.NotEmpty(t, out.Edges)

	edge := out.Edges[0]
	assert.Equal(t, sourceAAPL, edge.SourceCIK)
	assert.Equal(t, "0001046179", edge.TargetCIK)
	assert.Equal(t, model.RelSupplier, edge.RelationshipType)
	assert.GreaterOrEqual(t, edge.Confidence, 0.50)
	assert.LessOrEqual(t, edge.Confidence, 1.0)
	assert.Equal(t, 1, edge.MentionCount)
	assert.NotEmpty(t, edge.ContextExcerpt)
}

func TestExtract_DiscardsLowConfidence(t *testing.T) {
	e := New(testDirectory(), Config{FuzzyThreshold: 0.82, MinConfidence: 0.95})
	texts := map[string]string{
		// Medium pattern (0.65 base) with alias mention (0.95): 0.6175 < 0.95.
		"10-K": "We have an agreement with TSMC covering certain tooling.",
	}

	out := e.Extract(sourceAAPL, texts, time.Now())
	assert.True(t, out.Available)
	assert.Empty(t, out.Edges)
}

func TestExtract_EmptyInput(t *testing.T) {
	e := New(testDirectory(), Config{})
	out := e.Extract(sourceAAPL, nil, time.Now())
	assert.False(t, out.Available)
	assert.NotEmpty(t, out.Warnings)
}

func TestExtract_DedupWithinRun(t *testing.T) {
	e := New(testDirectory(), Config{})
	texts := map[string]string{
		"10-K": "TSMC supplies our processors. TSMC supplies our modems too.",
	}

	out := e.Extract(sourceAAPL, texts, time.Now())
	require.True(t, out.Available)

	seen := make(map[string]int)
	for _, edge := range out.Edges {
		seen[edge.TargetCIK+"/"+string(edge.RelationshipType)]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "duplicate edge for %s", key)
	}
}

func TestExtractFinancial_CustomerConcentration(t *testing.T) {
	text := "Boeing Company accounted for 45% of our revenue in fiscal 2023. " +
		"Airbus Group represented approximately 30% of revenue. " +
		"Our principal suppliers include Spirit AeroSystems, Honeywell and Raytheon Technologies."

	out := ExtractFinancial("0000000001", text)
	require.NotNil(t, out)

	require.Len(t, out.TopCustomers, 2)
	assert.Equal(t, 45.0, out.TopCustomers[0].RevenuePercent, "sorted descending")
	assert.Equal(t, 0.85, out.TopCustomers[0].Confidence)

	require.NotNil(t, out.Concentration)
	assert.InDelta(t, 45*45+30*30, out.Concentration.HHI, 1e-9)
	assert.Equal(t, "HIGH", out.Concentration.Classification)
	assert.InDelta(t, 0.75, out.Concentration.Top5Ratio, 1e-9)

	require.Len(t, out.Suppliers, 3)
	assert.Equal(t, "Spirit AeroSystems", out.Suppliers[0].Name)
	assert.Equal(t, 0.75, out.Suppliers[0].Confidence)
}

func TestExtractFinancial_SegmentRevenue(t *testing.T) {
	text := "The Services segment generated revenue of $85.2 billion during the year."

	out := ExtractFinancial("0000320193", text)
	require.NotNil(t, out)
	require.Len(t, out.Segments, 1)
	assert.Equal(t, "Services", out.Segments[0].Segment)
	assert.Equal(t, 85.2e9, out.Segments[0].Revenue)
}

func TestConcentrate_SingleCustomerIsMaximal(t *testing.T) {
	c := Concentrate([]model.CustomerShare{{Name: "Only Customer", RevenuePercent: 100}})
	assert.Equal(t, 10000.0, c.HHI)
	assert.Equal(t, "HIGH", c.Classification)
	assert.InDelta(t, 1.0, c.Top5Ratio, 1e-9)
}

func TestConcentrate_Bands(t *testing.T) {
	low := Concentrate([]model.CustomerShare{{RevenuePercent: 10}, {RevenuePercent: 10}})
	assert.Equal(t, "LOW", low.Classification)

	moderate := Concentrate([]model.CustomerShare{{RevenuePercent: 40}})
	assert.Equal(t, "MODERATE", moderate.Classification)
}
