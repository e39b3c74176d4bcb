package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFacts_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not json", []byte("<html>oops</html>")},
		{"no us-gaap", []byte(`{"cik": 1, "facts": {"dei": {}}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseFacts(tt.data)
			assert.False(t, out.Available)
			assert.NotEmpty(t, out.Warnings)
		})
	}
}

func TestParseFacts_ExtractsSortedSeries(t *testing.T) {
	data := []byte(`{
		"cik": 320193,
		"facts": {
			"us-gaap": {
				"Revenues": {
					"units": {"USD": [
						{"end": "2023-09-30", "val": 383285000000, "fp": "FY", "form": "10-K", "filed": "2023-11-03"},
						{"end": "2022-09-24", "val": 394328000000, "fp": "FY", "form": "10-K", "filed": "2022-10-28"}
					]}
				},
				"Assets": {
					"units": {"USD": [
						{"end": "2023-09-30", "val": 352583000000, "fp": "FY", "form": "10-K", "filed": "2023-11-03"}
					]}
				}
			}
		}
	}`)

	out := ParseFacts(data)
	require.True(t, out.Available)

	rev := out.Series["revenue"]
	require.Len(t, rev, 2)
	assert.Equal(t, "2022-09-24", rev[0].PeriodEnd)
	assert.Equal(t, "2023-09-30", rev[1].PeriodEnd)
	assert.Equal(t, 394328000000.0, rev[0].Value)
	assert.Len(t, out.Series["assets"], 1)
}

func TestParseFacts_RevenueFallbackChainFirstNonEmptyWins(t *testing.T) {
	// Both tags present: "Revenues" comes first in the chain and wins even
	// though the contract tag has more data points.
	data := []byte(`{
		"facts": {
			"us-gaap": {
				"Revenues": {
					"units": {"USD": [
						{"end": "2023-12-31", "val": 100, "filed": "2024-02-01"}
					]}
				},
				"RevenueFromContractWithCustomerExcludingAssessedTax": {
					"units": {"USD": [
						{"end": "2022-12-31", "val": 90, "filed": "2023-02-01"},
						{"end": "2023-12-31", "val": 101, "filed": "2024-02-01"}
					]}
				}
			}
		}
	}`)

	out := ParseFacts(data)
	require.True(t, out.Available)
	rev := out.Series["revenue"]
	require.Len(t, rev, 1)
	assert.Equal(t, 100.0, rev[0].Value)
}

func TestParseFacts_FallsThroughEmptyTag(t *testing.T) {
	data := []byte(`{
		"facts": {
			"us-gaap": {
				"Revenues": {"units": {"EUR": [{"end": "2023-12-31", "val": 1, "filed": "2024-01-01"}]}},
				"SalesRevenueNet": {
					"units": {"USD": [{"end": "2023-12-31", "val": 55, "filed": "2024-02-01"}]}
				}
			}
		}
	}`)

	out := ParseFacts(data)
	require.True(t, out.Available)
	require.Len(t, out.Series["revenue"], 1)
	assert.Equal(t, 55.0, out.Series["revenue"][0].Value)
}

func TestParseFacts_DuplicatePeriodLatestFiledWins(t *testing.T) {
	data := []byte(`{
		"facts": {
			"us-gaap": {
				"Assets": {
					"units": {"USD": [
						{"end": "2023-12-31", "val": 500, "filed": "2024-02-01"},
						{"end": "2023-12-31", "val": 510, "filed": "2024-05-01"}
					]}
				}
			}
		}
	}`)

	out := ParseFacts(data)
	require.True(t, out.Available)
	series := out.Series["assets"]
	require.Len(t, series, 1, "no duplicate period ends")
	assert.Equal(t, 510.0, series[0].Value, "restated value from the later filing")
}
