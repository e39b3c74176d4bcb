package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-profiler/internal/model"
)

func testBundle(cik, ticker string, docBytes int) *model.Bundle {
	return &model.Bundle{
		CIK:           model.PadCIK(cik),
		Ticker:        ticker,
		CompanyName:   ticker + " Inc.",
		LookbackYears: 5,
		FetchedAt:     time.Now().UTC(),
		Filings: []model.FilingRef{
			{Accession: "0000000000-24-000001", FormType: model.Form10K, FilingDate: "2024-02-01"},
			{Accession: "0000000000-24-000002", FormType: model.Form4, FilingDate: "2024-03-15"},
		},
		Documents: map[string][]byte{
			"0000000000-24-000001/doc.htm": make([]byte, docBytes),
		},
	}
}

func TestKey_StableAndDistinct(t *testing.T) {
	assert.Equal(t, Key("320193", 5), Key("0000320193", 5))
	assert.NotEqual(t, Key("320193", 5), Key("320193", 3))
	assert.NotEqual(t, Key("320193", 5), Key("789019", 5))
}

func TestStoreAndLookup(t *testing.T) {
	c, err := Open(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Store("320193", 5, testBundle("320193", "AAPL", 100)))

	got, ok := c.Lookup("320193", 5)
	require.True(t, ok)
	assert.Equal(t, "0000320193", got.CIK)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Len(t, got.Filings, 2)
	assert.Len(t, got.Documents["0000000000-24-000001/doc.htm"], 100)

	_, ok = c.Lookup("320193", 3)
	assert.False(t, ok, "different lookback is a different entry")
}

func TestLookup_MissOnEmptyCache(t *testing.T) {
	c, err := Open(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, ok := c.Lookup("320193", 5)
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, 1<<20)
	require.NoError(t, err)
	require.NoError(t, c.Store("789019", 5, testBundle("789019", "MSFT", 50)))

	c2, err := Open(dir, 1<<20)
	require.NoError(t, err)
	got, ok := c2.Lookup("789019", 5)
	require.True(t, ok)
	assert.Equal(t, "MSFT", got.Ticker)
}

func TestEviction_LRUDownToTarget(t *testing.T) {
	dir := t.TempDir()
	// Payloads land around 600-700 bytes each with a 400-byte document.
	c, err := Open(dir, 2000)
	require.NoError(t, err)

	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 400)))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Store("2", 5, testBundle("2", "BBB", 400)))
	time.Sleep(5 * time.Millisecond)

	// Touch the oldest so "2" becomes the LRU victim.
	_, ok := c.Lookup("1", 5)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, c.Store("3", 5, testBundle("3", "CCC", 400)))

	s := c.Stats()
	assert.LessOrEqual(t, s.TotalSizeBytes, int64(2000*evictTarget))

	_, ok = c.Lookup("2", 5)
	assert.False(t, ok, "least recently accessed entry evicted")
	_, ok = c.Lookup("3", 5)
	assert.True(t, ok, "just-written entry never evicted")
}

func TestEviction_NeverEvictsJustWritten(t *testing.T) {
	// Cap smaller than a single payload: everything else goes, the new
	// entry stays even though the cache remains over target.
	c, err := Open(t.TempDir(), 300)
	require.NoError(t, err)

	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 400)))
	require.NoError(t, c.Store("2", 5, testBundle("2", "BBB", 400)))

	_, ok := c.Lookup("1", 5)
	assert.False(t, ok)
	_, ok = c.Lookup("2", 5)
	assert.True(t, ok)
}

func TestClear_RemovesOneCompanyAllWindows(t *testing.T) {
	c, err := Open(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 10)))
	require.NoError(t, c.Store("1", 3, testBundle("1", "AAA", 10)))
	require.NoError(t, c.Store("2", 5, testBundle("2", "BBB", 10)))

	require.NoError(t, c.Clear("1"))

	_, ok := c.Lookup("1", 5)
	assert.False(t, ok)
	_, ok = c.Lookup("1", 3)
	assert.False(t, ok)
	_, ok = c.Lookup("2", 5)
	assert.True(t, ok)
}

func TestClearAll(t *testing.T) {
	c, err := Open(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 10)))
	require.NoError(t, c.Store("2", 5, testBundle("2", "BBB", 10)))
	require.NoError(t, c.ClearAll())

	s := c.Stats()
	assert.Equal(t, 0, s.EntryCount)
	assert.Equal(t, int64(0), s.TotalSizeBytes)
}

func TestReconcile_PrunesMissingPayload(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, 1<<20)
	require.NoError(t, err)
	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 10)))

	// Payload deleted out from under the index.
	require.NoError(t, os.Remove(filepath.Join(dir, Key("1", 5)+".bin")))

	c2, err := Open(dir, 1<<20)
	require.NoError(t, err)
	_, ok := c2.Lookup("1", 5)
	assert.False(t, ok)
	assert.Equal(t, 0, c2.Stats().EntryCount)
}

func TestReconcile_AdoptsOrphanPayload(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, 1<<20)
	require.NoError(t, err)
	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 10)))

	// Index deleted; payload remains.
	require.NoError(t, os.Remove(filepath.Join(dir, metadataFile)))

	c2, err := Open(dir, 1<<20)
	require.NoError(t, err)
	got, ok := c2.Lookup("1", 5)
	require.True(t, ok, "orphan payload adopted back into the index")
	assert.Equal(t, "AAA", got.Ticker)
}

func TestReconcile_CorruptMetadataStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0o644))

	c, err := Open(dir, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Stats().EntryCount)
}

func TestStats_PerCompanyBreakdown(t *testing.T) {
	c, err := Open(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Store("1", 5, testBundle("1", "AAA", 100)))
	require.NoError(t, c.Store("1", 3, testBundle("1", "AAA", 100)))
	require.NoError(t, c.Store("2", 5, testBundle("2", "BBB", 100)))

	s := c.Stats()
	assert.Equal(t, 3, s.EntryCount)
	assert.Len(t, s.PerCompany, 2)
	assert.Greater(t, s.PerCompany["AAA"], s.PerCompany["BBB"])
	assert.Greater(t, s.CapacityPercent, 0.0)
	assert.Equal(t, int64(1<<20), s.MaxBytes)
}
