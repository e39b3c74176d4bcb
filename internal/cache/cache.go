// Package cache implements the size-capped on-disk store of fetched filing
// bundles, keyed per (company, lookback window), with LRU eviction and a
// JSON metadata index.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-profiler/internal/model"
)

const (
	metadataFile    = "cache_metadata.json"
	metadataVersion = 1

	// evictTarget is the fill fraction eviction drives the cache down to.
	evictTarget = 0.90
)

// ErrWriteFailed marks cache writes that failed. The cache is advisory:
// callers log and continue.
var ErrWriteFailed = errors.New("cache: write failed")

// Entry describes one cached bundle in the metadata index.
type Entry struct {
	Key           string    `json:"key"`
	CIK           string    `json:"cik"`
	Ticker        string    `json:"ticker,omitempty"`
	LookbackYears int       `json:"lookback_years"`
	SizeBytes     int64     `json:"size_bytes"`
	FilingsCount  int       `json:"filings_count"`
	FormTypes     []string  `json:"form_types,omitempty"`
	DateFrom      string    `json:"date_from,omitempty"`
	DateTo        string    `json:"date_to,omitempty"`
	LastAccessed  time.Time `json:"last_accessed"`
	PayloadPath   string    `json:"payload_path"`
}

type metadata struct {
	Version        int               `json:"version"`
	TotalSizeBytes int64             `json:"total_size_bytes"`
	Entries        map[string]*Entry `json:"entries"`
}

// Stats reports the cache's current occupancy.
type Stats struct {
	TotalSizeBytes  int64            `json:"total_size_bytes"`
	MaxBytes        int64            `json:"max_bytes"`
	EntryCount      int              `json:"entry_count"`
	CapacityPercent float64          `json:"capacity_percent"`
	PerCompany      map[string]int64 `json:"per_company"`
}

// Cache is the process-wide filing bundle cache. The metadata index is the
// single source of truth for LRU decisions; payload files are immutable
// after write and replaced via temp + rename.
type Cache struct {
	dir      string
	maxBytes int64

	mu   sync.Mutex
	meta *metadata
}

// Key derives the stable cache key for a (cik, lookback) pair.
func Key(cik string, lookbackYears int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d", model.PadCIK(cik), lookbackYears))
	return hex.EncodeToString(sum[:8])
}

// Open loads (or initializes) the cache at dir and reconciles the index
// against the payload files on disk: index rows without payloads are pruned,
// payloads without index rows are adopted with current last_accessed.
func Open(dir string, maxBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "cache: create dir")
	}

	c := &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		meta: &metadata{
			Version: metadataVersion,
			Entries: make(map[string]*Entry),
		},
	}

	metaPath := filepath.Join(dir, metadataFile)
	if data, err := os.ReadFile(metaPath); err == nil {
		var m metadata
		if err := json.Unmarshal(data, &m); err != nil {
			zap.L().Warn("cache: corrupt metadata index, starting fresh", zap.Error(err))
		} else if m.Entries != nil {
			c.meta = &m
		}
	}

	if err := c.reconcile(); err != nil {
		return nil, err
	}
	return c, nil
}

// reconcile prunes index rows with missing payloads and adopts orphan
// payload files. Called once at startup, before concurrent use.
func (c *Cache) reconcile() error {
	var total int64
	for key, e := range c.meta.Entries {
		path := filepath.Join(c.dir, e.PayloadPath)
		info, err := os.Stat(path)
		if err != nil {
			zap.L().Info("cache: pruning index entry with missing payload", zap.String("key", key))
			delete(c.meta.Entries, key)
			continue
		}
		e.SizeBytes = info.Size()
		total += e.SizeBytes
	}

	files, err := os.ReadDir(c.dir)
	if err != nil {
		return eris.Wrap(err, "cache: read dir")
	}
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".bin") {
			continue
		}
		key := strings.TrimSuffix(name, ".bin")
		if _, ok := c.meta.Entries[key]; ok {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		zap.L().Info("cache: adopting orphan payload", zap.String("key", key))
		c.meta.Entries[key] = &Entry{
			Key:          key,
			SizeBytes:    info.Size(),
			LastAccessed: time.Now().UTC(),
			PayloadPath:  name,
		}
		total += info.Size()
	}

	c.meta.TotalSizeBytes = total
	return c.flushLocked()
}

// Lookup returns the cached bundle for (cik, lookback) and touches its
// last_accessed time. The second return is false on miss.
func (c *Cache) Lookup(cik string, lookbackYears int) (*model.Bundle, bool) {
	key := Key(cik, lookbackYears)

	c.mu.Lock()
	entry, ok := c.meta.Entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	entry.LastAccessed = time.Now().UTC()
	path := filepath.Join(c.dir, entry.PayloadPath)
	if err := c.flushLocked(); err != nil {
		zap.L().Warn("cache: touch flush failed", zap.Error(err))
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Warn("cache: payload read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var bundle model.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		zap.L().Warn("cache: payload decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &bundle, true
}

// Store writes the bundle payload and updates the metadata index atomically
// (write-then-rename), then evicts least-recently-accessed entries while the
// cache exceeds its cap. The just-written entry is never evicted.
func (c *Cache) Store(cik string, lookbackYears int, bundle *model.Bundle) error {
	key := Key(cik, lookbackYears)
	payloadName := key + ".bin"

	data, err := json.Marshal(bundle)
	if err != nil {
		return eris.Wrap(errors.Join(ErrWriteFailed, err), "cache: encode bundle")
	}

	if err := c.writeAtomic(payloadName, data); err != nil {
		return eris.Wrap(errors.Join(ErrWriteFailed, err), "cache: write payload")
	}

	formTypes := make(map[string]bool)
	dateFrom, dateTo := "", ""
	for _, f := range bundle.Filings {
		formTypes[string(f.FormType)] = true
		if dateFrom == "" || f.FilingDate < dateFrom {
			dateFrom = f.FilingDate
		}
		if f.FilingDate > dateTo {
			dateTo = f.FilingDate
		}
	}
	forms := make([]string, 0, len(formTypes))
	for ft := range formTypes {
		forms = append(forms, ft)
	}
	sort.Strings(forms)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.Entries[key] = &Entry{
		Key:           key,
		CIK:           model.PadCIK(cik),
		Ticker:        bundle.Ticker,
		LookbackYears: lookbackYears,
		SizeBytes:     int64(len(data)),
		FilingsCount:  len(bundle.Filings),
		FormTypes:     forms,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		LastAccessed:  time.Now().UTC(),
		PayloadPath:   payloadName,
	}
	c.recomputeTotalLocked()
	c.evictLocked(key)

	if err := c.flushLocked(); err != nil {
		return eris.Wrap(errors.Join(ErrWriteFailed, err), "cache: write metadata")
	}
	return nil
}

// evictLocked removes entries in ascending last_accessed order until the
// total size is at or below evictTarget of the cap. keep is never evicted.
func (c *Cache) evictLocked(keep string) {
	if c.maxBytes <= 0 || c.meta.TotalSizeBytes <= c.maxBytes {
		return
	}
	target := int64(float64(c.maxBytes) * evictTarget)

	entries := make([]*Entry, 0, len(c.meta.Entries))
	for key, e := range c.meta.Entries {
		if key == keep {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccessed.Before(entries[j].LastAccessed)
	})

	for _, e := range entries {
		if c.meta.TotalSizeBytes <= target {
			break
		}
		path := filepath.Join(c.dir, e.PayloadPath)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("cache: evict remove failed", zap.String("key", e.Key), zap.Error(err))
		}
		delete(c.meta.Entries, e.Key)
		c.meta.TotalSizeBytes -= e.SizeBytes
		zap.L().Info("cache: evicted entry",
			zap.String("key", e.Key),
			zap.String("cik", e.CIK),
			zap.Int64("size_bytes", e.SizeBytes),
		)
	}
}

// Clear removes all entries for one company across lookback windows.
func (c *Cache) Clear(cik string) error {
	padded := model.PadCIK(cik)

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.meta.Entries {
		if e.CIK != padded {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.PayloadPath)); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("cache: clear remove failed", zap.String("key", key), zap.Error(err))
		}
		delete(c.meta.Entries, key)
	}
	c.recomputeTotalLocked()
	return c.flushLocked()
}

// ClearAll removes every cached bundle.
func (c *Cache) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.meta.Entries {
		if err := os.Remove(filepath.Join(c.dir, e.PayloadPath)); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("cache: clear remove failed", zap.String("key", key), zap.Error(err))
		}
		delete(c.meta.Entries, key)
	}
	c.meta.TotalSizeBytes = 0
	return c.flushLocked()
}

// Stats reports size, entry count, per-company breakdown, and capacity.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		TotalSizeBytes: c.meta.TotalSizeBytes,
		MaxBytes:       c.maxBytes,
		EntryCount:     len(c.meta.Entries),
		PerCompany:     make(map[string]int64),
	}
	for _, e := range c.meta.Entries {
		name := e.Ticker
		if name == "" {
			name = e.CIK
		}
		s.PerCompany[name] += e.SizeBytes
	}
	if c.maxBytes > 0 {
		s.CapacityPercent = 100 * float64(c.meta.TotalSizeBytes) / float64(c.maxBytes)
	}
	return s
}

func (c *Cache) recomputeTotalLocked() {
	var total int64
	for _, e := range c.meta.Entries {
		total += e.SizeBytes
	}
	c.meta.TotalSizeBytes = total
}

// flushLocked persists the metadata index via temp + rename.
func (c *Cache) flushLocked() error {
	data, err := json.MarshalIndent(c.meta, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: encode metadata")
	}
	return c.writeAtomic(metadataFile, data)
}

func (c *Cache) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, name+".tmp*")
	if err != nil {
		return eris.Wrap(err, "cache: create temp")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: write temp")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: close temp")
	}
	if err := os.Rename(tmpName, filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: rename")
	}
	return nil
}
