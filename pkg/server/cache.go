package server

import (
	"math"
	"sync"

	"github.com/bastiangx/seedserve/pkg/index"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/charmbracelet/log"
)

// runKey identifies a run by everything that changes its output.
// The thread count is left out: it never changes results.
type runKey struct {
	matrix    string
	alphabet  string
	query     string
	wordSize  int
	threshold int
}

type runEntry struct {
	results []neighborhood.Result
	index   *index.Index
}

// HotCache keeps the most recently used runs and their seed indexes.
type HotCache struct {
	entries     map[runKey]*runEntry
	accessTime  map[runKey]int64
	accessCount int64
	hits        int
	misses      int
	maxEntries  int
	mu          sync.Mutex
}

// NewHotCache creates a cache holding up to maxEntries runs. Zero disables it.
func NewHotCache(maxEntries int) *HotCache {
	return &HotCache{
		entries:    make(map[runKey]*runEntry, maxEntries),
		accessTime: make(map[runKey]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached results of key.
func (hc *HotCache) Get(key runKey) ([]neighborhood.Result, bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	e, ok := hc.entries[key]
	if !ok {
		hc.misses++
		return nil, false
	}
	hc.hits++
	hc.markAccessed(key)
	return e.results, true
}

// Put stores results under key, evicting the least recently used run when full.
func (hc *HotCache) Put(key runKey, results []neighborhood.Result) {
	if hc.maxEntries <= 0 {
		return
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if _, ok := hc.entries[key]; !ok && len(hc.entries) >= hc.maxEntries {
		hc.evictLRU()
	}
	hc.entries[key] = &runEntry{results: results}
	hc.markAccessed(key)
}

// Index returns the seed index of a cached run, building it on first use.
func (hc *HotCache) Index(key runKey) (*index.Index, bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	e, ok := hc.entries[key]
	if !ok {
		return nil, false
	}
	if e.index == nil {
		e.index = index.Build(e.results)
	}
	hc.markAccessed(key)
	return e.index, true
}

// Stats returns cache counters.
func (hc *HotCache) Stats() map[string]int {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	return map[string]int{
		"entries":    len(hc.entries),
		"maxEntries": hc.maxEntries,
		"hits":       hc.hits,
		"misses":     hc.misses,
	}
}

func (hc *HotCache) markAccessed(key runKey) {
	hc.accessCount++
	hc.accessTime[key] = hc.accessCount
}

func (hc *HotCache) evictLRU() {
	var oldest runKey
	var oldestTime int64 = math.MaxInt64
	found := false

	for key, t := range hc.accessTime {
		if t < oldestTime {
			oldest, oldestTime, found = key, t, true
		}
	}

	if found {
		delete(hc.entries, oldest)
		delete(hc.accessTime, oldest)
		log.Debugf("Evicted run %s/w=%d/t=%d (%d residues) from hot cache",
			oldest.matrix, oldest.wordSize, oldest.threshold, len(oldest.query))
	}
}
