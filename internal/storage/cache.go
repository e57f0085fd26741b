package storage

import (
	"sync"
	"time"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
)

// ListAllKey is the query key for the cacheable unfiltered full-list read.
// Filtered and paginated views are computed fresh from the full list and are
// never cached individually.
const ListAllKey = "all"

type cachedEntry struct {
	analysis models.SavedAnalysis
	storedAt time.Time
}

type cachedList struct {
	analyses []models.SavedAnalysis
	storedAt time.Time
}

// Cache is the read-through cache facade. Entries expire lazily after a
// fixed TTL; a disabled cache misses on every read and drops every write,
// which changes latency but never observable results.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	enabled bool
	clock   common.Clock
	entries map[string]cachedEntry
	lists   map[string]cachedList
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls
// back to five minutes.
func NewCache(ttl time.Duration, enabled bool, clock common.Clock) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if clock == nil {
		clock = common.RealClock{}
	}
	return &Cache{
		ttl:     ttl,
		enabled: enabled,
		clock:   clock,
		entries: make(map[string]cachedEntry),
		lists:   make(map[string]cachedList),
	}
}

func (c *Cache) fresh(storedAt time.Time) bool {
	return c.clock.Now().Sub(storedAt) < c.ttl
}

// GetEntry returns a cached copy of the analysis, or false on miss.
// A miss means "not cached", not "not found".
func (c *Cache) GetEntry(id string) (*models.SavedAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil, false
	}
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if !c.fresh(e.storedAt) {
		delete(c.entries, id)
		return nil, false
	}
	copied := e.analysis
	return &copied, true
}

// SetEntry caches a single analysis under its id.
func (c *Cache) SetEntry(id string, analysis *models.SavedAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || analysis == nil {
		return
	}
	c.entries[id] = cachedEntry{analysis: *analysis, storedAt: c.clock.Now()}
}

// InvalidateEntry drops the cached analysis for the given id.
func (c *Cache) InvalidateEntry(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// GetList returns the cached record list for a query key, or false on miss.
func (c *Cache) GetList(queryKey string) ([]models.SavedAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil, false
	}
	l, ok := c.lists[queryKey]
	if !ok {
		return nil, false
	}
	if !c.fresh(l.storedAt) {
		delete(c.lists, queryKey)
		return nil, false
	}
	copied := make([]models.SavedAnalysis, len(l.analyses))
	copy(copied, l.analyses)
	return copied, true
}

// SetList caches a record list under a query key.
func (c *Cache) SetList(queryKey string, analyses []models.SavedAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	copied := make([]models.SavedAnalysis, len(analyses))
	copy(copied, analyses)
	c.lists[queryKey] = cachedList{analyses: copied, storedAt: c.clock.Now()}
}

// InvalidateAllLists drops every cached list.
func (c *Cache) InvalidateAllLists() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = make(map[string]cachedList)
}

// Compile-time check
var _ interfaces.AnalysisCache = (*Cache)(nil)
