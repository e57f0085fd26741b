package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valentin-maty/arriendo/internal/models"
	"github.com/valentin-maty/arriendo/internal/testutil"
)

func TestCacheEntryLifecycle(t *testing.T) {
	clock := testutil.FixedClock()
	cache := NewCache(5*time.Minute, true, clock)

	_, hit := cache.GetEntry("an_1")
	assert.False(t, hit, "empty cache misses")

	a := sampleAnalysis("an_1")
	cache.SetEntry("an_1", a)

	got, hit := cache.GetEntry("an_1")
	require.True(t, hit)
	assert.Equal(t, a.Title, got.Title)

	// The cache hands out copies, not aliases.
	got.Title = "mutated"
	again, hit := cache.GetEntry("an_1")
	require.True(t, hit)
	assert.Equal(t, a.Title, again.Title)

	cache.InvalidateEntry("an_1")
	_, hit = cache.GetEntry("an_1")
	assert.False(t, hit)
}

func TestCacheEntryExpiry(t *testing.T) {
	clock := testutil.FixedClock()
	cache := NewCache(5*time.Minute, true, clock)

	cache.SetEntry("an_1", sampleAnalysis("an_1"))

	clock.Advance(4 * time.Minute)
	_, hit := cache.GetEntry("an_1")
	assert.True(t, hit, "fresh within TTL")

	clock.Advance(2 * time.Minute)
	_, hit = cache.GetEntry("an_1")
	assert.False(t, hit, "expired entries read as absent")
}

func TestCacheListLifecycle(t *testing.T) {
	clock := testutil.FixedClock()
	cache := NewCache(5*time.Minute, true, clock)

	_, hit := cache.GetList(ListAllKey)
	assert.False(t, hit)

	analyses := []models.SavedAnalysis{*sampleAnalysis("an_1"), *sampleAnalysis("an_2")}
	cache.SetList(ListAllKey, analyses)

	got, hit := cache.GetList(ListAllKey)
	require.True(t, hit)
	assert.Len(t, got, 2)

	clock.Advance(6 * time.Minute)
	_, hit = cache.GetList(ListAllKey)
	assert.False(t, hit, "lists expire like entries")

	cache.SetList(ListAllKey, analyses)
	cache.InvalidateAllLists()
	_, hit = cache.GetList(ListAllKey)
	assert.False(t, hit)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	clock := testutil.FixedClock()
	cache := NewCache(5*time.Minute, false, clock)

	cache.SetEntry("an_1", sampleAnalysis("an_1"))
	_, hit := cache.GetEntry("an_1")
	assert.False(t, hit)

	cache.SetList(ListAllKey, []models.SavedAnalysis{*sampleAnalysis("an_1")})
	_, hit = cache.GetList(ListAllKey)
	assert.False(t, hit)
}

func TestCacheTTLFallback(t *testing.T) {
	cache := NewCache(0, true, testutil.FixedClock())
	assert.Equal(t, 5*time.Minute, cache.ttl)
}
