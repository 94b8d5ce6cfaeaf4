package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memCache mimics the Redis cache service's JSON envelope in memory.
type memCache struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{
		values: map[string][]byte{},
		ttls:   map[string]time.Duration{},
	}
}

func (m *memCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.values[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	delete(m.values, key)
	delete(m.ttls, key)
	return nil
}

func sampleSnapshot(channelID string) *domain.DashboardSnapshot {
	return &domain.DashboardSnapshot{
		ChannelID: channelID,
		Timestamp: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		QueryRange: domain.DateRange{
			Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		Source:    domain.SourcePrimary,
		Aggregate: &domain.ChannelAggregate{Views: 120000, SubscribersGained: 500, SubscribersLost: 100},
		TopVideos: map[domain.Metric][]domain.RankedVideo{
			domain.MetricViews: {{VideoID: "v1", Title: "Top video", Views: 9000}},
		},
		Warnings: []string{"demographics unavailable"},
	}
}

func TestPersistHydrateRoundTrip(t *testing.T) {
	store := NewStore(newMemCache(), zap.NewNop())
	original := sampleSnapshot("UCmine")

	require.NoError(t, store.Persist(context.Background(), original))

	hydrated, err := store.Hydrate(context.Background(), "UCmine")
	require.NoError(t, err)
	require.NotNil(t, hydrated)
	assert.Equal(t, original, hydrated)
}

func TestHydrateDifferentChannelDiscardsEverything(t *testing.T) {
	cache := newMemCache()
	store := NewStore(cache, zap.NewNop())

	require.NoError(t, store.Persist(context.Background(), sampleSnapshot("UCother")))

	hydrated, err := store.Hydrate(context.Background(), "UCmine")
	require.NoError(t, err)
	assert.Nil(t, hydrated)

	// The stale snapshot is gone, not waiting for the next victim.
	assert.Empty(t, cache.values)
}

func TestHydrateEmptyStore(t *testing.T) {
	store := NewStore(newMemCache(), zap.NewNop())

	hydrated, err := store.Hydrate(context.Background(), "UCmine")
	require.NoError(t, err)
	assert.Nil(t, hydrated)
}

func TestPersistRejectsUnscopedSnapshot(t *testing.T) {
	store := NewStore(newMemCache(), zap.NewNop())

	assert.Error(t, store.Persist(context.Background(), &domain.DashboardSnapshot{}))
	assert.Error(t, store.Persist(context.Background(), nil))
}

func TestSnapshotHasNoTTL(t *testing.T) {
	cache := newMemCache()
	store := NewStore(cache, zap.NewNop())

	require.NoError(t, store.Persist(context.Background(), sampleSnapshot("UCmine")))
	assert.Equal(t, time.Duration(0), cache.ttls["dashboard:snapshot"])
}

func TestPreferencesRoundTrip(t *testing.T) {
	store := NewStore(newMemCache(), zap.NewNop())
	prefs := &domain.Preferences{
		QuickRange:    domain.QuickRange30Days,
		RankingMetric: domain.MetricShares,
	}

	require.NoError(t, store.SavePreferences(context.Background(), prefs))

	loaded, err := store.LoadPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefs, loaded)
}

func TestKeywordAnalysisGetsDailyTTL(t *testing.T) {
	cache := newMemCache()
	store := NewStore(cache, zap.NewNop())

	analysis := &KeywordAnalysis{
		Keyword:      "video editing",
		SearchVolume: 4400,
		AnalyzedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveKeywordAnalysis(context.Background(), analysis))
	assert.Equal(t, 24*time.Hour, cache.ttls["dashboard:keywords:video editing"])

	loaded, err := store.LoadKeywordAnalysis(context.Background(), "video editing")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, analysis.SearchVolume, loaded.SearchVolume)

	missing, err := store.LoadKeywordAnalysis(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
