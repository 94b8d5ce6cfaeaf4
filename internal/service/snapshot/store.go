package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
	"go.uber.org/zap"
)

const (
	snapshotKey    = "dashboard:snapshot"
	preferencesKey = "dashboard:preferences"
	keywordKeyFmt  = "dashboard:keywords:%s"
)

// Cache is the key-value surface the store persists through, satisfied by
// the Redis cache service.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store persists the computed dashboard state across reloads. The snapshot
// has no TTL: it stays valid until the user explicitly refreshes. It is
// scoped to one channel; hydrating under a different active channel discards
// it in full, since cross-channel bleed-through corrupts every number shown.
type Store struct {
	cache  Cache
	logger *zap.Logger
}

func NewStore(cache Cache, logger *zap.Logger) *Store {
	return &Store{
		cache:  cache,
		logger: logger,
	}
}

// Persist writes the full computed snapshot, keyed by the channel that
// produced it.
func (s *Store) Persist(ctx context.Context, snap *domain.DashboardSnapshot) error {
	if snap == nil {
		return errors.NewValidationError("snapshot must not be nil", "snapshot", nil)
	}
	if snap.ChannelID == "" {
		return errors.NewValidationError("snapshot channel id must not be empty", "channel_id", "")
	}

	if err := s.cache.Set(ctx, snapshotKey, snap, constants.CacheTTL.Snapshot); err != nil {
		return err
	}

	s.logger.Debug("Snapshot persisted",
		zap.String("channel", snap.ChannelID),
		zap.String("range", snap.QueryRange.String()))
	return nil
}

// Hydrate loads the persisted snapshot for the active channel. A snapshot
// stored by a different channel is deleted and nil is returned, exactly as
// if nothing had been persisted.
func (s *Store) Hydrate(ctx context.Context, activeChannelID string) (*domain.DashboardSnapshot, error) {
	var snap *domain.DashboardSnapshot
	if err := s.cache.Get(ctx, snapshotKey, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	if snap.ChannelID != activeChannelID {
		s.logger.Warn("Discarding snapshot from different channel",
			zap.String("stored", snap.ChannelID),
			zap.String("active", activeChannelID))
		if err := s.cache.Del(ctx, snapshotKey); err != nil {
			s.logger.Error("Failed to delete stale snapshot", zap.Error(err))
		}
		return nil, nil
	}

	return snap, nil
}

// Clear drops the persisted snapshot. Called on explicit refresh.
func (s *Store) Clear(ctx context.Context) error {
	return s.cache.Del(ctx, snapshotKey)
}

// SavePreferences writes the user's filter choices. Written on every change.
func (s *Store) SavePreferences(ctx context.Context, prefs *domain.Preferences) error {
	return s.cache.Set(ctx, preferencesKey, prefs, 0)
}

func (s *Store) LoadPreferences(ctx context.Context) (*domain.Preferences, error) {
	var prefs *domain.Preferences
	if err := s.cache.Get(ctx, preferencesKey, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// KeywordAnalysis is a cached keyword research result. Unlike the dashboard
// snapshot it does expire: entries older than a day are gone.
type KeywordAnalysis struct {
	Keyword      string    `json:"keyword"`
	SearchVolume int64     `json:"search_volume"`
	Competition  float64   `json:"competition"`
	RelatedTerms []string  `json:"related_terms"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

func (s *Store) SaveKeywordAnalysis(ctx context.Context, analysis *KeywordAnalysis) error {
	if analysis == nil || analysis.Keyword == "" {
		return errors.NewValidationError("keyword must not be empty", "keyword", "")
	}
	key := fmt.Sprintf(keywordKeyFmt, analysis.Keyword)
	return s.cache.Set(ctx, key, analysis, constants.CacheTTL.KeywordAnalysis)
}

func (s *Store) LoadKeywordAnalysis(ctx context.Context, keyword string) (*KeywordAnalysis, error) {
	var analysis *KeywordAnalysis
	key := fmt.Sprintf(keywordKeyFmt, keyword)
	if err := s.cache.Get(ctx, key, &analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}
