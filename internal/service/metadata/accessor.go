package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/cache"
	"go.uber.org/zap"
)

// Accessor lazily loads the channel's full video catalog and memoizes it for
// the session. The catalog is the slow-changing half of every video record
// and the data behind the degraded fallback source, so it is fetched exactly
// once: a fetch failure memoizes an empty catalog (fail open) instead of
// retrying on every lookup.
type Accessor struct {
	api       CatalogAPI
	cache     *cache.Service
	logger    *zap.Logger
	channelID string

	mu      sync.Mutex
	loaded  bool
	catalog map[string]*domain.VideoMetadata
}

func NewAccessor(api CatalogAPI, cacheSvc *cache.Service, channelID string, logger *zap.Logger) *Accessor {
	return &Accessor{
		api:       api,
		cache:     cacheSvc,
		logger:    logger,
		channelID: channelID,
	}
}

func (a *Accessor) catalogCacheKey() string {
	return fmt.Sprintf("dashboard:catalog:%s", a.channelID)
}

// EnsureCatalog returns the memoized catalog, fetching it on first call.
// The returned map is shared; callers treat it as read-only.
func (a *Accessor) EnsureCatalog(ctx context.Context) map[string]*domain.VideoMetadata {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded {
		return a.catalog
	}

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		a.logger.Warn("Catalog load failed, continuing with empty catalog",
			zap.String("channel", a.channelID),
			zap.Error(err))
		catalog = map[string]*domain.VideoMetadata{}
	}

	a.catalog = catalog
	a.loaded = true
	return a.catalog
}

// Invalidate drops the memoized catalog and the Redis copy so the next
// EnsureCatalog refetches. Called on explicit user refresh.
func (a *Accessor) Invalidate(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loaded = false
	a.catalog = nil
	if a.cache != nil {
		_ = a.cache.Del(ctx, a.catalogCacheKey())
	}
}

// LookupTitles is a projection over the memoized catalog; it never issues
// per-id network calls.
func (a *Accessor) LookupTitles(ctx context.Context, videoIDs []string) map[string]string {
	catalog := a.EnsureCatalog(ctx)

	titles := make(map[string]string, len(videoIDs))
	for _, id := range videoIDs {
		if meta, ok := catalog[id]; ok {
			titles[id] = meta.Title
		}
	}
	return titles
}

func (a *Accessor) loadCatalog(ctx context.Context) (map[string]*domain.VideoMetadata, error) {
	// Redis copy first: a warm catalog saves the whole playlist walk.
	if a.cache != nil {
		var cached []*domain.VideoMetadata
		if err := a.cache.Get(ctx, a.catalogCacheKey(), &cached); err == nil && len(cached) > 0 {
			a.logger.Debug("Catalog cache hit",
				zap.String("channel", a.channelID),
				zap.Int("videos", len(cached)))
			return indexByID(cached), nil
		}
	}

	playlistID, err := a.api.UploadsPlaylistID(ctx, a.channelID)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads playlist: %w", err)
	}

	var videoIDs []string
	pageToken := ""
	for page := 0; page < constants.QuotaConfig.MaxCatalogPages; page++ {
		ids, next, err := a.api.PlaylistVideoIDs(ctx, playlistID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("walk uploads playlist: %w", err)
		}
		videoIDs = append(videoIDs, ids...)
		if next == "" {
			break
		}
		pageToken = next
	}

	videos, err := a.api.VideoDetails(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	a.logger.Info("Video catalog loaded",
		zap.String("channel", a.channelID),
		zap.Int("videos", len(videos)))

	if a.cache != nil {
		if err := a.cache.Set(ctx, a.catalogCacheKey(), videos, constants.CacheTTL.VideoCatalog); err != nil {
			a.logger.Warn("Failed to cache catalog", zap.Error(err))
		}
	}

	return indexByID(videos), nil
}

func indexByID(videos []*domain.VideoMetadata) map[string]*domain.VideoMetadata {
	catalog := make(map[string]*domain.VideoMetadata, len(videos))
	for _, v := range videos {
		if v.VideoID != "" {
			catalog[v.VideoID] = v
		}
	}
	return catalog
}
