package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/period"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/analytics"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/ranking"
	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// MetricsResolver is the source strategy surface the orchestrator drives.
type MetricsResolver interface {
	FetchChannelAggregate(ctx context.Context, session *analytics.Session, rng domain.DateRange) (*domain.ChannelAggregate, error)
	FetchVideoRows(ctx context.Context, session *analytics.Session, rng domain.DateRange) ([]domain.VideoMetricRow, error)
	FetchTrafficSources(ctx context.Context, session *analytics.Session, rng domain.DateRange) ([]domain.TrafficSourceRow, error)
	FetchDemographics(ctx context.Context, session *analytics.Session, rng domain.DateRange) ([]domain.DemographicsRow, error)
	FetchDeviceTypes(ctx context.Context, session *analytics.Session, rng domain.DateRange) ([]domain.DeviceTypeRow, error)
	FetchMonthlySeries(ctx context.Context, session *analytics.Session, rng domain.DateRange) ([]domain.MonthlyPoint, error)
}

type CatalogAccessor interface {
	EnsureCatalog(ctx context.Context) map[string]*domain.VideoMetadata
	Invalidate(ctx context.Context)
}

type Comparer interface {
	Compare(ctx context.Context, session *analytics.Session, rng domain.DateRange, current *domain.ChannelAggregate) (map[domain.Metric]domain.ComparisonResult, domain.ComparisonPeriods)
}

type SnapshotStore interface {
	Persist(ctx context.Context, snap *domain.DashboardSnapshot) error
	Hydrate(ctx context.Context, activeChannelID string) (*domain.DashboardSnapshot, error)
	Clear(ctx context.Context) error
	SavePreferences(ctx context.Context, prefs *domain.Preferences) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, channelID string, rng domain.DateRange, source domain.SourceMode, agg *domain.ChannelAggregate) error
}

// FetchParams selects what one top-level fetch computes. When QuickRange is
// set it wins over the explicit Range.
type FetchParams struct {
	QuickRange    domain.QuickRange
	Range         domain.DateRange
	RankingMetric domain.Metric
}

// Service orchestrates one dashboard session. It is the single writer of the
// in-memory result set and the persisted snapshot; sub-fetchers only read.
// A top-level fetch never runs concurrently with itself: a second call while
// one is outstanding is rejected outright rather than queued.
type Service struct {
	channelID string
	calc      *period.Calculator
	resolver  MetricsResolver
	catalog   CatalogAccessor
	comparer  Comparer
	store     SnapshotStore
	history   HistoryRecorder
	logger    *zap.Logger

	busy    atomic.Bool
	session *analytics.Session

	mu      sync.RWMutex
	current *domain.DashboardSnapshot
}

func NewService(
	channelID string,
	calc *period.Calculator,
	resolver MetricsResolver,
	catalog CatalogAccessor,
	comparer Comparer,
	store SnapshotStore,
	historyRepo HistoryRecorder,
	logger *zap.Logger,
) *Service {
	s := &Service{
		channelID: channelID,
		calc:      calc,
		resolver:  resolver,
		catalog:   catalog,
		comparer:  comparer,
		store:     store,
		history:   historyRepo,
		logger:    logger,
		session:   analytics.NewSession(),
	}

	s.session.OnModeChange(func(mode domain.SourceMode) {
		s.logger.Warn("Metrics source degraded",
			zap.String("mode", string(mode)))
	})

	return s
}

// Session exposes the session so callers can observe mode transitions.
func (s *Service) Session() *analytics.Session {
	return s.session
}

// Current returns the latest computed snapshot, or nil before any fetch or
// hydrate.
func (s *Service) Current() *domain.DashboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Hydrate loads the persisted snapshot once at mount. It never overwrites
// state already populated by a live fetch in this session.
func (s *Service) Hydrate(ctx context.Context) (*domain.DashboardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}

	snap, err := s.store.Hydrate(ctx, s.channelID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		s.current = snap
		s.logger.Info("Dashboard state hydrated",
			zap.String("range", snap.QueryRange.String()),
			zap.Time("computed_at", snap.Timestamp))
	}
	return s.current, nil
}

// Refresh resets the session to the primary source, drops the cached catalog
// and snapshot, then runs a full fetch. This is the only path that re-arms
// primary after a fallback.
func (s *Service) Refresh(ctx context.Context, params FetchParams) (*domain.DashboardSnapshot, error) {
	s.session.Reset()
	s.catalog.Invalidate(ctx)
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear snapshot on refresh", zap.Error(err))
	}
	return s.FetchDashboardData(ctx, params)
}

// FetchDashboardData runs one complete aggregation pass and persists the
// result. Only an authentication failure escapes; every other problem
// degrades to fewer or blanker sections plus a recorded warning.
func (s *Service) FetchDashboardData(ctx context.Context, params FetchParams) (*domain.DashboardSnapshot, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, errors.NewServiceError("a dashboard fetch is already in progress", "dashboard", "fetch", nil)
	}
	defer s.busy.Store(false)

	rng, err := s.resolveRange(params)
	if err != nil {
		return nil, err
	}

	s.savePreferences(ctx, params, rng)

	var warnings []string

	// The catalog populate is awaited before anything joins against it; it
	// is also what the fallback source estimates from.
	catalog := s.catalog.EnsureCatalog(ctx)
	if len(catalog) == 0 {
		warnings = append(warnings, "video catalog unavailable; rankings may be empty")
	}

	// Source mode is decided by the first two calls, sequentially, so every
	// concurrent sub-fetch below agrees on the mode.
	aggregate, err := s.resolver.FetchChannelAggregate(ctx, s.session, rng)
	if err != nil {
		return nil, err
	}
	if aggregate == nil && s.session.Mode() == domain.SourceFallback {
		warnings = append(warnings, "primary metrics source returned no data; figures are estimates from cumulative counters")
		aggregate, err = s.resolver.FetchChannelAggregate(ctx, s.session, rng)
		if err != nil {
			return nil, err
		}
	}
	if aggregate == nil {
		aggregate = &domain.ChannelAggregate{}
		warnings = append(warnings, "no channel aggregate available for this range")
	}

	videoRows, err := s.resolver.FetchVideoRows(ctx, s.session, rng)
	if err != nil {
		return nil, err
	}
	if videoRows == nil && s.session.Mode() == domain.SourceFallback {
		videoRows, err = s.resolver.FetchVideoRows(ctx, s.session, rng)
		if err != nil {
			return nil, err
		}
	}

	var (
		comparisons   map[domain.Metric]domain.ComparisonResult
		trafficRows   []domain.TrafficSourceRow
		trafficErr    error
		demographics  []domain.DemographicsRow
		demographErr  error
		deviceRows    []domain.DeviceTypeRow
		deviceErr     error
		monthlyPoints []domain.MonthlyPoint
		monthlyErr    error
	)

	p := pool.New().WithMaxGoroutines(constants.FetchConfig.SubFetchConcurrency)
	p.Go(func() {
		comparisons, _ = s.comparer.Compare(ctx, s.session, rng, aggregate)
	})
	p.Go(func() {
		trafficRows, trafficErr = s.resolver.FetchTrafficSources(ctx, s.session, rng)
	})
	p.Go(func() {
		demographics, demographErr = s.resolver.FetchDemographics(ctx, s.session, rng)
	})
	p.Go(func() {
		deviceRows, deviceErr = s.resolver.FetchDeviceTypes(ctx, s.session, rng)
	})
	p.Go(func() {
		monthlyPoints, monthlyErr = s.resolver.FetchMonthlySeries(ctx, s.session, rng)
	})
	p.Wait()

	for _, sub := range []struct {
		name string
		err  error
	}{
		{"traffic sources", trafficErr},
		{"demographics", demographErr},
		{"device types", deviceErr},
		{"monthly series", monthlyErr},
	} {
		if sub.err == nil {
			continue
		}
		if errors.IsAuthError(sub.err) {
			return nil, sub.err
		}
		s.logger.Warn("Sub-fetch failed, leaving section empty",
			zap.String("section", sub.name),
			zap.Error(sub.err))
		warnings = append(warnings, sub.name+" unavailable")
	}

	ranked := ranking.BuildRanked(videoRows, catalog, 0)
	topVideos := map[domain.Metric][]domain.RankedVideo{}
	for _, metric := range []domain.Metric{
		domain.MetricViews,
		domain.MetricAvgViewPercentage,
		domain.MetricShares,
		domain.MetricComments,
	} {
		topVideos[metric] = ranking.TopByMetric(ranked, metric, constants.RankingConfig.DefaultLimit)
	}
	bottomVideos := ranking.BottomByViews(catalog, videoRows, constants.RankingConfig.BottomListSize)
	split := ranking.SplitByContentType(ranked, nil)

	snap := &domain.DashboardSnapshot{
		ChannelID:      s.channelID,
		Timestamp:      time.Now(),
		QueryRange:     rng,
		Source:         s.session.Mode(),
		Aggregate:      aggregate,
		Comparisons:    comparisons,
		TopVideos:      topVideos,
		BottomVideos:   bottomVideos,
		ContentSplit:   &split,
		TrafficSources: trafficRows,
		Demographics:   demographics,
		DeviceTypes:    deviceRows,
		MonthlySeries:  monthlyPoints,
		Warnings:       warnings,
	}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if err := s.store.Persist(ctx, snap); err != nil {
		s.logger.Warn("Failed to persist snapshot", zap.Error(err))
	}

	if s.history != nil {
		if err := s.history.Record(ctx, s.channelID, rng, snap.Source, aggregate); err != nil {
			s.logger.Warn("Failed to record fetch history", zap.Error(err))
		}
	}

	s.logger.Info("Dashboard data computed",
		zap.String("range", rng.String()),
		zap.String("source", string(snap.Source)),
		zap.Int("ranked_videos", len(ranked)),
		zap.Int("warnings", len(warnings)))

	return snap, nil
}

func (s *Service) resolveRange(params FetchParams) (domain.DateRange, error) {
	if params.QuickRange != "" {
		return s.calc.ResolveQuickRange(params.QuickRange)
	}
	if params.Range.Start.IsZero() || params.Range.End.IsZero() {
		return domain.DateRange{}, errors.NewValidationError("a date range or preset is required", "range", params.Range.String())
	}
	return s.calc.ClampToQueryable(params.Range), nil
}

func (s *Service) savePreferences(ctx context.Context, params FetchParams, rng domain.DateRange) {
	metric := params.RankingMetric
	if metric == "" {
		metric = domain.MetricViews
	}
	prefs := &domain.Preferences{
		QuickRange:    params.QuickRange,
		Range:         rng,
		RankingMetric: metric,
	}
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		s.logger.Warn("Failed to save preferences", zap.Error(err))
	}
}
