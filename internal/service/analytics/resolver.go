package analytics

import (
	"context"
	"sort"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/util"
	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
	"go.uber.org/zap"
)

// CatalogProvider supplies the memoized video catalog the fallback source
// estimates from.
type CatalogProvider interface {
	EnsureCatalog(ctx context.Context) map[string]*domain.VideoMetadata
}

// Resolver chooses between the primary Analytics API and the catalog-derived
// fallback for every metrics read. The choice is held on the Session: the
// first empty/failed primary read for the current period flips the whole
// session to fallback.
type Resolver struct {
	reporter Reporter
	catalog  CatalogProvider
	logger   *zap.Logger
}

func NewResolver(reporter Reporter, catalog CatalogProvider, logger *zap.Logger) *Resolver {
	return &Resolver{
		reporter: reporter,
		catalog:  catalog,
		logger:   logger,
	}
}

var aggregateMetrics = []string{
	"views",
	"estimatedMinutesWatched",
	"subscribersGained",
	"subscribersLost",
	"averageViewDuration",
	"averageViewPercentage",
}

var videoRowMetrics = []string{
	"views",
	"averageViewPercentage",
	"comments",
	"likes",
	"shares",
}

// FetchChannelAggregate resolves the channel-level totals for the current
// period. An empty primary result returns nil (not an error), flips the
// session to fallback, and leaves re-requesting to the caller.
func (r *Resolver) FetchChannelAggregate(ctx context.Context, session *Session, rng domain.DateRange) (*domain.ChannelAggregate, error) {
	return r.fetchAggregate(ctx, session, rng, true)
}

// FetchBaselineAggregate fetches an aggregate for a comparison window. It
// never decides the session mode: an empty previous period must not push a
// healthy session into fallback.
func (r *Resolver) FetchBaselineAggregate(ctx context.Context, session *Session, rng domain.DateRange) (*domain.ChannelAggregate, error) {
	return r.fetchAggregate(ctx, session, rng, false)
}

func (r *Resolver) fetchAggregate(ctx context.Context, session *Session, rng domain.DateRange, decidesMode bool) (*domain.ChannelAggregate, error) {
	if session.Mode() == domain.SourceFallback {
		return r.fallbackAggregate(ctx, rng), nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate: util.FormatDate(rng.Start),
		EndDate:   util.FormatDate(rng.End),
		Metrics:   aggregateMetrics,
	})
	if err != nil {
		if errors.IsAuthError(err) {
			return nil, err
		}
		r.logger.Warn("Primary aggregate query failed",
			zap.String("range", rng.String()),
			zap.Error(err))
		if decidesMode {
			r.switchToFallback(session, rng, "aggregate query failed")
		}
		return nil, nil
	}

	if len(resp.Rows) == 0 {
		if decidesMode {
			r.switchToFallback(session, rng, "aggregate returned zero rows")
		}
		return nil, nil
	}

	table := newRowTable(resp)
	row := resp.Rows[0]
	return &domain.ChannelAggregate{
		Views:                  int64(table.float(row, "views")),
		EstimatedWatchMinutes:  int64(table.float(row, "estimatedMinutesWatched")),
		SubscribersGained:      int64(table.float(row, "subscribersGained")),
		SubscribersLost:        int64(table.float(row, "subscribersLost")),
		AvgViewDurationSeconds: table.float(row, "averageViewDuration"),
		AvgViewPercentage:      table.float(row, "averageViewPercentage"),
	}, nil
}

// FetchVideoRows resolves per-video metric rows for the current period under
// the same empty-means-fallback contract as the aggregate fetch.
func (r *Resolver) FetchVideoRows(ctx context.Context, session *Session, rng domain.DateRange) ([]domain.VideoMetricRow, error) {
	if session.Mode() == domain.SourceFallback {
		return r.fallbackVideoRows(ctx, rng), nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate:  util.FormatDate(rng.Start),
		EndDate:    util.FormatDate(rng.End),
		Metrics:    videoRowMetrics,
		Dimensions: []string{"video"},
		Sort:       "-views",
		MaxResults: constants.RankingConfig.MaxVideoRows,
	})
	if err != nil {
		if errors.IsAuthError(err) {
			return nil, err
		}
		r.logger.Warn("Primary video rows query failed",
			zap.String("range", rng.String()),
			zap.Error(err))
		r.switchToFallback(session, rng, "video rows query failed")
		return nil, nil
	}

	if len(resp.Rows) == 0 {
		r.switchToFallback(session, rng, "video rows returned zero rows")
		return nil, nil
	}

	table := newRowTable(resp)
	rows := make([]domain.VideoMetricRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		videoID := table.str(row, "video")
		if videoID == "" {
			continue
		}
		rows = append(rows, domain.VideoMetricRow{
			VideoID:           videoID,
			Views:             int64(table.float(row, "views")),
			AvgViewPercentage: table.float(row, "averageViewPercentage"),
			Comments:          int64(table.float(row, "comments")),
			Likes:             int64(table.float(row, "likes")),
			Shares:            int64(table.float(row, "shares")),
		})
	}

	return rows, nil
}

// FetchTrafficSources is a primary-only section; in fallback mode it reports
// no data rather than guessing.
func (r *Resolver) FetchTrafficSources(ctx context.Context, session *Session, rng domain.DateRange) ([]domain.TrafficSourceRow, error) {
	if session.Mode() == domain.SourceFallback {
		return nil, nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate:  util.FormatDate(rng.Start),
		EndDate:    util.FormatDate(rng.End),
		Metrics:    []string{"views", "estimatedMinutesWatched"},
		Dimensions: []string{"insightTrafficSourceType"},
		Sort:       "-views",
	})
	if err != nil {
		return nil, err
	}

	table := newRowTable(resp)
	rows := make([]domain.TrafficSourceRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, domain.TrafficSourceRow{
			SourceType:   table.str(row, "insightTrafficSourceType"),
			Views:        int64(table.float(row, "views")),
			WatchMinutes: int64(table.float(row, "estimatedMinutesWatched")),
		})
	}
	return rows, nil
}

func (r *Resolver) FetchDemographics(ctx context.Context, session *Session, rng domain.DateRange) ([]domain.DemographicsRow, error) {
	if session.Mode() == domain.SourceFallback {
		return nil, nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate:  util.FormatDate(rng.Start),
		EndDate:    util.FormatDate(rng.End),
		Metrics:    []string{"viewerPercentage"},
		Dimensions: []string{"ageGroup", "gender"},
	})
	if err != nil {
		return nil, err
	}

	table := newRowTable(resp)
	rows := make([]domain.DemographicsRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, domain.DemographicsRow{
			AgeGroup:         table.str(row, "ageGroup"),
			Gender:           table.str(row, "gender"),
			ViewerPercentage: table.float(row, "viewerPercentage"),
		})
	}
	return rows, nil
}

func (r *Resolver) FetchDeviceTypes(ctx context.Context, session *Session, rng domain.DateRange) ([]domain.DeviceTypeRow, error) {
	if session.Mode() == domain.SourceFallback {
		return nil, nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate:  util.FormatDate(rng.Start),
		EndDate:    util.FormatDate(rng.End),
		Metrics:    []string{"views"},
		Dimensions: []string{"deviceType"},
		Sort:       "-views",
	})
	if err != nil {
		return nil, err
	}

	table := newRowTable(resp)
	rows := make([]domain.DeviceTypeRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, domain.DeviceTypeRow{
			DeviceType: table.str(row, "deviceType"),
			Views:      int64(table.float(row, "views")),
		})
	}
	return rows, nil
}

func (r *Resolver) FetchMonthlySeries(ctx context.Context, session *Session, rng domain.DateRange) ([]domain.MonthlyPoint, error) {
	if session.Mode() == domain.SourceFallback {
		return nil, nil
	}

	resp, err := r.reporter.Query(ctx, ReportRequest{
		StartDate:  util.FormatDate(rng.Start),
		EndDate:    util.FormatDate(rng.End),
		Metrics:    []string{"views", "estimatedMinutesWatched", "subscribersGained", "subscribersLost"},
		Dimensions: []string{"month"},
		Sort:       "month",
	})
	if err != nil {
		return nil, err
	}

	table := newRowTable(resp)
	points := make([]domain.MonthlyPoint, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		points = append(points, domain.MonthlyPoint{
			Month:             table.str(row, "month"),
			Views:             int64(table.float(row, "views")),
			WatchMinutes:      int64(table.float(row, "estimatedMinutesWatched")),
			SubscribersGained: int64(table.float(row, "subscribersGained")),
			SubscribersLost:   int64(table.float(row, "subscribersLost")),
		})
	}
	return points, nil
}

func (r *Resolver) switchToFallback(session *Session, rng domain.DateRange, reason string) {
	r.logger.Warn("Switching session to fallback source",
		zap.String("range", rng.String()),
		zap.String("reason", reason))
	session.enterFallback()
}

// fallbackAggregate sums cumulative per-video counters over public videos
// published inside the range. The watch time figure multiplies views by a
// hard-coded assumed video length and completion rate; it is an estimate and
// is flagged as such.
func (r *Resolver) fallbackAggregate(ctx context.Context, rng domain.DateRange) *domain.ChannelAggregate {
	catalog := r.catalog.EnsureCatalog(ctx)

	var views int64
	for _, meta := range catalog {
		if !meta.IsPublic() || !rng.Contains(meta.PublishedAt) {
			continue
		}
		views += meta.ViewCount
	}

	minutesPerView := constants.FallbackEstimate.AssumedVideoMinutes * constants.FallbackEstimate.AssumedCompletion

	return &domain.ChannelAggregate{
		Views:                  views,
		EstimatedWatchMinutes:  int64(float64(views) * minutesPerView),
		SubscribersGained:      0,
		SubscribersLost:        0,
		AvgViewDurationSeconds: minutesPerView * 60,
		AvgViewPercentage:      constants.FallbackEstimate.AssumedCompletion * 100,
		Estimated:              true,
	}
}

// fallbackVideoRows projects cumulative catalog counters into metric rows for
// videos published inside the range.
func (r *Resolver) fallbackVideoRows(ctx context.Context, rng domain.DateRange) []domain.VideoMetricRow {
	catalog := r.catalog.EnsureCatalog(ctx)

	rows := make([]domain.VideoMetricRow, 0)
	for _, meta := range catalog {
		if !meta.IsPublic() || !rng.Contains(meta.PublishedAt) {
			continue
		}
		rows = append(rows, domain.VideoMetricRow{
			VideoID:           meta.VideoID,
			Views:             meta.ViewCount,
			AvgViewPercentage: constants.FallbackEstimate.AssumedCompletion * 100,
			Comments:          meta.CommentCount,
			Likes:             meta.LikeCount,
			Shares:            0, // the catalog has no share counter
		})
	}

	// Map iteration order is random; fix it so fallback rankings are stable
	// across calls.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Views != rows[j].Views {
			return rows[i].Views > rows[j].Views
		}
		return rows[i].VideoID < rows[j].VideoID
	})

	return rows
}
