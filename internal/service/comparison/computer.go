package comparison

import (
	"context"
	"math"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/internal/period"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/analytics"
	"github.com/JasChiang/ai-video-writer-sub000/internal/util"
	"go.uber.org/zap"
)

// ComparedMetrics are the channel-level metrics that get baseline deltas.
var ComparedMetrics = []domain.Metric{
	domain.MetricViews,
	domain.MetricWatchMinutes,
	domain.MetricAvgViewPercentage,
	domain.MetricNetSubscribers,
}

// BaselineFetcher is the slice of the source strategy resolver the computer
// needs. Baseline fetches never decide the session's source mode.
type BaselineFetcher interface {
	FetchBaselineAggregate(ctx context.Context, session *analytics.Session, rng domain.DateRange) (*domain.ChannelAggregate, error)
}

// Computer derives previous-period and year-ago deltas for the current
// aggregate. Each baseline is fetched independently: a failure degrades that
// one baseline to zero with a flag instead of failing the already-successful
// current computation.
type Computer struct {
	calc     *period.Calculator
	resolver BaselineFetcher
	logger   *zap.Logger
}

func NewComputer(calc *period.Calculator, resolver BaselineFetcher, logger *zap.Logger) *Computer {
	return &Computer{
		calc:     calc,
		resolver: resolver,
		logger:   logger,
	}
}

// Compare returns one ComparisonResult per compared metric, plus the derived
// comparison periods for display.
func (c *Computer) Compare(ctx context.Context, session *analytics.Session, rng domain.DateRange, current *domain.ChannelAggregate) (map[domain.Metric]domain.ComparisonResult, domain.ComparisonPeriods) {
	periods := c.calc.ComparisonPeriodsFor(rng)

	previous, previousMissing := c.fetchBaseline(ctx, session, periods.Previous.DateRange, "previous")
	yearAgo, yearAgoMissing := c.fetchBaseline(ctx, session, periods.YearAgo.DateRange, "year-ago")

	results := make(map[domain.Metric]domain.ComparisonResult, len(ComparedMetrics))
	for _, metric := range ComparedMetrics {
		results[metric] = buildResult(metric,
			current.MetricValue(metric),
			previous.MetricValue(metric), previousMissing,
			yearAgo.MetricValue(metric), yearAgoMissing)
	}

	return results, periods
}

func (c *Computer) fetchBaseline(ctx context.Context, session *analytics.Session, rng domain.DateRange, label string) (*domain.ChannelAggregate, bool) {
	agg, err := c.resolver.FetchBaselineAggregate(ctx, session, rng)
	if err != nil {
		c.logger.Warn("Baseline fetch failed, degrading to zero",
			zap.String("baseline", label),
			zap.String("range", rng.String()),
			zap.Error(err))
		return nil, true
	}
	if agg == nil {
		c.logger.Debug("Baseline has no data",
			zap.String("baseline", label),
			zap.String("range", rng.String()))
		return nil, true
	}
	return agg, false
}

func buildResult(metric domain.Metric, current, previous float64, previousMissing bool, yearAgo float64, yearAgoMissing bool) domain.ComparisonResult {
	changeFromPrevious := current - previous
	changeFromYearAgo := current - yearAgo

	return domain.ComparisonResult{
		Metric:                    metric,
		Current:                   current,
		Previous:                  previous,
		YearAgo:                   yearAgo,
		ChangeFromPrevious:        changeFromPrevious,
		ChangeFromPreviousPercent: changePercent(metric, changeFromPrevious, previous),
		ChangeFromYearAgo:         changeFromYearAgo,
		ChangeFromYearAgoPercent:  changePercent(metric, changeFromYearAgo, yearAgo),
		PreviousMissing:           previousMissing,
		YearAgoMissing:            yearAgoMissing,
	}
}

// changePercent keeps percentage deltas finite for every baseline. A zero
// baseline yields 0, never NaN or Inf. Signed net quantities use the
// baseline's absolute value as the percent base so the sign of the change
// stays meaningful when the baseline itself was negative.
func changePercent(metric domain.Metric, change, baseline float64) float64 {
	base := baseline
	if metric == domain.MetricNetSubscribers {
		base = math.Abs(baseline)
	}
	if base == 0 {
		return 0
	}
	return util.Round2(change / base * 100)
}
