package domain

import "time"

// SourceMode tells which metrics source a session is being served by.
type SourceMode string

const (
	SourcePrimary  SourceMode = "primary"
	SourceFallback SourceMode = "fallback"
)

// Metric names a rankable/comparable channel metric.
type Metric string

const (
	MetricViews             Metric = "views"
	MetricWatchMinutes      Metric = "watch_minutes"
	MetricAvgViewPercentage Metric = "avg_view_percentage"
	MetricComments          Metric = "comments"
	MetricLikes             Metric = "likes"
	MetricShares            Metric = "shares"
	MetricNetSubscribers    Metric = "net_subscribers"
)

// ChannelAggregate holds one date range's channel-level totals. It is
// replaced wholesale on every fetch, never mutated in place.
type ChannelAggregate struct {
	Views                  int64   `json:"views"`
	EstimatedWatchMinutes  int64   `json:"estimated_watch_minutes"`
	SubscribersGained      int64   `json:"subscribers_gained"`
	SubscribersLost        int64   `json:"subscribers_lost"`
	AvgViewDurationSeconds float64 `json:"avg_view_duration_seconds"`
	AvgViewPercentage      float64 `json:"avg_view_percentage"`
	// Estimated is set when the figures come from the fallback source's
	// cumulative-counter approximation rather than true per-period rows.
	Estimated bool `json:"estimated"`
}

func (a *ChannelAggregate) NetSubscribers() int64 {
	if a == nil {
		return 0
	}
	return a.SubscribersGained - a.SubscribersLost
}

// MetricValue extracts a single metric from the aggregate.
func (a *ChannelAggregate) MetricValue(metric Metric) float64 {
	if a == nil {
		return 0
	}
	switch metric {
	case MetricViews:
		return float64(a.Views)
	case MetricWatchMinutes:
		return float64(a.EstimatedWatchMinutes)
	case MetricAvgViewPercentage:
		return a.AvgViewPercentage
	case MetricNetSubscribers:
		return float64(a.NetSubscribers())
	default:
		return 0
	}
}

// VideoMetricRow is the dynamic, period-scoped half of a video's record.
type VideoMetricRow struct {
	VideoID           string  `json:"video_id"`
	Views             int64   `json:"views"`
	AvgViewPercentage float64 `json:"avg_view_percentage"`
	Comments          int64   `json:"comments"`
	Likes             int64   `json:"likes"`
	Shares            int64   `json:"shares"`
}

// RankedVideo joins a metric row with its catalog metadata. Built fresh per
// aggregation call; only containing lists are ever cached.
type RankedVideo struct {
	VideoID           string      `json:"video_id"`
	Title             string      `json:"title"`
	ThumbnailURL      string      `json:"thumbnail_url"`
	PublishedAt       time.Time   `json:"published_at"`
	Views             int64       `json:"views"`
	AvgViewPercentage float64     `json:"avg_view_percentage"`
	Comments          int64       `json:"comments"`
	Likes             int64       `json:"likes"`
	Shares            int64       `json:"shares"`
	LifetimeViews     int64       `json:"lifetime_views"`
	ContentType       ContentType `json:"content_type"`
}

// MetricValue extracts the ranking key for a metric.
func (v *RankedVideo) MetricValue(metric Metric) float64 {
	switch metric {
	case MetricViews:
		return float64(v.Views)
	case MetricAvgViewPercentage:
		return v.AvgViewPercentage
	case MetricComments:
		return float64(v.Comments)
	case MetricLikes:
		return float64(v.Likes)
	case MetricShares:
		return float64(v.Shares)
	default:
		return float64(v.Views)
	}
}

// ComparisonResult carries one metric's current value against its two
// baselines. Percent fields are zero, never NaN or Inf, when a baseline
// is zero.
type ComparisonResult struct {
	Metric                    Metric  `json:"metric"`
	Current                   float64 `json:"current"`
	Previous                  float64 `json:"previous"`
	YearAgo                   float64 `json:"year_ago"`
	ChangeFromPrevious        float64 `json:"change_from_previous"`
	ChangeFromPreviousPercent float64 `json:"change_from_previous_percent"`
	ChangeFromYearAgo         float64 `json:"change_from_year_ago"`
	ChangeFromYearAgoPercent  float64 `json:"change_from_year_ago_percent"`
	// PreviousMissing / YearAgoMissing flag a baseline that could not be
	// fetched and was degraded to zero.
	PreviousMissing bool `json:"previous_missing"`
	YearAgoMissing  bool `json:"year_ago_missing"`
}

// ContentTypeTotals aggregates one content-type bucket. A bucket with no
// matching rows still reports all-zero totals so "no data" stays
// distinguishable from "zero performance" upstream.
type ContentTypeTotals struct {
	Type       ContentType `json:"type"`
	VideoCount int         `json:"video_count"`
	Views      int64       `json:"views"`
	Likes      int64       `json:"likes"`
	Comments   int64       `json:"comments"`
	Shares     int64       `json:"shares"`
}

type ContentSplit struct {
	ShortForm ContentTypeTotals `json:"short_form"`
	LongForm  ContentTypeTotals `json:"long_form"`
}

type TrafficSourceRow struct {
	SourceType   string `json:"source_type"`
	Views        int64  `json:"views"`
	WatchMinutes int64  `json:"watch_minutes"`
}

type DemographicsRow struct {
	AgeGroup         string  `json:"age_group"`
	Gender           string  `json:"gender"`
	ViewerPercentage float64 `json:"viewer_percentage"`
}

type DeviceTypeRow struct {
	DeviceType string `json:"device_type"`
	Views      int64  `json:"views"`
}

type MonthlyPoint struct {
	Month             string `json:"month"` // YYYY-MM
	Views             int64  `json:"views"`
	WatchMinutes      int64  `json:"watch_minutes"`
	SubscribersGained int64  `json:"subscribers_gained"`
	SubscribersLost   int64  `json:"subscribers_lost"`
}
