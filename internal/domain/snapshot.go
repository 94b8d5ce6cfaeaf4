package domain

import "time"

// DashboardSnapshot is the full computed result set for one fetch, persisted
// across reloads. A snapshot is scoped to the channel that produced it and is
// discarded wholesale when hydrated under a different active channel.
type DashboardSnapshot struct {
	ChannelID      string                      `json:"channel_id"`
	Timestamp      time.Time                   `json:"timestamp"`
	QueryRange     DateRange                   `json:"query_range"`
	Source         SourceMode                  `json:"source"`
	Aggregate      *ChannelAggregate           `json:"aggregate"`
	Comparisons    map[Metric]ComparisonResult `json:"comparisons"`
	TopVideos      map[Metric][]RankedVideo    `json:"top_videos"`
	BottomVideos   []RankedVideo               `json:"bottom_videos"`
	ContentSplit   *ContentSplit               `json:"content_split"`
	TrafficSources []TrafficSourceRow          `json:"traffic_sources"`
	Demographics   []DemographicsRow           `json:"demographics"`
	DeviceTypes    []DeviceTypeRow             `json:"device_types"`
	MonthlySeries  []MonthlyPoint              `json:"monthly_series"`
	Warnings       []string                    `json:"warnings"`
}

// Preferences are the user's filter choices, written on every change.
type Preferences struct {
	QuickRange    QuickRange `json:"quick_range"`
	Range         DateRange  `json:"range"`
	RankingMetric Metric     `json:"ranking_metric"`
}
