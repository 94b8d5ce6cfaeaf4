package constants

import "time"

var ReportingConfig = struct {
	LagDays  int
	DateForm string
}{
	LagDays:  3, // Analytics API rows trail the present day by ~3 days
	DateForm: "2006-01-02",
}

var CacheTTL = struct {
	VideoCatalog    time.Duration
	KeywordAnalysis time.Duration
	Snapshot        time.Duration
}{
	VideoCatalog:    2 * time.Hour,
	KeywordAnalysis: 24 * time.Hour,
	Snapshot:        0, // no TTL: the snapshot lives until an explicit refresh
}

var QuotaConfig = struct {
	DailyLimit       int
	ListCost         int
	SafetyMargin     int
	VideoBatchSize   int
	MaxCatalogPages  int
	PlaylistPageSize int64
}{
	DailyLimit:       10000,
	ListCost:         1, // videos.list / playlistItems.list cost per call
	SafetyMargin:     2000,
	VideoBatchSize:   50, // videos.list accepts at most 50 ids per request
	MaxCatalogPages:  40,
	PlaylistPageSize: 50,
}

var RankingConfig = struct {
	DefaultLimit   int
	BottomListSize int
	MaxVideoRows   int64
}{
	DefaultLimit:   10,
	BottomListSize: 5,
	MaxVideoRows:   200,
}

// FallbackEstimate holds the hard-coded assumptions behind the degraded-mode
// watch time figure. These are approximations carried over as-is; results
// derived from them are always flagged as estimated.
var FallbackEstimate = struct {
	AssumedVideoMinutes float64
	AssumedCompletion   float64
}{
	AssumedVideoMinutes: 8.0,
	AssumedCompletion:   0.4,
}

var ContentTypeConfig = struct {
	ShortFormMaxSeconds int64
}{
	ShortFormMaxSeconds: 60,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var FetchConfig = struct {
	SubFetchConcurrency int
	Timeout             time.Duration
}{
	SubFetchConcurrency: 4,
	Timeout:             45 * time.Second,
}
