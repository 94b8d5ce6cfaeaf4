package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReporter struct {
	responses map[string]*ReportResponse // keyed by startDate
	empty     bool
	err       error
	calls     []ReportRequest
}

func (f *fakeReporter) Query(_ context.Context, req ReportRequest) (*ReportResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return &ReportResponse{}, nil
	}
	if resp, ok := f.responses[req.StartDate]; ok {
		return resp, nil
	}
	return &ReportResponse{}, nil
}

type fakeCatalog struct {
	videos map[string]*domain.VideoMetadata
	calls  int
}

func (f *fakeCatalog) EnsureCatalog(_ context.Context) map[string]*domain.VideoMetadata {
	f.calls++
	if f.videos == nil {
		return map[string]*domain.VideoMetadata{}
	}
	return f.videos
}

func aggregateResponse(views, watchMinutes, gained, lost float64) *ReportResponse {
	return &ReportResponse{
		Columns: []string{"views", "estimatedMinutesWatched", "subscribersGained", "subscribersLost", "averageViewDuration", "averageViewPercentage"},
		Rows:    [][]any{{views, watchMinutes, gained, lost, 182.5, 41.2}},
	}
}

func juneRange() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func publicVideo(id string, published time.Time, views int64) *domain.VideoMetadata {
	return &domain.VideoMetadata{
		VideoID:     id,
		Title:       id,
		PublishedAt: published,
		Visibility:  domain.VisibilityPublic,
		ViewCount:   views,
		LikeCount:   10,
	}
}

func TestFetchChannelAggregatePrimary(t *testing.T) {
	reporter := &fakeReporter{responses: map[string]*ReportResponse{
		"2024-06-01": aggregateResponse(120000, 500000, 500, 100),
	}}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()

	agg, err := resolver.FetchChannelAggregate(context.Background(), session, juneRange())
	require.NoError(t, err)
	require.NotNil(t, agg)

	assert.Equal(t, int64(120000), agg.Views)
	assert.Equal(t, int64(500), agg.SubscribersGained)
	assert.Equal(t, int64(100), agg.SubscribersLost)
	assert.Equal(t, int64(400), agg.NetSubscribers())
	assert.False(t, agg.Estimated)
	assert.Equal(t, domain.SourcePrimary, session.Mode())
}

func TestEmptyPrimaryFlipsSessionToFallback(t *testing.T) {
	reporter := &fakeReporter{empty: true}
	june := juneRange()
	catalog := &fakeCatalog{videos: map[string]*domain.VideoMetadata{
		"v1": publicVideo("v1", time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), 3000),
		"v2": publicVideo("v2", time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC), 1500),
		"old": publicVideo("old", time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC), 99999),
	}}
	resolver := NewResolver(reporter, catalog, zap.NewNop())
	session := NewSession()

	var observed []domain.SourceMode
	session.OnModeChange(func(mode domain.SourceMode) {
		observed = append(observed, mode)
	})

	agg, err := resolver.FetchChannelAggregate(context.Background(), session, june)
	require.NoError(t, err)
	assert.Nil(t, agg)
	assert.Equal(t, domain.SourceFallback, session.Mode())
	assert.Equal(t, []domain.SourceMode{domain.SourceFallback}, observed)

	// The same call is now served purely from cumulative catalog counters,
	// filtered by publish date.
	agg, err = resolver.FetchChannelAggregate(context.Background(), session, june)
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, int64(4500), agg.Views)
	assert.True(t, agg.Estimated)
	assert.Zero(t, agg.SubscribersGained)

	// No second observer notification.
	assert.Len(t, observed, 1)
}

func TestFallbackIsStickyAcrossSuccessfulProbes(t *testing.T) {
	reporter := &fakeReporter{empty: true}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()

	_, err := resolver.FetchChannelAggregate(context.Background(), session, juneRange())
	require.NoError(t, err)
	require.Equal(t, domain.SourceFallback, session.Mode())

	// Primary would now succeed, but the session must not re-probe it.
	reporter.empty = false
	reporter.responses = map[string]*ReportResponse{
		"2024-06-01": aggregateResponse(1, 1, 1, 1),
	}
	primaryCalls := len(reporter.calls)

	agg, err := resolver.FetchChannelAggregate(context.Background(), session, juneRange())
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.True(t, agg.Estimated)
	assert.Len(t, reporter.calls, primaryCalls)

	// Explicit reset re-arms the primary source.
	session.Reset()
	agg, err = resolver.FetchChannelAggregate(context.Background(), session, juneRange())
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.False(t, agg.Estimated)
}

func TestBaselineFetchNeverDecidesMode(t *testing.T) {
	reporter := &fakeReporter{empty: true}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()

	agg, err := resolver.FetchBaselineAggregate(context.Background(), session, juneRange())
	require.NoError(t, err)
	assert.Nil(t, agg)
	assert.Equal(t, domain.SourcePrimary, session.Mode())
}

func TestAuthErrorSurfacesVerbatim(t *testing.T) {
	reporter := &fakeReporter{err: errors.NewAuthError("credential rejected", 401, nil)}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()

	_, err := resolver.FetchChannelAggregate(context.Background(), session, juneRange())
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))
	// Auth failure is fatal, not a fallback trigger.
	assert.Equal(t, domain.SourcePrimary, session.Mode())
}

func TestFetchVideoRowsParsesPositionalRows(t *testing.T) {
	reporter := &fakeReporter{responses: map[string]*ReportResponse{
		"2024-06-01": {
			Columns: []string{"video", "views", "averageViewPercentage", "comments", "likes", "shares"},
			Rows: [][]any{
				{"v1", 12000.0, 45.5, 80.0, 900.0, 33.0},
				{"v2", 3000.0, 61.0, 14.0, 200.0, 5.0},
			},
		},
	}}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()

	rows, err := resolver.FetchVideoRows(context.Background(), session, juneRange())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "v1", rows[0].VideoID)
	assert.Equal(t, int64(12000), rows[0].Views)
	assert.Equal(t, 45.5, rows[0].AvgViewPercentage)
	assert.Equal(t, int64(33), rows[0].Shares)
	assert.Equal(t, "v2", rows[1].VideoID)
}

func TestFallbackVideoRowsAreDeterministic(t *testing.T) {
	june := juneRange()
	catalog := &fakeCatalog{videos: map[string]*domain.VideoMetadata{
		"b": publicVideo("b", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), 100),
		"a": publicVideo("a", time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), 100),
		"c": publicVideo("c", time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), 500),
	}}
	resolver := NewResolver(&fakeReporter{empty: true}, catalog, zap.NewNop())
	session := NewSession()
	session.enterFallback()

	rows, err := resolver.FetchVideoRows(context.Background(), session, june)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[0].VideoID)
	assert.Equal(t, "a", rows[1].VideoID)
	assert.Equal(t, "b", rows[2].VideoID)
}

func TestSectionFetchesReportNoDataInFallbackMode(t *testing.T) {
	reporter := &fakeReporter{}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())
	session := NewSession()
	session.enterFallback()

	traffic, err := resolver.FetchTrafficSources(context.Background(), session, juneRange())
	require.NoError(t, err)
	assert.Empty(t, traffic)

	demo, err := resolver.FetchDemographics(context.Background(), session, juneRange())
	require.NoError(t, err)
	assert.Empty(t, demo)

	assert.Empty(t, reporter.calls)
}

func TestTwoSessionsDoNotCrossTalk(t *testing.T) {
	reporter := &fakeReporter{empty: true}
	resolver := NewResolver(reporter, &fakeCatalog{}, zap.NewNop())

	degraded := NewSession()
	healthy := NewSession()

	_, err := resolver.FetchChannelAggregate(context.Background(), degraded, juneRange())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, degraded.Mode())
	assert.Equal(t, domain.SourcePrimary, healthy.Mode())
}
