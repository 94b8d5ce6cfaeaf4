package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCatalogAPI struct {
	videos        []*domain.VideoMetadata
	playlistErr   error
	uploadsCalls  int
	playlistCalls int
	detailsCalls  int
}

func (f *fakeCatalogAPI) UploadsPlaylistID(_ context.Context, _ string) (string, error) {
	f.uploadsCalls++
	if f.playlistErr != nil {
		return "", f.playlistErr
	}
	return "UUtest", nil
}

func (f *fakeCatalogAPI) PlaylistVideoIDs(_ context.Context, _, pageToken string) ([]string, string, error) {
	f.playlistCalls++
	ids := make([]string, 0, len(f.videos))
	for _, v := range f.videos {
		ids = append(ids, v.VideoID)
	}
	return ids, "", nil
}

func (f *fakeCatalogAPI) VideoDetails(_ context.Context, videoIDs []string) ([]*domain.VideoMetadata, error) {
	f.detailsCalls++
	return f.videos, nil
}

func testVideo(id, title string) *domain.VideoMetadata {
	return &domain.VideoMetadata{
		VideoID:     id,
		Title:       title,
		Visibility:  domain.VisibilityPublic,
		PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEnsureCatalogFetchesOnce(t *testing.T) {
	api := &fakeCatalogAPI{videos: []*domain.VideoMetadata{
		testVideo("v1", "First"),
		testVideo("v2", "Second"),
	}}
	accessor := NewAccessor(api, nil, "UCtest", zap.NewNop())

	first := accessor.EnsureCatalog(context.Background())
	second := accessor.EnsureCatalog(context.Background())

	assert.Len(t, first, 2)
	assert.Equal(t, first["v1"].Title, "First")
	assert.Equal(t, 1, api.uploadsCalls)
	assert.Equal(t, 1, api.detailsCalls)
	assert.Equal(t, second, first)
}

func TestEnsureCatalogFailsOpen(t *testing.T) {
	api := &fakeCatalogAPI{playlistErr: errors.New("quota exhausted")}
	accessor := NewAccessor(api, nil, "UCtest", zap.NewNop())

	catalog := accessor.EnsureCatalog(context.Background())
	assert.Empty(t, catalog)

	// The failure is memoized: no retry storm on subsequent calls.
	accessor.EnsureCatalog(context.Background())
	assert.Equal(t, 1, api.uploadsCalls)
}

func TestLookupTitlesProjectsWithoutExtraCalls(t *testing.T) {
	api := &fakeCatalogAPI{videos: []*domain.VideoMetadata{
		testVideo("v1", "First"),
		testVideo("v2", "Second"),
	}}
	accessor := NewAccessor(api, nil, "UCtest", zap.NewNop())

	titles := accessor.LookupTitles(context.Background(), []string{"v1", "v2", "missing"})

	assert.Equal(t, map[string]string{"v1": "First", "v2": "Second"}, titles)
	assert.Equal(t, 1, api.detailsCalls)

	accessor.LookupTitles(context.Background(), []string{"v1"})
	assert.Equal(t, 1, api.detailsCalls)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	api := &fakeCatalogAPI{videos: []*domain.VideoMetadata{testVideo("v1", "First")}}
	accessor := NewAccessor(api, nil, "UCtest", zap.NewNop())

	accessor.EnsureCatalog(context.Background())
	accessor.Invalidate(context.Background())
	accessor.EnsureCatalog(context.Background())

	assert.Equal(t, 2, api.uploadsCalls)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"PT1H2M3S", 3723},
		{"PT15M", 900},
		{"PT45S", 45},
		{"PT1H", 3600},
		{"P1DT1S", 86401},
		{"P3D", 259200},
		{"PT", 0},
		{"7M", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, parseISODuration(tc.input), "input %q", tc.input)
	}
}
