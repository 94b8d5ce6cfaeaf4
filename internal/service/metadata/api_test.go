package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func newTestDataAPI(t *testing.T, handler http.Handler) *DataAPI {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithAPIKey("test-key"))
	require.NoError(t, err)

	return &DataAPI{
		service:    svc,
		logger:     zap.NewNop(),
		quotaReset: time.Now().Add(time.Hour),
	}
}

// requestedIDs flattens the id query parameter, which the client may send as
// one comma-joined value or repeated parameters.
func requestedIDs(r *http.Request) []string {
	return strings.Split(strings.Join(r.URL.Query()["id"], ","), ",")
}

func writeVideoList(w http.ResponseWriter, ids []string) {
	resp := &youtube.VideoListResponse{}
	for _, id := range ids {
		resp.Items = append(resp.Items, &youtube.Video{Id: id})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestVideoDetailsBatchesByFifty(t *testing.T) {
	var batches [][]string
	api := newTestDataAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := requestedIDs(r)
		batches = append(batches, ids)
		writeVideoList(w, ids)
	}))

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid-%02d", i)
	}

	videos, err := api.VideoDetails(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, videos, 51)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, "vid-50", batches[1][0])
}

func TestVideoDetailsReturnsPartialResultOnBatchError(t *testing.T) {
	requests := 0
	api := newTestDataAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeVideoList(w, requestedIDs(r))
	}))

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid-%02d", i)
	}

	videos, err := api.VideoDetails(context.Background(), ids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "videos.list failed")
	assert.Len(t, videos, 50)
}

func TestVideoDetailsStopsWhenQuotaExhausted(t *testing.T) {
	requests := 0
	api := newTestDataAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeVideoList(w, requestedIDs(r))
	}))
	api.quotaUsed = constants.QuotaConfig.DailyLimit - constants.QuotaConfig.SafetyMargin

	videos, err := api.VideoDetails(context.Background(), []string{"vid-00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
	assert.Empty(t, videos)
	assert.Zero(t, requests)
}

func TestCheckQuotaErrorsAtSafetyMargin(t *testing.T) {
	api := &DataAPI{
		logger:     zap.NewNop(),
		quotaReset: time.Now().Add(time.Hour),
	}
	api.quotaUsed = constants.QuotaConfig.DailyLimit - constants.QuotaConfig.SafetyMargin - 1

	require.NoError(t, api.checkQuota(constants.QuotaConfig.ListCost))
	api.consumeQuota(constants.QuotaConfig.ListCost)

	err := api.checkQuota(constants.QuotaConfig.ListCost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestCheckQuotaAutoResetsAfterDeadline(t *testing.T) {
	api := &DataAPI{
		logger:     zap.NewNop(),
		quotaUsed:  constants.QuotaConfig.DailyLimit,
		quotaReset: time.Now().Add(-time.Minute),
	}

	require.NoError(t, api.checkQuota(constants.QuotaConfig.ListCost))
	assert.Zero(t, api.quotaUsed)
	assert.True(t, api.quotaReset.After(time.Now()))
}
