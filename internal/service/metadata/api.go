package metadata

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// CatalogAPI is the slice of the YouTube Data API the accessor needs.
type CatalogAPI interface {
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	PlaylistVideoIDs(ctx context.Context, playlistID, pageToken string) ([]string, string, error)
	VideoDetails(ctx context.Context, videoIDs []string) ([]*domain.VideoMetadata, error)
}

// DataAPI wraps the YouTube Data API v3 with the same explicit quota
// accounting the rest of the platform uses: every list call is checked
// against the daily budget before it is issued.
type DataAPI struct {
	service    *youtube.Service
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

func NewDataAPI(ctx context.Context, apiKey string, logger *zap.Logger) (*DataAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &DataAPI{
		service:    service,
		logger:     logger,
		quotaReset: getNextQuotaReset(),
	}, nil
}

// getNextQuotaReset calculates next quota reset time (midnight Pacific Time)
func getNextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

func (a *DataAPI) checkQuota(cost int) error {
	a.quotaMu.Lock()
	defer a.quotaMu.Unlock()

	now := time.Now()
	if now.After(a.quotaReset) {
		a.quotaUsed = 0
		a.quotaReset = getNextQuotaReset()
		a.logger.Info("Data API quota auto-reset",
			zap.Time("nextReset", a.quotaReset))
	}

	if a.quotaUsed+cost > (constants.QuotaConfig.DailyLimit - constants.QuotaConfig.SafetyMargin) {
		return fmt.Errorf("Data API quota exhausted: used %d/%d, resets at %s",
			a.quotaUsed, constants.QuotaConfig.DailyLimit, a.quotaReset.Format(time.RFC3339))
	}

	return nil
}

func (a *DataAPI) consumeQuota(cost int) {
	a.quotaMu.Lock()
	defer a.quotaMu.Unlock()

	a.quotaUsed += cost
	remaining := constants.QuotaConfig.DailyLimit - a.quotaUsed
	if remaining < constants.QuotaConfig.SafetyMargin {
		a.logger.Warn("Data API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", a.quotaReset))
	}
}

func (a *DataAPI) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if err := a.checkQuota(constants.QuotaConfig.ListCost); err != nil {
		return "", err
	}

	call := a.service.Channels.List([]string{"contentDetails"}).Id(channelID)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("channels.list failed: %w", err)
	}
	a.consumeQuota(constants.QuotaConfig.ListCost)

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %s not found", channelID)
	}

	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (a *DataAPI) PlaylistVideoIDs(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	if err := a.checkQuota(constants.QuotaConfig.ListCost); err != nil {
		return nil, "", err
	}

	call := a.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(constants.QuotaConfig.PlaylistPageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("playlistItems.list failed: %w", err)
	}
	a.consumeQuota(constants.QuotaConfig.ListCost)

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}

	return ids, resp.NextPageToken, nil
}

func (a *DataAPI) VideoDetails(ctx context.Context, videoIDs []string) ([]*domain.VideoMetadata, error) {
	result := make([]*domain.VideoMetadata, 0, len(videoIDs))

	// videos.list accepts at most 50 ids per call
	batchSize := constants.QuotaConfig.VideoBatchSize
	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[i:end]

		if err := a.checkQuota(constants.QuotaConfig.ListCost); err != nil {
			return result, err
		}

		call := a.service.Videos.List([]string{"snippet", "statistics", "status", "contentDetails"}).
			Id(batch...)
		resp, err := call.Context(ctx).Do()
		if err != nil {
			a.logger.Error("Failed to fetch video details",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			return result, fmt.Errorf("videos.list failed: %w", err)
		}
		a.consumeQuota(constants.QuotaConfig.ListCost)

		for _, item := range resp.Items {
			result = append(result, videoFromAPI(item))
		}
	}

	return result, nil
}

func videoFromAPI(item *youtube.Video) *domain.VideoMetadata {
	meta := &domain.VideoMetadata{
		VideoID: item.Id,
	}

	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.ThumbnailURL = extractThumbnail(item.Snippet.Thumbnails)
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			meta.PublishedAt = publishedAt
		}
	}
	if item.Status != nil {
		meta.Visibility = domain.Visibility(item.Status.PrivacyStatus)
	}
	if item.Statistics != nil {
		meta.ViewCount = int64(item.Statistics.ViewCount)
		meta.LikeCount = int64(item.Statistics.LikeCount)
		meta.CommentCount = int64(item.Statistics.CommentCount)
	}
	if item.ContentDetails != nil {
		meta.DurationSeconds = parseISODuration(item.ContentDetails.Duration)
	}

	return meta
}

// extractThumbnail gets the best quality thumbnail URL
func extractThumbnail(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}

	if thumbnails.Maxres != nil && thumbnails.Maxres.Url != "" {
		return thumbnails.Maxres.Url
	}
	if thumbnails.High != nil && thumbnails.High.Url != "" {
		return thumbnails.High.Url
	}
	if thumbnails.Medium != nil && thumbnails.Medium.Url != "" {
		return thumbnails.Medium.Url
	}
	if thumbnails.Default != nil && thumbnails.Default.Url != "" {
		return thumbnails.Default.Url
	}

	return ""
}

// parseISODuration converts the API's ISO 8601 duration (PT#H#M#S) to
// seconds. Malformed input yields zero.
func parseISODuration(value string) int64 {
	var total, number int64
	inTime := false

	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch == 'T':
			inTime = true
		case ch >= '0' && ch <= '9':
			digit, _ := strconv.ParseInt(string(ch), 10, 64)
			number = number*10 + digit
		case ch == 'H' && inTime:
			total += number * 3600
			number = 0
		case ch == 'M' && inTime:
			total += number * 60
			number = 0
		case ch == 'S' && inTime:
			total += number
			number = 0
		case ch == 'D':
			total += number * 86400
			number = 0
		default:
			number = 0
		}
	}

	return total
}
