package ranking

import (
	"sort"

	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
)

// ClassifyContentType buckets a video as short-form or long-form by its
// duration. Videos with an unknown duration count as long-form.
func ClassifyContentType(meta *domain.VideoMetadata) domain.ContentType {
	if meta != nil && meta.DurationSeconds > 0 &&
		meta.DurationSeconds <= constants.ContentTypeConfig.ShortFormMaxSeconds {
		return domain.ContentTypeShortForm
	}
	return domain.ContentTypeLongForm
}

// BuildRanked inner-joins metric rows with catalog metadata on video id.
// Rows with no metadata match or non-public visibility are dropped, never
// errors: a missing join target is a normal condition for deleted or
// private videos. Output is capped at limit (0 means no cap).
func BuildRanked(rows []domain.VideoMetricRow, catalog map[string]*domain.VideoMetadata, limit int) []domain.RankedVideo {
	ranked := make([]domain.RankedVideo, 0, len(rows))
	for _, row := range rows {
		meta, ok := catalog[row.VideoID]
		if !ok || !meta.IsPublic() {
			continue
		}
		ranked = append(ranked, joinRow(row, meta))
		if limit > 0 && len(ranked) >= limit {
			break
		}
	}
	return ranked
}

func joinRow(row domain.VideoMetricRow, meta *domain.VideoMetadata) domain.RankedVideo {
	return domain.RankedVideo{
		VideoID:           row.VideoID,
		Title:             meta.Title,
		ThumbnailURL:      meta.ThumbnailURL,
		PublishedAt:       meta.PublishedAt,
		Views:             row.Views,
		AvgViewPercentage: row.AvgViewPercentage,
		Comments:          row.Comments,
		Likes:             row.Likes,
		Shares:            row.Shares,
		LifetimeViews:     meta.ViewCount,
		ContentType:       ClassifyContentType(meta),
	}
}

// TopByMetric returns the n highest videos by the selected metric. The sort
// is stable and deliberately has no secondary key: the upstream source does
// not define a tie-break, so ties keep their arrival order.
func TopByMetric(ranked []domain.RankedVideo, metric domain.Metric, n int) []domain.RankedVideo {
	out := make([]domain.RankedVideo, len(ranked))
	copy(out, ranked)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MetricValue(metric) > out[j].MetricValue(metric)
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// BottomByViews finds the channel's lowest-performing videos. Very low-view
// videos often produce no analytics row at all, so the list is seeded from
// the catalog's lifetime view counters and only then enriched with
// period-scoped metrics; videos with no matching period row show zero for
// every period field rather than being excluded.
func BottomByViews(catalog map[string]*domain.VideoMetadata, rows []domain.VideoMetricRow, n int) []domain.RankedVideo {
	candidates := make([]*domain.VideoMetadata, 0, len(catalog))
	for _, meta := range catalog {
		if meta.IsPublic() {
			candidates = append(candidates, meta)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ViewCount != candidates[j].ViewCount {
			return candidates[i].ViewCount < candidates[j].ViewCount
		}
		return candidates[i].VideoID < candidates[j].VideoID
	})

	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}

	byID := make(map[string]domain.VideoMetricRow, len(rows))
	for _, row := range rows {
		byID[row.VideoID] = row
	}

	out := make([]domain.RankedVideo, 0, len(candidates))
	for _, meta := range candidates {
		row := byID[meta.VideoID] // zero value when no period row exists
		row.VideoID = meta.VideoID
		out = append(out, joinRow(row, meta))
	}
	return out
}

// SplitByContentType partitions ranked videos into short-form and long-form
// buckets with independent totals. Both buckets always appear, even with
// zero matching rows, so callers can distinguish "no data" from "zero
// performance".
func SplitByContentType(ranked []domain.RankedVideo, typeOf func(domain.RankedVideo) domain.ContentType) domain.ContentSplit {
	if typeOf == nil {
		typeOf = func(v domain.RankedVideo) domain.ContentType { return v.ContentType }
	}

	split := domain.ContentSplit{
		ShortForm: domain.ContentTypeTotals{Type: domain.ContentTypeShortForm},
		LongForm:  domain.ContentTypeTotals{Type: domain.ContentTypeLongForm},
	}

	for _, video := range ranked {
		bucket := &split.LongForm
		if typeOf(video) == domain.ContentTypeShortForm {
			bucket = &split.ShortForm
		}
		bucket.VideoCount++
		bucket.Views += video.Views
		bucket.Likes += video.Likes
		bucket.Comments += video.Comments
		bucket.Shares += video.Shares
	}

	return split
}
