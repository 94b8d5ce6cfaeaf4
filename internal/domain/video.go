package domain

import "time"

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// VideoMetadata is the slow-changing half of a video's record, owned by the
// catalog accessor and read-only everywhere else. Counter fields are
// cumulative lifetime values, not period-scoped.
type VideoMetadata struct {
	VideoID         string     `json:"video_id"`
	Title           string     `json:"title"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	PublishedAt     time.Time  `json:"published_at"`
	Visibility      Visibility `json:"visibility"`
	ViewCount       int64      `json:"view_count"`
	LikeCount       int64      `json:"like_count"`
	CommentCount    int64      `json:"comment_count"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func (m *VideoMetadata) IsPublic() bool {
	return m != nil && m.Visibility == VisibilityPublic
}

type ContentType string

const (
	ContentTypeShortForm ContentType = "short_form"
	ContentTypeLongForm  ContentType = "long_form"
)
