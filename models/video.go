package models

import (
	"fmt"
	"time"
)

type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ChannelID       string    `json:"channel_id"`
	ChannelTitle    string    `json:"channel_title"`
	PublishedAt     time.Time `json:"published_at"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	EngagementRate  float64   `json:"engagement_rate"`
	DurationSeconds int64     `json:"duration_seconds"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VideoStub is the partial record returned by search and playlist listings.
type VideoStub struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	PublishedAt  time.Time `json:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// SearchQuery describes one search.list call.
type SearchQuery struct {
	Query           string
	PublishedAfter  time.Time
	PublishedBefore time.Time
	MaxResults      int64
}

// EngagementRate is (likes + comments) / views as a percentage.
func EngagementRate(views, likes, comments int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(views) * 100
}

func (v *Video) HasThumbnail() bool { return v.ThumbnailURL != "" }

// Age is the time since publication as seen from now.
func (v *Video) Age(now time.Time) time.Duration {
	return now.Sub(v.PublishedAt)
}

// WatchURL is the canonical public URL for the video.
func (v *Video) WatchURL() string {
	return WatchURL(v.ID)
}

func WatchURL(id string) string {
	return fmt.Sprintf("https://youtube.com/watch?v=%s", id)
}
