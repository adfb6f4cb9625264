package repository

import (
	"context"
	"time"

	"github.com/nijaru/golf-directory/models"
)

type QuotaRepository interface {
	// GetQuotaUsage returns the row for date, or a zero row when none exists.
	GetQuotaUsage(ctx context.Context, date string) (*models.QuotaUsage, error)
	IncrementQuota(ctx context.Context, date string, op models.Operation, count int64) error
}

type VideoWriter interface {
	UpsertVideo(ctx context.Context, video *models.Video) error
}

type ChannelWriter interface {
	UpsertChannel(ctx context.Context, channel *models.Channel) error
}

// Tx is the write surface available inside a transaction.
type Tx interface {
	VideoWriter
	ChannelWriter
	IncrementQuota(ctx context.Context, date string, op models.Operation, count int64) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// TierQuery filters whitelisted videos for one selection tier.
type TierQuery struct {
	ChannelIDs         []string
	PublishedAfter     time.Time
	MinViews           int64 // exclusive
	MinDurationSeconds int64 // inclusive
	RequireThumbnail   bool
	Limit              int
}

// MomentumQuery orders a tier by age-weighted views. Cutoffs are
// publication boundaries for the x1000, x100 and x10 multipliers.
type MomentumQuery struct {
	TierQuery
	Cutoffs [3]time.Time
}

type MaintenanceQuery struct {
	ChannelIDs      []string
	PublishedBefore time.Time
	MinViews        int64 // exclusive
	UpdatedBefore   time.Time
	Limit           int
}

type VideoRepository interface {
	VideoWriter
	FindVideo(ctx context.Context, id string) (*models.Video, error)
	// CuratedVideos orders by publication time, newest first.
	CuratedVideos(ctx context.Context, q TierQuery) ([]models.Video, error)
	// MomentumVideos orders by momentum score, then views, then id.
	MomentumVideos(ctx context.Context, q MomentumQuery) ([]models.Video, error)
	// MaintenanceVideos orders by views, highest first.
	MaintenanceVideos(ctx context.Context, q MaintenanceQuery) ([]models.Video, error)
}

type ChannelRepository interface {
	ChannelWriter
	FindChannel(ctx context.Context, id string) (*models.Channel, error)
}

type AnalysisRepository interface {
	HasAnalysis(ctx context.Context, videoID string) (bool, error)
	FindAnalysis(ctx context.Context, videoID string) (*models.Analysis, error)
	SaveAnalysis(ctx context.Context, analysis *models.Analysis) error
}
