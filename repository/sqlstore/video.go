package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
)

const videoColumns = `id, title, description, channel_id, channel_title, published_at,
	view_count, like_count, comment_count, engagement_rate, duration_seconds,
	thumbnail_url, updated_at`

// Existing rows keep their descriptive fields; only statistics move.
const upsertVideoQuery = `
	INSERT INTO youtube_videos (
		id, title, description, channel_id, channel_title, published_at,
		view_count, like_count, comment_count, engagement_rate, duration_seconds,
		thumbnail_url, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		view_count = excluded.view_count,
		like_count = excluded.like_count,
		comment_count = excluded.comment_count,
		engagement_rate = excluded.engagement_rate,
		updated_at = excluded.updated_at`

func (q *queries) UpsertVideo(ctx context.Context, video *models.Video) error {
	const op = "Store.UpsertVideo"

	if video == nil || video.ID == "" {
		return errors.InvalidInput(op, nil, "video id is required")
	}

	updatedAt := video.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	updatedAt = utc(updatedAt)

	err := q.execContext(ctx, upsertVideoQuery,
		video.ID,
		video.Title,
		video.Description,
		video.ChannelID,
		video.ChannelTitle,
		utc(video.PublishedAt),
		video.ViewCount,
		video.LikeCount,
		video.CommentCount,
		video.EngagementRate,
		video.DurationSeconds,
		video.ThumbnailURL,
		updatedAt,
		updatedAt,
	)
	if err != nil {
		return errors.Persistence(op, err, fmt.Sprintf("failed to upsert video %s", video.ID))
	}
	return nil
}

func (q *queries) FindVideo(ctx context.Context, id string) (*models.Video, error) {
	const op = "Store.FindVideo"

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	query := q.dialect.rebind(`SELECT ` + videoColumns + ` FROM youtube_videos WHERE id = ?`)
	video, err := scanVideo(q.exec.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "video not found")
	}
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to query video")
	}
	return video, nil
}

func (q *queries) CuratedVideos(ctx context.Context, tq repository.TierQuery) ([]models.Video, error) {
	const op = "Store.CuratedVideos"

	if len(tq.ChannelIDs) == 0 || tq.Limit <= 0 {
		return nil, nil
	}

	where, args := tierFilter(tq)
	query := `SELECT ` + videoColumns + ` FROM youtube_videos WHERE ` + where +
		` ORDER BY published_at DESC, id ASC LIMIT ?`
	args = append(args, tq.Limit)

	return q.queryVideos(ctx, op, query, args...)
}

func (q *queries) MomentumVideos(ctx context.Context, mq repository.MomentumQuery) ([]models.Video, error) {
	const op = "Store.MomentumVideos"

	if len(mq.ChannelIDs) == 0 || mq.Limit <= 0 {
		return nil, nil
	}

	where, args := tierFilter(mq.TierQuery)
	query := `SELECT ` + videoColumns + ` FROM youtube_videos WHERE ` + where + `
		ORDER BY CASE
			WHEN published_at >= ? THEN view_count * 1000
			WHEN published_at >= ? THEN view_count * 100
			WHEN published_at >= ? THEN view_count * 10
			ELSE view_count
		END DESC, view_count DESC, id ASC
		LIMIT ?`
	args = append(args, utc(mq.Cutoffs[0]), utc(mq.Cutoffs[1]), utc(mq.Cutoffs[2]), mq.Limit)

	return q.queryVideos(ctx, op, query, args...)
}

func (q *queries) MaintenanceVideos(ctx context.Context, mq repository.MaintenanceQuery) ([]models.Video, error) {
	const op = "Store.MaintenanceVideos"

	if len(mq.ChannelIDs) == 0 || mq.Limit <= 0 {
		return nil, nil
	}

	query := `SELECT ` + videoColumns + ` FROM youtube_videos
		WHERE channel_id IN (` + placeholders(len(mq.ChannelIDs)) + `)
		AND published_at < ?
		AND view_count > ?
		AND updated_at < ?
		ORDER BY view_count DESC, id ASC
		LIMIT ?`
	args := stringArgs(mq.ChannelIDs)
	args = append(args, utc(mq.PublishedBefore), mq.MinViews, utc(mq.UpdatedBefore), mq.Limit)

	return q.queryVideos(ctx, op, query, args...)
}

func tierFilter(tq repository.TierQuery) (string, []any) {
	where := `channel_id IN (` + placeholders(len(tq.ChannelIDs)) + `)
		AND published_at >= ?
		AND view_count > ?
		AND duration_seconds >= ?`
	if tq.RequireThumbnail {
		where += ` AND thumbnail_url IS NOT NULL AND thumbnail_url <> ''`
	}

	args := stringArgs(tq.ChannelIDs)
	args = append(args, utc(tq.PublishedAfter), tq.MinViews, tq.MinDurationSeconds)
	return where, args
}

func (q *queries) queryVideos(ctx context.Context, op, query string, args ...any) ([]models.Video, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.exec.QueryContext(ctx, q.dialect.rebind(query), args...)
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to query videos")
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, errors.Persistence(op, err, "failed to scan video")
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Persistence(op, err, "failed to iterate videos")
	}
	return videos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	v := &models.Video{}
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.Description,
		&v.ChannelID,
		&v.ChannelTitle,
		&v.PublishedAt,
		&v.ViewCount,
		&v.LikeCount,
		&v.CommentCount,
		&v.EngagementRate,
		&v.DurationSeconds,
		&v.ThumbnailURL,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.PublishedAt = v.PublishedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}
