package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
)

// The uploads playlist id is only replaced when the incoming row carries one.
const upsertChannelQuery = `
	INSERT INTO youtube_channels (
		id, title, description, subscriber_count, video_count, view_count,
		thumbnail_url, uploads_playlist_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		subscriber_count = excluded.subscriber_count,
		video_count = excluded.video_count,
		view_count = excluded.view_count,
		uploads_playlist_id = CASE
			WHEN excluded.uploads_playlist_id <> '' THEN excluded.uploads_playlist_id
			ELSE youtube_channels.uploads_playlist_id
		END,
		updated_at = excluded.updated_at`

func (q *queries) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	const op = "Store.UpsertChannel"

	if channel == nil || channel.ID == "" {
		return errors.InvalidInput(op, nil, "channel id is required")
	}

	updatedAt := channel.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	updatedAt = utc(updatedAt)

	err := q.execContext(ctx, upsertChannelQuery,
		channel.ID,
		channel.Title,
		channel.Description,
		channel.SubscriberCount,
		channel.VideoCount,
		channel.ViewCount,
		channel.ThumbnailURL,
		channel.UploadsPlaylistID,
		updatedAt,
		updatedAt,
	)
	if err != nil {
		return errors.Persistence(op, err, fmt.Sprintf("failed to upsert channel %s", channel.ID))
	}
	return nil
}

func (q *queries) FindChannel(ctx context.Context, id string) (*models.Channel, error) {
	const op = "Store.FindChannel"

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	query := q.dialect.rebind(`
		SELECT id, title, description, subscriber_count, video_count, view_count,
			thumbnail_url, uploads_playlist_id, updated_at
		FROM youtube_channels WHERE id = ?`)

	c := &models.Channel{}
	err := q.exec.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.SubscriberCount,
		&c.VideoCount,
		&c.ViewCount,
		&c.ThumbnailURL,
		&c.UploadsPlaylistID,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "channel not found")
	}
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to query channel")
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
