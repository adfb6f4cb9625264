package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
)

const upsertAnalysisQuery = `
	INSERT INTO video_analyses (
		video_id, youtube_url, summary, audio_url, status, result, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (video_id) DO UPDATE SET
		summary = excluded.summary,
		audio_url = excluded.audio_url,
		status = excluded.status,
		result = excluded.result,
		updated_at = excluded.updated_at`

func (q *queries) HasAnalysis(ctx context.Context, videoID string) (bool, error) {
	const op = "Store.HasAnalysis"

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var n int
	query := q.dialect.rebind(`
		SELECT COUNT(*) FROM video_analyses
		WHERE video_id = ? AND status = ? AND summary <> ''`)
	if err := q.exec.QueryRowContext(ctx, query, videoID, string(models.AnalysisCompleted)).Scan(&n); err != nil {
		return false, errors.Persistence(op, err, "failed to check analysis")
	}
	return n > 0, nil
}

func (q *queries) FindAnalysis(ctx context.Context, videoID string) (*models.Analysis, error) {
	const op = "Store.FindAnalysis"

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	query := q.dialect.rebind(`
		SELECT video_id, youtube_url, summary, audio_url, status, result, created_at
		FROM video_analyses WHERE video_id = ?`)

	a := &models.Analysis{}
	var status string
	err := q.exec.QueryRowContext(ctx, query, videoID).Scan(
		&a.VideoID,
		&a.YouTubeURL,
		&a.Summary,
		&a.AudioURL,
		&status,
		&a.Result,
		&a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "analysis not found")
	}
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to query analysis")
	}
	a.Status = models.AnalysisStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// SaveAnalysis is keyed on video_id, so a second writer for the same video
// overwrites rather than duplicates.
func (q *queries) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	const op = "Store.SaveAnalysis"

	if a == nil || a.VideoID == "" {
		return errors.InvalidInput(op, nil, "analysis video id is required")
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = utc(createdAt)

	err := q.execContext(ctx, upsertAnalysisQuery,
		a.VideoID,
		a.YouTubeURL,
		a.Summary,
		a.AudioURL,
		string(a.Status),
		a.Result,
		createdAt,
		createdAt,
	)
	if err != nil {
		return errors.Persistence(op, err, "failed to save analysis")
	}
	return nil
}
