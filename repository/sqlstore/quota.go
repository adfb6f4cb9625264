package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
)

const (
	insertQuotaRowQuery = `
		INSERT INTO api_quota_usage (date, search_operations, video_list_operations, channel_list_operations)
		VALUES (?, 0, 0, 0)
		ON CONFLICT (date) DO NOTHING`

	getQuotaUsageQuery = `
		SELECT search_operations, video_list_operations, channel_list_operations
		FROM api_quota_usage WHERE date = ?`
)

func quotaColumn(op models.Operation) (string, bool) {
	switch op {
	case models.OpSearch:
		return "search_operations", true
	case models.OpVideoList:
		return "video_list_operations", true
	case models.OpChannelList:
		return "channel_list_operations", true
	}
	return "", false
}

func (q *queries) GetQuotaUsage(ctx context.Context, date string) (*models.QuotaUsage, error) {
	const op = "Store.GetQuotaUsage"

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	usage := &models.QuotaUsage{Date: date}
	err := q.exec.QueryRowContext(ctx, q.dialect.rebind(getQuotaUsageQuery), date).Scan(
		&usage.SearchOperations,
		&usage.VideoListOperations,
		&usage.ChannelListOperations,
	)
	if err == sql.ErrNoRows {
		return usage, nil
	}
	if err != nil {
		return nil, errors.Persistence(op, err, "failed to read quota usage")
	}
	return usage, nil
}

// IncrementQuota creates the day's row if needed, then bumps one counter
// with a single relative update.
func (q *queries) IncrementQuota(ctx context.Context, date string, op models.Operation, count int64) error {
	const opName = "Store.IncrementQuota"

	column, ok := quotaColumn(op)
	if !ok {
		return errors.InvalidInput(opName, nil, fmt.Sprintf("unknown operation %q", op))
	}
	if count < 0 {
		return errors.InvalidInput(opName, nil, "quota increments must not be negative")
	}
	if count == 0 {
		return nil
	}

	if err := q.execContext(ctx, insertQuotaRowQuery, date); err != nil {
		return errors.Persistence(opName, err, "failed to create quota row")
	}

	update := fmt.Sprintf("UPDATE api_quota_usage SET %s = %s + ? WHERE date = ?", column, column)
	if err := q.execContext(ctx, update, count, date); err != nil {
		return errors.Persistence(opName, err, "failed to increment quota")
	}
	return nil
}
