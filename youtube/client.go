package youtube

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/validation"
)

// MaxIDsPerCall is the most ids videos.list and channels.list accept.
const MaxIDsPerCall = 50

type Config struct {
	APIKey            string
	RegionCode        string
	RelevanceLanguage string
	// RequestsPerSecond caps outgoing calls. Zero disables the cap.
	RequestsPerSecond float64
	// Endpoint overrides the API base URL.
	Endpoint string
	// Timeout bounds each API call. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to the YouTube Data API v3. It never retries; callers record
// one quota unit per call made.
type Client struct {
	service *yt.Service
	limiter *rate.Limiter
	cfg     Config
	logger  *logrus.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *logrus.Logger) (*Client, error) {
	const op = "youtube.NewClient"

	if cfg.APIKey == "" {
		return nil, errors.Config(op, nil, "YouTube API key is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Config(op, pkgerrors.Wrap(err, "create youtube service"), "invalid YouTube client configuration")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		service: service,
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// begin waits for the rate limiter and returns a context bounded by the
// per-call timeout.
func (c *Client) begin(ctx context.Context, op string) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, errors.Collaborator(op, err, "rate limiter wait cancelled")
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	return callCtx, cancel, nil
}

// FetchStats returns the current snippet, statistics and duration for ids.
// Unknown or deleted ids are simply absent from the result.
func (c *Client) FetchStats(ctx context.Context, ids []string) ([]models.Video, error) {
	const op = "youtube.FetchStats"

	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerCall {
		return nil, errors.InvalidInput(op, nil, "too many ids for one call")
	}
	ctx, cancel, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.service.Videos.
		List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Collaborator(op, err, "videos.list failed")
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, toVideo(item))
	}
	return videos, nil
}

// Search runs one search.list call and keeps results with valid titles.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]models.VideoStub, error) {
	const op = "youtube.Search"

	ctx, cancel, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer cancel()

	call := c.service.Search.List([]string{"snippet"}).
		Q(q.Query).
		Type("video").
		Order("viewCount").
		MaxResults(q.MaxResults)
	if c.cfg.RegionCode != "" {
		call = call.RegionCode(c.cfg.RegionCode)
	}
	if c.cfg.RelevanceLanguage != "" {
		call = call.RelevanceLanguage(c.cfg.RelevanceLanguage)
	}
	if !q.PublishedAfter.IsZero() {
		call = call.PublishedAfter(q.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !q.PublishedBefore.IsZero() {
		call = call.PublishedBefore(q.PublishedBefore.UTC().Format(time.RFC3339))
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, errors.Collaborator(op, err, "search.list failed")
	}

	stubs := make([]models.VideoStub, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Snippet == nil || validation.VideoID(item.Id.VideoId) != nil {
			continue
		}
		if !IsValidTitle(item.Snippet.Title) {
			continue
		}
		stubs = append(stubs, models.VideoStub{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelId,
			PublishedAt:  parseTime(item.Snippet.PublishedAt),
			ThumbnailURL: BestThumbnail(item.Snippet.Thumbnails),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"query":    q.Query,
		"returned": len(resp.Items),
		"kept":     len(stubs),
	}).Debug("Search completed")
	return stubs, nil
}

// FetchChannels returns channel metadata, statistics and uploads playlist ids.
func (c *Client) FetchChannels(ctx context.Context, ids []string) ([]models.Channel, error) {
	const op = "youtube.FetchChannels"

	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerCall {
		return nil, errors.InvalidInput(op, nil, "too many ids for one call")
	}
	ctx, cancel, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.service.Channels.
		List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Collaborator(op, err, "channels.list failed")
	}

	channels := make([]models.Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		channels = append(channels, toChannel(item))
	}
	return channels, nil
}

// RecentUploads reads one page of an uploads playlist and returns up to max
// items published at or after since, newest first as the playlist lists them.
func (c *Client) RecentUploads(ctx context.Context, playlistID string, max int, since time.Time) ([]models.VideoStub, error) {
	const op = "youtube.RecentUploads"

	if playlistID == "" || max <= 0 {
		return nil, nil
	}
	ctx, cancel, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer cancel()

	page := int64(max * 2)
	if page > MaxIDsPerCall {
		page = MaxIDsPerCall
	}
	resp, err := c.service.PlaylistItems.
		List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(page).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Collaborator(op, err, "playlistItems.list failed")
	}

	var stubs []models.VideoStub
	for _, item := range resp.Items {
		s := item.Snippet
		if s == nil || s.ResourceId == nil || validation.VideoID(s.ResourceId.VideoId) != nil {
			continue
		}
		published := parseTime(s.PublishedAt)
		if published.Before(since) {
			continue
		}
		stubs = append(stubs, models.VideoStub{
			ID:           s.ResourceId.VideoId,
			Title:        s.Title,
			ChannelID:    s.ChannelId,
			PublishedAt:  published,
			ThumbnailURL: BestThumbnail(s.Thumbnails),
		})
		if len(stubs) >= max {
			break
		}
	}
	return stubs, nil
}
