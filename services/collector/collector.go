package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository"
	"github.com/nijaru/golf-directory/services/quota"
	"github.com/nijaru/golf-directory/services/refresh"
)

type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.VideoStub, error)
}

// ChannelFetcher returns up to 50 channels per call.
type ChannelFetcher interface {
	FetchChannels(ctx context.Context, ids []string) ([]models.Channel, error)
}

type UploadsLister interface {
	RecentUploads(ctx context.Context, playlistID string, max int, since time.Time) ([]models.VideoStub, error)
}

// API is the YouTube surface the collector needs.
type API interface {
	Searcher
	ChannelFetcher
	UploadsLister
}

type Store interface {
	repository.Transactor
	FindChannel(ctx context.Context, id string) (*models.Channel, error)
}

type Config struct {
	Query             string
	SearchMaxResults  int64
	UploadsPerChannel int
	UploadsLookback   time.Duration
	BatchSize         int
	BatchDelay        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Query:             "golf",
		SearchMaxResults:  50,
		UploadsPerChannel: 5,
		UploadsLookback:   7 * 24 * time.Hour,
		BatchSize:         refresh.MaxBatchSize,
		BatchDelay:        time.Second,
	}
}

type Result struct {
	Found     int            `json:"found"`
	Kept      int            `json:"kept"`
	Channels  int            `json:"channels"`
	Refresh   refresh.Result `json:"refresh"`
	Stopped   bool           `json:"stopped"`
	Failed    int            `json:"failed"`
	Playlists int            `json:"playlists"`
}

// Collector discovers new videos and channels and hands their ids to the
// refresher for statistics.
type Collector struct {
	api       API
	store     Store
	ledger    quota.Spender
	refresher *refresh.Refresher
	cfg       Config
	logger    *logrus.Logger
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Collector)

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithCallTimeout bounds each search, channel and playlist call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(api API, store Store, ledger quota.Spender, refresher *refresh.Refresher, cfg Config, opts ...Option) *Collector {
	d := DefaultConfig()
	if cfg.Query == "" {
		cfg.Query = d.Query
	}
	if cfg.SearchMaxResults <= 0 {
		cfg.SearchMaxResults = d.SearchMaxResults
	}
	if cfg.UploadsPerChannel <= 0 {
		cfg.UploadsPerChannel = d.UploadsPerChannel
	}
	if cfg.UploadsLookback <= 0 {
		cfg.UploadsLookback = d.UploadsLookback
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = d.BatchSize
	}

	c := &Collector{
		api:       api,
		store:     store,
		ledger:    ledger,
		refresher: refresher,
		cfg:       cfg,
		logger:    logrus.StandardLogger(),
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectToday searches today's UTC window, keeps whitelisted results,
// stores their channels and refreshes their statistics.
func (c *Collector) CollectToday(ctx context.Context, whitelist models.Whitelist, runID string) (Result, error) {
	const op = "Collector.CollectToday"

	var res Result
	log := c.logger.WithFields(logrus.Fields{"job": "collect_today", "run_id": runID})

	if whitelist.IsEmpty() {
		log.Info("Whitelist is empty, nothing to collect")
		return res, nil
	}
	if !c.ledger.CanAfford(ctx, models.OpSearch, 1) {
		log.WithField("category", errors.KindQuota).Warn("Insufficient quota for search, skipping collection")
		res.Stopped = true
		return res, nil
	}

	start := c.now().UTC().Truncate(24 * time.Hour)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	stubs, err := c.api.Search(callCtx, models.SearchQuery{
		Query:           c.cfg.Query,
		PublishedAfter:  start,
		PublishedBefore: start.Add(24 * time.Hour),
		MaxResults:      c.cfg.SearchMaxResults,
	})
	cancel()
	if recErr := c.ledger.Record(ctx, models.OpSearch, 1); recErr != nil {
		log.WithError(recErr).WithField("category", errors.KindPersistence).Error("Failed to record search quota")
	}
	if err != nil {
		return res, errors.Collaborator(op, err, "search failed")
	}
	res.Found = len(stubs)

	var ids []string
	channelSet := make(map[string]struct{})
	var channelIDs []string
	for _, s := range stubs {
		if !whitelist.Contains(s.ChannelID) {
			continue
		}
		ids = append(ids, s.ID)
		if _, ok := channelSet[s.ChannelID]; !ok {
			channelSet[s.ChannelID] = struct{}{}
			channelIDs = append(channelIDs, s.ChannelID)
		}
	}
	res.Kept = len(ids)

	log.WithFields(logrus.Fields{
		"found": res.Found,
		"kept":  res.Kept,
	}).Info("Search collection finished")

	if len(ids) == 0 {
		return res, nil
	}

	channels, stopped := c.storeChannels(ctx, channelIDs, log)
	res.Channels = len(channels)
	if stopped {
		res.Stopped = true
		return res, nil
	}

	res.Refresh, err = c.refresher.Refresh(ctx, ids, refresh.Options{
		Job:       "collect_today",
		RunID:     runID,
		BatchSize: c.cfg.BatchSize,
		Delay:     c.cfg.BatchDelay,
	})
	res.Stopped = res.Refresh.Stopped
	return res, err
}

// CollectWhitelisted reads each whitelisted channel's recent uploads and
// refreshes the ids it finds.
func (c *Collector) CollectWhitelisted(ctx context.Context, whitelist models.Whitelist, runID string) (Result, error) {
	var res Result
	log := c.logger.WithFields(logrus.Fields{"job": "collect_whitelisted", "run_id": runID})

	if whitelist.IsEmpty() {
		log.Info("Whitelist is empty, nothing to collect")
		return res, nil
	}

	channels, stopped := c.storeChannels(ctx, whitelist.IDs(), log)
	res.Channels = len(channels)
	if stopped {
		res.Stopped = true
	}

	playlists := make(map[string]string, whitelist.Len())
	for _, ch := range channels {
		if ch.UploadsPlaylistID != "" {
			playlists[ch.ID] = ch.UploadsPlaylistID
		}
	}

	since := c.now().UTC().Add(-c.cfg.UploadsLookback)
	seen := make(map[string]struct{})
	var ids []string

	for _, channelID := range whitelist.IDs() {
		playlistID, ok := playlists[channelID]
		if !ok {
			playlistID = c.storedPlaylist(ctx, channelID)
		}
		if playlistID == "" {
			continue
		}
		if !c.ledger.CanAfford(ctx, models.OpVideoList, 1) {
			log.WithField("category", errors.KindQuota).Warn("Quota exhausted, stopping uploads scan")
			res.Stopped = true
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		uploads, err := c.api.RecentUploads(callCtx, playlistID, c.cfg.UploadsPerChannel, since)
		cancel()
		res.Playlists++
		if recErr := c.ledger.Record(ctx, models.OpVideoList, 1); recErr != nil {
			log.WithError(recErr).WithField("category", errors.KindPersistence).Error("Failed to record playlist quota")
		}
		if err != nil {
			res.Failed++
			log.WithError(err).WithFields(logrus.Fields{
				"channel_id": channelID,
				"category":   errors.KindCollaborator,
			}).Error("Failed to list channel uploads, skipping")
			continue
		}

		for _, u := range uploads {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			ids = append(ids, u.ID)
		}
	}
	res.Found = len(ids)
	res.Kept = len(ids)

	if res.Stopped || len(ids) == 0 {
		log.WithFields(logrus.Fields{
			"found":   res.Found,
			"stopped": res.Stopped,
		}).Info("Whitelisted collection finished")
		return res, nil
	}

	var err error
	res.Refresh, err = c.refresher.Refresh(ctx, ids, refresh.Options{
		Job:       "collect_whitelisted",
		RunID:     runID,
		BatchSize: c.cfg.BatchSize,
		Delay:     c.cfg.BatchDelay,
	})
	res.Stopped = res.Refresh.Stopped

	log.WithFields(logrus.Fields{
		"found":     res.Found,
		"refreshed": res.Refresh.Refreshed,
	}).Info("Whitelisted collection finished")
	return res, err
}

// storeChannels fetches channels in quota-gated batches and upserts each
// batch with its quota increment. stopped reports a quota denial.
func (c *Collector) storeChannels(ctx context.Context, ids []string, log *logrus.Entry) (stored []models.Channel, stopped bool) {
	for start := 0; start < len(ids); start += refresh.MaxBatchSize {
		end := start + refresh.MaxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		blog := log.WithFields(logrus.Fields{"first": start, "last": end - 1})

		if !c.ledger.CanAfford(ctx, models.OpChannelList, 1) {
			blog.WithField("category", errors.KindQuota).Warn("Quota exhausted, stopping channel fetch")
			return stored, true
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		channels, err := c.api.FetchChannels(callCtx, batch)
		cancel()
		if err != nil {
			blog.WithError(err).WithField("category", errors.KindCollaborator).Error("Channel fetch failed, skipping batch")
			if recErr := c.ledger.Record(ctx, models.OpChannelList, 1); recErr != nil {
				blog.WithError(recErr).WithField("category", errors.KindPersistence).Error("Failed to record quota for failed fetch")
			}
			continue
		}

		now := c.now().UTC()
		err = c.store.WithinTx(ctx, func(tx repository.Tx) error {
			for i := range channels {
				channels[i].UpdatedAt = now
				if err := tx.UpsertChannel(ctx, &channels[i]); err != nil {
					return err
				}
			}
			return c.ledger.RecordTx(ctx, tx, models.OpChannelList, 1)
		})
		if err != nil {
			blog.WithError(err).WithField("category", errors.KindPersistence).Error("Channel batch persistence failed, rolled back")
			continue
		}
		stored = append(stored, channels...)
	}
	c.ledger.Refresh(ctx)
	return stored, false
}

func (c *Collector) storedPlaylist(ctx context.Context, channelID string) string {
	ch, err := c.store.FindChannel(ctx, channelID)
	if err != nil {
		return ""
	}
	return ch.UploadsPlaylistID
}
