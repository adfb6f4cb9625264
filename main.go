package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/ai"
	"github.com/nijaru/golf-directory/config"
	"github.com/nijaru/golf-directory/handlers"
	"github.com/nijaru/golf-directory/logger"
	"github.com/nijaru/golf-directory/metrics"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/repository/sqlstore"
	"github.com/nijaru/golf-directory/retry"
	"github.com/nijaru/golf-directory/services/collector"
	"github.com/nijaru/golf-directory/services/narrator"
	"github.com/nijaru/golf-directory/services/pipeline"
	"github.com/nijaru/golf-directory/services/quota"
	"github.com/nijaru/golf-directory/services/refresh"
	"github.com/nijaru/golf-directory/services/scheduler"
	"github.com/nijaru/golf-directory/services/selector"
	"github.com/nijaru/golf-directory/storage"
	"github.com/nijaru/golf-directory/youtube"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(logger.Options{
		Dir:    cfg.LogDir,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.WithError(err).Error("Scheduler exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logrus.Logger) error {
	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Path: cfg.Database.Path,
		URL:  cfg.Database.URL,
		Config: sqlstore.DBConfig{
			MaxRetries:         3,
			RetryDelay:         time.Second,
			QueryTimeout:       cfg.Database.QueryTimeout,
			MaxConnections:     cfg.Database.MaxConnections,
			MaxIdleConnections: cfg.Database.MaxIdleConnections,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		},
		Logger: logg,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	metrics.RegisterDBStats(reg, store.Stats)

	ledger := quota.NewLedger(store, cfg.Quota.DailyLimit,
		quota.WithLogger(logg),
		quota.WithObserver(m),
	)
	ledger.Refresh(ctx)

	yt, err := youtube.NewClient(ctx, youtube.Config{
		APIKey:            cfg.YouTube.APIKey,
		RegionCode:        cfg.YouTube.RegionCode,
		RelevanceLanguage: cfg.YouTube.RelevanceLanguage,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Timeout:           cfg.YouTube.Timeout,
	}, logg)
	if err != nil {
		return err
	}

	refresher := refresh.New(yt, store, ledger,
		refresh.WithLogger(logg),
		refresh.WithRecorder(m),
		refresh.WithFetchTimeout(cfg.YouTube.Timeout),
	)
	sel := selector.New(store, selector.DefaultConfig())
	coll := collector.New(yt, store, ledger, refresher, collector.Config{
		Query:             cfg.YouTube.SearchQuery,
		SearchMaxResults:  cfg.YouTube.SearchMaxResults,
		UploadsPerChannel: int(cfg.Collection.UploadsPerChannel),
		UploadsLookback:   cfg.Collection.UploadsLookback,
		BatchSize:         cfg.Refresh.BatchSize,
		BatchDelay:        cfg.Refresh.FastDelay,
	}, collector.WithLogger(logg), collector.WithCallTimeout(cfg.YouTube.Timeout))

	generator, err := newGenerator(ctx, cfg, logg)
	if err != nil {
		return err
	}
	narr := narrator.New(sel, store, generator, narrator.WithLogger(logg))

	jobs := pipeline.New(pipeline.Deps{
		Selector:  sel,
		Refresher: refresher,
		Collector: coll,
		Narrator:  narr,
		Whitelist: models.NewWhitelist(cfg.Whitelist),
		Logger:    logg,
	}, pipeline.Config{
		BatchSize:        cfg.Refresh.BatchSize,
		FastDelay:        cfg.Refresh.FastDelay,
		MaintenanceDelay: cfg.Refresh.MaintenanceDelay,
	})

	sched := scheduler.New(
		scheduler.WithTick(cfg.Scheduler.Tick),
		scheduler.WithLogger(logg),
		scheduler.WithObserver(m),
	)
	hour, minute, loc := cfg.Scheduler.MaintenanceClock()
	err = jobs.Register(sched, pipeline.Schedules{
		FastRefresh:        scheduler.Every(cfg.Scheduler.FastRefreshInterval),
		CollectToday:       scheduler.Every(cfg.Scheduler.CollectionInterval),
		CollectWhitelisted: scheduler.Every(cfg.Scheduler.WhitelistCollectionInterval),
		Maintenance:        scheduler.Daily(hour, minute, loc),
		CollectOnStart:     cfg.Scheduler.RunCollectionOnStart,
	})
	if err != nil {
		return err
	}

	if cfg.Ops.Enabled {
		srv := handlers.NewServer(cfg.Ops,
			handlers.WithLogger(logg),
			handlers.WithVersion(cfg.Version),
			handlers.WithDatabase(store),
			handlers.WithQuota(ledger),
			handlers.WithJobs(sched),
			handlers.WithMetrics(reg, m),
		)
		go func() {
			if err := srv.Start(); err != nil {
				logg.WithError(err).Error("Ops server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ops.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logg.WithError(err).Warn("Ops server shutdown error")
			}
		}()
	}

	logg.WithFields(logrus.Fields{
		"env":       cfg.Env,
		"version":   cfg.Version,
		"whitelist": len(cfg.Whitelist),
		"database":  store.Dialect().String(),
		"narration": generator != nil,
	}).Info("Golf directory scheduler starting")

	return sched.Run(ctx)
}

// newGenerator builds the video-of-the-day pipeline. It returns nil when no
// Gemini key is configured, which disables narration.
func newGenerator(ctx context.Context, cfg *config.Config, logg *logrus.Logger) (narrator.Generator, error) {
	if !cfg.GeminiEnabled() {
		logg.Warn("No Gemini key configured, video of the day summaries disabled")
		return nil, nil
	}

	rc := retry.DefaultConfig()
	p := &narrator.Pipeline{
		Writer: ai.NewGeminiWriter(ai.GeminiConfig{
			APIKey:  cfg.AI.GeminiAPIKey,
			Model:   cfg.AI.GeminiModel,
			BaseURL: cfg.AI.GeminiBaseURL,
			Timeout: cfg.AI.Timeout,
			Retry:   rc,
		}),
		Logger: logg,
	}

	if !cfg.SpeechEnabled() {
		logg.Info("No ElevenLabs key configured, summaries will be text only")
		return p, nil
	}
	p.Speaker = ai.NewElevenLabs(ai.SpeechConfig{
		APIKey:  cfg.AI.ElevenLabsAPIKey,
		BaseURL: cfg.AI.ElevenLabsBaseURL,
		VoiceID: cfg.AI.ElevenLabsVoiceID,
		ModelID: cfg.AI.ElevenLabsModel,
		Timeout: cfg.AI.Timeout,
		Retry:   rc,
	})

	if cfg.SpacesEnabled() {
		s := cfg.Audio.Spaces
		spaces, err := storage.NewSpacesStore(ctx, storage.SpacesConfig{
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			Bucket:    s.Bucket,
			PublicURL: s.PublicURL,
			Prefix:    "audio",
		})
		if err != nil {
			return nil, err
		}
		p.Store = spaces
		return p, nil
	}

	local, err := storage.NewLocalStore(cfg.Audio.Dir, cfg.Audio.PublicPrefix)
	if err != nil {
		return nil, err
	}
	p.Store = local
	return p, nil
}
