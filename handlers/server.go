// Package handlers serves the ops endpoints: health and Prometheus metrics.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/config"
	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/middleware"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/services/scheduler"
)

type QuotaReporter interface {
	Usage(ctx context.Context) (*models.QuotaUsage, error)
	Ceiling() int64
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type JobReporter interface {
	Status() []scheduler.JobStatus
}

type Server struct {
	config    config.OpsConfig
	version   string
	quota     QuotaReporter
	db        Pinger
	jobs      JobReporter
	gatherer  prometheus.Gatherer
	requests  middleware.RequestObserver
	logger    *logrus.Logger
	server    *http.Server
	startTime time.Time
	now       func() time.Time
}

type ServerOption func(*Server)

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// WithQuota reports today's ledger row on /health.
func WithQuota(q QuotaReporter) ServerOption {
	return func(s *Server) { s.quota = q }
}

// WithDatabase makes /health ping the database.
func WithDatabase(p Pinger) ServerOption {
	return func(s *Server) { s.db = p }
}

func WithJobs(j JobReporter) ServerOption {
	return func(s *Server) { s.jobs = j }
}

// WithMetrics serves g on /metrics and reports request durations to obs.
func WithMetrics(g prometheus.Gatherer, obs middleware.RequestObserver) ServerOption {
	return func(s *Server) {
		s.gatherer = g
		s.requests = obs
	}
}

func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

func NewServer(cfg config.OpsConfig, opts ...ServerOption) *Server {
	s := &Server{
		config: cfg,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.now()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks serving until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.WithField("port", s.config.Port).Info("Starting ops server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Internal("Server.Start", err, "ops server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down ops server")
	return s.server.Shutdown(ctx)
}

// Handler is the routed and wrapped mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
			ErrorLog: s.logger,
		}))
	}

	return middleware.Chain(mux,
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Metrics(s.requests),
	)
}

type quotaStatus struct {
	Date                  string `json:"date"`
	SearchOperations      int64  `json:"search_operations"`
	VideoListOperations   int64  `json:"video_list_operations"`
	ChannelListOperations int64  `json:"channel_list_operations"`
	UnitsUsed             int64  `json:"units_used"`
	UnitsRemaining        int64  `json:"units_remaining"`
	Ceiling               int64  `json:"ceiling"`
}

type healthStatus struct {
	Status   string                `json:"status"`
	Version  string                `json:"version,omitempty"`
	Uptime   string                `json:"uptime"`
	Database string                `json:"database,omitempty"`
	Quota    *quotaStatus          `json:"quota,omitempty"`
	Jobs     []scheduler.JobStatus `json:"jobs,omitempty"`
}

// handleHealth answers 503 when the database is unreachable. Quota read
// failures are reported but do not fail the check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := healthStatus{
		Status:  "ok",
		Version: s.version,
		Uptime:  s.now().Sub(s.startTime).Round(time.Second).String(),
	}
	code := http.StatusOK

	if s.db != nil {
		status.Database = "ok"
		if err := s.db.Ping(ctx); err != nil {
			s.logger.WithError(err).WithField("request_id", middleware.RequestIDFrom(r.Context())).
				Warn("Health check database ping failed")
			status.Status = "degraded"
			status.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}

	if s.quota != nil {
		usage, err := s.quota.Usage(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Health check could not read quota")
		} else {
			status.Quota = newQuotaStatus(usage, s.quota.Ceiling())
		}
	}

	if s.jobs != nil {
		status.Jobs = s.jobs.Status()
	}

	respondJSON(w, r, code, status)
}

func newQuotaStatus(u *models.QuotaUsage, ceiling int64) *quotaStatus {
	used := u.TotalUnits()
	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	return &quotaStatus{
		Date:                  u.Date,
		SearchOperations:      u.SearchOperations,
		VideoListOperations:   u.VideoListOperations,
		ChannelListOperations: u.ChannelListOperations,
		UnitsUsed:             used,
		UnitsRemaining:        remaining,
		Ceiling:               ceiling,
	}
}
