package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/golf-directory/validation"
)

type Config struct {
	Env     string `json:"env"`
	Version string `json:"version"`

	LogDir    string `json:"log_dir"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	Database   DatabaseConfig   `json:"database"`
	Quota      QuotaConfig      `json:"quota"`
	YouTube    YouTubeConfig    `json:"youtube"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Refresh    RefreshConfig    `json:"refresh"`
	Collection CollectionConfig `json:"collection"`
	AI         AIConfig         `json:"ai"`
	Audio      AudioConfig      `json:"audio"`
	Ops        OpsConfig        `json:"ops"`

	// Whitelist holds the curated channel ids.
	Whitelist []string `json:"whitelist"`
}

type DatabaseConfig struct {
	// URL selects PostgreSQL when set; otherwise Path is an SQLite file.
	URL                string        `json:"-"`
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
	QueryTimeout       time.Duration `json:"query_timeout"`
}

type QuotaConfig struct {
	DailyLimit int64 `json:"daily_limit"`
}

type YouTubeConfig struct {
	APIKey            string        `json:"-"`
	SearchQuery       string        `json:"search_query"`
	RegionCode        string        `json:"region_code"`
	RelevanceLanguage string        `json:"relevance_language"`
	SearchMaxResults  int64         `json:"search_max_results"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	Timeout           time.Duration `json:"timeout"`
}

type SchedulerConfig struct {
	Tick                        time.Duration `json:"tick"`
	FastRefreshInterval         time.Duration `json:"fast_refresh_interval"`
	CollectionInterval          time.Duration `json:"collection_interval"`
	WhitelistCollectionInterval time.Duration `json:"whitelist_collection_interval"`
	MaintenanceAt               string        `json:"maintenance_at"`
	MaintenanceTimezone         string        `json:"maintenance_timezone"`
	RunCollectionOnStart        bool          `json:"run_collection_on_start"`

	maintenanceHour   int
	maintenanceMinute int
	location          *time.Location
}

type RefreshConfig struct {
	BatchSize        int           `json:"batch_size"`
	FastDelay        time.Duration `json:"fast_delay"`
	MaintenanceDelay time.Duration `json:"maintenance_delay"`
}

type CollectionConfig struct {
	UploadsPerChannel int64         `json:"uploads_per_channel"`
	UploadsLookback   time.Duration `json:"uploads_lookback"`
}

type AIConfig struct {
	GeminiAPIKey      string        `json:"-"`
	GeminiModel       string        `json:"gemini_model"`
	GeminiBaseURL     string        `json:"gemini_base_url"`
	ElevenLabsAPIKey  string        `json:"-"`
	ElevenLabsBaseURL string        `json:"elevenlabs_base_url"`
	ElevenLabsVoiceID string        `json:"elevenlabs_voice_id"`
	ElevenLabsModel   string        `json:"elevenlabs_model"`
	Timeout           time.Duration `json:"timeout"`
}

type AudioConfig struct {
	Dir          string       `json:"dir"`
	PublicPrefix string       `json:"public_prefix"`
	Spaces       SpacesConfig `json:"spaces"`
}

type SpacesConfig struct {
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	PublicURL string `json:"public_url"`
}

type OpsConfig struct {
	Enabled         bool          `json:"enabled"`
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:     getEnv("ENV", "development"),
		Version: getEnv("VERSION", "1.0.0"),

		LogDir:    getEnv("LOG_DIR", "./logs"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Path:               getEnv("DB_PATH", "./data/golf.db"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			QueryTimeout:       getEnvAsDuration("DB_QUERY_TIMEOUT", 30*time.Second),
		},

		Quota: QuotaConfig{
			DailyLimit: getEnvAsInt64("QUOTA_DAILY_LIMIT", 10000),
		},

		YouTube: YouTubeConfig{
			APIKey:            firstEnv("YOUTUBE_API_KEY", "GOOGLE_API_KEY"),
			SearchQuery:       getEnv("YOUTUBE_SEARCH_QUERY", "golf"),
			RegionCode:        getEnv("YOUTUBE_REGION_CODE", "US"),
			RelevanceLanguage: getEnv("YOUTUBE_RELEVANCE_LANGUAGE", "en"),
			SearchMaxResults:  getEnvAsInt64("YOUTUBE_SEARCH_MAX_RESULTS", 50),
			RequestsPerSecond: getEnvAsFloat("YOUTUBE_REQUESTS_PER_SECOND", 5),
			Timeout:           getEnvAsDuration("YOUTUBE_TIMEOUT", 30*time.Second),
		},

		Scheduler: SchedulerConfig{
			Tick:                        getEnvAsDuration("SCHEDULER_TICK", 10*time.Second),
			FastRefreshInterval:         getEnvAsDuration("FAST_REFRESH_INTERVAL", 2*time.Minute),
			CollectionInterval:          getEnvAsDuration("COLLECTION_INTERVAL", 30*time.Minute),
			WhitelistCollectionInterval: getEnvAsDuration("WHITELIST_COLLECTION_INTERVAL", 30*time.Minute),
			MaintenanceAt:               getEnv("MAINTENANCE_AT", "03:00"),
			MaintenanceTimezone:         getEnv("MAINTENANCE_TZ", "UTC"),
			RunCollectionOnStart:        getEnvAsBool("RUN_COLLECTION_ON_START", true),
		},

		Refresh: RefreshConfig{
			BatchSize:        getEnvAsInt("REFRESH_BATCH_SIZE", 50),
			FastDelay:        getEnvAsDuration("REFRESH_BATCH_DELAY", time.Second),
			MaintenanceDelay: getEnvAsDuration("MAINTENANCE_BATCH_DELAY", 2*time.Second),
		},

		Collection: CollectionConfig{
			UploadsPerChannel: getEnvAsInt64("UPLOADS_PER_CHANNEL", 5),
			UploadsLookback:   getEnvAsDuration("UPLOADS_LOOKBACK", 7*24*time.Hour),
		},

		AI: AIConfig{
			GeminiAPIKey:      firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
			ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "NOpBlnGInO9m6vDvFkFC"),
			ElevenLabsModel:   getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
			Timeout:           getEnvAsDuration("AI_TIMEOUT", 2*time.Minute),
		},

		Audio: AudioConfig{
			Dir:          getEnv("AUDIO_DIR", "./data/audio"),
			PublicPrefix: getEnv("AUDIO_PUBLIC_PREFIX", "/audio"),
			Spaces: SpacesConfig{
				AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
				SecretKey: getEnv("SPACES_SECRET_KEY", ""),
				Region:    getEnv("SPACES_REGION", "nyc3"),
				Endpoint:  getEnv("SPACES_ENDPOINT", ""),
				Bucket:    getEnv("SPACES_BUCKET", ""),
				PublicURL: getEnv("SPACES_PUBLIC_URL", ""),
			},
		},

		Ops: OpsConfig{
			Enabled:         getEnvAsBool("OPS_ENABLED", true),
			Port:            getEnv("OPS_PORT", "9090"),
			ReadTimeout:     getEnvAsDuration("OPS_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getEnvAsDuration("OPS_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("OPS_SHUTDOWN_TIMEOUT", 5*time.Second),
		},

		Whitelist: getEnvAsStringSlice("CHANNEL_WHITELIST", DefaultWhitelist()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validateCredentials(c); err != nil {
		return err
	}

	if err := validateSchedule(c); err != nil {
		return err
	}

	if err := validateLimits(c); err != nil {
		return err
	}

	if err := validateEndpoints(c); err != nil {
		return err
	}

	return validatePaths(c)
}

// UsesPostgres reports whether the ledger and catalog live in PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}

func (c *Config) GeminiEnabled() bool { return c.AI.GeminiAPIKey != "" }

func (c *Config) SpeechEnabled() bool { return c.AI.ElevenLabsAPIKey != "" }

func (c *Config) SpacesEnabled() bool {
	s := c.Audio.Spaces
	return s.AccessKey != "" && s.SecretKey != "" && s.Bucket != "" && s.Endpoint != ""
}

// MaintenanceClock returns the validated daily maintenance wall-clock time.
func (s SchedulerConfig) MaintenanceClock() (hour, minute int, loc *time.Location) {
	loc = s.location
	if loc == nil {
		loc = time.UTC
	}
	return s.maintenanceHour, s.maintenanceMinute, loc
}

func validateCredentials(c *Config) error {
	if c.YouTube.APIKey == "" {
		return errors.New("YOUTUBE_API_KEY or GOOGLE_API_KEY is required")
	}
	if c.Database.URL == "" && c.Database.Path == "" {
		return errors.New("DATABASE_URL or DB_PATH is required")
	}
	if c.Database.URL != "" &&
		!strings.HasPrefix(c.Database.URL, "postgres://") &&
		!strings.HasPrefix(c.Database.URL, "postgresql://") {
		return errors.New("DATABASE_URL must be a postgres:// connection string")
	}
	return nil
}

func validateSchedule(c *Config) error {
	s := &c.Scheduler
	durations := []struct {
		value time.Duration
		name  string
	}{
		{s.Tick, "scheduler tick"},
		{s.FastRefreshInterval, "fast refresh interval"},
		{s.CollectionInterval, "collection interval"},
		{s.WhitelistCollectionInterval, "whitelist collection interval"},
		{c.YouTube.Timeout, "youtube timeout"},
		{c.AI.Timeout, "ai timeout"},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.Errorf("%s must be positive", d.name)
		}
	}

	at, err := time.Parse("15:04", s.MaintenanceAt)
	if err != nil {
		return errors.Wrapf(err, "invalid MAINTENANCE_AT %q", s.MaintenanceAt)
	}
	loc, err := time.LoadLocation(s.MaintenanceTimezone)
	if err != nil {
		return errors.Wrapf(err, "invalid MAINTENANCE_TZ %q", s.MaintenanceTimezone)
	}
	s.maintenanceHour, s.maintenanceMinute, s.location = at.Hour(), at.Minute(), loc

	return nil
}

func validateLimits(c *Config) error {
	if c.Quota.DailyLimit <= 0 {
		return errors.New("quota daily limit must be positive")
	}
	if c.Refresh.BatchSize < 1 || c.Refresh.BatchSize > 50 {
		return errors.New("refresh batch size must be between 1 and 50")
	}
	if c.Refresh.FastDelay < 0 || c.Refresh.MaintenanceDelay < 0 {
		return errors.New("batch delays must not be negative")
	}
	if c.YouTube.SearchMaxResults < 1 || c.YouTube.SearchMaxResults > 50 {
		return errors.New("search max results must be between 1 and 50")
	}
	return nil
}

func validateEndpoints(c *Config) error {
	if err := validation.Whitelist(c.Whitelist); err != nil {
		return errors.Wrap(err, "invalid CHANNEL_WHITELIST")
	}

	endpoints := []struct {
		name string
		url  string
	}{
		{"GEMINI_BASE_URL", c.AI.GeminiBaseURL},
		{"ELEVENLABS_BASE_URL", c.AI.ElevenLabsBaseURL},
		{"SPACES_ENDPOINT", c.Audio.Spaces.Endpoint},
		{"SPACES_PUBLIC_URL", c.Audio.Spaces.PublicURL},
	}
	for _, e := range endpoints {
		if err := validation.BaseURL(e.name, e.url); err != nil {
			return err
		}
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
	}
	if !c.UsesPostgres() {
		paths = append(paths, struct {
			path string
			name string
		}{filepath.Dir(c.Database.Path), "database directory"})
	}

	for _, p := range paths {
		if p.path == "" {
			continue
		}
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue, "integer")
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue, "integer")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		warnInvalid(key, value, defaultValue, "number")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		warnInvalid(key, value, defaultValue, "boolean")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue, "duration")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			var out []string
			for _, part := range strings.Split(value, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue any, kind string) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warnf("Invalid %s, using default", kind)
}
