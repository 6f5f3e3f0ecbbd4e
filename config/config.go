package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Config is the full process configuration. Every service receives its own
// section at construction time.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	OMDB      OMDBConfig      `koanf:"omdb"`
	LastFM    LastFMConfig    `koanf:"lastfm"`
	Images    ImagesConfig    `koanf:"images"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GeminiConfig struct {
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	BaseURL         string        `koanf:"base_url"`
	Temperature     float64       `koanf:"temperature"`
	MaxOutputTokens int           `koanf:"max_output_tokens"`
	MaxAttempts     uint          `koanf:"max_attempts"` // 1 = no retries
	Timeout         time.Duration `koanf:"timeout"`
}

type TMDBConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Language     string        `koanf:"language"`
	Timeout      time.Duration `koanf:"timeout"`
}

type OMDBConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type LastFMConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ImagesConfig holds the artwork used when the catalog has none.
type ImagesConfig struct {
	PosterPlaceholder   string `koanf:"poster_placeholder"`
	BackdropPlaceholder string `koanf:"backdrop_placeholder"`
}

type RecommendConfig struct {
	Count           int  `koanf:"count"`
	MaxConcurrency  int  `koanf:"max_concurrency"`
	FallbackEnabled bool `koanf:"fallback_enabled"`
	SimilarLimit    int  `koanf:"similar_limit"`
	FallbackCount   int  `koanf:"fallback_count"`
}

type CacheConfig struct {
	Dir      string `koanf:"dir"`
	TTLHours int    `koanf:"ttl_hours"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	WindowMS int64         `koanf:"window_ms"` // RATE_LIMIT_WINDOW_MS; overrides Window when set
	Disabled bool          `koanf:"disabled"`
}

type LoggingConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Caller     bool   `koanf:"caller"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Default returns the configuration used before any file or environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.0-flash",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			MaxAttempts:     1,
			Timeout:         45 * time.Second,
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Language:     "en-US",
			Timeout:      15 * time.Second,
		},
		OMDB: OMDBConfig{
			BaseURL: "http://www.omdbapi.com/",
			Timeout: 15 * time.Second,
		},
		LastFM: LastFMConfig{
			BaseURL: "http://ws.audioscrobbler.com/2.0/",
			Timeout: 15 * time.Second,
		},
		Images: ImagesConfig{
			PosterPlaceholder:   "https://placehold.co/500x750?text=No+Poster",
			BackdropPlaceholder: "https://placehold.co/1280x720?text=No+Image",
		},
		Recommend: RecommendConfig{
			Count:           5,
			MaxConcurrency:  5,
			FallbackEnabled: true,
			SimilarLimit:    10,
			FallbackCount:   5,
		},
		Cache: CacheConfig{
			Dir:      "cache",
			TTLHours: 24,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("gemini.api_key is required (GEMINI_API_KEY)"))
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		errs = append(errs, errors.New("gemini.model must not be empty"))
	}
	if c.Gemini.MaxAttempts == 0 {
		errs = append(errs, errors.New("gemini.max_attempts must be at least 1"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Recommend.Count <= 0 {
		errs = append(errs, errors.New("recommend.count must be positive"))
	}
	if c.Recommend.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("recommend.max_concurrency must be positive"))
	}
	if c.Recommend.FallbackCount <= 0 || c.Recommend.SimilarLimit < c.Recommend.FallbackCount {
		errs = append(errs, errors.New("recommend.fallback_count must be positive and not exceed recommend.similar_limit"))
	}
	if !c.RateLimit.Disabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
	}
	return errors.Join(errs...)
}

// Manager owns the loaded configuration.
type Manager struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = Default()
	}
	return &Manager{cfg: cfg}
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}
