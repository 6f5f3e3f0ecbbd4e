package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar points at an explicit YAML config file.
const PathEnvVar = "CONFIG_PATH"

var defaultPaths = []string{"config.yaml", "config.yml", "/etc/curator/config.yaml"}

// envKeys maps environment variables onto config keys. Unlisted variables are ignored.
var envKeys = map[string]string{
	"host":                    "server.host",
	"port":                    "server.port",
	"shutdown_timeout":        "server.shutdown_timeout",
	"gemini_api_key":          "gemini.api_key",
	"gemini_model":            "gemini.model",
	"gemini_base_url":         "gemini.base_url",
	"gemini_max_attempts":     "gemini.max_attempts",
	"tmdb_api_key":            "tmdb.api_key",
	"tmdb_base_url":           "tmdb.base_url",
	"tmdb_image_base_url":     "tmdb.image_base_url",
	"omdb_api_key":            "omdb.api_key",
	"omdb_base_url":           "omdb.base_url",
	"lastfm_api_key":          "lastfm.api_key",
	"lastfm_base_url":         "lastfm.base_url",
	"poster_placeholder":      "images.poster_placeholder",
	"backdrop_placeholder":    "images.backdrop_placeholder",
	"recommend_concurrency":   "recommend.max_concurrency",
	"recommend_fallback":      "recommend.fallback_enabled",
	"cache_dir":               "cache.dir",
	"cache_ttl_hours":         "cache.ttl_hours",
	"rate_limit_max_requests": "rate_limit.requests",
	"rate_limit_window_ms":    "rate_limit.window_ms",
	"rate_limit_disabled":     "rate_limit.disabled",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
	"log_file":                "logging.file",
}

// Load builds the configuration from defaults, an optional YAML file and the environment,
// in that order of precedence (later wins), then validates it.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit file path ("" for none).
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.RateLimit.WindowMS > 0 {
		cfg.RateLimit.Window = time.Duration(cfg.RateLimit.WindowMS) * time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// transformEnv maps an env var to its config key; unmapped variables return "" and are skipped.
func transformEnv(key string) string {
	return envKeys[strings.ToLower(key)]
}

func findConfigFile() string {
	if p := strings.TrimSpace(os.Getenv(PathEnvVar)); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
