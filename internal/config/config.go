// SPDX-License-Identifier: MIT

// Package config loads and validates the three human-edited configuration
// files (run config, channel list, genre rules) and applies environment
// overrides.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before they overlay the
// run config, e.g. UTACATALOG_DATA_DIR -> data_dir.
const envPrefix = "UTACATALOG_"

// Error marks a configuration problem. The CLI maps it to exit code 3.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "config: " + e.Reason }

func errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Run is the operational configuration for a harvest run.
type Run struct {
	APIKeyEnv           string  `koanf:"api_key_env"`
	DailyQuotaUnits     int     `koanf:"daily_quota_units"`
	MaxParallelChannels int     `koanf:"max_parallel_channels"`
	CommentsPerVideo    int     `koanf:"comments_per_video"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// RateUnitsPerSec throttles platform API calls (token bucket).
	RateUnitsPerSec float64 `koanf:"rate_units_per_sec"`

	// DataDir holds all persisted state (catalog, watermarks, cache, out/).
	DataDir string `koanf:"data_dir"`

	// ChannelsFile and GenreRulesFile default to paths under the config
	// file's directory when left empty.
	ChannelsFile   string `koanf:"channels_file"`
	GenreRulesFile string `koanf:"genre_rules_file"`

	// MetadataLookup enables the external music-metadata tiebreaker.
	MetadataLookup bool `koanf:"metadata_lookup"`

	// MetricsListen, when set (e.g. ":9090"), serves Prometheus metrics
	// for the duration of the run. Useful for long backfills.
	MetricsListen string `koanf:"metrics_listen"`

	LogLevel string `koanf:"log_level"`
}

// APIKey resolves the platform API key from the environment variable named
// in the run config.
func (r Run) APIKey() (string, error) {
	key := os.Getenv(r.APIKeyEnv)
	if key == "" {
		return "", errorf("environment variable %s is empty; set it to a YouTube Data API key", r.APIKeyEnv)
	}
	return key, nil
}

func defaultRun() Run {
	return Run{
		APIKeyEnv:           "API_KEY",
		DailyQuotaUnits:     10000,
		MaxParallelChannels: 3,
		CommentsPerVideo:    100,
		ConfidenceThreshold: 0.7,
		RateUnitsPerSec:     4,
		DataDir:             "data",
		LogLevel:            "info",
	}
}

// LoadRun reads the run config from path, layering defaults, file and
// environment. A missing file is not an error; defaults plus environment
// still apply.
func LoadRun(path string) (Run, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
				return Run{}, errorf("parse %s: %v", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Run{}, errorf("stat %s: %v", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Run{}, errorf("read environment: %v", err)
	}

	cfg := defaultRun()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Run{}, errorf("unmarshal run config: %v", err)
	}

	if err := validateRun(&cfg); err != nil {
		return Run{}, err
	}
	return cfg, nil
}

func validateRun(cfg *Run) error {
	if strings.TrimSpace(cfg.APIKeyEnv) == "" {
		return errorf("api_key_env must name an environment variable")
	}
	if cfg.DailyQuotaUnits <= 0 {
		return errorf("daily_quota_units must be positive, got %d", cfg.DailyQuotaUnits)
	}
	if cfg.MaxParallelChannels < 1 || cfg.MaxParallelChannels > 8 {
		return errorf("max_parallel_channels must be in [1,8], got %d", cfg.MaxParallelChannels)
	}
	if cfg.CommentsPerVideo < 1 || cfg.CommentsPerVideo > 1000 {
		return errorf("comments_per_video must be in [1,1000], got %d", cfg.CommentsPerVideo)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return errorf("confidence_threshold must be in [0,1], got %v", cfg.ConfidenceThreshold)
	}
	if cfg.RateUnitsPerSec <= 0 {
		return errorf("rate_units_per_sec must be positive, got %v", cfg.RateUnitsPerSec)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errorf("data_dir must not be empty")
	}
	return nil
}

// channelIDPattern is the platform channel id shape (UC + 22 id chars).
var channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// ValidChannelID reports whether id is a well-formed platform channel id.
func ValidChannelID(id string) bool {
	return channelIDPattern.MatchString(id)
}
