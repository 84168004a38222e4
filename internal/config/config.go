package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/model"
)

// EngineConfig tunes the evaluation engine
type EngineConfig struct {
	Workers                  int `yaml:"workers" validate:"min=0"`
	ConstraintTimeoutSeconds int `yaml:"constraintTimeoutSeconds" validate:"min=0"`
	CacheTTLSeconds          int `yaml:"cacheTTLSeconds" validate:"min=0"`
}

// ResolverConfig bounds the automatic resolution loop
type ResolverConfig struct {
	MaxIterations     int    `yaml:"maxIterations" validate:"min=0"`
	SeverityThreshold string `yaml:"severityThreshold,omitempty" validate:"omitempty,oneof=critical major minor"`
}

// RedisConfig locates the evaluation cache. An empty Addr disables Redis;
// the engine falls back to the in-memory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// PostgresConfig locates the optional constraint/resolution store. An
// empty ConnString disables persistence.
type PostgresConfig struct {
	ConnString string `yaml:"connString,omitempty"`
}

// ChampionshipWindow reserves time for championship play, either as an
// explicit date range or as an RRULE expanded over the season
type ChampionshipWindow struct {
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// RRule generates window starts; each occurrence reserves DurationDays
	RRule        string `yaml:"rrule,omitempty"`
	DurationDays int    `yaml:"durationDays,omitempty" validate:"omitempty,min=1"`
}

// Config is the engine's full configuration
type Config struct {
	Engine              EngineConfig         `yaml:"engine"`
	Thresholds          analyzer.Thresholds  `yaml:"thresholds"`
	Resolver            ResolverConfig       `yaml:"resolver"`
	Redis               RedisConfig          `yaml:"redis,omitempty"`
	Postgres            PostgresConfig       `yaml:"postgres,omitempty"`
	ChampionshipWindows []ChampionshipWindow `yaml:"championshipWindows,omitempty" validate:"dive"`
}

const configFileName = "courtline_config.yaml"

// ErrNoConfigFile signals that no config file exists in any search
// location; callers may fall back to Default
var ErrNoConfigFile = errors.New("config file not found in current directory or home directory")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a runnable configuration with league defaults
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:                  8,
			ConstraintTimeoutSeconds: 5,
			CacheTTLSeconds:          300,
		},
		Thresholds: analyzer.DefaultThresholds(),
		Resolver: ResolverConfig{
			MaxIterations:     10,
			SeverityThreshold: "major",
		},
	}
}

// Load loads and validates the configuration, looking in the current
// directory first and then the user's home directory
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct validation and checks each championship window's
// rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, window := range cfg.ChampionshipWindows {
		if window.RRule != "" {
			if _, err := rrule.StrToRRule(window.RRule); err != nil {
				return fmt.Errorf("invalid rrule in championshipWindows[%d]: %w", i, err)
			}
			if window.DurationDays == 0 {
				return fmt.Errorf("championshipWindows[%d]: rrule requires durationDays", i)
			}
			continue
		}
		if window.Start == "" || window.End == "" {
			return fmt.Errorf("championshipWindows[%d]: requires either rrule or start/end", i)
		}
		if _, err := time.Parse("2006-01-02", window.Start); err != nil {
			return fmt.Errorf("championshipWindows[%d]: invalid start date: %w", i, err)
		}
		if _, err := time.Parse("2006-01-02", window.End); err != nil {
			return fmt.Errorf("championshipWindows[%d]: invalid end date: %w", i, err)
		}
	}
	return nil
}

// ExpandChampionshipWindows resolves the configured windows into concrete
// time windows inside the given season bounds. RRULE windows expand to one
// window of DurationDays per occurrence.
func (c *Config) ExpandChampionshipWindows(seasonStart, seasonEnd time.Time) ([]model.TimeWindow, error) {
	var windows []model.TimeWindow

	for i, w := range c.ChampionshipWindows {
		if w.RRule != "" {
			rule, err := rrule.StrToRRule(w.RRule)
			if err != nil {
				return nil, fmt.Errorf("championshipWindows[%d]: %w", i, err)
			}
			for _, occurrence := range rule.Between(seasonStart, seasonEnd, true) {
				windows = append(windows, model.TimeWindow{
					Start: occurrence,
					End:   occurrence.AddDate(0, 0, w.DurationDays),
				})
			}
			continue
		}

		start, err := time.Parse("2006-01-02", w.Start)
		if err != nil {
			return nil, fmt.Errorf("championshipWindows[%d]: %w", i, err)
		}
		end, err := time.Parse("2006-01-02", w.End)
		if err != nil {
			return nil, fmt.Errorf("championshipWindows[%d]: %w", i, err)
		}
		windows = append(windows, model.TimeWindow{Start: start, End: end})
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows, nil
}

// findConfigFile searches the current directory and then the home
// directory
func findConfigFile() (string, error) {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	homePath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", ErrNoConfigFile
}
