package config

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPaceToleranceSec   = 5.0
	DefaultChallengeIncrement = 2.0
	DefaultWindowDays         = 90
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// Config is the top-level configuration.
type Config struct {
	Coach   CoachConfig   `yaml:"coach"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// CoachConfig tunes challenge generation and live feedback.
type CoachConfig struct {
	// PaceToleranceSec is the half-width of the on-target band in s/km.
	PaceToleranceSec float64 `yaml:"pace_tolerance_sec"`

	// ChallengeIncrement is how many index points a challenge asks for
	// above the bucket's best.
	ChallengeIncrement float64 `yaml:"challenge_increment"`
}

// HistoryConfig says where past runs come from.
type HistoryConfig struct {
	// FitDir holds FIT activities; new files dropped here are picked up
	// by ppi_watch.
	FitDir string `yaml:"fit_dir"`

	// WindowDays limits seeding to runs started in the last N days.
	// Zero seeds from the whole history.
	WindowDays int `yaml:"window_days"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Coach: CoachConfig{
			PaceToleranceSec:   DefaultPaceToleranceSec,
			ChallengeIncrement: DefaultChallengeIncrement,
		},
		History: HistoryConfig{
			WindowDays: DefaultWindowDays,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func validate(cfg *Config) error {
	tol := cfg.Coach.PaceToleranceSec
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return fmt.Errorf("coach.pace_tolerance_sec must be a non-negative number, got %v", tol)
	}
	inc := cfg.Coach.ChallengeIncrement
	if math.IsNaN(inc) || math.IsInf(inc, 0) || inc <= 0 {
		return fmt.Errorf("coach.challenge_increment must be positive, got %v", inc)
	}
	if cfg.History.WindowDays < 0 {
		return fmt.Errorf("history.window_days must not be negative")
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return lvl, nil
}

// NewLogger returns a logger writing to w as configured. Unknown values
// fall back to info and text.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
