// Package config loads the coach configuration file (config.yaml).
//
// Top-level types:
//   - Config{Coach, History, Log}: full config tree parsed from YAML
//   - CoachConfig: pace_tolerance_sec, challenge_increment
//   - HistoryConfig: fit_dir, window_days
//   - LogConfig: level (debug|info|warn|error), format (text|json)
//
// Load(path) reads the YAML file, applies defaults (5 s/km tolerance, +2.0
// increment, 90 day window, info/text logging), then validates ranges and
// enums. Default() returns the same defaults for runs without a file.
//
// NewLogger builds the slog.Logger the binaries install as default.
package config
