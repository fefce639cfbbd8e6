package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// DebounceMs is the quiescence delay for coalescing saves, in milliseconds.
	// Mutations arriving within this window of each other produce one write.
	DebounceMs int `json:"debounce_ms"`

	// DraftMaxAgeHours is the age threshold for the orphan sweep. Drafts with
	// no content whose last edit is older than this are removed.
	DraftMaxAgeHours int `json:"draft_max_age_hours"`

	// SweepIntervalMinutes controls the periodic orphan sweep. 0 means use the
	// default; a negative value disables the background sweeper entirely.
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`

	// SnapshotGraceHours is how long confirmed publish snapshots are retained
	// before cleanup removes them.
	SnapshotGraceHours int `json:"snapshot_grace_hours"`

	// CoreDBPath is an optional path to the backend core database, opened
	// read-only for display-name and conversation-title lookups.
	CoreDBPath string `json:"core_db_path,omitempty"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level,omitempty"`

	// LogPretty switches log output from JSON to colored console encoding.
	LogPretty bool `json:"log_pretty,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledFamilies is a list of record family names to disable entirely.
	// All tools belonging to disabled families are excluded from registration.
	// Known families: "draft", "saved", "prompt", "publish", "vault".
	DisabledFamilies []string `json:"disabled_families,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DebounceMs:           500,
		DraftMaxAgeHours:     24,
		SweepIntervalMinutes: 60,
		SnapshotGraceHours:   24,
		LogLevel:             "info",
	}
}

// BaseDir resolves the application data directory: $INKWELL_DIR if set,
// otherwise ~/.inkwell.
func BaseDir() (string, error) {
	if dir := os.Getenv("INKWELL_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".inkwell"), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.inkwell.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.DebounceMs = overlay.DebounceMs
	if result.DebounceMs == 0 {
		result.DebounceMs = base.DebounceMs
	}

	result.DraftMaxAgeHours = overlay.DraftMaxAgeHours
	if result.DraftMaxAgeHours == 0 {
		result.DraftMaxAgeHours = base.DraftMaxAgeHours
	}

	result.SweepIntervalMinutes = overlay.SweepIntervalMinutes
	if result.SweepIntervalMinutes == 0 {
		result.SweepIntervalMinutes = base.SweepIntervalMinutes
	}

	result.SnapshotGraceHours = overlay.SnapshotGraceHours
	if result.SnapshotGraceHours == 0 {
		result.SnapshotGraceHours = base.SnapshotGraceHours
	}

	result.CoreDBPath = overlay.CoreDBPath
	if result.CoreDBPath == "" {
		result.CoreDBPath = base.CoreDBPath
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	// Booleans: overlay wins if true, else base
	result.LogPretty = base.LogPretty || overlay.LogPretty

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledFamilies = mergeStringSlice(base.DisabledFamilies, overlay.DisabledFamilies)

	return result
}

// DebounceInterval returns the quiescence delay as a duration.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// DraftMaxAge returns the orphan sweep age threshold as a duration.
func (c *Config) DraftMaxAge() time.Duration {
	return time.Duration(c.DraftMaxAgeHours) * time.Hour
}

// SweepInterval returns the background sweep period, or 0 if the sweeper
// is disabled.
func (c *Config) SweepInterval() time.Duration {
	if c.SweepIntervalMinutes < 0 {
		return 0
	}
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// SnapshotGrace returns the confirmed-snapshot retention period as a duration.
func (c *Config) SnapshotGrace() time.Duration {
	return time.Duration(c.SnapshotGraceHours) * time.Hour
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
