package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"awstail/internal/duration"
	"awstail/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// AWS contains backend connection settings.
type AWS struct {
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
}

// Tail contains defaults for the logs command. Durations use the forms
// accepted by the duration package ("5m", "1d", "1h30m").
type Tail struct {
	Since    string `toml:"since"`
	Timeout  string `toml:"timeout"`
	PageSize int    `toml:"page_size"`
}

// Retry controls how the poll cycle reacts to fetch failures.
type Retry struct {
	// Attempts is the number of re-issues after a failed fetch. Zero aborts on
	// the first failure.
	Attempts int    `toml:"attempts"`
	Backoff  string `toml:"backoff"`
}

// Checkpoint contains configuration for persisted watch anchors.
type Checkpoint struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Logging contains configuration for diagnostic output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for awstail.
//
// Configuration sections:
//   - AWS: region and shared-config profile used to build the client
//   - Tail: lookback, fetch timeout, and page size defaults
//   - Retry: fetch retry policy for the poll cycle
//   - Checkpoint: persisted resume anchors for watch mode
//   - Logging: diagnostic log format, level, and optional file
type Config struct {
	AWS        AWS        `toml:"aws"`
	Tail       Tail       `toml:"tail"`
	Retry      Retry      `toml:"retry"`
	Checkpoint Checkpoint `toml:"checkpoint"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults and environment fallbacks apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SinceDuration returns the default lookback window.
func (t Tail) SinceDuration() time.Duration {
	return parseOr(t.Since, defaultSince)
}

// TimeoutDuration returns the per-fetch timeout.
func (t Tail) TimeoutDuration() time.Duration {
	return parseOr(t.Timeout, defaultTimeout)
}

// BackoffDuration returns the initial delay between fetch retries.
func (r Retry) BackoffDuration() time.Duration {
	return parseOr(r.Backoff, defaultRetryBackoff)
}

// DatabasePath returns the checkpoint database location.
func (c Checkpoint) DatabasePath() string {
	return filepath.Join(c.Dir, "checkpoints.db")
}

func parseOr(value, fallback string) time.Duration {
	if d, err := duration.Parse(value); err == nil {
		return d
	}
	d, _ := duration.Parse(fallback)
	return d
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
