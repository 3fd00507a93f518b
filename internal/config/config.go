// Package config loads analysis settings from project config files.
// Defaults live in code; a `.codescope.toml` or `.codescope.kdl` at the
// project root overrides them, and CLI flags override the file. TOML wins
// when both files are present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

// Config is the full runtime configuration: what to analyze plus cache and
// watcher tuning.
type Config struct {
	Analysis types.AnalysisConfig

	CacheTTLMinutes int
	CacheMaxEntries int
	WatchDebounceMs int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analysis:        types.DefaultAnalysisConfig(),
		CacheTTLMinutes: 30,
		CacheMaxEntries: 64,
		WatchDebounceMs: 500,
	}
}

// tomlFile mirrors the .codescope.toml layout.
type tomlFile struct {
	IncludeTests   *bool    `toml:"include_tests"`
	AnalysisDepth  *string  `toml:"analysis_depth"`
	Languages      []string `toml:"languages"`
	IgnorePatterns []string `toml:"ignore_patterns"`
	MaxFileSize    *int64   `toml:"max_file_size"`

	Cache struct {
		TTLMinutes *int `toml:"ttl_minutes"`
		MaxEntries *int `toml:"max_entries"`
	} `toml:"cache"`

	Watch struct {
		DebounceMs *int `toml:"debounce_ms"`
	} `toml:"watch"`
}

// Load returns the effective configuration for a project root and the path
// of the config file it came from ("" when only defaults apply).
func Load(projectRoot string) (Config, string, error) {
	cfg := Default()

	tomlPath := filepath.Join(projectRoot, ".codescope.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if err := loadTOML(tomlPath, &cfg); err != nil {
			return cfg, tomlPath, err
		}
		return cfg, tomlPath, cfg.Validate()
	}

	kdlPath := filepath.Join(projectRoot, ".codescope.kdl")
	if _, err := os.Stat(kdlPath); err == nil {
		if err := loadKDL(kdlPath, &cfg); err != nil {
			return cfg, kdlPath, err
		}
		return cfg, kdlPath, cfg.Validate()
	}

	return cfg, "", nil
}

func loadTOML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scoperrors.NewConfigError("file", path, err)
	}

	var file tomlFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return scoperrors.NewConfigError("file", path, err)
	}

	if file.IncludeTests != nil {
		cfg.Analysis.IncludeTests = *file.IncludeTests
	}
	if file.AnalysisDepth != nil {
		cfg.Analysis.Depth = types.AnalysisDepth(*file.AnalysisDepth)
	}
	if file.Languages != nil {
		cfg.Analysis.Languages = file.Languages
	}
	if file.IgnorePatterns != nil {
		cfg.Analysis.IgnorePatterns = file.IgnorePatterns
	}
	if file.MaxFileSize != nil {
		cfg.Analysis.MaxFileSize = *file.MaxFileSize
	}
	if file.Cache.TTLMinutes != nil {
		cfg.CacheTTLMinutes = *file.Cache.TTLMinutes
	}
	if file.Cache.MaxEntries != nil {
		cfg.CacheMaxEntries = *file.Cache.MaxEntries
	}
	if file.Watch.DebounceMs != nil {
		cfg.WatchDebounceMs = *file.Watch.DebounceMs
	}

	return nil
}

// Validate rejects configurations the pipeline cannot honor.
func (c Config) Validate() error {
	if !c.Analysis.Depth.Valid() {
		return scoperrors.NewConfigError("analysis_depth", string(c.Analysis.Depth),
			fmt.Errorf("must be one of basic, medium, deep"))
	}
	if c.Analysis.MaxFileSize < 0 {
		return scoperrors.NewConfigError("max_file_size", fmt.Sprintf("%d", c.Analysis.MaxFileSize),
			fmt.Errorf("must not be negative"))
	}
	if c.CacheTTLMinutes < 0 {
		return scoperrors.NewConfigError("cache.ttl_minutes", fmt.Sprintf("%d", c.CacheTTLMinutes),
			fmt.Errorf("must not be negative"))
	}
	if c.CacheMaxEntries < 0 {
		return scoperrors.NewConfigError("cache.max_entries", fmt.Sprintf("%d", c.CacheMaxEntries),
			fmt.Errorf("must not be negative"))
	}
	if c.WatchDebounceMs < 0 {
		return scoperrors.NewConfigError("watch.debounce_ms", fmt.Sprintf("%d", c.WatchDebounceMs),
			fmt.Errorf("must not be negative"))
	}
	return nil
}
