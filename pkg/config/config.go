// Package config loads crossmap settings from .crossmap.yaml, the
// environment (CROSSMAP_* variables), and built-in defaults, in that
// order of increasing precedence for env over file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for crossmap
type Config struct {
	Org                string       `mapstructure:"org"`
	OutputDir          string       `mapstructure:"output_dir"`
	MaxEvidencePerEdge int          `mapstructure:"max_evidence_per_edge"`
	ChunkSize          int          `mapstructure:"chunk_size"`
	Scan               ScanConfig   `mapstructure:"scan"`
	Report             ReportConfig `mapstructure:"report"`
}

// ScanConfig holds the knobs for the search stage
type ScanConfig struct {
	Workers          int           `mapstructure:"workers"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Searcher         string        `mapstructure:"searcher"` // "auto", "ripgrep", "native"
	ExcludeRepos     []string      `mapstructure:"exclude_repos"`
	ExtraExcludeDirs []string      `mapstructure:"extra_exclude_dirs"`
}

// ReportConfig holds output rendering settings
type ReportConfig struct {
	GraphML bool   `mapstructure:"graphml"`
	Summary string `mapstructure:"summary"` // "concise", "markdown", "html", "json"
}

var defaultConfig = Config{
	MaxEvidencePerEdge: 5,
	ChunkSize:          120,
	Scan: ScanConfig{
		Workers:  1,
		Timeout:  2 * time.Minute,
		Searcher: "auto",
	},
	Report: ReportConfig{
		Summary: "concise",
	},
}

// Load reads configuration. With an explicit path the file must exist and
// parse; otherwise .crossmap.yaml is searched in the current directory and
// then in any extra search paths, and missing files simply mean defaults.
// Any config file that is found is validated against the embedded schema
// before use.
func Load(path string, searchPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("org", defaultConfig.Org)
	v.SetDefault("output_dir", defaultConfig.OutputDir)
	v.SetDefault("max_evidence_per_edge", defaultConfig.MaxEvidencePerEdge)
	v.SetDefault("chunk_size", defaultConfig.ChunkSize)
	v.SetDefault("scan.workers", defaultConfig.Scan.Workers)
	v.SetDefault("scan.timeout", defaultConfig.Scan.Timeout)
	v.SetDefault("scan.searcher", defaultConfig.Scan.Searcher)
	v.SetDefault("scan.exclude_repos", defaultConfig.Scan.ExcludeRepos)
	v.SetDefault("scan.extra_exclude_dirs", defaultConfig.Scan.ExtraExcludeDirs)
	v.SetDefault("report.graphml", defaultConfig.Report.GraphML)
	v.SetDefault("report.summary", defaultConfig.Report.Summary)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".crossmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		for _, p := range searchPaths {
			if p != "" && p != "." {
				v.AddConfigPath(p)
			}
		}
	}

	v.SetEnvPrefix("CROSSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if used := v.ConfigFileUsed(); used != "" {
		if err := ValidateFile(used); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Default returns a copy of the built-in configuration.
func Default() Config {
	return defaultConfig
}
