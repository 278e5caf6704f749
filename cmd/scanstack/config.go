package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/scanstack/pkg/scanimage"
)

// Config represents the scanstack configuration file
// (~/.config/scanstack/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	Parallel *int `yaml:"parallel"`
	CacheMB  *int `yaml:"cache_mb"`

	ServerAddress string `yaml:"server_address"`

	// Dialects replaces the built-in dialect list, in order.
	Dialects []DialectConfig `yaml:"dialects"`
}

type DialectConfig struct {
	Label   string `yaml:"label"`
	Version string `yaml:"version"`
	Pattern string `yaml:"pattern"`
}

// loaded is the configuration read by setupLogging for the current run.
var loaded Config

// LoadConfig reads the config file at path. A missing file yields a zero
// Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the logging flags
// that were not set on the command line.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.LogFile != "" && !c.IsSet("log-file") {
		logFile = cfg.LogFile
	}
}

func applySourceConfig(c *cli.Command, cfg Config) {
	if cfg.Parallel != nil && !c.IsSet("parallel") {
		parallel = *cfg.Parallel
	}
	if cfg.CacheMB != nil && !c.IsSet("cache-mb") {
		cacheMB = *cfg.CacheMB
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// dialects compiles the configured dialect list. Nil means the built-in
// defaults.
func (cfg Config) dialects() ([]scanimage.Dialect, error) {
	if len(cfg.Dialects) == 0 {
		return nil, nil
	}
	out := make([]scanimage.Dialect, 0, len(cfg.Dialects))
	for _, d := range cfg.Dialects {
		dialect, err := scanimage.CompileDialect(d.Label, d.Version, d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("config dialect %q: %w", d.Label, err)
		}
		out = append(out, dialect)
	}
	return out, nil
}
