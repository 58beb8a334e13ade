package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// config holds the settings read from the TOML file and the command line.
type config struct {
	BaseURL        string        `toml:"base_url"`
	Encoding       string        `toml:"encoding"`
	LogLevel       string        `toml:"log_level"`
	Timeout        time.Duration `toml:"timeout"`
	UserAgent      string        `toml:"user_agent"`
	MaxImportDepth int           `toml:"max_import_depth"`
}

func defaultConfig() config {
	return config{
		LogLevel:       "warn",
		Timeout:        30 * time.Second,
		UserAgent:      "cssparse/1.0",
		MaxImportDepth: 8,
	}
}

// loadConfig reads a TOML file over the defaults. Unknown keys are an error
// so that typos do not go unnoticed.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// flagValues holds the command line settings. Only flags that were set
// override the config file.
type flagValues struct {
	configPath     string
	baseURL        string
	encoding       string
	logLevel       string
	timeout        time.Duration
	userAgent      string
	maxImportDepth int
	inline         bool
}

func (f *flagValues) register(fs *flag.FlagSet) {
	defaults := defaultConfig()
	fs.StringVar(&f.configPath, "config", "", "Path to a TOML config file")
	fs.StringVar(&f.baseURL, "base-url", "", "Base URL for stylesheets read from stdin")
	fs.StringVar(&f.encoding, "encoding", "", "Fallback encoding label for stylesheets")
	fs.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	fs.DurationVar(&f.timeout, "timeout", defaults.Timeout, "HTTP request timeout")
	fs.StringVar(&f.userAgent, "user-agent", defaults.UserAgent, "User-Agent header for HTTP requests")
	fs.IntVar(&f.maxImportDepth, "max-import-depth", defaults.MaxImportDepth, "Maximum @import nesting to follow")
	fs.BoolVar(&f.inline, "inline", false, "Also print style attributes of HTML documents")
}

func (f *flagValues) apply(fs *flag.FlagSet, cfg *config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "base-url":
			cfg.BaseURL = f.baseURL
		case "encoding":
			cfg.Encoding = f.encoding
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "timeout":
			cfg.Timeout = f.timeout
		case "user-agent":
			cfg.UserAgent = f.userAgent
		case "max-import-depth":
			cfg.MaxImportDepth = f.maxImportDepth
		}
	})
}
