package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"

	"credscan/version"
)

// Config carries every knob for a scan run. Exclusion lists here are
// additive on top of the scanner's built-in defaults.
type Config struct {
	StartPaths       []string          `json:"start_paths"`
	OutputFileName   string            `json:"output_file_name"`
	ConcurrencyLevel int               `json:"concurrency_level"`
	NiceLevel        string            `json:"nice_level"`
	LogLevel         string            `json:"log_level"`
	MaxFileSize      int64             `json:"max_file_size"`
	MaxIOPerSecond   int               `json:"max_io_per_second"`
	IncludePatterns  []string          `json:"include_patterns"`
	ExcludePatterns  []string          `json:"exclude_patterns"`
	ExcludeDirs      []string          `json:"exclude_dirs"`
	ExcludeExts      []string          `json:"exclude_extensions"`
	CustomPatterns   map[string]string `json:"custom_patterns"`
	SkipCount        bool              `json:"skip_count"`
	NoProgress       bool              `json:"no_progress"`
	ConfigFile       string            `json:"config_file"`
	ConcurrencySet   bool              `json:"-"`
}

func defaults() *Config {
	return &Config{
		StartPaths:       []string{"."},
		OutputFileName:   "",
		ConcurrencyLevel: runtime.NumCPU(),
		NiceLevel:        "medium",
		LogLevel:         "info",
		MaxFileSize:      10 * 1024 * 1024,
		MaxIOPerSecond:   0,
		IncludePatterns:  []string{},
		ExcludePatterns:  []string{},
		ExcludeDirs:      []string{},
		ExcludeExts:      []string{},
		CustomPatterns:   map[string]string{},
		SkipCount:        false,
		NoProgress:       false,
	}
}

func LoadConfig() (*Config, error) {
	return loadConfig(flag.CommandLine, os.Args[1:])
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := defaults()

	startPath := fs.String("path", strings.Join(cfg.StartPaths, ","), "Comma-separated list of root paths to scan (default: current directory).")
	output := fs.String("output", cfg.OutputFileName, "Write NDJSON results to this file (default: none).")
	concurrency := fs.Int("concurrency", cfg.ConcurrencyLevel, fmt.Sprintf("Number of scan workers (default: %d).", cfg.ConcurrencyLevel))
	nice := fs.String("nice", cfg.NiceLevel, fmt.Sprintf("Nice level: high, medium, or low (default: %s).", cfg.NiceLevel))
	logLevel := fs.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	maxFileSize := fs.Int64("max-file-size", cfg.MaxFileSize, fmt.Sprintf("Maximum file size to scan in bytes (default: %d, 0 means unlimited).", cfg.MaxFileSize))
	maxIO := fs.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum file opens per second (default: 0, unlimited).")
	includes := fs.String("include", "", "Comma-separated list of include patterns, glob or regex (default: none).")
	excludes := fs.String("exclude", "", "Comma-separated list of exclude patterns, glob or regex (default: none).")
	excludeDirs := fs.String("exclude-dirs", "", "Comma-separated directory names to skip in addition to the built-in set.")
	excludeExts := fs.String("exclude-exts", "", "Comma-separated file extensions to skip in addition to the built-in set.")
	customPatterns := fs.String("custom-patterns", "", "Custom secret patterns as a JSON object mapping names to regexes.")
	skipCount := fs.Bool("skip-count", cfg.SkipCount, "Skip initial file counting to start scanning immediately.")
	noProgress := fs.Bool("no-progress", cfg.NoProgress, "Disable the progress bar.")
	configFile := fs.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := fs.Bool("version", false, "Print version and exit.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *showVersion {
		fmt.Printf("credscan version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.StartPaths = parseCommaSeparated(*startPath)
		case "output":
			cfg.OutputFileName = *output
		case "concurrency":
			cfg.ConcurrencyLevel = *concurrency
			cfg.ConcurrencySet = true
		case "nice":
			cfg.NiceLevel = strings.ToLower(*nice)
		case "log-level":
			cfg.LogLevel = *logLevel
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "exclude-dirs":
			cfg.ExcludeDirs = parseCommaSeparated(*excludeDirs)
		case "exclude-exts":
			cfg.ExcludeExts = parseCommaSeparated(*excludeExts)
		case "custom-patterns":
			patterns, err := parseCustomPatterns(*customPatterns)
			if err != nil {
				visitErr = err
				return
			}
			cfg.CustomPatterns = patterns
		case "skip-count":
			cfg.SkipCount = *skipCount
		case "no-progress":
			cfg.NoProgress = *noProgress
		}
	})
	if visitErr != nil {
		return nil, visitErr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.StartPaths) == 0 {
		return fmt.Errorf("at least one start path is required")
	}
	if c.ConcurrencyLevel < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.ConcurrencyLevel)
	}
	switch c.NiceLevel {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("invalid nice level %q", c.NiceLevel)
	}
	for name, expr := range c.CustomPatterns {
		if name == "" {
			return fmt.Errorf("custom pattern with empty name")
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("custom pattern %q: %w", name, err)
		}
	}
	return nil
}

func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseCustomPatterns(s string) (map[string]string, error) {
	patterns := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return patterns, nil
	}
	if err := json.Unmarshal([]byte(s), &patterns); err != nil {
		return nil, fmt.Errorf("parse custom patterns: %w", err)
	}
	return patterns, nil
}
