package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds the resolved command line configuration. Sites are the
// positional arguments and live on the flag set, not here.
type Config struct {
	Keys        []string      `mapstructure:"keys"`
	Name        string        `mapstructure:"name"`
	Version     string        `mapstructure:"version"`
	Instance    string        `mapstructure:"instance"`
	Log         string        `mapstructure:"log"`
	LogFormat   string        `mapstructure:"log-format"`
	Start       bool          `mapstructure:"start"`
	NoStop      bool          `mapstructure:"no-stop"`
	Compose     string        `mapstructure:"compose"`
	Settings    string        `mapstructure:"settings"`
	StopTimeout time.Duration `mapstructure:"stop-timeout"`
	BuildInfo   bool          `mapstructure:"build-info"`
}

// newFlagSet defines the command line surface.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("bigboat-upload", pflag.ContinueOnError)
	flags.StringSlice("keys", nil, "API keys paired positionally with the sites")
	flags.String("name", "gros-data-gathering-agent", "Name of the application")
	flags.String("version", "1", "Version number of the application")
	flags.String("instance", "", "Name of the instance (defaults to the application name)")
	flags.String("log", "INFO", "Log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.Bool("start", false, "Restart the instance after uploading")
	flags.Bool("no-stop", false, "Do not wait for a running instance to stop before recreating it")
	flags.String("compose", "", "Directory containing the compose files")
	flags.String("settings", "settings.yml", "Path to the site settings file")
	flags.Duration("stop-timeout", 0, "Maximum time to wait for an instance to stop (0 waits forever)")
	flags.Bool("build-info", false, "Print version information and exit")
	return flags
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig resolves configuration from flags and BIGBOAT_* environment
// variables. Flags set on the command line take precedence over the
// environment, which takes precedence over flag defaults.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("BIGBOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch strings.ToUpper(cfg.Log) {
	case "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.Log)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.Log) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARNING":
		level = slog.LevelWarn
	case "ERROR", "CRITICAL":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
