package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/gros-tools/bigboat-upload/internal/core/sitecfg"
	"github.com/gros-tools/bigboat-upload/internal/shell/uploader"
)

// Exit codes of the process.
const (
	ExitSuccess     = 0
	ExitRunFailure  = 1
	ExitConfigError = 2
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return ExitConfigError
	}

	cfg, err := LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	if cfg.BuildInfo {
		fmt.Printf("bigboat-upload %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	logger := SetupLogger(cfg).With("run_id", uuid.NewString())

	settings, err := sitecfg.Load(cfg.Settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	targets := uploader.Targets(flags.Args(), cfg.Keys)
	if len(targets) == 0 {
		sites := settings.Sites()
		logger.Info("no sites given, deploying to configured sites", "sites", sites)
		for _, site := range sites {
			targets = append(targets, uploader.Target{Site: site})
		}
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "no sites to deploy to: pass sites or provide a settings file")
		return ExitConfigError
	}

	runner := uploader.NewRunner(uploader.RunConfig{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Instance:    cfg.Instance,
		Start:       cfg.Start,
		Stop:        !cfg.NoStop,
		ComposeDir:  cfg.Compose,
		StopTimeout: cfg.StopTimeout,
	}, settings, logger)

	if err := runner.Deploy(context.Background(), targets); err != nil {
		logger.Error("deployment failed", "error", err)
		return ExitRunFailure
	}

	logger.Info("deployment finished",
		"name", cfg.Name,
		"version", cfg.Version,
		"sites", len(targets),
	)
	return ExitSuccess
}
