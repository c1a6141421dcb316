package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gros-tools/bigboat-upload/internal/core/sitecfg"
)

// =============================================================================
// Run Configuration
// =============================================================================

// RunConfig controls a deployment run across sites.
type RunConfig struct {
	// Name and Version identify the application being deployed.
	Name    string
	Version string

	// Instance overrides the instance name for the start phase. Empty
	// falls back to the site's instance option, then the application name.
	Instance string

	// Start recreates the instance after the upload.
	Start bool

	// Stop tears down a running instance before recreation. Ignored
	// unless Start is set.
	Stop bool

	// ComposeDir is the base directory for the compose files.
	ComposeDir string

	// PollInterval and StopTimeout tune the stop-poll loop; zero values
	// keep the defaults.
	PollInterval time.Duration
	StopTimeout  time.Duration
}

// Target pairs a site with an optional explicit API key.
type Target struct {
	Site string
	Key  string
}

// Targets pairs sites with keys positionally. Sites beyond the key list get
// no explicit key and fall back to the settings document.
func Targets(sites, keys []string) []Target {
	targets := make([]Target, 0, len(sites))
	for i, site := range sites {
		target := Target{Site: site}
		if i < len(keys) {
			target.Key = keys[i]
		}
		targets = append(targets, target)
	}
	return targets
}

// =============================================================================
// Runner
// =============================================================================

// Runner drives one Uploader through upload and optional start, one site at
// a time. Sites are independent: no state crosses runs except the immutable
// settings document.
type Runner struct {
	cfg      RunConfig
	settings *sitecfg.Settings
	logger   *slog.Logger

	// newUploader is swapped out by tests.
	newUploader func(cfg Config) *Uploader
}

// NewRunner creates a Runner for one deployment run.
func NewRunner(cfg RunConfig, settings *sitecfg.Settings, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:         cfg,
		settings:    settings,
		logger:      logger,
		newUploader: New,
	}
}

// Run deploys to a single site: resolve its options, upload both compose
// files, and recreate the instance when the run asks for it. A failure of
// either phase aborts this site only.
func (r *Runner) Run(ctx context.Context, target Target) error {
	up := r.newUploader(Config{
		Site:         target.Site,
		Key:          target.Key,
		Options:      r.settings.Resolve(target.Site),
		ComposeDir:   r.cfg.ComposeDir,
		PollInterval: r.cfg.PollInterval,
		StopTimeout:  r.cfg.StopTimeout,
		Logger:       r.logger,
	})

	if err := up.Upload(ctx, r.cfg.Name, r.cfg.Version); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if !r.cfg.Start {
		return nil
	}
	if err := up.Start(ctx, r.cfg.Name, r.cfg.Version, r.cfg.Instance, r.cfg.Stop); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// Deploy runs every target independently; one site's failure never prevents
// the remaining sites from being attempted. The per-site failures are
// reported joined; a nil result means every site succeeded.
func (r *Runner) Deploy(ctx context.Context, targets []Target) error {
	var errs []error
	for _, target := range targets {
		r.logger.Info("deploying",
			"site", target.Site,
			"name", r.cfg.Name,
			"version", r.cfg.Version,
		)
		if err := r.Run(ctx, target); err != nil {
			r.logger.Error("site deployment failed",
				"site", target.Site,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", target.Site, err))
		}
	}
	return errors.Join(errs...)
}
