// Package uploader owns one site's deployment lifecycle: protocol
// negotiation, compose file synchronization and the stop/recreate state
// machine that brings an instance to a known state.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gros-tools/bigboat-upload/internal/core/compose"
	"github.com/gros-tools/bigboat-upload/internal/core/sitecfg"
	"github.com/gros-tools/bigboat-upload/internal/shell/bigboat"
)

const (
	// DefaultPollInterval is the wait between presence checks while an old
	// instance is being torn down.
	DefaultPollInterval = 2 * time.Second

	// placeholderKey is sent as BIGBOAT_KEY when no API key was resolved.
	// Restarting does not require mutation credentials; some deployments
	// recreate instances without full API access.
	placeholderKey = "-"
)

// Config holds the construction parameters of an Uploader.
type Config struct {
	// Site is the logical deployment target.
	Site string

	// Key is an explicit API key override. It wins over the key from the
	// settings document.
	Key string

	// Options is the resolved option record for the site.
	Options sitecfg.Options

	// ComposeDir is the base directory for the compose files. Empty means
	// the working directory.
	ComposeDir string

	// PollInterval overrides DefaultPollInterval, mainly for tests.
	PollInterval time.Duration

	// StopTimeout bounds the wait for an old instance to disappear. Zero
	// preserves the original behavior: wait forever.
	StopTimeout time.Duration

	Logger *slog.Logger
}

// Uploader deploys one application to one site. It binds to the site for
// its whole lifetime; the dashboard client is negotiated once, on first
// use, and shared by every operation of the run.
type Uploader struct {
	site         string
	key          string
	opts         sitecfg.Options
	composeDir   string
	pollInterval time.Duration
	stopTimeout  time.Duration
	logger       *slog.Logger

	// newClient is swapped out by tests.
	newClient func(cfg bigboat.Config, v1 bool) bigboat.Client
	client    bigboat.Client
}

// New creates an Uploader bound to one site.
func New(cfg Config) *Uploader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	return &Uploader{
		site:         cfg.Site,
		key:          cfg.Key,
		opts:         cfg.Options,
		composeDir:   cfg.ComposeDir,
		pollInterval: pollInterval,
		stopTimeout:  cfg.StopTimeout,
		logger:       logger,
		newClient: func(ccfg bigboat.Config, v1 bool) bigboat.Client {
			if v1 {
				return bigboat.NewV1(ccfg)
			}
			return bigboat.NewV2(ccfg)
		},
	}
}

// =============================================================================
// Client Negotiation
// =============================================================================

// Client returns the dashboard client for the site, creating it on first
// use. A resolved key selects the v2 client unless the site options force
// v1; without a key only the legacy v1 client is possible. The Uploader is
// used from a single goroutine, so plain memoization suffices.
func (u *Uploader) Client() bigboat.Client {
	if u.client != nil {
		return u.client
	}

	key := u.resolveKey()
	useV1 := key == "" || u.opts.V1

	protocol := "v2"
	if useV1 {
		protocol = "v1"
	}
	u.logger.Info("setting up dashboard client",
		"site", u.site,
		"protocol", protocol,
	)

	cfg := bigboat.Config{
		Site:   u.site,
		Host:   u.opts.RemoteSite,
		Logger: u.logger,
	}
	if !useV1 {
		cfg.APIKey = key
	}
	u.client = u.newClient(cfg, useV1)
	return u.client
}

// resolveKey returns the API key for the site: the explicit override wins,
// then the settings document, then none.
func (u *Uploader) resolveKey() string {
	if u.key != "" {
		return u.key
	}
	return u.opts.Key
}

// =============================================================================
// Compose Upload
// =============================================================================

// Upload synchronizes both compose artifacts for the application version,
// registering the application first when the dashboard does not know it.
// The first failure aborts the whole upload; nothing is rolled back.
func (u *Uploader) Upload(ctx context.Context, name, version string) error {
	api, ok := u.Client().(bigboat.Mutator)
	if !ok {
		return fmt.Errorf("cannot upload compose files to %s: %w", u.site, ErrReadOnlyClient)
	}

	app, err := api.GetApp(ctx, name, version)
	if err != nil {
		return fmt.Errorf("check application %s/%s: %w", name, version, err)
	}
	if app == nil {
		u.logger.Warn("application not on dashboard, creating",
			"site", u.site,
			"name", name,
			"version", version,
		)
		if _, err := api.UpdateApp(ctx, name, version); err != nil {
			return fmt.Errorf("create application %s/%s: %w", name, version, err)
		}
	}

	for _, artifact := range compose.Artifacts() {
		path := artifact.File
		if u.composeDir != "" {
			path = filepath.Join(u.composeDir, artifact.File)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read compose file: %w", err)
		}
		content := string(data)

		if err := compose.Validate(artifact, name, version, content); err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		if err := api.UpdateCompose(ctx, name, version, artifact.Key, content); err != nil {
			return fmt.Errorf("upload %s: %w", artifact.File, err)
		}
		u.logger.Info("uploaded compose file",
			"site", u.site,
			"file", artifact.File,
			"name", name,
			"version", version,
		)
	}

	return nil
}

// =============================================================================
// Instance Start / Restart
// =============================================================================

// Start ensures exactly one running instance of the application version
// under instanceName, which defaults to the site's instance option and then
// to the application name. With stop set, a previously running instance is
// deleted first and the dashboard is polled until it reports the instance
// gone; recreating over a live instance risks port and resource collisions.
// With stop unset the caller asserts no conflicting instance exists.
func (u *Uploader) Start(ctx context.Context, name, version, instanceName string, stop bool) error {
	if instanceName == "" {
		instanceName = u.opts.Instance
	}
	if instanceName == "" {
		instanceName = name
	}

	api := u.Client()

	if stop {
		if err := u.awaitStopped(ctx, api, instanceName); err != nil {
			return err
		}
	}

	key := u.resolveKey()
	if key == "" {
		key = placeholderKey
	}
	parameters := map[string]string{
		"BIGBOAT_HOST": u.site,
		"BIGBOAT_KEY":  key,
	}
	for k, v := range u.opts.Params {
		parameters[k] = v
	}

	instance, err := api.UpdateInstance(ctx, instanceName, name, version, parameters)
	if err != nil {
		return fmt.Errorf("start instance %s: %w", instanceName, err)
	}
	if instance == nil {
		return fmt.Errorf("instance %s on %s: %w", instanceName, u.site, ErrStartFailed)
	}

	u.logger.Info("instance started",
		"site", u.site,
		"instance", instanceName,
		"name", name,
		"version", version,
	)
	return nil
}

// awaitStopped tears down a present instance and waits for the dashboard to
// report it gone. Deletion is asynchronous on the dashboard; exactly one
// delete is issued and only presence is re-checked afterwards. Without a
// stop timeout the wait is unbounded, the liveness of this loop rests
// entirely on the dashboard eventually converging.
func (u *Uploader) awaitStopped(ctx context.Context, api bigboat.Client, instanceName string) error {
	instance, err := api.GetInstance(ctx, instanceName)
	if err != nil {
		return fmt.Errorf("check instance %s: %w", instanceName, err)
	}
	if instance == nil {
		return nil
	}

	if err := api.DeleteInstance(ctx, instanceName); err != nil {
		return fmt.Errorf("delete instance %s: %w", instanceName, err)
	}
	u.logger.Info("waiting for instance to stop",
		"site", u.site,
		"instance", instanceName,
	)

	var deadline <-chan time.Time
	if u.stopTimeout > 0 {
		timer := time.NewTimer(u.stopTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(u.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for instance %s to stop: %w", instanceName, ctx.Err())
		case <-deadline:
			return fmt.Errorf("instance %s on %s: %w", instanceName, u.site, ErrStopTimeout)
		case <-ticker.C:
			instance, err := api.GetInstance(ctx, instanceName)
			if err != nil {
				return fmt.Errorf("check instance %s: %w", instanceName, err)
			}
			if instance == nil {
				return nil
			}
			u.logger.Debug("instance still present",
				"site", u.site,
				"instance", instanceName,
			)
		}
	}
}
