// Package bigboat provides clients for the BigBoat dashboard API.
//
// Two protocol versions exist. The v1 API is the legacy unauthenticated
// surface: it can read applications and read, delete and recreate instances,
// but has no application or compose mutation endpoints. The v2 API
// authenticates with an API key and additionally supports registering
// applications and updating their compose files. Mutation-only operations
// live on the Mutator interface, implemented by the v2 client alone, so a
// caller holding a plain Client cannot attempt an upload by construction.
package bigboat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// Domain Types
// =============================================================================

// Application is a registered application version on a dashboard.
type Application struct {
	ID      string `json:"_id,omitempty"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Instance is a running deployment of an application version, addressed by
// its instance name.
type Instance struct {
	ID    string       `json:"_id,omitempty"`
	Name  string       `json:"name"`
	State string       `json:"state,omitempty"`
	App   *Application `json:"app,omitempty"`
}

// =============================================================================
// Capability Interfaces
// =============================================================================

// Client is the capability shared by both protocol versions. Absent
// applications and instances are reported as (nil, nil), not as errors.
type Client interface {
	// Site returns the logical site identity the client is bound to.
	Site() string

	// ProtocolVersion returns "v1" or "v2".
	ProtocolVersion() string

	// GetApp fetches an application version from the dashboard.
	GetApp(ctx context.Context, name, version string) (*Application, error)

	// GetInstance fetches a running instance by name.
	GetInstance(ctx context.Context, name string) (*Instance, error)

	// DeleteInstance requests teardown of an instance. Teardown is
	// asynchronous on the dashboard; callers poll GetInstance for absence.
	DeleteInstance(ctx context.Context, name string) error

	// UpdateInstance creates or recreates an instance of the application
	// version under instanceName with the given parameters.
	UpdateInstance(ctx context.Context, instanceName, name, version string, parameters map[string]string) (*Instance, error)
}

// Mutator is the mutation capability of the v2 API.
type Mutator interface {
	Client

	// UpdateApp registers the application version, creating it if needed.
	UpdateApp(ctx context.Context, name, version string) (*Application, error)

	// UpdateCompose stores one compose document under its remote name for
	// the application version.
	UpdateCompose(ctx context.Context, name, version, fileName, content string) error
}

// Config holds dashboard client configuration.
type Config struct {
	Site    string // logical site identity, used in errors and logs
	Host    string // host actually contacted; defaults to Site
	APIKey  string // v2 credential, ignored by the v1 client
	Timeout time.Duration
	Logger  *slog.Logger
}

// =============================================================================
// Shared HTTP Plumbing
// =============================================================================

// rest carries the HTTP state shared by both client versions.
type rest struct {
	site       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func newRest(cfg Config, basePath string) rest {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	host := cfg.Host
	if host == "" {
		host = cfg.Site
	}
	return rest{
		site:       cfg.Site,
		baseURL:    normalizeHost(host) + basePath,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// normalizeHost ensures the host carries a scheme and no trailing slash.
func normalizeHost(host string) string {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}

// Site returns the logical site identity the client is bound to.
func (r *rest) Site() string {
	return r.site
}

func (r *rest) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	return req, nil
}

// getJSON fetches path and decodes the response into out. It reports false
// without error when the dashboard answers 404.
func (r *rest) getJSON(ctx context.Context, op, path string, out any) (bool, error) {
	req, err := r.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.logger.Debug("entity absent", "site", r.site, "op", op)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, r.remoteErr(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// putJSON sends in as a JSON body and decodes the response into out when the
// dashboard returns one. It reports false when the response body is empty or
// null, which the callers treat as "no entity returned".
func (r *rest) putJSON(ctx context.Context, op, path string, in, out any) (bool, error) {
	payload := []byte("{}")
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := r.newRequest(ctx, http.MethodPut, path, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, r.remoteErr(op, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// putText sends a raw text document, used for compose file uploads.
func (r *rest) putText(ctx context.Context, op, path, content string) error {
	req, err := r.newRequest(ctx, http.MethodPut, path, strings.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return r.remoteErr(op, resp)
	}
}

// del issues a DELETE. A 404 counts as success: the entity is gone either way.
func (r *rest) del(ctx context.Context, op, path string) error {
	req, err := r.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return r.remoteErr(op, resp)
	}
}

func (r *rest) remoteErr(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &RemoteError{
		Site:   r.site,
		Op:     op,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}

func seg(s string) string {
	return url.PathEscape(s)
}

// updateInstanceRequest is the body of an instance create/recreate call.
type updateInstanceRequest struct {
	App        string            `json:"app"`
	Version    string            `json:"version"`
	Parameters map[string]string `json:"parameters"`
}
