package bigboat

import (
	"context"
	"fmt"
	"net/http"
)

// ClientV1 talks to the legacy unauthenticated v1 dashboard API. It can read
// applications and manage instances, but application registration and
// compose uploads do not exist on this protocol version, so it deliberately
// does not implement Mutator.
type ClientV1 struct {
	rest
}

var _ Client = (*ClientV1)(nil)

// NewV1 creates a v1 client. Any API key in the configuration is ignored;
// the legacy API has no authentication.
func NewV1(cfg Config) *ClientV1 {
	cfg.APIKey = ""
	return &ClientV1{rest: newRest(cfg, "/api/v1")}
}

// ProtocolVersion returns "v1".
func (c *ClientV1) ProtocolVersion() string {
	return "v1"
}

// GetApp checks whether the application version is known to the dashboard.
// The legacy endpoint serves the stored definition as a raw document, so
// only existence is derived from it. Absence is (nil, nil).
func (c *ClientV1) GetApp(ctx context.Context, name, version string) (*Application, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/appdef/%s/%s", seg(name), seg(version)), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return &Application{Name: name, Version: version}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.remoteErr("get application", resp)
	}
}

// GetInstance fetches a running instance. Absence is (nil, nil).
func (c *ClientV1) GetInstance(ctx context.Context, name string) (*Instance, error) {
	var instance Instance
	found, err := c.getJSON(ctx, "get instance", instancePath(name), &instance)
	if err != nil || !found {
		return nil, err
	}
	if instance.Name == "" {
		instance.Name = name
	}
	return &instance, nil
}

// DeleteInstance requests teardown of an instance.
func (c *ClientV1) DeleteInstance(ctx context.Context, name string) error {
	return c.del(ctx, "delete instance", instancePath(name))
}

// UpdateInstance creates or recreates an instance of the application version.
func (c *ClientV1) UpdateInstance(ctx context.Context, instanceName, name, version string, parameters map[string]string) (*Instance, error) {
	payload := updateInstanceRequest{
		App:        name,
		Version:    version,
		Parameters: parameters,
	}
	var instance Instance
	found, err := c.putJSON(ctx, "update instance", instancePath(instanceName), payload, &instance)
	if err != nil || !found {
		return nil, err
	}
	if instance.Name == "" {
		instance.Name = instanceName
	}
	return &instance, nil
}
