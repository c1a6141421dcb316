package bigboat

import (
	"context"
	"fmt"
)

// ClientV2 talks to the authenticated v2 dashboard API. It is the only
// client with the Mutator capability.
type ClientV2 struct {
	rest
}

var _ Mutator = (*ClientV2)(nil)

// NewV2 creates a v2 client bound to the site's API key.
func NewV2(cfg Config) *ClientV2 {
	return &ClientV2{rest: newRest(cfg, "/api/v2")}
}

// ProtocolVersion returns "v2".
func (c *ClientV2) ProtocolVersion() string {
	return "v2"
}

// GetApp fetches an application version. Absence is (nil, nil).
func (c *ClientV2) GetApp(ctx context.Context, name, version string) (*Application, error) {
	var app Application
	found, err := c.getJSON(ctx, "get application", appPath(name, version), &app)
	if err != nil || !found {
		return nil, err
	}
	fillApp(&app, name, version)
	return &app, nil
}

// UpdateApp registers the application version, creating it when absent.
func (c *ClientV2) UpdateApp(ctx context.Context, name, version string) (*Application, error) {
	var app Application
	if _, err := c.putJSON(ctx, "update application", appPath(name, version), nil, &app); err != nil {
		return nil, err
	}
	// An accepted request with an empty body still means the application
	// exists now.
	fillApp(&app, name, version)
	return &app, nil
}

// UpdateCompose stores one compose document under fileName for the
// application version.
func (c *ClientV2) UpdateCompose(ctx context.Context, name, version, fileName, content string) error {
	path := fmt.Sprintf("%s/files/%s", appPath(name, version), seg(fileName))
	return c.putText(ctx, "update compose file", path, content)
}

// GetInstance fetches a running instance. Absence is (nil, nil).
func (c *ClientV2) GetInstance(ctx context.Context, name string) (*Instance, error) {
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
func (c *ClientV2) DeleteInstance(ctx context.Context, name string) error {
	return c.del(ctx, "delete instance", instancePath(name))
}

// UpdateInstance creates or recreates an instance of the application version.
// A response without an instance yields (nil, nil); the caller decides how
// fatal that is.
func (c *ClientV2) UpdateInstance(ctx context.Context, instanceName, name, version string, parameters map[string]string) (*Instance, error) {
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

func appPath(name, version string) string {
	return fmt.Sprintf("/apps/%s/%s", seg(name), seg(version))
}

func instancePath(name string) string {
	return fmt.Sprintf("/instances/%s", seg(name))
}

func fillApp(app *Application, name, version string) {
	if app.Name == "" {
		app.Name = name
	}
	if app.Version == "" {
		app.Version = version
	}
}
