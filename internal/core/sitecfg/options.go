// Package sitecfg resolves per-site deployment options from a settings
// document. Each site has a section of flat options; a reserved "default"
// section supplies values shared by every site. Resolution merges the two
// one level deep: mapping-valued options merge key by key with the site
// winning, scalar options from the site replace the default outright.
package sitecfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// defaultSection is the reserved section name for shared options.
const defaultSection = "default"

// Option keys recognized in a site section.
const (
	keyAPIKey     = "key"
	keyV1         = "v1"
	keyInstance   = "instance"
	keyParams     = "params"
	keyRemoteSite = "remote_site"
)

// =============================================================================
// Options
// =============================================================================

// Options is the resolved option record for one site.
type Options struct {
	// Key is the API token used to authenticate against the dashboard.
	Key string

	// V1 forces the legacy read-only client even when a key is present.
	// It is presence-based: any v1 option in the section sets it.
	V1 bool

	// Instance overrides the instance name, which otherwise defaults to
	// the application name.
	Instance string

	// Params are merged into the restart parameters of the instance.
	Params map[string]string

	// RemoteSite is an alternate host to connect to. The site name stays
	// the logical identity used for key lookup and BIGBOAT_HOST.
	RemoteSite string
}

// =============================================================================
// Settings Document
// =============================================================================

// Settings holds the loaded settings document.
type Settings struct {
	sections map[string]map[string]any
}

// Load reads the settings document at path. A missing file is not an error:
// every site then resolves to zero-value options, which selects the legacy
// v1 client unless an explicit key is supplied per invocation.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Settings{sections: map[string]map[string]any{}}, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	if sections == nil {
		sections = map[string]map[string]any{}
	}
	return &Settings{sections: sections}, nil
}

// Sites returns the configured non-default site names, sorted.
func (s *Settings) Sites() []string {
	sites := make([]string, 0, len(s.sections))
	for name := range s.sections {
		if name != defaultSection {
			sites = append(sites, name)
		}
	}
	sort.Strings(sites)
	return sites
}

// Resolve produces the option record for one site by merging the default
// section with the site's own section.
func (s *Settings) Resolve(site string) Options {
	return optionsFrom(Merge(s.sections[defaultSection], s.sections[site]))
}

// =============================================================================
// Merge
// =============================================================================

// Merge combines a default section with a site section one level deep.
// Scalar values from the site replace defaults outright; mapping values are
// merged key by key with the site winning per key. The inputs are never
// modified and the result shares no maps with them.
func Merge(def, site map[string]any) map[string]any {
	out := make(map[string]any, len(def)+len(site))
	for k, v := range def {
		if m, ok := asMap(v); ok {
			out[k] = cloneMap(m)
		} else {
			out[k] = v
		}
	}
	for k, v := range site {
		sm, ok := asMap(v)
		if !ok {
			out[k] = v
			continue
		}
		dm, ok := asMap(out[k])
		if !ok {
			out[k] = cloneMap(sm)
			continue
		}
		for sk, sv := range sm {
			dm[sk] = sv
		}
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// optionsFrom decodes a merged section into an Options record.
func optionsFrom(section map[string]any) Options {
	opts := Options{}
	if v, ok := section[keyAPIKey]; ok {
		opts.Key = scalar(v)
	}
	_, opts.V1 = section[keyV1]
	if v, ok := section[keyInstance]; ok {
		opts.Instance = scalar(v)
	}
	if v, ok := section[keyRemoteSite]; ok {
		opts.RemoteSite = scalar(v)
	}
	if m, ok := asMap(section[keyParams]); ok {
		opts.Params = make(map[string]string, len(m))
		for k, v := range m {
			opts.Params[k] = scalar(v)
		}
	}
	return opts
}

func scalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
