package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// Validate checks artifact content before it is sent to a dashboard. The
// docker compose document must load as a compose project with at least one
// service; the bigboat compose document must be a well-formed mapping and,
// where it names the application, must match the upload target.
func Validate(artifact Artifact, name, version, content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError(artifact.Key, "artifact is empty", ErrEmptyArtifact)
	}

	switch artifact.Key {
	case KeyDockerCompose:
		return validateDockerCompose(content)
	case KeyBigboatCompose:
		return validateBigboatCompose(name, version, content)
	default:
		return NewValidationError(artifact.Key, "artifact is not recognized", ErrUnknownArtifact)
	}
}

func validateDockerCompose(content string) error {
	// Parse YAML into a map first so syntax errors are reported uniformly.
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &dict); err != nil {
		return NewValidationError(KeyDockerCompose, "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return NewValidationError(KeyDockerCompose, "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(content),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("bigboat-upload-check", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return NewValidationError(KeyDockerCompose, err.Error(), ErrInvalidYAML)
	}

	if len(project.Services) == 0 {
		return NewValidationError(KeyDockerCompose, "no services defined", ErrNoServices)
	}

	return nil
}

// bigboatDocument is the subset of the bigboat compose format checked here.
// The dashboard owns the full schema; locally we only verify shape and that
// the document targets the application being uploaded.
type bigboatDocument struct {
	Name    any `yaml:"name"`
	Version any `yaml:"version"`
}

func validateBigboatCompose(name, version, content string) error {
	var doc bigboatDocument
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return NewValidationError(KeyBigboatCompose, "invalid YAML syntax", ErrInvalidYAML)
	}

	if doc.Name != nil && fmt.Sprint(doc.Name) != name {
		return NewValidationError(KeyBigboatCompose,
			fmt.Sprintf("document is for application %v, uploading %s", doc.Name, name),
			ErrTargetMismatch)
	}
	if doc.Version != nil && fmt.Sprint(doc.Version) != version {
		return NewValidationError(KeyBigboatCompose,
			fmt.Sprintf("document is for version %v, uploading %s", doc.Version, version),
			ErrTargetMismatch)
	}

	return nil
}
