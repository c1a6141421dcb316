// Package compose defines the two compose artifacts shipped to a BigBoat
// dashboard and validates their content before upload. All functions are
// pure: content in, error out, no I/O.
package compose

// Artifact document keys as the dashboard names them.
const (
	KeyDockerCompose  = "dockerCompose"
	KeyBigboatCompose = "bigboatCompose"
)

// Artifact pairs the remote document key of a compose artifact with its
// local file name.
type Artifact struct {
	Key  string // remote document name, e.g. "dockerCompose"
	File string // local file name, e.g. "docker-compose.yml"
}

// Artifacts returns the artifact catalog in upload order. The docker compose
// file always precedes the bigboat compose file; an upload succeeds only if
// both are accepted.
func Artifacts() []Artifact {
	return []Artifact{
		{Key: KeyDockerCompose, File: "docker-compose.yml"},
		{Key: KeyBigboatCompose, File: "bigboat-compose.yml"},
	}
}
