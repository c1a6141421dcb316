package uploader

import "errors"

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrReadOnlyClient is returned when a compose upload is attempted
	// through the read-only v1 client. It signals a configuration problem,
	// no usable API key was resolved for the site, and is raised before
	// any file or network I/O.
	ErrReadOnlyClient = errors.New("client is read-only: compose uploads need a v2 API key")

	// ErrStartFailed is returned when the dashboard accepted the instance
	// update but reported no instance back.
	ErrStartFailed = errors.New("could not start instance")

	// ErrStopTimeout is returned when a stop deadline was configured and
	// the old instance was still present when it expired.
	ErrStopTimeout = errors.New("timed out waiting for instance to stop")
)
