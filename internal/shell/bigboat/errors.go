package bigboat

import "fmt"

// RemoteError reports a request the dashboard accepted but rejected with a
// failure status. It is fatal for the current site's run; the caller does
// not retry it.
type RemoteError struct {
	Site   string // logical site identity
	Op     string // operation, e.g. "update compose file"
	Status int    // HTTP status code
	Body   string // response body, trimmed
}

func (e *RemoteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: unexpected status %d: %s", e.Site, e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %s: unexpected status %d", e.Site, e.Op, e.Status)
}
