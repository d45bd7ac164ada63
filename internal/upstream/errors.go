package upstream

import (
	"errors"
	"fmt"
)

// ErrTransport wraps network failures and unparseable bodies
var ErrTransport = errors.New("upstream transport error")

// APIError is a failure the upstream reported, either through a non-2xx
// status or a {success:false} body.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
	Reported   bool // true when the body said success:false on a 2xx
}

func (e *APIError) Error() string {
	if e.Reported {
		return fmt.Sprintf("upstream %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
