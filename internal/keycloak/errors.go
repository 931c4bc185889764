package keycloak

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when the provider rejects a password grant.
var ErrInvalidCredentials = errors.New("invalid credentials")

// APIError describes a failed or malformed call to the identity provider. Body
// carries the provider's response for diagnostics.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("keycloak %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("keycloak %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("keycloak %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Detail returns the most useful diagnostic for callers.
func (e *APIError) Detail() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Error()
}
