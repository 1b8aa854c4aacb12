package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAuthorizationExpired is returned when the device code expired or the user
// denied the request. Callers can check for it using errors.Is and ask the
// user to re-run authentication.
var ErrAuthorizationExpired = errors.New("device authorization expired or was denied")

// ErrCredentialMissing is returned when the token endpoint reports success but
// the response carries no access token.
var ErrCredentialMissing = errors.New("server reported success without an access token")

// ErrCancelled is returned when the user declines the approval prompt.
// It is a normal outcome, not a failure.
var ErrCancelled = errors.New("authentication cancelled by user")

// RequestError is returned when the token endpoint rejects the request itself
// with field-level validation errors. Retrying an identical malformed request
// cannot succeed, so a RequestError is always terminal.
type RequestError struct {
	Fields map[string][]string
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return "token endpoint rejected the request"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("token endpoint rejected the request: invalid fields %s", strings.Join(names, ", "))
}
