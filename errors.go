package focuspulse

import "errors"

// ErrNotFound marks lookups for sessions that do not exist or users with no
// matching running session. Handlers map it to a 404.
var ErrNotFound = errors.New("not found")

// ValidationError marks missing or malformed request fields. Handlers map
// it to a 400.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func Invalid(msg string) error {
	return ValidationError{Message: msg}
}
