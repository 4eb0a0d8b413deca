package domain

import "errors"

// Sentinel errors for the lifecycle taxonomy. Handlers map these to
// HTTP status codes; repositories translate storage-level failures
// (e.g. unique violations) into them.
var (
	// ErrNotFound indicates the id did not resolve to a record
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation on create or restore
	ErrConflict = errors.New("already exists")

	// ErrInvalidState indicates an operation on a record in the wrong
	// state, such as restoring a non-Deleted audit entry
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidCredentials is the uniform login failure; it never
	// reveals whether the username or the password was wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports missing or malformed input; the operation
// is not attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
