package services

import "errors"

var (
	// ErrInvalidCredentials is returned on login failure. It deliberately
	// does not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidResetToken is returned when a reset token is unknown,
	// already used, or past its expiry.
	ErrInvalidResetToken = errors.New("invalid or expired token")

	// ErrForbidden is returned when a user acts on a resource they do
	// not own.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
