package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrMalformedResponse     = errors.New("malformed upstream response")
	ErrProfileUpdateFailed   = errors.New("failed to update profile")
)

// ProfileUpdateError is returned by every failed profile update after the
// caller was authenticated. Its message is stable; the cause stays reachable
// through errors.Is and errors.As.
type ProfileUpdateError struct {
	Cause error
}

func (e *ProfileUpdateError) Error() string {
	return ErrProfileUpdateFailed.Error()
}

func (e *ProfileUpdateError) Unwrap() error {
	return e.Cause
}

func (e *ProfileUpdateError) Is(target error) bool {
	return target == ErrProfileUpdateFailed
}
