package errors

import "errors"

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidAPIType = errors.New("unrecognized api type")
	ErrInvalidLimit   = errors.New("daily limit out of range")
	ErrInvalidDate    = errors.New("invalid date")
	ErrStorage        = errors.New("storage unavailable")
	ErrUnauthorized   = errors.New("insufficient permission")
)

type Error struct {
	Err     error
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
		Code:    "INTERNAL_ERROR",
	}
}

// WrapStorage marks err as a retryable storage failure so callers can apply
// their configured fail-open/fail-closed policy. The quota decision is never
// guessed on behalf of the caller.
func WrapStorage(err error, message string) *Error {
	return &Error{
		Err:     errors.Join(ErrStorage, err),
		Message: message,
		Code:    "STORAGE_ERROR",
	}
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}
