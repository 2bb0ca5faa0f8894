package identity

import "errors"

// Identity errors.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrEmailRequired     = errors.New("email is required")
	ErrEmptyUpdate       = errors.New("nothing to update")
	ErrInvalidCredential = errors.New("invalid credential")
)
