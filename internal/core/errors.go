package core

import "errors"

// Error kinds surfaced to the HTTP boundary. Wrap them with fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("invalid credentials")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrUpstreamFetch = errors.New("remote fetch failed")
	ErrUserExists    = errors.New("user already exists")
	ErrObjectExists  = errors.New("object already exists")
)
