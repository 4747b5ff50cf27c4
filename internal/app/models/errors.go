package models

import "errors"

// Domain specific errors shared by the backend client, handlers and services.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrUnauthenticated = errors.New("authentication required or session expired")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownResource = errors.New("unknown resource")
)
