package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrMissingColumns  = errors.New("roster source is missing required columns")
	ErrNoCredentials   = errors.New("no credentials configured")
	ErrInvalidArgument = errors.New("invalid argument")
)
