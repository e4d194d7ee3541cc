package constants

import "errors"

// Configuration errors.
var (
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrInvalidOutput    = errors.New("invalid output format, use table, json or yaml")
	ErrInvalidKeyValue  = errors.New("expected KEY=VALUE")
)

// Session errors.
var (
	ErrPasswordRequired = errors.New("password is required")
	ErrNoSessionToken   = errors.New("not logged in, use 'cub users login' first")
)
