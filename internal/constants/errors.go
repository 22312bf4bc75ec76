package constants

import "errors"

// Configuration errors.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrMerchantIDRequired   = errors.New("merchant ID is required")
	ErrTPLAuthTokenRequired = errors.New("3PL auth token is required, set tpl.auth_token")
	ErrInvalidTokenType     = errors.New("invalid access token type, use personal or oauth")
	ErrNoAccessToken        = errors.New("no access token configured, use 'fulfil configure' to add one")
)

// Validation errors.
var (
	ErrInvalidCondition  = errors.New("condition must be written as field,operator,value")
	ErrInvalidAssignment = errors.New("assignment must be written as name=value")
	ErrInvalidOutput     = errors.New("invalid output format, use table, json or yaml")
	ErrModelRequired     = errors.New("model name is required")
	ErrIDRequired        = errors.New("resource id is required")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
)

// Command errors.
var (
	ErrUpdateFailed = errors.New("update failed")
)

// File system errors.
var (
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
)
