package config

import "errors"

// Configuration errors returned by LoadFile and Validate.
// Validate wraps them with the offending value, so match with errors.Is.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidURLTemplate is returned when the URL template is empty, is not
	// an http(s) URL, or lacks the {page} placeholder.
	ErrInvalidURLTemplate = errors.New("invalid url template: must be an http(s) URL containing {page}")

	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidPageCeiling is returned when the page ceiling is not positive.
	ErrInvalidPageCeiling = errors.New("invalid page ceiling: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the per-page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidOutputPath is returned when no output path is set.
	ErrInvalidOutputPath = errors.New("invalid output path: must not be empty")

	// ErrInvalidUserAgent is returned when no User-Agent is set.
	ErrInvalidUserAgent = errors.New("invalid user agent: must not be empty")

	// ErrInvalidLogLevel is returned for a level other than debug, info, warn or error.
	ErrInvalidLogLevel = errors.New("invalid log level: must be one of debug, info, warn, error")

	// ErrInvalidPushgatewayURL is returned when the Pushgateway URL is set but not a URL.
	ErrInvalidPushgatewayURL = errors.New("invalid pushgateway url")
)
