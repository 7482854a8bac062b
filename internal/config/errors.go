package config

import "errors"

var (
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
	// ErrEmptyTenant is returned when no tenant is configured
	ErrEmptyTenant = errors.New("tenant cannot be empty")
	// ErrInvalidLogLevel is returned for an unknown log level name
	ErrInvalidLogLevel = errors.New("log level must be one of debug, info, warn, error")
	// ErrInvalidLogRotation is returned when a log file is configured with no rotation size
	ErrInvalidLogRotation = errors.New("log max_size_mb must be greater than 0 when a log file is set")
)
