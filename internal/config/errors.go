package config

import "errors"

var (
	// ErrNotFound indicates no config file exists in the search path.
	ErrNotFound = errors.New("no config file found")

	// ErrNoConfigDir indicates the user config directory could not be determined.
	ErrNoConfigDir = errors.New("cannot determine config directory")

	// ErrConflictingOutput indicates more than one exclusive output mode is enabled.
	ErrConflictingOutput = errors.New("only one of tui, json and csv may be enabled")

	// ErrInvalidValue indicates a numeric setting out of range.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrUnknownRecordType indicates an unsupported dns.record_type.
	ErrUnknownRecordType = errors.New("unknown DNS record type")

	// ErrUnknownService indicates an unsupported geo.service.
	ErrUnknownService = errors.New("unknown geolocation service")
)
