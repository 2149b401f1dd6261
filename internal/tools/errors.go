package tools

import "errors"

var (
	// ErrToolNotInstalled indicates that the required tool could not be found.
	ErrToolNotInstalled = errors.New("tool not installed")

	// ErrToolPermissionRequired indicates that the tool needs elevated privileges.
	ErrToolPermissionRequired = errors.New("tool requires elevated privileges")

	// ErrToolCheck indicates that the availability probe itself failed.
	ErrToolCheck = errors.New("tool check failed")
)
