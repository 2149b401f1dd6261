// Package tools detects whether the external diagnostic programs are
// installed and usable on the current machine.
package tools

import "fmt"

// State is the availability state of a tool.
type State string

const (
	Ready              State = "ready"
	NotInstalled       State = "not_installed"
	PermissionRequired State = "permission_required"
	PermissionError    State = "permission_error"
	CheckError         State = "check_error"
)

// Status describes a single availability check. It is recomputed on
// every call.
type Status struct {
	Tool          string `json:"tool"`
	Installed     bool   `json:"installed"`
	HasPermission bool   `json:"has_permission"`
	State         State  `json:"status"`
	Path          string `json:"path,omitempty"`
	Version       string `json:"version,omitempty"`
	Remediation   string `json:"remediation"`
	Error         string `json:"error,omitempty"`
}

// Usable reports whether the tool can be launched. A tool that needs
// privileges is still usable when the command elevates by itself.
func (s Status) Usable() bool {
	return s.State == Ready || s.State == PermissionRequired
}

// Err converts the status into a sentinel-wrapped error, or nil when the
// tool is ready.
func (s Status) Err() error {
	switch s.State {
	case Ready:
		return nil
	case NotInstalled:
		return fmt.Errorf("%s: %w", s.Tool, ErrToolNotInstalled)
	case PermissionRequired, PermissionError:
		return fmt.Errorf("%s: %w", s.Tool, ErrToolPermissionRequired)
	default:
		if s.Error != "" {
			return fmt.Errorf("%s: %w: %s", s.Tool, ErrToolCheck, s.Error)
		}
		return fmt.Errorf("%s: %w", s.Tool, ErrToolCheck)
	}
}
