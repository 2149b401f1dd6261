// Package platform identifies the operating system family that decides
// which diagnostic commands are run and how their output is parsed.
package platform

import "runtime"

// OS is an operating system family.
type OS int

const (
	// Linux covers every Linux distribution.
	Linux OS = iota
	// Darwin is macOS.
	Darwin
	// Windows is Microsoft Windows.
	Windows
	// Unsupported is anything else (BSDs, Plan 9, ...).
	Unsupported
)

// String returns the string representation of the OS family.
func (o OS) String() string {
	switch o {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case Windows:
		return "windows"
	default:
		return "unsupported"
	}
}

// IsUnix reports whether the family uses the Unix tool flavours.
func (o OS) IsUnix() bool {
	return o == Linux || o == Darwin
}

// Parse converts a GOOS value to an OS family.
func Parse(goos string) OS {
	switch goos {
	case "linux", "android":
		return Linux
	case "darwin":
		return Darwin
	case "windows":
		return Windows
	default:
		return Unsupported
	}
}

// Current returns the family of the running binary.
func Current() OS {
	return Parse(runtime.GOOS)
}

// All returns the supported families.
func All() []OS {
	return []OS{Linux, Darwin, Windows}
}
