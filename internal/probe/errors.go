package probe

import (
	"errors"
	"strings"
)

// Probe-related errors.
var (
	// ErrUnsupportedRecordType indicates a DNS record type outside A, AAAA, CNAME, MX, TXT, NS
	ErrUnsupportedRecordType = errors.New("unsupported DNS record type")

	// ErrInvalidDNSServer indicates the DNS server is not an IP address
	ErrInvalidDNSServer = errors.New("invalid DNS server address")

	// ErrInvalidTarget indicates a host that is neither an IP nor a valid hostname
	ErrInvalidTarget = errors.New("invalid target")

	// ErrPingFailed indicates ping produced no usable statistics
	ErrPingFailed = errors.New("ping failed")

	// ErrMissingCommand indicates the command table lacks an entry for a platform
	ErrMissingCommand = errors.New("no command for platform")

	// ErrNoRecords indicates the DNS answer held no records of the requested type
	ErrNoRecords = errors.New("no records found")

	// ErrNoHops indicates the tool ran but no hop could be parsed
	ErrNoHops = errors.New("no hops in tool output")
)

// permissionMarkers appear in tool output when raw sockets are denied.
var permissionMarkers = []string{
	"Failure to open",
	"Permission denied",
	"需要管理员权限",
}

// IsPermissionOutput reports whether tool output indicates missing privileges.
func IsPermissionOutput(output string) bool {
	for _, marker := range permissionMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
