// Package probe runs ping, DNS, HTTP, MTR and traceroute tests and turns
// their raw output into structured results.
package probe

// Kind represents the type of test to run.
type Kind int

const (
	// KindPing runs the system ping command
	KindPing Kind = iota
	// KindDNS queries a DNS server directly
	KindDNS
	// KindHTTP issues a single HTTP request
	KindHTTP
	// KindMTR runs mtr, or pathping on Windows
	KindMTR
	// KindTraceroute runs traceroute, or tracert on Windows
	KindTraceroute
)

// String returns the string representation of the test kind.
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindDNS:
		return "dns"
	case KindHTTP:
		return "http"
	case KindMTR:
		return "mtr"
	case KindTraceroute:
		return "traceroute"
	default:
		return "unknown"
	}
}

// usesCommand reports whether the kind shells out to an external tool.
func (k Kind) usesCommand() bool {
	return k == KindPing || k == KindMTR || k == KindTraceroute
}
