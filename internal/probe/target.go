package probe

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.?$`)

// domainPattern also allows underscores, as in _dmarc or _sip._tcp labels.
var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9_]([a-zA-Z0-9_-]{0,61}[a-zA-Z0-9_])?(\.[a-zA-Z0-9_]([a-zA-Z0-9_-]{0,61}[a-zA-Z0-9_])?)*\.?$`)

// domainProfile is idna.Lookup without the STD3 hostname rules.
var domainProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

// NormalizeTarget returns target as an IP literal or an ASCII hostname.
// Anything else is rejected, so the result is safe to place on a command
// line.
func NormalizeTarget(target string) (string, error) {
	t := strings.TrimSpace(target)
	if t == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	if addr, err := netip.ParseAddr(strings.Trim(t, "[]")); err == nil {
		return addr.WithZone("").String(), nil
	}
	return normalizeHostname(t)
}

func normalizeHostname(name string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTarget, name, err)
	}
	if len(ascii) > 253 || !hostnamePattern.MatchString(ascii) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, name)
	}
	return strings.ToLower(ascii), nil
}

// NormalizeDomain returns name as an ASCII domain for a DNS query.
// Service labels with underscores are accepted. The result never reaches
// a command line.
func NormalizeDomain(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	ascii, err := domainProfile.ToASCII(n)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTarget, name, err)
	}
	if _, ok := dns.IsDomainName(ascii); !ok || !domainPattern.MatchString(ascii) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, name)
	}
	return strings.ToLower(ascii), nil
}
