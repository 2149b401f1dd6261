// Package output renders diagnostic results as text, tables, JSON or CSV.
package output

import (
	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// Format represents the output format type.
type Format int

const (
	// FormatText is the compact human-readable output
	FormatText Format = iota
	// FormatVerbose is the detailed table output
	FormatVerbose
	// FormatJSON is JSON output
	FormatJSON
	// FormatCSV is CSV output
	FormatCSV
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatVerbose:
		return "verbose"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// Formatter renders every result type the CLI produces.
type Formatter interface {
	FormatPath(result *trace.PathResult) ([]byte, error)
	FormatPing(results []*probe.PingResult) ([]byte, error)
	FormatDNS(results []*probe.DNSResult) ([]byte, error)
	FormatHTTP(result *probe.HTTPResult) ([]byte, error)
	FormatTools(statuses []tools.Status) ([]byte, error)
	FormatGeo(results []enrich.IPResult) ([]byte, error)
	FormatServices(services []geo.ServiceInfo) ([]byte, error)

	// ContentType returns the MIME type for the output.
	ContentType() string

	// FileExtension returns the typical file extension for the output.
	FileExtension() string
}

// Config holds configuration for formatters.
type Config struct {
	// Colors enables ANSI color output
	Colors bool

	// NoHostname disables hostname display
	NoHostname bool

	// NoLocation hides the location column of path results
	NoLocation bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Colors: true,
	}
}

// NewFormatter creates a formatter based on the specified format.
func NewFormatter(format Format, config Config) Formatter {
	switch format {
	case FormatText:
		return NewTextFormatter(config)
	case FormatVerbose:
		return NewTableFormatter(config)
	case FormatJSON:
		return NewJSONFormatter(config)
	case FormatCSV:
		return NewCSVFormatter(config)
	default:
		return NewTextFormatter(config)
	}
}

// hopAddress is the IP column of a hop.
func hopAddress(hop *trace.Hop) string {
	if !hop.Responded() {
		return trace.NoReply
	}
	return hop.IP
}

// hopName returns the hostname when it says more than the IP.
func hopName(hop *trace.Hop) string {
	if hop.Hostname == hop.IP {
		return ""
	}
	return hop.Hostname
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
