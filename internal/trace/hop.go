// Package trace holds the path model shared by MTR and traceroute results.
package trace

import (
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/geo"
)

// NoReply is the IP placeholder for a hop that did not answer.
const NoReply = "*"

// InternalLabel is how a hop in a private range is labelled instead of a location.
const InternalLabel = "private/internal"

// Hop represents a single hop in the path.
type Hop struct {
	// Number is the 1-based hop index as printed by the tool
	Number int `json:"hop"`

	// IP is the responding address, or NoReply for a timeout hop
	IP string `json:"ip"`

	// Hostname is the reverse DNS name; tools run with -n report the IP here
	Hostname string `json:"hostname,omitempty"`

	// Sent is the number of probes sent to this hop (mtr/pathping only)
	Sent int `json:"sent,omitempty"`

	// RTTs holds per-probe round-trip times in milliseconds.
	// A value of -1 indicates a timeout.
	RTTs []float64 `json:"rtts,omitempty"`

	AvgRTT float64 `json:"avg_rtt"`
	MinRTT float64 `json:"min_rtt"`
	MaxRTT float64 `json:"max_rtt"`
	StdDev float64 `json:"stddev,omitempty"`

	// LossPercent is the packet loss percentage (0-100)
	LossPercent float64 `json:"loss_percent"`

	// Location is filled by geo enrichment; nil when unknown
	Location *geo.Record `json:"location,omitempty"`

	// Internal marks private, loopback, link-local and CGNAT addresses
	Internal bool `json:"internal,omitempty"`
}

// Responded reports whether the hop answered at least once.
func (h *Hop) Responded() bool {
	return h.IP != "" && h.IP != NoReply
}

// LocationLabel returns the human readable location of the hop.
func (h *Hop) LocationLabel() string {
	if h.Internal {
		return InternalLabel
	}
	return h.Location.Place()
}

// PathResult is the outcome of an MTR or traceroute run.
type PathResult struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Success   bool      `json:"success"`
	Tool      string    `json:"tool,omitempty"`
	Hops      []Hop     `json:"hops"`
	Error     string    `json:"error,omitempty"`
	Notice    string    `json:"notice,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
}

// Summary contains aggregate statistics for a path.
type Summary struct {
	TotalHops int `json:"total_hops"`

	// Responding counts hops with an address
	Responding int `json:"responding"`

	// TotalTimeMs is the average RTT of the last responding hop
	TotalTimeMs float64 `json:"total_time_ms"`

	// PacketLossPercent is the average loss across all hops
	PacketLossPercent float64 `json:"packet_loss_percent"`
}
