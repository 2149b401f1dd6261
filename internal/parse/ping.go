// Package parse turns the text output of ping, mtr/pathping and
// traceroute/tracert into structured records.
//
// Every parser is a pure function that tolerates partial or unexpected
// input: lines that do not match are skipped and missing values stay zero.
package parse

import (
	"regexp"
	"strconv"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
)

// PingStats is what could be read from a ping report.
type PingStats struct {
	IP          string
	Min         float64
	Avg         float64
	Max         float64
	Loss        float64
	TTL         int
	Transmitted int
	Received    int
}

// HasRTT reports whether round-trip statistics were found.
func (s PingStats) HasRTT() bool {
	return s.Min > 0 || s.Avg > 0 || s.Max > 0
}

var (
	ipv4Pattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// Windows, Chinese locale: 最短 = 1ms，最长 = 3ms，平均 = 2ms
	winLocalizedStats = regexp.MustCompile(`最短 = (\d+)ms，最长 = (\d+)ms，平均 = (\d+)ms`)
	// Windows, any locale using "= Nms" triples: Minimum = 1ms, Maximum = 3ms, Average = 2ms
	winGenericStats = regexp.MustCompile(`= (\d+)ms.*?= (\d+)ms.*?= (\d+)ms`)
	winMsToken      = regexp.MustCompile(`(\d+)ms`)
	winLoss         = regexp.MustCompile(`(\d+)%`)
	winCounts       = regexp.MustCompile(`(?:Sent|已发送) = (\d+)[,，]\s*(?:Received|已接收) = (\d+)`)
	winTTL          = regexp.MustCompile(`(?i)TTL=(\d+)`)

	unixStats  = regexp.MustCompile(`min/avg/max(?:/(?:mdev|stddev))?\s*=\s*([\d.]+)/([\d.]+)/([\d.]+)`)
	unixLoss   = regexp.MustCompile(`(\d+(?:\.\d+)?)%\s+packet\s+loss`)
	unixCounts = regexp.MustCompile(`(\d+) packets transmitted, (\d+) (?:packets )?received`)
	unixTTL    = regexp.MustCompile(`(?i)ttl=(\d+)`)
)

// Ping parses the output of the system ping command.
func Ping(raw string, os platform.OS) PingStats {
	var stats PingStats
	stats.IP = ipv4Pattern.FindString(raw)

	if os == platform.Windows {
		parseWindowsPing(raw, &stats)
	} else {
		parseUnixPing(raw, &stats)
	}
	return stats
}

func parseWindowsPing(raw string, stats *PingStats) {
	if m := winLocalizedStats.FindStringSubmatch(raw); m != nil {
		stats.Min = atof(m[1])
		stats.Max = atof(m[2])
		stats.Avg = atof(m[3])
	} else if m := winGenericStats.FindStringSubmatch(raw); m != nil {
		stats.Min = atof(m[1])
		stats.Max = atof(m[2])
		stats.Avg = atof(m[3])
	} else if tokens := winMsToken.FindAllStringSubmatch(raw, -1); len(tokens) >= 3 {
		// The summary line is last; its order is min, max, avg.
		last := tokens[len(tokens)-3:]
		stats.Min = atof(last[0][1])
		stats.Max = atof(last[1][1])
		stats.Avg = atof(last[2][1])
	}

	if m := winLoss.FindStringSubmatch(raw); m != nil {
		stats.Loss = atof(m[1])
	}
	if m := winCounts.FindStringSubmatch(raw); m != nil {
		stats.Transmitted = atoi(m[1])
		stats.Received = atoi(m[2])
	}
	if m := winTTL.FindStringSubmatch(raw); m != nil {
		stats.TTL = atoi(m[1])
	}
}

func parseUnixPing(raw string, stats *PingStats) {
	if m := unixStats.FindStringSubmatch(raw); m != nil {
		stats.Min = atof(m[1])
		stats.Avg = atof(m[2])
		stats.Max = atof(m[3])
	}
	if m := unixLoss.FindStringSubmatch(raw); m != nil {
		stats.Loss = atof(m[1])
	}
	if m := unixCounts.FindStringSubmatch(raw); m != nil {
		stats.Transmitted = atoi(m[1])
		stats.Received = atoi(m[2])
	}
	if m := unixTTL.FindStringSubmatch(raw); m != nil {
		stats.TTL = atoi(m[1])
	}
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
