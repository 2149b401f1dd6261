package parse

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

var (
	//  1  192.168.1.1  0.512 ms
	unixTraceHop = regexp.MustCompile(`^\s*(\d+)\s+(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}|[0-9a-fA-F]*:[0-9a-fA-F:]+)\s+([\d.]+)\s+ms`)
	//  4  *
	unixTraceTimeout = regexp.MustCompile(`^\s*(\d+)\s+\*`)

	//  1    <1 ms    <1 ms    <1 ms  192.168.1.1
	//  2     *        *        *     Request timed out.
	winTraceHop = regexp.MustCompile(`^\s*(\d+)\s+(<?\d+ ms|\*)\s+(<?\d+ ms|\*)\s+(<?\d+ ms|\*)\s*(.*)$`)
	bracketedIP = regexp.MustCompile(`\[([0-9a-fA-F:.]+)\]`)
)

// Traceroute parses traceroute (Linux, macOS) or tracert (Windows) output.
func Traceroute(raw string, os platform.OS) []trace.Hop {
	if os == platform.Windows {
		return parseTracert(raw)
	}
	return parseUnixTraceroute(raw)
}

func parseUnixTraceroute(raw string) []trace.Hop {
	var hops []trace.Hop
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "traceroute to") {
			continue
		}

		if m := unixTraceHop.FindStringSubmatch(line); m != nil {
			rtt := atof(m[3])
			hops = append(hops, trace.Hop{
				Number:   atoi(m[1]),
				IP:       m[2],
				Hostname: m[2],
				RTTs:     []float64{rtt},
				AvgRTT:   rtt,
				MinRTT:   rtt,
				MaxRTT:   rtt,
			})
			continue
		}

		if m := unixTraceTimeout.FindStringSubmatch(line); m != nil {
			hops = append(hops, trace.Hop{
				Number:      atoi(m[1]),
				IP:          trace.NoReply,
				RTTs:        []float64{-1},
				LossPercent: 100,
			})
		}
	}
	return trace.Normalize(hops, "")
}

func parseTracert(raw string) []trace.Hop {
	var hops []trace.Hop
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		m := winTraceHop.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		hop := trace.Hop{
			Number: atoi(m[1]),
			RTTs: []float64{
				parseProbeToken(m[2]),
				parseProbeToken(m[3]),
				parseProbeToken(m[4]),
			},
		}
		hop.IP, hop.Hostname = tracertAddress(strings.TrimSpace(m[5]))
		hop.AvgRTT, hop.MinRTT, hop.MaxRTT = trace.RTTStats(hop.RTTs)
		hop.LossPercent = trace.LossPercent(hop.RTTs)
		hops = append(hops, hop)
	}
	return trace.Normalize(hops, "")
}

// tracertAddress extracts the address and name from the tail of a tracert
// line: "host.example [10.0.0.1]", "10.0.0.1" or a localized timeout text.
func tracertAddress(tail string) (ip, hostname string) {
	if m := bracketedIP.FindStringSubmatch(tail); m != nil {
		name := strings.TrimSpace(tail[:strings.Index(tail, "[")])
		return m[1], name
	}
	if ip := ipv4Pattern.FindString(tail); ip != "" {
		return ip, ip
	}
	return trace.NoReply, ""
}

// parseProbeToken converts "<1 ms", "12 ms" or "*" into milliseconds,
// with -1 for a lost probe.
func parseProbeToken(token string) float64 {
	if token == "*" {
		return -1
	}
	token = strings.TrimPrefix(token, "<")
	token = strings.TrimSuffix(token, " ms")
	return atof(token)
}
