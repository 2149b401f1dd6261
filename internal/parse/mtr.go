package parse

import (
	"regexp"
	"strings"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

var (
	// mtr -r report line:
	//   1.|-- 192.168.1.1   0.0%     5    0.5   0.6   0.4   0.9   0.2
	// Columns after the host: Loss% Snt Last Avg Best Wrst StDev.
	mtrReportLine = regexp.MustCompile(`(\d+)\.\|--\s+(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}|[0-9a-fA-F]*:[0-9a-fA-F:]+|\?\?\?)\s+(\d+(?:\.\d+)?)%\s+(\d+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)`)

	// pathping statistics line:
	//   1    1ms     0/ 100 =  0%     0/ 100 =  0%  192.168.1.1
	pathpingLine = regexp.MustCompile(`(?m)^\s*(\d+)\s+(\d+)ms\s+(\d+)/\s*(\d+)\s*=\s*(\d+)%\s+(\d+)/\s*(\d+)\s*=\s*(\d+)%\s+([^\s]+)`)
)

// MTR parses mtr report output (Linux, macOS) or pathping output (Windows).
func MTR(raw string, os platform.OS) []trace.Hop {
	if os == platform.Windows {
		return parsePathping(raw)
	}
	return parseMtrReport(raw)
}

func parseMtrReport(raw string) []trace.Hop {
	var hops []trace.Hop
	for _, m := range mtrReportLine.FindAllStringSubmatch(raw, -1) {
		ip := m[2]
		if ip == "???" {
			ip = trace.NoReply
		}

		hop := trace.Hop{
			Number:      atoi(m[1]),
			IP:          ip,
			LossPercent: atof(m[3]),
			Sent:        atoi(m[4]),
			// Column order is Last, Avg, Best, Wrst, StDev.
			AvgRTT: atof(m[6]),
			MinRTT: atof(m[7]),
			MaxRTT: atof(m[8]),
			StdDev: atof(m[9]),
		}
		if hop.Responded() {
			hop.Hostname = ip
		}
		hops = append(hops, hop)
	}
	return trace.Normalize(hops, "")
}

func parsePathping(raw string) []trace.Hop {
	var hops []trace.Hop
	for _, m := range pathpingLine.FindAllStringSubmatch(raw, -1) {
		number := atoi(m[1])
		ip := strings.Trim(m[9], "[]")
		if number == 0 || ip == "0.0.0.0" || ip == trace.NoReply {
			continue
		}

		rtt := atof(m[2])
		hops = append(hops, trace.Hop{
			Number:      number,
			IP:          ip,
			Hostname:    ip,
			Sent:        atoi(m[4]),
			LossPercent: atof(m[5]),
			AvgRTT:      rtt,
			MinRTT:      rtt,
			MaxRTT:      rtt,
		})
	}
	return trace.Normalize(hops, "")
}
