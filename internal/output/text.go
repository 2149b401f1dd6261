package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// TextFormatter formats results as compact terminal text.
type TextFormatter struct {
	config Config
	colors *ColorScheme
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(config Config) *TextFormatter {
	var colors *ColorScheme
	if config.Colors {
		colors = DefaultColorScheme()
	}

	return &TextFormatter{
		config: config,
		colors: colors,
	}
}

// paint applies c when colors are enabled.
func (f *TextFormatter) paint(c func(*ColorScheme) *color.Color, s string) string {
	if f.colors == nil {
		return s
	}
	return c(f.colors).Sprint(s)
}

// FormatPath formats an mtr or traceroute result in classic traceroute style.
func (f *TextFormatter) FormatPath(result *trace.PathResult) ([]byte, error) {
	var buf bytes.Buffer

	header := fmt.Sprintf("%s to %s", result.Kind, result.Target)
	if result.Tool != "" {
		header += fmt.Sprintf(" (using %s)", result.Tool)
	}
	buf.WriteString(f.paint(headerColor, header))
	buf.WriteString("\n")
	if result.Notice != "" {
		buf.WriteString(f.paint(warnColor, "note: "+firstLine(result.Notice)))
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	for i := range result.Hops {
		f.formatHop(&buf, &result.Hops[i])
	}

	buf.WriteString("\n")
	if !result.Success {
		buf.WriteString(f.paint(errorColor, "Failed: "+result.Error))
		buf.WriteString("\n")
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "Complete. %d hops (%d responding), %.2f ms, %.1f%% average loss\n",
		result.Summary.TotalHops, result.Summary.Responding,
		result.Summary.TotalTimeMs, result.Summary.PacketLossPercent)

	return buf.Bytes(), nil
}

// FormatHop formats a single hop and returns it as a string.
func (f *TextFormatter) FormatHop(hop *trace.Hop) string {
	var buf bytes.Buffer
	f.formatHop(&buf, hop)
	return buf.String()
}

func (f *TextFormatter) formatHop(buf *bytes.Buffer, hop *trace.Hop) {
	buf.WriteString(f.paint(hopColor, fmt.Sprintf("%3d  ", hop.Number)))

	if !hop.Responded() {
		buf.WriteString(f.paint(timeoutColor, "* * *"))
		buf.WriteString("\n")
		return
	}

	ip := f.paint(ipColor, hop.IP)
	if name := hopName(hop); name != "" && !f.config.NoHostname {
		fmt.Fprintf(buf, "%s (%s)  ", f.paint(hostnameColor, name), ip)
	} else {
		fmt.Fprintf(buf, "%s  ", ip)
	}

	if len(hop.RTTs) > 0 {
		for _, rtt := range hop.RTTs {
			if rtt < 0 {
				fmt.Fprintf(buf, "%s  ", f.paint(timeoutColor, "*"))
				continue
			}
			fmt.Fprintf(buf, "%s  ", f.colorizeRTT(rtt))
		}
	} else {
		fmt.Fprintf(buf, "%s  ", f.colorizeRTT(hop.AvgRTT))
	}

	if hop.LossPercent > 0 {
		fmt.Fprintf(buf, "%s  ", f.paint(warnColor, fmt.Sprintf("%.0f%% loss", hop.LossPercent)))
	}

	if label := hop.LocationLabel(); label != "" && !f.config.NoLocation {
		buf.WriteString(f.paint(geoColor, "["+label+"]"))
	}

	buf.WriteString("\n")
}

// colorizeRTT returns a colored RTT string based on latency thresholds.
func (f *TextFormatter) colorizeRTT(rtt float64) string {
	str := fmt.Sprintf("%.3f ms", rtt)
	if f.colors == nil {
		return str
	}

	switch {
	case rtt < 50:
		return f.colors.RTTLow.Sprint(str)
	case rtt < 150:
		return f.colors.RTTMed.Sprint(str)
	default:
		return f.colors.RTTHigh.Sprint(str)
	}
}

// FormatPing formats ping results, one block per host.
func (f *TextFormatter) FormatPing(results []*probe.PingResult) ([]byte, error) {
	var buf bytes.Buffer
	for i, res := range results {
		if i > 0 {
			buf.WriteString("\n")
		}

		addr := res.IP
		if addr == "" {
			addr = "?"
		}
		fmt.Fprintf(&buf, "%s (%s)\n", f.paint(headerColor, res.Host), addr)

		if res.Error != "" {
			buf.WriteString("  " + f.paint(errorColor, res.Error) + "\n")
			continue
		}

		fmt.Fprintf(&buf, "  %d sent, %d received, %s\n", res.Sent, res.Received, f.formatLoss(res.LossPercent))
		fmt.Fprintf(&buf, "  rtt min/avg/max = %.3f/%.3f/%.3f ms", res.Min, res.Avg, res.Max)
		if res.TTL > 0 {
			fmt.Fprintf(&buf, ", ttl %d", res.TTL)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func (f *TextFormatter) formatLoss(loss float64) string {
	str := fmt.Sprintf("%.1f%% loss", loss)
	switch {
	case loss == 0:
		return f.paint(okColor, str)
	case loss < 100:
		return f.paint(warnColor, str)
	default:
		return f.paint(errorColor, str)
	}
}

// FormatDNS formats DNS results, one block per query.
func (f *TextFormatter) FormatDNS(results []*probe.DNSResult) ([]byte, error) {
	var buf bytes.Buffer
	for i, res := range results {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s %s @%s (%.2f ms)\n",
			f.paint(headerColor, res.Domain), res.RecordType, res.DNSServer, res.ResponseTimeMs)

		if !res.Success {
			buf.WriteString("  " + f.paint(errorColor, res.Result) + "\n")
			continue
		}
		for _, rec := range res.Records {
			buf.WriteString("  " + f.paint(ipColor, rec) + "\n")
		}
	}
	return buf.Bytes(), nil
}

// FormatHTTP formats an HTTP result with its timing breakdown.
func (f *TextFormatter) FormatHTTP(res *probe.HTTPResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s %s\n", res.Method, f.paint(headerColor, res.URL))
	if res.FellBackToHTTP {
		buf.WriteString(f.paint(warnColor, "note: https failed, the result is from plain http") + "\n")
	}

	status := fmt.Sprintf("%d %s", res.StatusCode, res.StatusText)
	switch {
	case res.StatusCode < 300:
		status = f.paint(okColor, status)
	case res.StatusCode < 400:
		status = f.paint(warnColor, status)
	default:
		status = f.paint(errorColor, status)
	}
	fmt.Fprintf(&buf, "  %s  %.2f ms\n", status, res.ResponseTimeMs)

	if res.ContentType != "" {
		fmt.Fprintf(&buf, "  %s, %d bytes\n", res.ContentType, res.ContentLength)
	} else {
		fmt.Fprintf(&buf, "  %d bytes\n", res.ContentLength)
	}
	fmt.Fprintf(&buf, "  dns %.2f ms | connect %.2f ms | tls %.2f ms | first byte %.2f ms\n",
		res.Timing.DNSMs, res.Timing.ConnectMs, res.Timing.TLSMs, res.Timing.FirstByteMs)

	return buf.Bytes(), nil
}

// FormatTools formats tool availability with remediation for tools that
// are not ready.
func (f *TextFormatter) FormatTools(statuses []tools.Status) ([]byte, error) {
	var buf bytes.Buffer
	for _, st := range statuses {
		state := string(st.State)
		if st.State == tools.Ready {
			state = f.paint(okColor, state)
		} else if st.Usable() {
			state = f.paint(warnColor, state)
		} else {
			state = f.paint(errorColor, state)
		}

		fmt.Fprintf(&buf, "%-12s %s", st.Tool, state)
		if st.Path != "" {
			fmt.Fprintf(&buf, "  %s", st.Path)
		}
		if st.Version != "" {
			fmt.Fprintf(&buf, "  (%s)", st.Version)
		}
		buf.WriteString("\n")

		if st.Error != "" {
			buf.WriteString("  " + f.paint(errorColor, st.Error) + "\n")
		}
		if st.State != tools.Ready && st.Remediation != "" {
			for _, line := range strings.Split(st.Remediation, "\n") {
				buf.WriteString("  " + line + "\n")
			}
		}
	}
	return buf.Bytes(), nil
}

// FormatGeo formats geolocation results, one line per IP.
func (f *TextFormatter) FormatGeo(results []enrich.IPResult) ([]byte, error) {
	var buf bytes.Buffer
	for _, res := range results {
		fmt.Fprintf(&buf, "%-16s ", f.paint(ipColor, res.IP))
		switch {
		case res.Internal:
			buf.WriteString(f.paint(geoColor, trace.InternalLabel))
		case !res.Success:
			buf.WriteString(f.paint(errorColor, res.Error))
		default:
			place := res.Location.Place()
			if place == "" {
				place = "unknown location"
			}
			buf.WriteString(f.paint(geoColor, place))
			if res.Location != nil && res.Location.ISP != "" {
				fmt.Fprintf(&buf, "  (%s)", res.Location.ISP)
			}
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// FormatServices lists the geolocation services.
func (f *TextFormatter) FormatServices(services []geo.ServiceInfo) ([]byte, error) {
	var buf bytes.Buffer
	for _, svc := range services {
		fmt.Fprintf(&buf, "%-12s %s", f.paint(hopColor, svc.ID), svc.Name)
		if svc.RequiresKey {
			buf.WriteString(f.paint(warnColor, "  (API key required)"))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type for text output.
func (f *TextFormatter) ContentType() string {
	return "text/plain"
}

// FileExtension returns the file extension for text output.
func (f *TextFormatter) FileExtension() string {
	return "txt"
}

// ColorScheme defines colors for different output elements.
type ColorScheme struct {
	Hop      *color.Color
	IP       *color.Color
	Hostname *color.Color
	RTTLow   *color.Color // < 50ms
	RTTMed   *color.Color // 50-150ms
	RTTHigh  *color.Color // > 150ms
	Timeout  *color.Color
	Geo      *color.Color
	Header   *color.Color
	OK       *color.Color
	Warn     *color.Color
	Error    *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Hop:      color.New(color.FgCyan, color.Bold),
		IP:       color.New(color.FgWhite),
		Hostname: color.New(color.FgGreen),
		RTTLow:   color.New(color.FgGreen),
		RTTMed:   color.New(color.FgYellow),
		RTTHigh:  color.New(color.FgRed),
		Timeout:  color.New(color.FgRed, color.Bold),
		Geo:      color.New(color.FgBlue),
		Header:   color.New(color.FgWhite, color.Bold),
		OK:       color.New(color.FgGreen),
		Warn:     color.New(color.FgYellow),
		Error:    color.New(color.FgRed),
	}
}

func hopColor(c *ColorScheme) *color.Color      { return c.Hop }
func ipColor(c *ColorScheme) *color.Color       { return c.IP }
func hostnameColor(c *ColorScheme) *color.Color { return c.Hostname }
func timeoutColor(c *ColorScheme) *color.Color  { return c.Timeout }
func geoColor(c *ColorScheme) *color.Color      { return c.Geo }
func headerColor(c *ColorScheme) *color.Color   { return c.Header }
func okColor(c *ColorScheme) *color.Color       { return c.OK }
func warnColor(c *ColorScheme) *color.Color     { return c.Warn }
func errorColor(c *ColorScheme) *color.Color    { return c.Error }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
