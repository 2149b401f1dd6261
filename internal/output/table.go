package output

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// TableFormatter formats results as detailed tables.
type TableFormatter struct {
	config Config
	colors *ColorScheme
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(config Config) *TableFormatter {
	var colors *ColorScheme
	if config.Colors {
		colors = DefaultColorScheme()
	}

	return &TableFormatter{
		config: config,
		colors: colors,
	}
}

// newTable creates a table writing to buf with the shared appearance.
func (f *TableFormatter) newTable(buf *bytes.Buffer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetBorder(true)
	table.SetRowLine(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("│")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetTablePadding(" ")
	table.SetHeader(headers)
	return table
}

func (f *TableFormatter) header(buf *bytes.Buffer, text string) {
	if f.colors != nil {
		text = f.colors.Header.Sprint(text)
	}
	buf.WriteString(text)
}

// FormatPath formats a path result as a hop table with a summary.
func (f *TableFormatter) FormatPath(result *trace.PathResult) ([]byte, error) {
	var buf bytes.Buffer

	f.header(&buf, fmt.Sprintf("Target: %s\nKind: %s | Tool: %s | Time: %s\n\n",
		result.Target, result.Kind, result.Tool,
		result.Timestamp.Format("2006-01-02 15:04:05")))
	if result.Notice != "" {
		fmt.Fprintf(&buf, "Note: %s\n\n", result.Notice)
	}

	headers := []string{"Hop", "IP Address", "Hostname"}
	if !f.config.NoLocation {
		headers = append(headers, "Location", "ISP")
	}
	headers = append(headers, "Sent", "Avg", "Min", "Max", "StDev", "Loss")

	table := f.newTable(&buf, headers)
	for i := range result.Hops {
		table.Append(f.formatHopRow(&result.Hops[i]))
	}
	table.Render()

	f.writeSummary(&buf, result)
	return buf.Bytes(), nil
}

// formatHopRow formats a single hop as a table row.
func (f *TableFormatter) formatHopRow(hop *trace.Hop) []string {
	row := []string{strconv.Itoa(hop.Number)}

	if !hop.Responded() {
		row = append(row, trace.NoReply, "-")
	} else {
		name := hopName(hop)
		if name == "" {
			name = "-"
		}
		row = append(row, hop.IP, truncateString(name, 25))
	}

	if !f.config.NoLocation {
		location, isp := "-", "-"
		if label := hop.LocationLabel(); label != "" {
			location = truncateString(label, 30)
		}
		if hop.Location != nil && hop.Location.ISP != "" {
			isp = truncateString(hop.Location.ISP, 20)
		}
		row = append(row, location, isp)
	}

	sent := "-"
	if hop.Sent > 0 {
		sent = strconv.Itoa(hop.Sent)
	}
	row = append(row, sent)

	if hop.Responded() && hop.AvgRTT > 0 {
		stddev := "-"
		if hop.StdDev > 0 {
			stddev = fmt.Sprintf("%.2f", hop.StdDev)
		}
		row = append(row,
			f.formatRTT(hop.AvgRTT),
			f.formatRTT(hop.MinRTT),
			f.formatRTT(hop.MaxRTT),
			stddev,
			fmt.Sprintf("%.0f%%", hop.LossPercent))
	} else {
		row = append(row, "-", "-", "-", "-", fmt.Sprintf("%.0f%%", hop.LossPercent))
	}

	return row
}

// formatRTT formats an RTT value with optional coloring.
func (f *TableFormatter) formatRTT(rtt float64) string {
	if rtt <= 0 {
		return "-"
	}

	str := fmt.Sprintf("%.2f", rtt)

	if f.colors != nil {
		switch {
		case rtt < 50:
			str = f.colors.RTTLow.Sprint(str)
		case rtt < 150:
			str = f.colors.RTTMed.Sprint(str)
		default:
			str = f.colors.RTTHigh.Sprint(str)
		}
	}

	return str
}

// writeSummary writes the path summary.
func (f *TableFormatter) writeSummary(buf *bytes.Buffer, result *trace.PathResult) {
	buf.WriteString("\nSummary:\n")

	fmt.Fprintf(buf, "  Total Hops:    %d\n", result.Summary.TotalHops)
	fmt.Fprintf(buf, "  Responding:    %d\n", result.Summary.Responding)
	fmt.Fprintf(buf, "  Total Time:    %.2f ms\n", result.Summary.TotalTimeMs)
	fmt.Fprintf(buf, "  Packet Loss:   %.1f%%\n", result.Summary.PacketLossPercent)

	buf.WriteString("  Status:        ")
	if result.Success {
		status := "Complete"
		if f.colors != nil {
			status = f.colors.OK.Sprint(status)
		}
		buf.WriteString(status)
	} else {
		status := "Failed"
		if f.colors != nil {
			status = f.colors.Error.Sprint(status)
		}
		buf.WriteString(status)
		buf.WriteString("\n  Error:         ")
		buf.WriteString(strings.ReplaceAll(result.Error, "\n", "\n                 "))
	}
	buf.WriteString("\n")
}

// FormatPing formats ping results as one row per host.
func (f *TableFormatter) FormatPing(results []*probe.PingResult) ([]byte, error) {
	var buf bytes.Buffer
	table := f.newTable(&buf, []string{"Host", "IP", "Sent", "Received", "Loss", "Min", "Avg", "Max", "TTL", "Error"})
	for _, res := range results {
		ttl := "-"
		if res.TTL > 0 {
			ttl = strconv.Itoa(res.TTL)
		}
		table.Append([]string{
			res.Host,
			orDash(res.IP),
			strconv.Itoa(res.Sent),
			strconv.Itoa(res.Received),
			fmt.Sprintf("%.1f%%", res.LossPercent),
			f.formatRTT(res.Min),
			f.formatRTT(res.Avg),
			f.formatRTT(res.Max),
			ttl,
			orDash(truncateString(res.Error, 40)),
		})
	}
	table.Render()
	return buf.Bytes(), nil
}

// FormatDNS formats DNS results as one row per record.
func (f *TableFormatter) FormatDNS(results []*probe.DNSResult) ([]byte, error) {
	var buf bytes.Buffer
	table := f.newTable(&buf, []string{"Domain", "Type", "Server", "Time", "Record"})
	for _, res := range results {
		timing := fmt.Sprintf("%.2f ms", res.ResponseTimeMs)
		if !res.Success {
			table.Append([]string{res.Domain, res.RecordType, res.DNSServer, timing, res.Result})
			continue
		}
		for i, rec := range res.Records {
			if i == 0 {
				table.Append([]string{res.Domain, res.RecordType, res.DNSServer, timing, rec})
			} else {
				table.Append([]string{"", "", "", "", rec})
			}
		}
	}
	table.Render()
	return buf.Bytes(), nil
}

// FormatHTTP formats the response summary and headers as two tables.
func (f *TableFormatter) FormatHTTP(res *probe.HTTPResult) ([]byte, error) {
	var buf bytes.Buffer

	f.header(&buf, fmt.Sprintf("%s %s\n\n", res.Method, res.URL))

	table := f.newTable(&buf, []string{"Field", "Value"})
	table.Append([]string{"Status", fmt.Sprintf("%d %s", res.StatusCode, res.StatusText)})
	table.Append([]string{"Response Time", fmt.Sprintf("%.2f ms", res.ResponseTimeMs)})
	table.Append([]string{"Content Type", orDash(res.ContentType)})
	table.Append([]string{"Content Length", strconv.FormatInt(res.ContentLength, 10)})
	table.Append([]string{"DNS", fmt.Sprintf("%.2f ms", res.Timing.DNSMs)})
	table.Append([]string{"Connect", fmt.Sprintf("%.2f ms", res.Timing.ConnectMs)})
	table.Append([]string{"TLS", fmt.Sprintf("%.2f ms", res.Timing.TLSMs)})
	table.Append([]string{"First Byte", fmt.Sprintf("%.2f ms", res.Timing.FirstByteMs)})
	if res.FellBackToHTTP {
		table.Append([]string{"Fallback", "https failed, plain http used"})
	}
	table.Render()

	if len(res.Headers) > 0 {
		buf.WriteString("\nHeaders:\n")
		names := make([]string, 0, len(res.Headers))
		for k := range res.Headers {
			names = append(names, k)
		}
		sort.Strings(names)

		headers := f.newTable(&buf, []string{"Header", "Value"})
		for _, k := range names {
			headers.Append([]string{k, truncateString(res.Headers[k], 60)})
		}
		headers.Render()
	}
	return buf.Bytes(), nil
}

// FormatTools formats tool availability as a table, followed by the
// remediation of every tool that is not ready.
func (f *TableFormatter) FormatTools(statuses []tools.Status) ([]byte, error) {
	var buf bytes.Buffer
	table := f.newTable(&buf, []string{"Tool", "Status", "Installed", "Permission", "Path", "Version"})
	for _, st := range statuses {
		table.Append([]string{
			st.Tool,
			string(st.State),
			strconv.FormatBool(st.Installed),
			strconv.FormatBool(st.HasPermission),
			orDash(st.Path),
			orDash(truncateString(st.Version, 30)),
		})
	}
	table.Render()

	for _, st := range statuses {
		if st.State == tools.Ready || st.Remediation == "" {
			continue
		}
		fmt.Fprintf(&buf, "\n%s:\n", st.Tool)
		for _, line := range strings.Split(st.Remediation, "\n") {
			buf.WriteString("  " + line + "\n")
		}
	}
	return buf.Bytes(), nil
}

// FormatGeo formats geolocation results as a table.
func (f *TableFormatter) FormatGeo(results []enrich.IPResult) ([]byte, error) {
	var buf bytes.Buffer
	table := f.newTable(&buf, []string{"IP", "Country", "Region", "City", "ISP", "Note"})
	for _, res := range results {
		row := []string{res.IP, "-", "-", "-", "-", ""}
		switch {
		case res.Internal:
			row[5] = trace.InternalLabel
		case !res.Success:
			row[5] = truncateString(res.Error, 40)
		case res.Location != nil:
			row[1] = orDash(res.Location.Country)
			row[2] = orDash(res.Location.Region)
			row[3] = orDash(res.Location.City)
			row[4] = orDash(truncateString(res.Location.ISP, 30))
		}
		table.Append(row)
	}
	table.Render()
	return buf.Bytes(), nil
}

// FormatServices formats the geolocation services as a table.
func (f *TableFormatter) FormatServices(services []geo.ServiceInfo) ([]byte, error) {
	var buf bytes.Buffer
	table := f.newTable(&buf, []string{"ID", "Name", "API Key"})
	for _, svc := range services {
		key := "no"
		if svc.RequiresKey {
			key = "required"
		}
		table.Append([]string{svc.ID, svc.Name, key})
	}
	table.Render()
	return buf.Bytes(), nil
}

// ContentType returns the MIME type for table output.
func (f *TableFormatter) ContentType() string {
	return "text/plain"
}

// FileExtension returns the file extension for table output.
func (f *TableFormatter) FileExtension() string {
	return "txt"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
