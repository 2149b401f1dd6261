package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// CSVFormatter formats results as CSV with a header row.
type CSVFormatter struct {
	config  Config
	columns []string
}

// Default path columns
var defaultCSVColumns = []string{
	"hop", "ip", "hostname", "country", "region", "city", "isp", "internal",
	"sent", "avg_rtt_ms", "min_rtt_ms", "max_rtt_ms", "stddev_ms", "loss_percent",
}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter(config Config) *CSVFormatter {
	return &CSVFormatter{
		config:  config,
		columns: defaultCSVColumns,
	}
}

// SetColumns allows customizing which path columns to include.
func (f *CSVFormatter) SetColumns(columns []string) {
	f.columns = columns
}

// writeRecords writes the header and rows.
func writeRecords(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatPath writes one row per hop.
func (f *CSVFormatter) FormatPath(result *trace.PathResult) ([]byte, error) {
	rows := make([][]string, len(result.Hops))
	for i := range result.Hops {
		rows[i] = f.formatRow(&result.Hops[i])
	}
	return writeRecords(f.columns, rows)
}

// formatRow formats a single hop as a CSV row.
func (f *CSVFormatter) formatRow(hop *trace.Hop) []string {
	row := make([]string, len(f.columns))
	for i, col := range f.columns {
		row[i] = f.getValue(hop, col)
	}
	return row
}

// getValue returns the value for a specific column.
func (f *CSVFormatter) getValue(hop *trace.Hop, column string) string {
	loc := hop.Location
	if loc == nil {
		loc = &geo.Record{}
	}

	switch column {
	case "hop":
		return strconv.Itoa(hop.Number)
	case "ip":
		return hopAddress(hop)
	case "hostname":
		return hop.Hostname
	case "country":
		return loc.Country
	case "region":
		return loc.Region
	case "city":
		return loc.City
	case "isp":
		return loc.ISP
	case "internal":
		return strconv.FormatBool(hop.Internal)
	case "sent":
		if hop.Sent > 0 {
			return strconv.Itoa(hop.Sent)
		}
		return ""
	case "avg_rtt_ms":
		return formatFloat(hop.AvgRTT)
	case "min_rtt_ms":
		return formatFloat(hop.MinRTT)
	case "max_rtt_ms":
		return formatFloat(hop.MaxRTT)
	case "stddev_ms":
		return formatFloat(hop.StdDev)
	case "loss_percent":
		return fmt.Sprintf("%.1f", hop.LossPercent)
	case "responded":
		return strconv.FormatBool(hop.Responded())
	default:
		return ""
	}
}

// FormatPing writes one row per host.
func (f *CSVFormatter) FormatPing(results []*probe.PingResult) ([]byte, error) {
	header := []string{"host", "ip", "sent", "received", "loss_percent", "min_ms", "avg_ms", "max_ms", "ttl", "error"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Host,
			res.IP,
			strconv.Itoa(res.Sent),
			strconv.Itoa(res.Received),
			fmt.Sprintf("%.1f", res.LossPercent),
			formatFloat(res.Min),
			formatFloat(res.Avg),
			formatFloat(res.Max),
			strconv.Itoa(res.TTL),
			res.Error,
		})
	}
	return writeRecords(header, rows)
}

// FormatDNS writes one row per query; records are joined with ";".
func (f *CSVFormatter) FormatDNS(results []*probe.DNSResult) ([]byte, error) {
	header := []string{"domain", "record_type", "dns_server", "success", "response_time_ms", "records", "error"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Domain,
			res.RecordType,
			res.DNSServer,
			strconv.FormatBool(res.Success),
			fmt.Sprintf("%.3f", res.ResponseTimeMs),
			strings.Join(res.Records, ";"),
			res.Error,
		})
	}
	return writeRecords(header, rows)
}

// FormatHTTP writes a single row.
func (f *CSVFormatter) FormatHTTP(res *probe.HTTPResult) ([]byte, error) {
	header := []string{"url", "method", "status_code", "response_time_ms", "content_length", "content_type",
		"dns_ms", "connect_ms", "tls_ms", "first_byte_ms", "fell_back_to_http"}
	row := []string{
		res.URL,
		res.Method,
		strconv.Itoa(res.StatusCode),
		fmt.Sprintf("%.3f", res.ResponseTimeMs),
		strconv.FormatInt(res.ContentLength, 10),
		res.ContentType,
		fmt.Sprintf("%.3f", res.Timing.DNSMs),
		fmt.Sprintf("%.3f", res.Timing.ConnectMs),
		fmt.Sprintf("%.3f", res.Timing.TLSMs),
		fmt.Sprintf("%.3f", res.Timing.FirstByteMs),
		strconv.FormatBool(res.FellBackToHTTP),
	}
	return writeRecords(header, [][]string{row})
}

// FormatTools writes one row per tool.
func (f *CSVFormatter) FormatTools(statuses []tools.Status) ([]byte, error) {
	header := []string{"tool", "status", "installed", "has_permission", "path", "version", "remediation", "error"}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, []string{
			st.Tool,
			string(st.State),
			strconv.FormatBool(st.Installed),
			strconv.FormatBool(st.HasPermission),
			st.Path,
			st.Version,
			st.Remediation,
			st.Error,
		})
	}
	return writeRecords(header, rows)
}

// FormatGeo writes one row per IP.
func (f *CSVFormatter) FormatGeo(results []enrich.IPResult) ([]byte, error) {
	header := []string{"ip", "success", "internal", "country", "region", "city", "isp", "error"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		loc := res.Location
		if loc == nil {
			loc = &geo.Record{}
		}
		rows = append(rows, []string{
			res.IP,
			strconv.FormatBool(res.Success),
			strconv.FormatBool(res.Internal),
			loc.Country,
			loc.Region,
			loc.City,
			loc.ISP,
			res.Error,
		})
	}
	return writeRecords(header, rows)
}

// FormatServices writes one row per service.
func (f *CSVFormatter) FormatServices(services []geo.ServiceInfo) ([]byte, error) {
	rows := make([][]string, 0, len(services))
	for _, svc := range services {
		rows = append(rows, []string{svc.ID, svc.Name, strconv.FormatBool(svc.RequiresKey)})
	}
	return writeRecords([]string{"id", "name", "requires_key"}, rows)
}

// formatFloat formats a float for CSV output.
func formatFloat(f float64) string {
	if f <= 0 {
		return ""
	}
	return fmt.Sprintf("%.3f", f)
}

// ContentType returns the MIME type for CSV output.
func (f *CSVFormatter) ContentType() string {
	return "text/csv"
}

// FileExtension returns the file extension for CSV output.
func (f *CSVFormatter) FileExtension() string {
	return "csv"
}
