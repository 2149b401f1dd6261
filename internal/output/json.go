package output

import (
	"encoding/json"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// JSONFormatter formats results as JSON. The result types carry their own
// json tags, so they are encoded as they are.
type JSONFormatter struct {
	config Config
	pretty bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(config Config) *JSONFormatter {
	return &JSONFormatter{
		config: config,
		pretty: true, // Default to pretty-printed
	}
}

// NewJSONFormatterCompact creates a JSON formatter with compact output.
func NewJSONFormatterCompact(config Config) *JSONFormatter {
	return &JSONFormatter{
		config: config,
		pretty: false,
	}
}

// SetPretty enables or disables pretty-printing.
func (f *JSONFormatter) SetPretty(pretty bool) {
	f.pretty = pretty
}

func (f *JSONFormatter) encode(v any) ([]byte, error) {
	var data []byte
	var err error
	if f.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FormatPath encodes a path result with rounded statistics.
func (f *JSONFormatter) FormatPath(result *trace.PathResult) ([]byte, error) {
	out := *result
	out.Hops = make([]trace.Hop, len(result.Hops))
	for i, hop := range result.Hops {
		hop.AvgRTT = roundFloat(hop.AvgRTT, 3)
		hop.MinRTT = roundFloat(hop.MinRTT, 3)
		hop.MaxRTT = roundFloat(hop.MaxRTT, 3)
		hop.StdDev = roundFloat(hop.StdDev, 3)
		hop.LossPercent = roundFloat(hop.LossPercent, 1)
		out.Hops[i] = hop
	}
	out.Summary.TotalTimeMs = roundFloat(out.Summary.TotalTimeMs, 3)
	out.Summary.PacketLossPercent = roundFloat(out.Summary.PacketLossPercent, 1)
	return f.encode(out)
}

// FormatPing encodes ping results as an array.
func (f *JSONFormatter) FormatPing(results []*probe.PingResult) ([]byte, error) {
	return f.encode(results)
}

// FormatDNS encodes DNS results as an array.
func (f *JSONFormatter) FormatDNS(results []*probe.DNSResult) ([]byte, error) {
	return f.encode(results)
}

// FormatHTTP encodes an HTTP result.
func (f *JSONFormatter) FormatHTTP(result *probe.HTTPResult) ([]byte, error) {
	return f.encode(result)
}

// FormatTools encodes tool statuses as an array.
func (f *JSONFormatter) FormatTools(statuses []tools.Status) ([]byte, error) {
	return f.encode(statuses)
}

// FormatGeo encodes geolocation results as an array.
func (f *JSONFormatter) FormatGeo(results []enrich.IPResult) ([]byte, error) {
	return f.encode(results)
}

// FormatServices encodes the service list.
func (f *JSONFormatter) FormatServices(services []geo.ServiceInfo) ([]byte, error) {
	return f.encode(services)
}

// ContentType returns the MIME type for JSON output.
func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

// FileExtension returns the file extension for JSON output.
func (f *JSONFormatter) FileExtension() string {
	return "json"
}

// roundFloat rounds half away from zero; negative sentinels such as -1
// survive unchanged.
func roundFloat(val float64, precision int) float64 {
	p := float64(1)
	for i := 0; i < precision; i++ {
		p *= 10
	}
	if val < 0 {
		return -float64(int(-val*p+0.5)) / p
	}
	return float64(int(val*p+0.5)) / p
}
