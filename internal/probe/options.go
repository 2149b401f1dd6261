package probe

import (
	"strings"
	"time"
)

// Defaults applied when an option is left at zero.
const (
	DefaultPingCount   = 4
	DefaultPingSize    = 32
	DefaultPingTimeout = 3 * time.Second

	DefaultMtrCount      = 5
	DefaultMtrPacketSize = 64
	DefaultMtrMaxHops    = 15
	DefaultMtrTimeout    = 2 * time.Minute

	DefaultTracerouteMaxHops = 15
	DefaultTracerouteTimeout = 2 * time.Second

	DefaultHTTPMethod  = "GET"
	DefaultHTTPTimeout = 10 * time.Second

	DefaultDNSRecordType = "A"
	DefaultDNSServer     = "default"
	DefaultDNSTimeout    = 5 * time.Second
)

// PingOptions configures a ping test. Size and Timeout are only passed to
// Unix ping when set; Windows always gets explicit values.
type PingOptions struct {
	Count   int           `json:"count" yaml:"count"`
	Size    int           `json:"size,omitempty" yaml:"size"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout"`
}

// DefaultPingOptions returns the default ping options.
func DefaultPingOptions() PingOptions {
	return PingOptions{Count: DefaultPingCount}
}

func (o PingOptions) withDefaults() PingOptions {
	if o.Count <= 0 {
		o.Count = DefaultPingCount
	}
	return o
}

// processTimeout bounds the whole ping run.
func (o PingOptions) processTimeout() time.Duration {
	per := o.Timeout
	if per <= 0 {
		per = DefaultPingTimeout
	}
	return time.Duration(o.Count)*(per+time.Second) + 5*time.Second
}

// MtrOptions configures an MTR test.
type MtrOptions struct {
	Count      int           `json:"count" yaml:"count"`
	PacketSize int           `json:"packet_size" yaml:"packet_size"`
	MaxHops    int           `json:"max_hops" yaml:"max_hops"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	Enrich     bool          `json:"enrich" yaml:"enrich"`
}

// DefaultMtrOptions returns the default MTR options.
func DefaultMtrOptions() MtrOptions {
	return MtrOptions{
		Count:      DefaultMtrCount,
		PacketSize: DefaultMtrPacketSize,
		MaxHops:    DefaultMtrMaxHops,
		Timeout:    DefaultMtrTimeout,
	}
}

func (o MtrOptions) withDefaults() MtrOptions {
	if o.Count <= 0 {
		o.Count = DefaultMtrCount
	}
	if o.PacketSize <= 0 {
		o.PacketSize = DefaultMtrPacketSize
	}
	if o.MaxHops <= 0 {
		o.MaxHops = DefaultMtrMaxHops
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultMtrTimeout
	}
	return o
}

// TracerouteOptions configures a traceroute test. Timeout is the wait per
// probe, as passed to the tool.
type TracerouteOptions struct {
	MaxHops int           `json:"max_hops" yaml:"max_hops"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	Enrich  bool          `json:"enrich" yaml:"enrich"`
}

// DefaultTracerouteOptions returns the default traceroute options.
func DefaultTracerouteOptions() TracerouteOptions {
	return TracerouteOptions{
		MaxHops: DefaultTracerouteMaxHops,
		Timeout: DefaultTracerouteTimeout,
	}
}

func (o TracerouteOptions) withDefaults() TracerouteOptions {
	if o.MaxHops <= 0 {
		o.MaxHops = DefaultTracerouteMaxHops
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTracerouteTimeout
	}
	return o
}

// processTimeout allows every hop to time out on three probes.
func (o TracerouteOptions) processTimeout() time.Duration {
	return time.Duration(o.MaxHops)*3*o.Timeout + 10*time.Second
}

// DNSOptions configures a DNS test. Server is "default" or an IP address,
// optionally with a port.
type DNSOptions struct {
	RecordType string        `json:"record_type" yaml:"record_type"`
	Server     string        `json:"server" yaml:"server"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultDNSOptions returns the default DNS options.
func DefaultDNSOptions() DNSOptions {
	return DNSOptions{
		RecordType: DefaultDNSRecordType,
		Server:     DefaultDNSServer,
		Timeout:    DefaultDNSTimeout,
	}
}

func (o DNSOptions) withDefaults() DNSOptions {
	o.RecordType = strings.ToUpper(strings.TrimSpace(o.RecordType))
	if o.RecordType == "" {
		o.RecordType = DefaultDNSRecordType
	}
	o.Server = strings.TrimSpace(o.Server)
	if o.Server == "" {
		o.Server = DefaultDNSServer
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultDNSTimeout
	}
	return o
}

// HTTPOptions configures an HTTP test.
type HTTPOptions struct {
	Method  string            `json:"method" yaml:"method"`
	Timeout time.Duration     `json:"timeout" yaml:"timeout"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers"`
}

// DefaultHTTPOptions returns the default HTTP options.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Method:  DefaultHTTPMethod,
		Timeout: DefaultHTTPTimeout,
	}
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	o.Method = strings.ToUpper(strings.TrimSpace(o.Method))
	if o.Method == "" {
		o.Method = DefaultHTTPMethod
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultHTTPTimeout
	}
	return o
}
