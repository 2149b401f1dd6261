package probe

import "time"

// PingResult is the outcome of a ping test.
type PingResult struct {
	ID          string    `json:"id"`
	Host        string    `json:"host"`
	IP          string    `json:"ip"`
	Min         float64   `json:"min"`
	Avg         float64   `json:"avg"`
	Max         float64   `json:"max"`
	LossPercent float64   `json:"loss_percent"`
	TTL         int       `json:"ttl"`
	Sent        int       `json:"sent"`
	Received    int       `json:"received"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DNSResult is the outcome of a DNS test. A failed query is still a
// result, with Success false and Error set.
type DNSResult struct {
	ID             string    `json:"id"`
	Domain         string    `json:"domain"`
	RecordType     string    `json:"record_type"`
	Records        []string  `json:"records"`
	Result         string    `json:"result"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	DNSServer      string    `json:"dns_server"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HTTPTiming breaks a request down into phases, in milliseconds. Phases
// that did not happen (reused connection, plain HTTP) stay zero.
type HTTPTiming struct {
	DNSMs       float64 `json:"dns_ms"`
	ConnectMs   float64 `json:"connect_ms"`
	TLSMs       float64 `json:"tls_ms"`
	FirstByteMs float64 `json:"first_byte_ms"`
}

// HTTPResult is the outcome of an HTTP test.
type HTTPResult struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	StatusCode     int               `json:"status_code"`
	StatusText     string            `json:"status_text"`
	ResponseTimeMs float64           `json:"response_time_ms"`
	ContentLength  int64             `json:"content_length"`
	ContentType    string            `json:"content_type"`
	Headers        map[string]string `json:"headers"`
	Timing         HTTPTiming        `json:"timing"`
	FellBackToHTTP bool              `json:"fell_back_to_http,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
