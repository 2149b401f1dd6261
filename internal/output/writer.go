package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// Writer handles output formatting and writing.
type Writer struct {
	formatter Formatter
	output    io.Writer
	isTTY     bool
}

// NewWriter creates a writer to stdout.
func NewWriter(format Format, config Config) *Writer {
	return NewWriterTo(os.Stdout, format, config)
}

// NewWriterTo creates a writer to out. Colors are turned off when out is
// not a terminal.
func NewWriterTo(out io.Writer, format Format, config Config) *Writer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = isTerminal(f)
	}
	if !isTTY {
		config.Colors = false
	}

	return &Writer{
		formatter: NewFormatter(format, config),
		output:    out,
		isTTY:     isTTY,
	}
}

// WritePath formats and writes an mtr or traceroute result.
func (w *Writer) WritePath(result *trace.PathResult) error {
	return w.emit(w.formatter.FormatPath(result))
}

// WritePing formats and writes ping results.
func (w *Writer) WritePing(results []*probe.PingResult) error {
	return w.emit(w.formatter.FormatPing(results))
}

// WriteDNS formats and writes DNS results.
func (w *Writer) WriteDNS(results []*probe.DNSResult) error {
	return w.emit(w.formatter.FormatDNS(results))
}

// WriteHTTP formats and writes an HTTP result.
func (w *Writer) WriteHTTP(result *probe.HTTPResult) error {
	return w.emit(w.formatter.FormatHTTP(result))
}

// WriteTools formats and writes tool availability.
func (w *Writer) WriteTools(statuses []tools.Status) error {
	return w.emit(w.formatter.FormatTools(statuses))
}

// WriteGeo formats and writes geolocation results.
func (w *Writer) WriteGeo(results []enrich.IPResult) error {
	return w.emit(w.formatter.FormatGeo(results))
}

// WriteServices formats and writes the geolocation service list.
func (w *Writer) WriteServices(services []geo.ServiceInfo) error {
	return w.emit(w.formatter.FormatServices(services))
}

func (w *Writer) emit(data []byte, err error) error {
	if err != nil {
		return err
	}
	if _, err := w.output.Write(data); err != nil {
		return err
	}

	// Flush output if it's a file (ensures output is visible immediately)
	if f, ok := w.output.(*os.File); ok {
		f.Sync()
	}
	return nil
}

// IsTTY returns whether the output is a terminal.
func (w *Writer) IsTTY() bool {
	return w.isTTY
}

// Formatter returns the underlying formatter.
func (w *Writer) Formatter() Formatter {
	return w.formatter
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isTerminal(f)
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
