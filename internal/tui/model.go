// Package tui provides a live terminal view of mtr and traceroute runs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// State represents the current state of the TUI.
type State int

const (
	StateRunning State = iota
	StateEnriching
	StateComplete
	StateError
)

// Config describes one path test shown by the TUI.
type Config struct {
	// Title names the test, e.g. "mtr" or "traceroute"
	Title  string
	Target string

	// Trace runs the test without enrichment.
	Trace func(ctx context.Context) *trace.PathResult

	// Enricher locates hops once the tool has finished. Optional.
	Enricher *enrich.Enricher

	// Plain disables colors
	Plain bool
}

// Model is the Bubble Tea model for the path view.
type Model struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	width  int
	height int

	// State
	state     State
	result    *trace.PathResult
	hops      []trace.Hop
	located   int
	err       error
	elapsed   time.Duration
	startTime time.Time

	// UI components
	spinner spinner.Model
	styles  Styles

	// Channel for enriched hops
	updates chan HopMsg
}

// PathMsg is sent when the tool has finished.
type PathMsg struct {
	Result *trace.PathResult
}

// HopMsg is sent when a hop has been enriched.
type HopMsg struct {
	Index int
	Hop   trace.Hop
}

// EnrichDoneMsg is sent when every hop has been looked up.
type EnrichDoneMsg struct{}

// TickMsg is sent to update elapsed time.
type TickMsg time.Time

// New creates a new TUI model.
func New(ctx context.Context, cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	styles := DefaultStyles()
	if cfg.Plain {
		styles = PlainStyles()
	}

	ctx, cancel := context.WithCancel(ctx)
	return Model{
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateRunning,
		spinner:   s,
		styles:    styles,
		width:     80,
		height:    24,
		startTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runPath(),
		m.tickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.elapsed = time.Since(m.startTime)
		if m.state == StateRunning || m.state == StateEnriching {
			return m, m.tickCmd()
		}

	case PathMsg:
		m.result = msg.Result
		if !msg.Result.Success {
			m.state = StateError
			m.err = errors.New(msg.Result.Error)
			return m, tea.Quit
		}
		m.hops = append([]trace.Hop(nil), msg.Result.Hops...)
		if m.cfg.Enricher == nil || len(m.hops) == 0 {
			m.state = StateComplete
			return m, nil
		}
		m.state = StateEnriching
		m.updates = make(chan HopMsg, len(m.hops))
		return m, tea.Batch(m.enrich(), m.waitForHop())

	case HopMsg:
		if msg.Index >= 0 && msg.Index < len(m.hops) {
			m.hops[msg.Index] = msg.Hop
			m.located++
		}
		return m, m.waitForHop()

	case EnrichDoneMsg:
		m.state = StateComplete
		m.result.Hops = m.hops
		m.result.Summary = trace.Summarize(m.hops)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderHops())
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the header section.
func (m Model) renderHeader() string {
	title := m.styles.Title.Render("netscope " + m.cfg.Title)

	var status string
	switch m.state {
	case StateRunning:
		status = fmt.Sprintf("%s Running %s... %.0fs", m.spinner.View(), m.cfg.Title, m.elapsed.Seconds())
	case StateEnriching:
		status = fmt.Sprintf("%s Locating hops %d/%d", m.spinner.View(), m.located, len(m.hops))
	case StateComplete:
		status = m.styles.Success.Render("✓ Complete")
	case StateError:
		status = m.styles.Error.Render("✗ Error")
	}

	info := "Target: " + m.cfg.Target
	if m.result != nil && m.result.Tool != "" {
		info += " | Tool: " + m.result.Tool
	}

	lines := []string{title, m.styles.Subtle.Render(info), status}
	if m.result != nil && m.result.Notice != "" {
		lines = append(lines, m.styles.Warning.Render(firstLine(m.result.Notice)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderHops renders the hop table.
func (m Model) renderHops() string {
	if len(m.hops) == 0 {
		if m.state == StateError && m.err != nil {
			return m.styles.Error.Render(m.err.Error())
		}
		return m.styles.Subtle.Render("Waiting for the tool to finish...")
	}

	var rows []string

	header := fmt.Sprintf("%-4s %-16s %-25s %-10s %-6s %s",
		"Hop", "IP", "Hostname", "Avg", "Loss", "Location")
	rows = append(rows, m.styles.Header.Render(header))
	rows = append(rows, m.styles.Subtle.Render(strings.Repeat("─", 80)))

	for _, hop := range m.hops {
		rows = append(rows, m.renderHopRow(hop))
	}

	return strings.Join(rows, "\n")
}

// renderHopRow renders a single hop row. Cells are padded before styling
// so escape codes do not disturb alignment.
func (m Model) renderHopRow(hop trace.Hop) string {
	hopNum := m.styles.HopNum.Render(fmt.Sprintf("%-4d", hop.Number))

	if !hop.Responded() {
		return fmt.Sprintf("%s %s", hopNum, m.styles.Timeout.Render("* * *"))
	}

	ip := m.styles.IP.Render(fmt.Sprintf("%-16s", truncate(hop.IP, 16)))

	name := ""
	if hop.Hostname != hop.IP {
		name = hop.Hostname
	}
	hostname := m.styles.Hostname.Render(fmt.Sprintf("%-25s", truncate(name, 25)))

	avg := "-"
	if hop.AvgRTT > 0 {
		avg = fmt.Sprintf("%.2f ms", hop.AvgRTT)
	}
	avgStyled := m.colorizeRTT(fmt.Sprintf("%-10s", avg), hop.AvgRTT)

	loss := fmt.Sprintf("%-6s", fmt.Sprintf("%.0f%%", hop.LossPercent))
	if hop.LossPercent > 0 {
		loss = m.styles.Warning.Render(loss)
	} else {
		loss = m.styles.Subtle.Render(loss)
	}

	var location string
	switch {
	case hop.Internal:
		location = m.styles.Internal.Render(trace.InternalLabel)
	case hop.Location != nil:
		location = m.styles.Location.Render(truncate(hop.LocationLabel(), 40))
	case m.state == StateEnriching:
		location = m.styles.Subtle.Render("…")
	}

	return fmt.Sprintf("%s %s %s %s %s %s", hopNum, ip, hostname, avgStyled, loss, location)
}

// colorizeRTT applies color based on latency.
func (m Model) colorizeRTT(s string, rtt float64) string {
	if rtt <= 0 {
		return m.styles.Subtle.Render(s)
	}

	switch {
	case rtt < 50:
		return m.styles.RTTLow.Render(s)
	case rtt < 150:
		return m.styles.RTTMed.Render(s)
	default:
		return m.styles.RTTHigh.Render(s)
	}
}

// renderFooter renders the footer section.
func (m Model) renderFooter() string {
	var parts []string

	if m.state == StateComplete && m.result != nil {
		summary := trace.Summarize(m.hops)
		parts = append(parts,
			fmt.Sprintf("Hops: %d", summary.TotalHops),
			fmt.Sprintf("Responding: %d", summary.Responding))
		if summary.TotalTimeMs > 0 {
			parts = append(parts, fmt.Sprintf("Total: %.2f ms", summary.TotalTimeMs))
		}
	}

	parts = append(parts, "Press 'q' to quit")

	return m.styles.Subtle.Render(strings.Join(parts, " | "))
}

// runPath runs the test in the background.
func (m Model) runPath() tea.Cmd {
	return func() tea.Msg {
		return PathMsg{Result: m.cfg.Trace(m.ctx)}
	}
}

// enrich locates the hops, streaming each one to the updates channel.
func (m Model) enrich() tea.Cmd {
	hops := append([]trace.Hop(nil), m.hops...)
	updates := m.updates
	enricher := m.cfg.Enricher.WithOnHop(func(index int, hop trace.Hop) {
		updates <- HopMsg{Index: index, Hop: hop}
	})
	ctx := m.ctx

	return func() tea.Msg {
		enricher.Enrich(ctx, hops)
		close(updates)
		return nil
	}
}

// waitForHop waits for the next enriched hop.
func (m Model) waitForHop() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		hop, ok := <-updates
		if !ok {
			return EnrichDoneMsg{}
		}
		return hop
	}
}

// tickCmd returns a command that sends tick messages.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Result returns the final path, or nil while the tool is running.
func (m Model) Result() *trace.PathResult {
	return m.result
}

// Err returns the failure that ended the run.
func (m Model) Err() error {
	return m.err
}

// truncate truncates a string to maxLen.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
