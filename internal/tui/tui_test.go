package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

type fixedLocator struct{}

func (fixedLocator) Locate(ctx context.Context, ip string) (geo.Record, error) {
	return geo.Record{IP: ip, Country: "Germany", City: "Frankfurt"}, nil
}

func samplePath() *trace.PathResult {
	return &trace.PathResult{
		Kind:    "mtr",
		Target:  "example.com",
		Tool:    "mtr",
		Success: true,
		Hops: []trace.Hop{
			{Number: 1, IP: "192.168.1.1", Hostname: "192.168.1.1", AvgRTT: 0.8},
			{Number: 2, IP: trace.NoReply, LossPercent: 100},
			{Number: 3, IP: "93.184.216.34", Hostname: "93.184.216.34", AvgRTT: 85.1},
		},
	}
}

func plainConfig(result *trace.PathResult, e *enrich.Enricher) Config {
	return Config{
		Title:    "mtr",
		Target:   "example.com",
		Trace:    func(context.Context) *trace.PathResult { return result },
		Enricher: e,
		Plain:    true,
	}
}

// drive feeds msg to the model and drops the returned command.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_WithoutEnricher(t *testing.T) {
	m := New(context.Background(), plainConfig(samplePath(), nil))

	msg := m.runPath()()
	m = drive(t, m, msg)

	if m.state != StateComplete {
		t.Fatalf("state = %v, want StateComplete", m.state)
	}
	view := m.View()
	for _, want := range []string{"netscope mtr", "Target: example.com | Tool: mtr", "192.168.1.1", "* * *", "Hops: 3", "Responding: 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestModel_EnrichStreamsHops(t *testing.T) {
	e := enrich.New(enrich.Config{Locator: fixedLocator{}})
	m := New(context.Background(), plainConfig(samplePath(), e))

	m = drive(t, m, m.runPath()())
	if m.state != StateEnriching {
		t.Fatalf("state = %v, want StateEnriching", m.state)
	}

	// Run the enrichment synchronously, then drain the updates.
	m.enrich()()
	for {
		msg := m.waitForHop()()
		m = drive(t, m, msg)
		if _, done := msg.(EnrichDoneMsg); done {
			break
		}
	}

	if m.state != StateComplete {
		t.Fatalf("state = %v, want StateComplete", m.state)
	}
	if m.located != 2 {
		t.Errorf("located = %d, want 2", m.located)
	}
	if !m.hops[0].Internal {
		t.Error("hop 1 not marked internal")
	}
	if got := m.hops[2].LocationLabel(); got != "Frankfurt, Germany" {
		t.Errorf("hop 3 location = %q, want Frankfurt, Germany", got)
	}
	if m.Result().Hops[2].Location == nil {
		t.Error("result hops were not updated")
	}

	view := m.View()
	if !strings.Contains(view, trace.InternalLabel) || !strings.Contains(view, "Frankfurt, Germany") {
		t.Errorf("View() missing locations:\n%s", view)
	}
}

func TestModel_FailedPath(t *testing.T) {
	failed := &trace.PathResult{Kind: "mtr", Target: "example.com", Error: "mtr: tool not installed"}
	m := New(context.Background(), plainConfig(failed, nil))

	next, cmd := m.Update(m.runPath()())
	m = next.(Model)

	if m.state != StateError {
		t.Fatalf("state = %v, want StateError", m.state)
	}
	if m.Err() == nil || m.Err().Error() != "mtr: tool not installed" {
		t.Errorf("Err() = %v", m.Err())
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not tea.Quit")
	}
	if !strings.Contains(m.View(), "mtr: tool not installed") {
		t.Errorf("View() does not show the error:\n%s", m.View())
	}
}

func TestModel_QuitCancels(t *testing.T) {
	m := New(context.Background(), plainConfig(samplePath(), nil))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)

	if m.ctx.Err() == nil {
		t.Error("context not canceled after quit")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a very long string", 10, "this is..."},
		{"ab", 2, "ab"},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestColorizeRTT(t *testing.T) {
	model := Model{
		styles: DefaultStyles(),
	}

	tests := []struct {
		name string
		rtt  float64
	}{
		{"low latency", 25.0},
		{"medium latency", 75.0},
		{"high latency", 200.0},
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := model.colorizeRTT("10.00 ms", tt.rtt)
			if !strings.Contains(result, "10.00 ms") {
				t.Errorf("colorizeRTT() = %q, want the text kept", result)
			}
		})
	}
}
