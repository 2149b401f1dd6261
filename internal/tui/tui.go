package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// Run shows the live view until the user quits and returns the final
// path. A failed test is returned as an error after the screen is
// restored.
func Run(ctx context.Context, cfg Config) (*trace.PathResult, error) {
	if cfg.Trace == nil {
		return nil, errors.New("tui: no trace function")
	}

	model := New(ctx, cfg)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(Model); ok {
		if m.state == StateError && m.err != nil {
			return m.result, m.err
		}
		return m.result, nil
	}
	return nil, nil
}
