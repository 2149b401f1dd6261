package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the styles used in the TUI.
type Styles struct {
	// Text styles
	Title  lipgloss.Style
	Header lipgloss.Style
	Subtle lipgloss.Style

	// Status styles
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Hop styles
	HopNum   lipgloss.Style
	IP       lipgloss.Style
	Hostname lipgloss.Style
	Timeout  lipgloss.Style
	Location lipgloss.Style
	Internal lipgloss.Style

	// RTT styles (color-coded by latency)
	RTTLow  lipgloss.Style // < 50ms
	RTTMed  lipgloss.Style // 50-150ms
	RTTHigh lipgloss.Style // > 150ms
}

// DefaultStyles returns the default style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")),

		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red

		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")), // Orange

		HopNum: lipgloss.NewStyle().
			Foreground(lipgloss.Color("87")), // Cyan

		IP: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")), // White

		Hostname: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")), // Light green

		Timeout: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		Location: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")), // Blue

		Internal: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("141")), // Purple

		RTTLow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")),

		RTTMed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")),

		RTTHigh: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// PlainStyles returns a style set without colors, for --no-color.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Header:   lipgloss.NewStyle().Bold(true),
		Subtle:   plain,
		Success:  lipgloss.NewStyle().Bold(true),
		Error:    lipgloss.NewStyle().Bold(true),
		Warning:  lipgloss.NewStyle().Bold(true),
		HopNum:   lipgloss.NewStyle().Bold(true),
		IP:       plain,
		Hostname: lipgloss.NewStyle().Italic(true),
		Timeout:  plain,
		Location: plain,
		Internal: lipgloss.NewStyle().Italic(true),
		RTTLow:   plain,
		RTTMed:   plain,
		RTTHigh:  plain,
	}
}
