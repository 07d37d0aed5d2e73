// Package ui provides terminal styling for rd CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/inkforge/redraft/internal/types"
)

// Ayu theme color palette
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

// Status styles - consistent across all commands
var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// HeaderStyle for section headers - bold with accent color
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
)

// Plain disables all styling. Used for --json output and when stdout
// is not a terminal.
func Plain() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// OutcomeIcon maps a run outcome to its status icon.
func OutcomeIcon(outcome types.RunOutcome) string {
	switch outcome {
	case types.OutcomeApproved:
		return IconPass
	case types.OutcomeExhausted:
		return IconWarn
	default:
		return IconFail
	}
}

// OutcomeStyle maps a run outcome to its display style.
func OutcomeStyle(outcome types.RunOutcome) lipgloss.Style {
	switch outcome {
	case types.OutcomeApproved:
		return PassStyle
	case types.OutcomeExhausted:
		return WarnStyle
	case types.OutcomeAborted:
		return FailStyle
	default:
		return MutedStyle
	}
}
