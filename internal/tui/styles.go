package tui

import "github.com/charmbracelet/lipgloss"

const (
	ColorBorder        = lipgloss.Color("#2A2A4A")
	ColorHealthy       = lipgloss.Color("#39FF14")
	ColorWarning       = lipgloss.Color("#FFAA00")
	ColorCritical      = lipgloss.Color("#FF0055")
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	// chart series
	ColorPower   = lipgloss.Color("#00FFFF")
	ColorCurrent = lipgloss.Color("#FF2E97")
	ColorOverlap = lipgloss.Color("#FFFFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	UnitStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	AxisStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ConnectedStyle  = lipgloss.NewStyle().Foreground(ColorHealthy)
	ConnectingStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	FailedStyle     = lipgloss.NewStyle().Foreground(ColorCritical)

	GeneratingStyle = lipgloss.NewStyle().Foreground(ColorHealthy).Bold(true)
	ConsumingStyle  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	UnknownStyle    = lipgloss.NewStyle().Foreground(ColorTextMuted)
)

// Status glyphs of the connectivity indicator.
const (
	GlyphConnected = "◉"
	GlyphFailed    = "◌"
)

// SpinnerFrames animate the indicator while a poll is in flight.
var SpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
