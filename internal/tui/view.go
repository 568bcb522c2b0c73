package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

const (
	defaultWidth = 80
	chartHeight  = 6
	axisWidth    = 8
	// below this width the cards are stacked
	stackBreakpoint = 72
)

func (m Model) renderDashboard() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	sections := []string{
		m.renderHeader(),
		m.renderCards(width),
		m.renderChart(width),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	return HeaderStyle.Render("RenuGrid Power Monitor") + "  " + m.renderConnectivity()
}

// renderConnectivity shows the indicator glyph and text. The spinner replaces
// the glyph before the first outcome and while retrying a failed feed.
func (m Model) renderConnectivity() string {
	c := m.state.Connectivity

	var style lipgloss.Style
	glyph := SpinnerFrames[m.spinnerFrame%len(SpinnerFrames)]
	switch c.Status() {
	case dashboard.StatusConnected:
		// a connected feed is never loading
		style = ConnectedStyle
		glyph = GlyphConnected
	case dashboard.StatusFailed:
		style = FailedStyle
		if !m.state.Loading {
			glyph = GlyphFailed
		}
	default:
		style = ConnectingStyle
	}
	return style.Render(glyph + " " + c.String())
}

func (m Model) renderCards(width int) string {
	d := telemetry.NewDisplay(m.state.Latest, m.loc)

	cards := []string{
		renderCard("Voltage", d.Voltage, "V"),
		renderCard("Current", d.Current, "mA"),
		renderCard("Power", d.Power, "mW"),
		renderModeCard(d),
	}
	if width < stackBreakpoint {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderCard(label, value, unit string) string {
	body := LabelStyle.Render(label) + "\n" +
		ValueStyle.Render(value) + " " + UnitStyle.Render(unit)
	return CardStyle.Render(body)
}

func renderModeCard(d telemetry.Display) string {
	style := UnknownStyle
	switch d.Mode {
	case telemetry.Generating.String():
		style = GeneratingStyle
	case telemetry.Consuming.String():
		style = ConsumingStyle
	}
	body := LabelStyle.Render("Mode") + "\n" + style.Render(d.Mode) + "\n" + UnitStyle.Render(d.ModeLabel)
	return CardStyle.Render(body)
}

// renderChart draws power (left axis) and current (right axis) over the
// history window.
func (m Model) renderChart(width int) string {
	series := telemetry.NewSeries(m.state.History, m.loc)

	plotWidth := width - 2*axisWidth - 2
	if plotWidth < 10 {
		plotWidth = 10
	}

	title := LabelStyle.Render("History ") +
		lipgloss.NewStyle().Foreground(ColorPower).Render("● power mW") + "  " +
		lipgloss.NewStyle().Foreground(ColorCurrent).Render("● current mA")

	if series.Len() == 0 {
		return title + "\n" + UnitStyle.Render("no data yet")
	}

	lines := plotDual(series.Power, series.Current, plotWidth, chartHeight).render()

	pMin, pMax := findRange(series.Power)
	cMin, cMax := findRange(series.Current)

	var b strings.Builder
	b.WriteString(title)
	for i, line := range lines {
		left, right := "", ""
		switch i {
		case 0:
			left, right = telemetry.FormatPower(pMax), telemetry.FormatCurrent(cMax)
		case len(lines) - 1:
			left, right = telemetry.FormatPower(pMin), telemetry.FormatCurrent(cMin)
		}
		b.WriteString("\n")
		b.WriteString(AxisStyle.Render(fmt.Sprintf("%*s ", axisWidth, left)))
		b.WriteString(line)
		b.WriteString(AxisStyle.Render(fmt.Sprintf(" %-*s", axisWidth, right)))
	}

	first, last := series.Labels[0], series.Labels[series.Len()-1]
	gap := plotWidth - lipgloss.Width(first) - lipgloss.Width(last)
	if gap < 1 {
		gap = 1
	}
	b.WriteString("\n")
	b.WriteString(AxisStyle.Render(strings.Repeat(" ", axisWidth+1) + first + strings.Repeat(" ", gap) + last))
	return b.String()
}

func (m Model) renderFooter() string {
	parts := []string{"Last updated: " + m.state.LastUpdated}
	if m.notice != "" {
		parts = append(parts, FailedStyle.Render(m.notice))
	}
	parts = append(parts, KeyRefresh+" refresh", KeyQuit+" quit")
	return FooterStyle.Render(strings.Join(parts, " · "))
}
