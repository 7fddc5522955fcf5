package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/format"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(styles.Primary)
	rangeStyle  = lipgloss.NewStyle().
			Foreground(styles.Primary).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Primary)
)

// View renders the history tab.
func (m *Model) View() string {
	switch {
	case m.loading && !m.loaded:
		return m.frame(styles.HelpStyle.Render("Loading history data..."))
	case m.errorMsg != "" && !m.loaded:
		return m.frame(styles.ErrorTextStyle.Render("Error:") + " " + m.errorMsg)
	case len(m.snapshots) == 0 && len(m.events) == 0:
		return m.frame(lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("History"),
			"",
			styles.HelpStyle.Render("No historical data available yet."),
			styles.HelpStyle.Render("Data will appear as usage refreshes are recorded."),
		))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderSnapshotChart(),
		m.renderWeeklyPattern(),
		m.renderSessionLog(),
	))
	return m.frame(m.viewport.View())
}

func (m *Model) frame(content string) string {
	return styles.DocStyle.Width(m.width).Height(m.height).Render(content)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

// card renders a titled section. Body lines are used as given.
func (m *Model) card(icon, title string, body ...string) string {
	lines := append([]string{accentStyle.Render(icon) + " " + styles.CardTitleStyle.Render(title), ""}, body...)
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// indent splits a multi-line block and pads each line by two spaces.
func indent(block string) []string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return lines
}

func (m *Model) renderHeader() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.TitleStyle.Render("History"), "  ", rangeStyle.Render("[t] "+m.period.Label()))

	var span string
	if n := len(m.snapshots); n > 0 {
		const layout = "Jan 2 15:04"
		span = styles.HelpStyle.Render(fmt.Sprintf("%d snapshots: %s → %s", n,
			m.snapshots[0].RecordedAt.Local().Format(layout),
			m.snapshots[n-1].RecordedAt.Local().Format(layout)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, span, "")
}

func (m *Model) renderSnapshotChart() string {
	const title = "Window Totals Over Time"
	if len(m.snapshots) == 0 {
		return m.card("📈", title, styles.HelpStyle.Render("  No snapshots for this range"))
	}

	series := seriesOf(m.snapshots)
	latest := m.snapshots[len(m.snapshots)-1]
	chartWidth := max(m.cardWidth()-12, 30)
	errStyle := styles.GetErrorRateStyle(latest.ErrorRate)

	body := []string{
		components.RenderStatRow([]components.StatCard{
			{Label: "Latest Cost", Value: format.Currency(latest.TotalCost), Trend: costChange(m.snapshots), Width: 20},
			{Label: "Requests", Value: format.Number(latest.TotalRequests), Width: 20},
			{Label: "Error Rate", Value: format.Percent(latest.ErrorRate), ValueStyle: &errStyle, Width: 20},
		}, m.cardWidth()-4),
		"",
	}
	body = append(body, indent(components.RenderLineChart(series.Cost, chartWidth, 8, "window cost ($) per refresh"))...)
	body = append(body, "")
	body = append(body, indent(components.RenderDualLineChart(series.Requests, series.Errors, chartWidth, 6, "requests vs errors"))...)
	body = append(body,
		"  "+components.RenderLegend([]components.LegendItem{
			{Label: "Requests", Color: components.ChartPrimaryColor},
			{Label: "Errors", Color: components.ChartSecondaryColor},
		}),
		"",
		"  Error rate "+components.RenderSparkline(series.ErrorRate, min(len(series.ErrorRate), chartWidth)),
		"",
	)
	return m.card("📈", title, body...)
}

func (m *Model) renderWeeklyPattern() string {
	const title = "Weekly Pattern"
	records := m.state.GetUsage().Data
	if len(records) == 0 {
		return m.card("📅", title, styles.HelpStyle.Render("  No usage records loaded"), "")
	}

	cost, requests := weekdayTotals(records, time.Local)
	body := []string{"  " + components.RenderWeeklyPattern(requests, dayNames), ""}
	body = append(body, indent(components.RenderBarChart(cost, dayNames, max(m.cardWidth()-12, 30), format.Currency))...)
	if day, val := peakDay(cost); day != "" {
		body = append(body, "", fmt.Sprintf("  Peak day: %s (%s)", accentStyle.Bold(true).Render(day), format.Currency(val)))
	}
	return m.card("📅", title, append(body, "")...)
}

func (m *Model) renderSessionLog() string {
	if len(m.events) == 0 {
		return m.card("🔑", "Session Log", styles.HelpStyle.Render("  No session events recorded"))
	}
	body := make([]string, 0, len(m.events))
	for _, e := range m.events {
		body = append(body, fmt.Sprintf("  %s  %s  %s",
			styles.HelpStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04")),
			eventLabel(e.Type),
			e.User,
		))
	}
	return m.card("🔑", "Session Log", body...)
}

var eventStyles = map[models.SessionEventType]lipgloss.Style{
	models.SessionEventLogin:   styles.SuccessTextStyle,
	models.SessionEventLogout:  styles.InfoTextStyle,
	models.SessionEventExpired: styles.WarningTextStyle,
}

// eventLabel pads the event name to a fixed column and colors known types.
func eventLabel(t models.SessionEventType) string {
	label := fmt.Sprintf("%-8s", string(t))
	if style, ok := eventStyles[t]; ok {
		return style.Render(label)
	}
	return label
}
