package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/format"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// StatCard is a boxed headline metric with an optional trend line.
type StatCard struct {
	Trend      *float64
	Label      string
	Value      string
	ValueStyle *lipgloss.Style
	Width      int
}

// Render draws the card.
func (c StatCard) Render() string {
	valueStyle := styles.StatValueStyle
	if c.ValueStyle != nil {
		valueStyle = *c.ValueStyle
	}

	lines := []string{
		styles.StatLabelStyle.Render(c.Label),
		valueStyle.Render(c.Value),
	}
	if trend := format.Trend(c.Trend); trend != "" {
		lines = append(lines, styles.GetTrendStyle(c.Trend).Render(trendArrow(c.Trend)+" "+trend))
	} else {
		lines = append(lines, styles.TrendFlatStyle.Render("—"))
	}

	style := styles.StatCardStyle
	if c.Width > 0 {
		style = style.Width(c.Width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func trendArrow(delta *float64) string {
	switch {
	case delta == nil || *delta == 0:
		return "→"
	case *delta > 0:
		return "↑"
	default:
		return "↓"
	}
}

// RenderStatRow lays cards side by side, wrapping onto a second row when
// the terminal is too narrow.
func RenderStatRow(cards []StatCard, width int) string {
	if len(cards) == 0 {
		return ""
	}

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = c.Render()
	}

	var rows []string
	var row []string
	rowWidth := 0
	for _, r := range rendered {
		w := lipgloss.Width(r)
		if len(row) > 0 && width > 0 && rowWidth+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
			rowWidth = 0
		}
		row = append(row, r)
		rowWidth += w
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// ShareBar renders a labelled static progress bar, used for per-model cost
// share and forecast confidence.
type ShareBar struct {
	progress progress.Model
	label    string
	suffix   string
	percent  float64
}

// NewShareBar creates a bar of the given width.
func NewShareBar(width int) ShareBar {
	return ShareBar{
		progress: progress.New(
			progress.WithScaledGradient("#51cf66", "#ff6b6b"),
			progress.WithWidth(max(width, 10)),
			progress.WithoutPercentage(),
		),
	}
}

// Set updates the label, the 0-100 percentage and the trailing text.
func (b *ShareBar) Set(label string, percent float64, suffix string) {
	b.label = label
	b.percent = min(max(percent, 0), 100)
	b.suffix = suffix
}

// Percent returns the clamped percentage.
func (b ShareBar) Percent() float64 {
	return b.percent
}

// View renders label, bar and suffix on one line.
func (b ShareBar) View() string {
	label := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(18).Render(truncate(b.label, 17))
	bar := b.progress.ViewAs(b.percent / 100)
	pct := lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(7).Align(lipgloss.Right).
		Render(format.Percent(b.percent))
	line := label + bar + pct
	if b.suffix != "" {
		line += "  " + styles.HelpStyle.Render(b.suffix)
	}
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
