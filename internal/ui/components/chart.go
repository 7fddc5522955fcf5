// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// Series colors shared by the charts and their legends.
var (
	ChartPrimaryColor   = lipgloss.Color("#cc785c")
	ChartSecondaryColor = lipgloss.Color("#4285f4")
)

const (
	minChartWidth  = 20
	minChartHeight = 3
	minBarWidth    = 10
)

var (
	sparkRunes   = []rune("▁▂▃▄▅▆▇█")
	heatmapRunes = []rune("░▒▓█")
)

// heatmapStyles color heatmapRunes index by index.
var heatmapStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(styles.Subtle),
	lipgloss.NewStyle().Foreground(styles.Success),
	lipgloss.NewStyle().Foreground(styles.Warning),
	lipgloss.NewStyle().Foreground(styles.Error),
}

// peak returns the largest value, or 1 when nothing is positive so callers
// can divide by it.
func peak(values []float64) float64 {
	top := 0.0
	for _, v := range values {
		top = max(top, v)
	}
	if top == 0 {
		return 1
	}
	return top
}

// level maps v onto 0..steps-1 relative to top.
func level(v, top float64, steps int) int {
	return min(max(int(v/top*float64(steps-1)), 0), steps-1)
}

// fit pads or truncates values to n entries.
func fit(values []float64, n int) []float64 {
	if len(values) == n {
		return values
	}
	out := make([]float64, n)
	copy(out, values)
	return out
}

func plotOptions(width, height int, caption string) []asciigraph.Option {
	return []asciigraph.Option{
		asciigraph.Width(max(width, minChartWidth)),
		asciigraph.Height(max(height, minChartHeight)),
		asciigraph.Caption(caption),
	}
}

// RenderLineChart plots one series, such as cost per time bucket.
func RenderLineChart(data []float64, width, height int, caption string) string {
	switch len(data) {
	case 0:
		return styles.HelpStyle.Render("No data available")
	case 1:
		// asciigraph needs two points to draw a line.
		data = []float64{data[0], data[0]}
	}
	return asciigraph.Plot(data, plotOptions(width, height, caption)...)
}

// RenderDualLineChart plots two series on a shared axis, primary in red and
// secondary in blue. The shorter series is padded with zeros.
func RenderDualLineChart(primary, secondary []float64, width, height int, caption string) string {
	n := max(len(primary), len(secondary))
	if n == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	opts := append(plotOptions(width, height, caption),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue))
	return asciigraph.PlotMany([][]float64{fit(primary, n), fit(secondary, n)}, opts...)
}

// RenderBarChart draws one horizontal bar per value. format renders the value
// printed after each bar; nil prints one decimal.
func RenderBarChart(values []float64, labels []string, width int, format func(float64) string) string {
	if len(values) == 0 {
		return ""
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}

	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	barWidth := max(width-labelWidth-10, minBarWidth)
	top := peak(values)
	pad := lipgloss.NewStyle().Width(labelWidth).Align(lipgloss.Right)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		n := max(int(v/top*float64(barWidth)), 0)
		lines = append(lines, pad.Render(label)+" │"+strings.Repeat("█", n)+" "+format(v))
	}
	return strings.Join(lines, "\n")
}

// RenderHourlyHeatmap shows 24 hourly buckets, split at noon.
func RenderHourlyHeatmap(hours []float64) string {
	hours = fit(hours, 24)
	top := peak(hours)

	var b strings.Builder
	b.WriteString("00 ")
	for i, v := range hours {
		lvl := level(v, top, len(heatmapRunes))
		b.WriteString(heatmapStyles[lvl].Render(string(heatmapRunes[lvl])))
		if i == 11 {
			b.WriteByte(' ')
		}
	}
	b.WriteString(" 23")
	return b.String()
}

// RenderWeeklyPattern prints each day name followed by a one-cell bar.
func RenderWeeklyPattern(days []float64, dayNames []string) string {
	days = fit(days, 7)
	if len(dayNames) != 7 {
		dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	}
	top := peak(days)

	parts := make([]string, len(days))
	for i, v := range days {
		parts[i] = dayNames[i] + " " + string(sparkRunes[level(v, top, len(sparkRunes))])
	}
	return strings.Join(parts, " ")
}

// sample picks at most width values spread evenly across values.
func sample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	step := float64(len(values)) / float64(width)
	out := make([]float64, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, values[int(float64(i)*step)])
	}
	return out
}

// RenderSparkline renders values as a single line of block characters.
func RenderSparkline(values []float64, width int) string {
	top := peak(values)
	var b strings.Builder
	for _, v := range sample(values, width) {
		b.WriteRune(sparkRunes[level(v, top, len(sparkRunes))])
	}
	return b.String()
}

// RenderColoredSparkline is RenderSparkline with each cell colored by its
// share of the peak.
func RenderColoredSparkline(values []float64, width int) string {
	top := peak(values)
	var b strings.Builder
	for _, v := range sample(values, width) {
		cell := string(sparkRunes[level(v, top, len(sparkRunes))])
		b.WriteString(styles.GetIntensityStyle(v / top * 100).Render(cell))
	}
	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend renders colored markers for a chart's series.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = lipgloss.NewStyle().Foreground(item.Color).Render("■") + " " + item.Label
	}
	return strings.Join(parts, "  ")
}
