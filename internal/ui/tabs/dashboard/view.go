package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/format"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

const recentRows = 10

// View renders the dashboard component.
func (m *Model) View() string {
	usage := m.state.GetUsage()

	// Nothing to show until the first fetch lands.
	if usage.UpdatedAt.IsZero() && usage.Error == "" {
		return m.renderLoading()
	}

	var sections []string

	sections = append(sections, m.renderTitle(usage))
	if usage.Error != "" {
		sections = append(sections, m.renderErrorBanner(usage))
	}
	sections = append(sections, m.renderStats(usage.Stats))
	sections = append(sections, m.renderCharts(usage))
	sections = append(sections, m.renderModelBreakdown(usage.Data))
	sections = append(sections, m.renderRecent(usage.Data))
	sections = append(sections, m.renderPredictions())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

// renderTitle renders the heading with the window and refresh status.
func (m *Model) renderTitle(usage poller.State) string {
	title := styles.TitleStyle.Render("Usage Overview")

	var status []string
	status = append(status, styles.FocusedStyle.Render(usage.Period.Label()))
	if !usage.UpdatedAt.IsZero() {
		status = append(status, "updated "+format.Ago(m.now().Sub(usage.UpdatedAt)))
	}
	if usage.AutoRefresh {
		status = append(status, styles.SuccessTextStyle.Render("auto-refresh on"))
	} else {
		status = append(status, styles.HelpStyle.Render("auto-refresh off"))
	}
	if usage.Loading {
		status = append(status, m.spinner.ViewWith("refreshing"))
	}

	subtitle := styles.HelpStyle.Render(strings.Join(status, " • "))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderErrorBanner(usage poller.State) string {
	msg := "⚠ " + usage.Error
	if len(usage.Data) > 0 || usage.Stats != nil {
		msg += " (showing last successful data)"
	}
	return styles.NotificationErrorStyle.Width(m.cardWidth()).Render(msg)
}

// renderStats renders the headline metric cards.
func (m *Model) renderStats(stats *models.StatsSummary) string {
	if stats == nil {
		return styles.CardStyle.Width(m.cardWidth()).Render(
			styles.HelpStyle.Render("No statistics for this period"),
		)
	}

	errStyle := styles.GetErrorRateStyle(stats.ErrorRate)
	latency := "—"
	if stats.AvgResponseTime != nil {
		latency = format.Latency(*stats.AvgResponseTime)
	}

	cards := []components.StatCard{
		{Label: "Total Cost", Value: format.Currency(stats.TotalCost), Trend: stats.CostTrend, Width: 18},
		{Label: "Tokens", Value: format.Compact(stats.TotalTokens), Trend: stats.TokenTrend, Width: 18},
		{Label: "Requests", Value: format.Number(stats.TotalRequests), Trend: stats.RequestTrend, Width: 18},
		{Label: "Error Rate", Value: format.Percent(stats.ErrorRate), Trend: stats.ErrorTrend, ValueStyle: &errStyle, Width: 18},
		{Label: "Avg Latency", Value: latency, Width: 18},
	}

	return components.RenderStatRow(cards, m.cardWidth()) + "\n"
}

// renderCharts renders cost over time, token split and hourly activity.
func (m *Model) renderCharts(usage poller.State) string {
	width := m.cardWidth()
	chartWidth := max(width-16, 20)

	series := bucketRecords(usage.Data, usage.Period, m.now())

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Cost Over Time"))
	if len(usage.Data) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No usage recorded in this period"))
	} else {
		rows = append(rows, components.RenderLineChart(series.Cost, chartWidth, 8, "cost ($) per "+bucketLabel(usage.Period)))
		rows = append(rows, "")
		rows = append(rows, styles.CardTitleStyle.Render("Input vs Output Tokens"))
		rows = append(rows, components.RenderDualLineChart(series.InputTokens, series.OutputTokens, chartWidth, 6, ""))
		rows = append(rows, components.RenderLegend([]components.LegendItem{
			{Label: "input", Color: components.ChartPrimaryColor},
			{Label: "output", Color: components.ChartSecondaryColor},
		}))
		rows = append(rows, "")
		rows = append(rows, styles.CardTitleStyle.Render("Requests by Hour"))
		rows = append(rows, components.RenderHourlyHeatmap(hourlyRequests(usage.Data, time.Local)))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func bucketLabel(p models.Period) string {
	switch bucketSize(p) {
	case time.Hour:
		return "hour"
	case 24 * time.Hour:
		return "day"
	default:
		return "3 days"
	}
}

// renderModelBreakdown renders the cost share of each model.
func (m *Model) renderModelBreakdown(records []models.UsageRecord) string {
	width := m.cardWidth()
	breakdown := costByModel(records)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Cost by Model"))
	if len(breakdown) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No models used yet"))
	}

	bar := components.NewShareBar(max(width-50, 10))
	for _, mc := range breakdown {
		bar.Set(mc.Model, mc.Share, fmt.Sprintf("%s • %s tok", format.Currency(mc.Cost), format.Compact(mc.Tokens)))
		rows = append(rows, bar.View())
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRecent renders the newest records as a table.
func (m *Model) renderRecent(records []models.UsageRecord) string {
	width := m.cardWidth()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Recent Requests"))
	if len(records) == 0 {
		rows = append(rows, styles.HelpStyle.Render("Nothing yet"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	header := fmt.Sprintf("%-16s %-22s %10s %10s %8s", "Time", "Model", "Tokens", "Cost", "Status")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for _, r := range recentRecords(records, recentRows) {
		status := styles.SuccessTextStyle.Render(fmt.Sprintf("%8s", statusText(r)))
		if r.Failed() {
			status = styles.ErrorTextStyle.Render(fmt.Sprintf("%8s", statusText(r)))
		}
		line := fmt.Sprintf("%-16s %-22s %10s %10s ",
			r.Timestamp.Local().Format("01-02 15:04"),
			truncate(r.ModelName, 22),
			format.Number(r.TotalTokens),
			format.Currency(r.Cost),
		)
		rows = append(rows, line+status)
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func statusText(r models.UsageRecord) string {
	if r.StatusCode != 0 {
		return fmt.Sprintf("%d", r.StatusCode)
	}
	if r.Failed() {
		return fmt.Sprintf("%d err", r.Errors)
	}
	return "ok"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderPredictions renders the latest forecast.
func (m *Model) renderPredictions() string {
	width := m.cardWidth()
	preds := m.state.GetPredictions()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Cost Forecast"))

	switch {
	case m.generating:
		rows = append(rows, m.spinner.ViewWith("Generating forecast..."))
	case preds.Loading && m.predictionsRequested:
		rows = append(rows, m.spinner.ViewWith("Loading forecasts..."))
	case preds.Error != "":
		rows = append(rows, styles.ErrorTextStyle.Render(preds.Error))
	case len(preds.Predictions) == 0:
		rows = append(rows, styles.HelpStyle.Render("No forecasts yet. Press f to generate one."))
	default:
		p := preds.Predictions[0]
		rows = append(rows, fmt.Sprintf("%s  %s   %s  %s   %s  %s",
			styles.StatLabelStyle.Render("Daily"), styles.StatValueStyle.Render(format.Currency(p.PredictedDailyCost)),
			styles.StatLabelStyle.Render("Weekly"), styles.StatValueStyle.Render(format.Currency(p.PredictedWeeklyCost)),
			styles.StatLabelStyle.Render("Monthly"), styles.StatValueStyle.Render(format.Currency(p.PredictedMonthlyCost)),
		))
		bar := components.NewShareBar(max(width-50, 10))
		bar.Set("Confidence", p.ConfidencePercent(), p.ModelUsed)
		rows = append(rows, bar.View())
		if !p.CreatedAt.IsZero() {
			rows = append(rows, styles.HelpStyle.Render("generated "+format.Ago(m.now().Sub(p.CreatedAt))))
		}
		if len(preds.Predictions) > 1 {
			rows = append(rows, "", styles.HelpStyle.Render("Previous forecasts (monthly)"))
			var monthly []float64
			for i := len(preds.Predictions) - 1; i >= 0; i-- {
				monthly = append(monthly, preds.Predictions[i].PredictedMonthlyCost)
			}
			rows = append(rows, components.RenderColoredSparkline(monthly, min(len(monthly), width-10)))
		}
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
