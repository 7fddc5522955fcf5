// Package styles holds the dashboard palette and the lipgloss styles shared
// by the tabs and components.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette, in 256-color codes.
var (
	Primary   = lipgloss.Color("205")
	Secondary = lipgloss.Color("63")
	Subtle    = lipgloss.Color("240")

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func rounded(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border)
}

// Layout.
var (
	DocStyle       = lipgloss.NewStyle().Margin(1, 2).Padding(0, 1)
	TitleStyle     = fg(Primary).Bold(true).MarginBottom(1)
	CardStyle      = rounded(Subtle).Padding(1, 2).MarginBottom(1)
	CardTitleStyle = TitleStyle
	HelpStyle      = fg(TextMuted)
	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Primary).
			Background(BgDark).
			Padding(1, 3)
	ModalContentStyle = HelpPanelStyle.Padding(1, 2)
	TableHeaderStyle  = fg(Primary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(Subtle)
)

// Forms.
var (
	FocusedStyle       = fg(Primary).Bold(true)
	BlurredStyle       = fg(TextMuted)
	FocusedBorderStyle = rounded(Primary).Padding(0, 1)
	BlurredBorderStyle = rounded(Subtle).Padding(0, 1)

	ButtonStyle         = lipgloss.NewStyle().Padding(0, 2).MarginRight(1)
	ButtonActiveStyle   = ButtonStyle.Background(Primary).Foreground(lipgloss.Color("229")).Bold(true)
	ButtonInactiveStyle = ButtonStyle.Background(BgLight).Foreground(TextSecondary)
)

// Status text and toasts.
var (
	ErrorTextStyle   = fg(Error)
	SuccessTextStyle = fg(Success)
	WarningTextStyle = fg(Warning)
	InfoTextStyle    = fg(Info)

	ToastStyle             = rounded(Primary).Padding(0, 1).MarginBottom(1)
	NotificationErrorStyle = rounded(Error).Foreground(Error).Padding(0, 2).MarginBottom(1)
)

// Headline metrics.
var (
	StatCardStyle  = rounded(Secondary).Padding(0, 2).MarginRight(1)
	StatValueStyle = fg(TextPrimary).Bold(true)
	StatLabelStyle = fg(TextSecondary)

	TrendFlatStyle = fg(Subtle)
	trendUpStyle   = fg(Warning).Bold(true)
	trendDownStyle = fg(Success).Bold(true)
)

// GetTrendStyle styles a percentage change against the previous window.
// Growth is drawn as a warning: rising spend is what users watch for.
func GetTrendStyle(delta *float64) lipgloss.Style {
	switch {
	case delta == nil || *delta == 0:
		return TrendFlatStyle
	case *delta > 0:
		return trendUpStyle
	default:
		return trendDownStyle
	}
}

// GetErrorRateStyle styles an error rate in percent: under 1% is healthy,
// 5% and above is bold red.
func GetErrorRateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 5:
		return fg(Error).Bold(true)
	case rate >= 1:
		return fg(Warning)
	default:
		return fg(Success)
	}
}

// GetIntensityStyle colors a value by its share of the maximum.
func GetIntensityStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 80:
		return fg(Error)
	case percent >= 50:
		return fg(Warning)
	case percent > 0:
		return fg(Success)
	default:
		return fg(Subtle)
	}
}

// CenterHorizontal centers content in a line of the given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

// CenterBoth centers content in a width by height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
