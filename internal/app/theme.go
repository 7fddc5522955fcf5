package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// chrome styles the frame around the tabs: navbar, toasts and overlays.
type chrome struct {
	navbar    lipgloss.Style
	activeTab lipgloss.Style
	idleTab   lipgloss.Style
	userBadge lipgloss.Style
	content   lipgloss.Style
	heading   lipgloss.Style
	section   lipgloss.Style
	muted     lipgloss.Style
	toast     lipgloss.Style
	toastKind map[NotificationType]toastLook
}

// toastLook is how one kind of toast is marked.
type toastLook struct {
	style  lipgloss.Style
	prefix string
}

func newChrome() chrome {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	accent := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}
	tone := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Padding(0, 1)
	}

	return chrome{
		navbar: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(subtle),
		activeTab: lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 2),
		idleTab:   lipgloss.NewStyle().Foreground(subtle).Padding(0, 2),
		userBadge: tone(info),
		content:   lipgloss.NewStyle().Padding(1, 2),
		heading:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		section:   lipgloss.NewStyle().Foreground(accent),
		muted:     lipgloss.NewStyle().Foreground(subtle),
		toast:     styles.ToastStyle,
		toastKind: map[NotificationType]toastLook{
			NotificationSuccess: {tone(lipgloss.Color("#04B575")), "[OK]"},
			NotificationError:   {tone(lipgloss.Color("#FF5F87")).Bold(true), "[ERR]"},
			NotificationWarning: {tone(lipgloss.Color("#FF8C00")), "[WARN]"},
			NotificationInfo:    {tone(info), "[INFO]"},
			NotificationLoading: {tone(info), ""},
		},
	}
}
