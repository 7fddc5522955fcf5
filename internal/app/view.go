package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// toastTop is the first screen row used by the toast stack, just below the
// navbar.
const toastTop = 2

// View renders the navbar, the visible screen and any overlays.
func (m *Model) View() string {
	var b strings.Builder
	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteByte('\n')
	}

	if !m.ready {
		b.WriteString(m.chrome.content.Render(m.spinner.View() + " Loading..."))
		return b.String()
	}
	b.WriteString(m.renderBody())

	view := b.String()
	if m.showHelp {
		view = m.overlayCentered(view, m.renderHelp())
	}
	return m.overlayToasts(view, m.renderToasts())
}

func (m *Model) renderBody() string {
	if m.state.IsInitialLoading() {
		return m.chrome.content.Render(m.spinner.View() + " Checking session...")
	}
	if screen := m.current(); screen != nil {
		return screen.View()
	}
	return m.chrome.content.Render(fmt.Sprintf("%s\n\n%s",
		m.activeTab, m.chrome.muted.Render("Nothing to show on this tab.")))
}

// renderNavbar lists the tabs and the signed-in user, or just the product
// name while signed out.
func (m *Model) renderNavbar() string {
	if !m.state.IsAuthenticated() {
		return m.chrome.navbar.Width(m.width).Render(m.chrome.activeTab.Render("Usage Dashboard"))
	}

	items := make([]string, 0, len(tabNames)+1)
	for i, name := range tabNames {
		if TabID(i) == m.activeTab {
			items = append(items, m.chrome.activeTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			items = append(items, m.chrome.idleTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}
	user := m.state.GetSession().User
	items = append(items, m.chrome.userBadge.Render("● "+user.DisplayName()))

	return m.chrome.navbar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, items...))
}

func (m *Model) renderHelp() string {
	c := m.chrome
	lines := []string{
		c.heading.Render("Keyboard Shortcuts"), "",
		c.section.Render("Navigation"),
		"  1-3        Switch tabs",
		"  Tab        Next tab",
		"  Shift+Tab  Previous tab",
		"",
		c.section.Render("Actions"),
		"  r          Refresh usage",
		"  L          Log out",
		"  ?          Toggle help",
		"  q/Ctrl+C   Quit",
		"",
	}

	if !m.showingAuth() {
		if screen := m.current(); screen != nil {
			if bindings := screen.ShortHelp(); len(bindings) > 0 {
				lines = append(lines, c.section.Render(m.activeTab.String()+" Tab"))
				for _, b := range bindings {
					lines = append(lines, fmt.Sprintf("  %-10s %s", b.Help().Key, b.Help().Desc))
				}
				lines = append(lines, "")
			}
		}
	}

	lines = append(lines, c.muted.Render("Press ? or Esc to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderToasts() []string {
	notifications := m.state.GetNotifications()
	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		look := m.chrome.toastKind[n.Type]
		prefix := look.prefix
		if n.Type == NotificationLoading {
			prefix = m.spinner.View()
		}
		toasts = append(toasts, m.chrome.toast.Render(look.style.Render(prefix+" "+n.Message)))
	}
	return toasts
}

// splice writes top over base starting at cell x, keeping whatever of base
// lies right of it.
func splice(base, top string, x int) string {
	left := ansi.Truncate(base, x, "")
	if w := lipgloss.Width(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	return left + top + ansi.TruncateLeft(base, x+lipgloss.Width(top), "")
}

// overlay writes block onto view with its top-left corner at (x, y),
// growing view with blank rows when it is too short.
func overlay(view, block string, x, y int) string {
	rows := strings.Split(view, "\n")
	for i, line := range strings.Split(block, "\n") {
		for y+i >= len(rows) {
			rows = append(rows, "")
		}
		rows[y+i] = splice(rows[y+i], line, x)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) overlayCentered(view, block string) string {
	x := max((m.width-lipgloss.Width(block))/2, 0)
	y := max((m.height-lipgloss.Height(block))/2, 0)
	return overlay(view, block, x, y)
}

// overlayToasts stacks toasts in the top-right corner.
func (m *Model) overlayToasts(view string, toasts []string) string {
	if len(toasts) == 0 {
		return view
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	x := max(m.width-lipgloss.Width(stack)-2, 0)
	return overlay(view, stack, x, toastTop)
}
