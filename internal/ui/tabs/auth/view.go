package auth

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// View renders the auth screen.
func (m *Model) View() string {
	title := styles.TitleStyle.Render("API Usage Dashboard")
	subtitle := styles.HelpStyle.Render("Sign in to see usage, costs and forecasts")

	form := styles.CardStyle.Render(m.active().View())

	hint := "ctrl+t: create an account"
	if m.mode == formRegister {
		hint = "ctrl+t: back to sign in"
	}
	footer := styles.HelpStyle.Render(hint + " • tab: next field • enter: submit • ctrl+c: quit")

	content := lipgloss.JoinVertical(lipgloss.Center, title, subtitle, "", form, footer)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return styles.CenterBoth(content, m.width, m.height)
}
