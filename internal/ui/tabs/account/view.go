package account

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

// profileFields are shown in this order when present.
var profileFields = []struct{ key, label string }{
	{"name", "Name"},
	{"email", "Email"},
	{"organization", "Organization"},
	{"role", "Role"},
	{"id", "User ID"},
	{"created_at", "Member since"},
}

// View renders the account tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	switch {
	case m.settings.Focused():
		sections = append(sections, m.renderForm(m.settings.View()))
	case m.addKey.Focused():
		sections = append(sections, m.renderForm(m.addKey.View()))
	default:
		sections = append(sections, m.renderProfileCard())
		if m.confirmDelete {
			sections = append(sections, m.renderDeleteConfirm())
		}
		sections = append(sections, m.renderKeysCard(), m.renderAboutCard())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderTitle renders the account tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Account")
	subtitle := styles.HelpStyle.Render("Profile, API keys and configuration")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderProfileCard() string {
	session := m.state.GetSession()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Profile"), "")

	found := false
	for _, f := range profileFields {
		if v := session.User.Field(f.key); v != "" {
			rows = append(rows, m.renderRow(f.label, v))
			found = true
		}
	}
	if !found {
		rows = append(rows, styles.HelpStyle.Render("Profile details unavailable"))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Press 's' to edit your profile"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderKeysCard() string {
	var rows []string
	title := styles.CardTitleStyle.Render("API Keys")
	if m.keysLoaded {
		active := 0
		for _, k := range m.apiKeys {
			if k.IsActive {
				active++
			}
		}
		title += styles.HelpStyle.Render(fmt.Sprintf("  %d registered, %d active", len(m.apiKeys), active))
	}
	rows = append(rows, title, "")

	switch {
	case m.loading && !m.keysLoaded:
		rows = append(rows, m.spinner.ViewWithLabel())
	case m.keysError != "" && !m.keysLoaded:
		rows = append(rows, styles.ErrorTextStyle.Render(m.keysError))
	case len(m.apiKeys) == 0:
		rows = append(rows,
			styles.HelpStyle.Render("No API keys registered."),
			styles.InfoTextStyle.Render("Press 'n' to add one"),
		)
	default:
		rows = append(rows, m.table.View())
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderForm(form string) string {
	return styles.ModalContentStyle.Width(m.cardWidth()).Render(form)
}

// renderDeleteConfirm renders the delete confirmation dialog.
func (m *Model) renderDeleteConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Delete API key?"),
		"",
		styles.ErrorTextStyle.Render(keyLabel(m.deleteKey)),
		"",
		"This action cannot be undone.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(50).Render(content),
		m.width,
	)
}

func keyLabel(k models.APIKey) string {
	if k.KeyPreview == "" {
		return k.Name
	}
	return fmt.Sprintf("%s (%s)", k.Name, k.KeyPreview)
}

// renderAboutCard renders configuration and build information.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About"), "")

	if m.config != nil {
		rows = append(rows,
			m.renderRow("API", m.config.APIURL),
			m.renderRow("Session file", m.config.SessionPath),
			m.renderRow("Database", m.config.DatabasePath),
			m.renderRow("Log file", m.config.LogPath),
			m.renderRow("Refresh every", m.config.RefreshInterval.String()),
			"",
		)
	}

	rows = append(rows,
		m.renderRow("Version", version.GetVersion()),
		m.renderRow("Git Commit", version.GetCommit()),
		m.renderRow("Build Date", version.GetDate()),
		m.renderRow("Go Version", runtime.Version()),
		m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderRow renders a key-value row.
func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
