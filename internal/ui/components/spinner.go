package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// LoadingSpinner is a dot spinner with a default caption. Tabs keep one
// spinner and show it next to whatever request is in flight.
type LoadingSpinner struct {
	spinner spinner.Model
	label   string
	style   lipgloss.Style
}

// NewSpinner creates a spinner captioned with label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return LoadingSpinner{
		spinner: s,
		label:   label,
		style:   lipgloss.NewStyle().Foreground(styles.TextSecondary),
	}
}

// Init starts the animation.
func (l LoadingSpinner) Init() tea.Cmd {
	return l.spinner.Tick
}

// Tick is Init under the name used when a request starts.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the animation on its own tick messages.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the bare spinner frame.
func (l LoadingSpinner) View() string {
	return l.spinner.View()
}

// ViewWithLabel renders the frame followed by the default caption.
func (l LoadingSpinner) ViewWithLabel() string {
	return l.ViewWith(l.label)
}

// ViewWith renders the frame followed by caption, for one-off states such as
// "refreshing" or "Generating forecast...".
func (l LoadingSpinner) ViewWith(caption string) string {
	if caption == "" {
		return l.spinner.View()
	}
	return l.spinner.View() + " " + l.style.Render(caption)
}

// RenderSpinnerCentered renders a captioned spinner in the middle of an
// otherwise empty tab.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
