package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// FieldSpec describes one input of a Form.
type FieldSpec struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
	CharLimit   int
	Secret      bool
}

// FormSubmitMsg is emitted when enter is pressed on the last field.
type FormSubmitMsg struct {
	Values map[string]string
	Form   string
}

// FormCancelMsg is emitted when esc is pressed.
type FormCancelMsg struct {
	Form string
}

// FormKeyMap defines the form navigation keys.
type FormKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

// DefaultFormKeyMap returns the default form bindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Form is a vertical stack of text inputs with a submit button.
type Form struct {
	keys    FormKeyMap
	name    string
	title   string
	err     string
	specs   []FieldSpec
	inputs  []textinput.Model
	focus   int
	width   int
	busy    bool
	focused bool
}

// NewForm builds a form. name identifies it in submit and cancel messages.
func NewForm(name, title string, fields []FieldSpec) Form {
	f := Form{
		keys:   DefaultFormKeyMap(),
		name:   name,
		title:  title,
		specs:  fields,
		inputs: make([]textinput.Model, len(fields)),
		width:  40,
	}
	for i, spec := range fields {
		ti := textinput.New()
		ti.Placeholder = spec.Placeholder
		ti.Prompt = ""
		ti.CharLimit = spec.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 256
		}
		ti.SetValue(spec.Value)
		if spec.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.Width = f.width
		f.inputs[i] = ti
	}
	return f
}

// Name returns the form identifier.
func (f Form) Name() string {
	return f.name
}

// Focus activates the form and its current field.
func (f *Form) Focus() tea.Cmd {
	f.focused = true
	return f.focusField(f.focus)
}

// Blur deactivates every field.
func (f *Form) Blur() {
	f.focused = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// Focused reports whether the form is receiving keys.
func (f Form) Focused() bool {
	return f.focused
}

// SetBusy disables submission while a request is in flight.
func (f *Form) SetBusy(busy bool) {
	f.busy = busy
}

// Busy reports whether a submission is in flight.
func (f Form) Busy() bool {
	return f.busy
}

// SetError shows a message under the fields. Empty clears it.
func (f *Form) SetError(msg string) {
	f.err = msg
}

// Error returns the current error line.
func (f Form) Error() string {
	return f.err
}

// SetWidth sets the input width.
func (f *Form) SetWidth(width int) {
	f.width = max(width, 10)
	for i := range f.inputs {
		f.inputs[i].Width = f.width
	}
}

// Value returns the current text of a field.
func (f Form) Value(key string) string {
	for i, spec := range f.specs {
		if spec.Key == key {
			return f.inputs[i].Value()
		}
	}
	return ""
}

// SetValue replaces the text of a field.
func (f *Form) SetValue(key, value string) {
	for i, spec := range f.specs {
		if spec.Key == key {
			f.inputs[i].SetValue(value)
			return
		}
	}
}

// Values returns every field keyed by FieldSpec.Key.
func (f Form) Values() map[string]string {
	values := make(map[string]string, len(f.specs))
	for i, spec := range f.specs {
		values[spec.Key] = f.inputs[i].Value()
	}
	return values
}

// Reset clears all fields and the error and returns focus to the top.
func (f *Form) Reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.err = ""
	f.busy = false
	f.focus = 0
	if f.focused {
		f.focusField(0)
	}
}

// FocusIndex returns the index of the focused field.
func (f Form) FocusIndex() int {
	return f.focus
}

func (f *Form) focusField(i int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// Update handles navigation and forwards typing to the focused input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if !f.focused {
		return f, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, f.keys.Cancel):
			name := f.name
			return f, func() tea.Msg { return FormCancelMsg{Form: name} }
		case key.Matches(msg, f.keys.Next):
			return f, f.focusField(f.focus + 1)
		case key.Matches(msg, f.keys.Prev):
			return f, f.focusField(f.focus - 1)
		case key.Matches(msg, f.keys.Submit):
			if f.focus < len(f.inputs)-1 {
				return f, f.focusField(f.focus + 1)
			}
			if f.busy {
				return f, nil
			}
			values := f.Values()
			name := f.name
			return f, func() tea.Msg { return FormSubmitMsg{Form: name, Values: values} }
		}
	}

	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// View renders the form.
func (f Form) View() string {
	var lines []string
	if f.title != "" {
		lines = append(lines, styles.CardTitleStyle.Render(f.title))
	}

	for i, spec := range f.specs {
		labelStyle := styles.BlurredStyle
		boxStyle := styles.BlurredBorderStyle
		if f.focused && i == f.focus {
			labelStyle = styles.FocusedStyle
			boxStyle = styles.FocusedBorderStyle
		}
		lines = append(lines, labelStyle.Render(spec.Label))
		lines = append(lines, boxStyle.Width(f.width+2).Render(f.inputs[i].View()))
	}

	if f.err != "" {
		lines = append(lines, styles.ErrorTextStyle.Render(f.err))
	}

	button := styles.ButtonInactiveStyle.Render("Submit")
	switch {
	case f.busy:
		button = styles.ButtonInactiveStyle.Render("Working...")
	case f.focused && f.focus == len(f.inputs)-1:
		button = styles.ButtonActiveStyle.Render("Submit")
	}
	lines = append(lines, "", button)

	return strings.Join(lines, "\n")
}

// ShortHelp returns the form bindings.
func (f Form) ShortHelp() []key.Binding {
	return []key.Binding{f.keys.Next, f.keys.Prev, f.keys.Submit, f.keys.Cancel}
}
