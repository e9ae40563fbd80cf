// internal/ui/quickconnect.go

package ui

import (
	"sshProfiles/internal/endpoint"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// QuickConnectModel prompts for a "user@host:port" query and previews the
// parsed endpoint while the user types.
type QuickConnectModel struct {
	input     textinput.Model
	errMsg    string
	submitted bool
	cancelled bool
}

func NewQuickConnectModel(initial string) *QuickConnectModel {
	ti := textinput.New()
	ti.Placeholder = "user@host:port"
	ti.CharLimit = 255
	ti.SetValue(initial)
	ti.Focus()

	return &QuickConnectModel{input: ti}
}

func (m *QuickConnectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *QuickConnectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			ep := endpoint.Parse(m.input.Value())
			if !ep.Valid() {
				m.errMsg = "Cannot connect to " + ep.String()
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m *QuickConnectModel) View() string {
	content := TitleStyle.Render("Quick connect") + "\n\n" +
		InputStyle.Render(m.input.View()) + "\n\n"

	if m.input.Value() != "" {
		content += RenderEndpoint(endpoint.Parse(m.input.Value())) + "\n\n"
	}
	content += ButtonStyle.Render("ENTER") + " - Connect    " +
		ButtonStyle.Render("ESC") + " - Cancel"

	if m.errMsg != "" {
		content += "\n\n" + ErrorStyle.Render(m.errMsg)
	}
	return WindowStyle.Render(content)
}

// Query is the raw text entered so far.
func (m *QuickConnectModel) Query() string {
	return m.input.Value()
}

// Submitted reports whether the prompt ended with a valid query.
func (m *QuickConnectModel) Submitted() bool {
	return m.submitted && !m.cancelled
}
