package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// APIKeyStep collects the Supermemory API key. Skipped for the local backend.
type APIKeyStep struct {
	input textinput.Model
	err   error
}

func NewAPIKeyStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = "sm_..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return &APIKeyStep{input: ti}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, next)
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !state.usesHostedBackend() {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			s.err = fmt.Errorf("the API key is required for the hosted backend")
			return s, nil
		}
		state.EnvVars[keyAPIKey] = val
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	view := fmt.Sprintf("Enter your Supermemory API Key:\n\n%s\n\n(press enter to confirm)\n", s.input.View())
	if s.err != nil {
		view += "\n" + errorStyle.Render(s.err.Error()) + "\n"
	}
	return view
}
