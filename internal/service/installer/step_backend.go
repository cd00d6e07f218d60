package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type backendChoice struct {
	label string
	value string
}

// BackendStep selects where memories are kept
type BackendStep struct {
	choices []backendChoice
	cursor  int
}

func NewBackendStep() Step {
	return &BackendStep{
		choices: []backendChoice{
			{label: "Supermemory (hosted)", value: "supermemory"},
			{label: "Local (SQLite)", value: "local"},
		},
		cursor: 0,
	}
}

func (s *BackendStep) Init() tea.Cmd {
	return nil
}

func (s *BackendStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[keyBackend] = s.choices[s.cursor].value
			return nil, nil
		}
	}
	return s, nil
}

func (s *BackendStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString("Select your Memory Backend:\n\n")
	for i, choice := range s.choices {
		cursor := " "
		if s.cursor == i {
			cursor = "❯"
			b.WriteString(selStyle.Render(fmt.Sprintf("%s %s", cursor, choice.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("%s %s", cursor, choice.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
