package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep computes derived values and final env var formatting
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return next
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	// Set derived values
	state.EnvVars[keyEnableTG] = boolEnv(state.usesTelegram() && state.EnvVars[keyTelegramToken] != "")
	state.EnvVars[keyEnableMCP] = boolEnv(state.EnvVars[keyChannel] != channelTelegram)

	// Set defaults
	if state.EnvVars[keyDebug] == "" {
		state.EnvVars[keyDebug] = "0"
	}

	// Only used as intermediate state
	delete(state.EnvVars, keyChannel)

	// Signal completion
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func boolEnv(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
