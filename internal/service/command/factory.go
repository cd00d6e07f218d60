package command

import (
	"github.com/sandevgo/tuskmem/internal/core"
)

type Assembler interface {
	core.ContextProvider
	StatsProvider
}

func NewCommands(assembler Assembler, maxTokens int) []core.Command {
	return []core.Command{
		NewContextCommand(assembler, maxTokens),
		NewRememberCommand(assembler),
		NewForgetCommand(assembler),
		NewStatsCommand(assembler),
	}
}
