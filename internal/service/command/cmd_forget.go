package command

import (
	"context"

	"github.com/sandevgo/tuskmem/internal/core"
)

type ForgetCommand struct {
	provider  core.ContextProvider
	formatter *ResponseFormatter
}

func NewForgetCommand(provider core.ContextProvider) *ForgetCommand {
	return &ForgetCommand{
		provider:  provider,
		formatter: NewResponseFormatter(),
	}
}

func (c *ForgetCommand) Name() string {
	return "forget"
}

func (c *ForgetCommand) Description() string {
	return "Drop your cached profile"
}

func (c *ForgetCommand) Execute(_ context.Context, userID string, _ []string) (string, error) {
	if !c.provider.Invalidate(userID) {
		return c.formatter.Combine(
			c.formatter.Info("Cache"),
			c.formatter.Label("Status", "No cached profile."),
		), nil
	}
	return c.formatter.Success("Cached profile dropped"), nil
}
