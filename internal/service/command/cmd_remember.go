package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
)

type RememberCommand struct {
	provider  core.ContextProvider
	formatter *ResponseFormatter
}

func NewRememberCommand(provider core.ContextProvider) *RememberCommand {
	return &RememberCommand{
		provider:  provider,
		formatter: NewResponseFormatter(),
	}
}

func (c *RememberCommand) Name() string {
	return "remember"
}

func (c *RememberCommand) Description() string {
	return "Store a fact, use --static for lasting ones"
}

func (c *RememberCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	static := false
	if len(args) > 0 && args[0] == "--static" {
		static = true
		args = args[1:]
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return c.formatter.Combine(
			c.formatter.Usage("/remember [--static] <fact>"),
			c.formatter.Examples([]string{
				"/remember --static I am vegetarian",
				"/remember Preparing for a job interview on Friday",
			}),
		), nil
	}

	resp, err := c.provider.Remember(ctx, userID, text, static)
	if err != nil {
		return "", fmt.Errorf("failed to remember: %w", err)
	}

	kind := core.KindDynamic
	if static {
		kind = core.KindStatic
	}
	return c.formatter.Combine(
		c.formatter.Success("Remembered"),
		c.formatter.Label("Kind", kind),
		c.formatter.Label("Status", resp.Status),
	), nil
}
