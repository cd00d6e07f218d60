package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
)

type ContextCommand struct {
	provider  core.ContextProvider
	maxTokens int
	formatter *ResponseFormatter
}

func NewContextCommand(provider core.ContextProvider, maxTokens int) *ContextCommand {
	return &ContextCommand{
		provider:  provider,
		maxTokens: maxTokens,
		formatter: NewResponseFormatter(),
	}
}

func (c *ContextCommand) Name() string {
	return "context"
}

func (c *ContextCommand) Description() string {
	return "Show what is remembered about you"
}

func (c *ContextCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	p, err := c.provider.BuildPrompt(ctx, core.ContextRequest{
		UserID: userID,
		Query:  strings.Join(args, " "),
	}, core.FormatOptions{MaxTokens: c.maxTokens})
	if err != nil {
		return "", err
	}

	sources := "none"
	if len(p.Record.Metadata.Sources) > 0 {
		sources = strings.Join(p.Record.Metadata.Sources, ", ")
	}

	if p.Output.Formatted == "" {
		return c.formatter.Combine(
			c.formatter.Info("Context"),
			c.formatter.Label("Status", "Nothing remembered yet."),
			c.formatter.Label("Sources", sources),
			c.formatter.Tip("Use /remember to store a fact"),
		), nil
	}

	return c.formatter.Combine(
		c.formatter.Info("Context"),
		p.Output.Formatted,
		"",
		c.formatter.Label("Tokens", fmt.Sprintf("%d/%d", p.Output.UsedTokens, c.maxTokens)),
		c.formatter.Label("Sources", sources),
		c.formatter.Label("Retrieval", fmt.Sprintf("%dms", p.Record.Metadata.RetrievalTimeMs)),
	), nil
}
