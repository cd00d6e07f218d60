package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot       *tele.Bot
	sender    *sender
	provider  core.ContextProvider
	router    core.CmdRouter
	ownerID   int64
	maxTokens int
}

func NewBot(
	ctx context.Context,
	cfg core.TelegramConfig,
	provider core.ContextProvider,
	router core.CmdRouter,
	maxTokens int,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:       b,
		sender:    newSender(b),
		provider:  provider,
		router:    router,
		ownerID:   cfg.GetTelegramOwnerID(),
		maxTokens: maxTokens,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting telegram bot")

	if err := b.bot.SetCommands(botCommands(b.router)); err != nil {
		logger.Warn().Err(err).Msg("failed to register telegram commands")
	}

	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	_ = c.Notify(tele.Typing)

	callID := ""
	if msg := c.Message(); msg != nil {
		callID = strconv.Itoa(msg.ID)
	}

	reply := b.respond(ctx, userIDFor(c.Sender().ID), callID, c.Text())
	if err := b.sender.sendMarkdown(ctx, c.Recipient(), reply, false); err != nil {
		logger.Error().Err(err).Msg("failed to send telegram message")
		return err
	}
	return nil
}

// respond runs a command, or answers plain text with the budgeted context
// for it and then stores the text as a dynamic memory.
func (b *Bot) respond(ctx context.Context, userID, callID, text string) string {
	logger := log.FromCtx(ctx).With().Str("user_id", userID).Logger()

	if reply, ok := b.router.Execute(ctx, userID, text); ok {
		return reply
	}

	p, err := b.provider.BuildPrompt(ctx, core.ContextRequest{
		UserID: userID,
		Query:  text,
		CallID: callID,
	}, core.FormatOptions{MaxTokens: b.maxTokens})
	if err != nil {
		logger.Error().Err(err).Msg("context build failed")
		return fmt.Sprintf("error: %v", err)
	}

	var sb strings.Builder
	if p.Output.Formatted == "" {
		sb.WriteString("_Nothing relevant remembered yet._")
	} else {
		sb.WriteString("**Relevant context**\n\n")
		sb.WriteString(p.Output.Formatted)
	}

	if _, err := b.provider.Remember(ctx, userID, text, false); err != nil {
		logger.Warn().Err(err).Msg("failed to store message as memory")
		sb.WriteString("\n\n_Could not store this message._")
	}
	return sb.String()
}

func userIDFor(telegramID int64) string {
	return fmt.Sprintf("telegram-%d", telegramID)
}

func botCommands(router core.CmdRouter) []tele.Command {
	cmds := router.ListCommands()
	out := make([]tele.Command, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, tele.Command{Text: c.Name(), Description: c.Description()})
	}
	return out
}
