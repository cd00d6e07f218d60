package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	formatted   string
	buildErr    error
	rememberErr error
	lastReq     core.ContextRequest
	remembered  []string
}

func (f *fakeProvider) GetContext(context.Context, core.ContextRequest) (*core.ContextRecord, error) {
	return &core.ContextRecord{}, nil
}

func (f *fakeProvider) BuildPrompt(_ context.Context, req core.ContextRequest, _ core.FormatOptions) (*core.Prompt, error) {
	f.lastReq = req
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &core.Prompt{Record: &core.ContextRecord{}, Output: core.FormattedOutput{Formatted: f.formatted}}, nil
}

func (f *fakeProvider) Remember(_ context.Context, _ string, content string, _ bool) (*core.AddResponse, error) {
	if f.rememberErr != nil {
		return nil, f.rememberErr
	}
	f.remembered = append(f.remembered, content)
	return &core.AddResponse{ID: "m", Status: "done"}, nil
}

func (f *fakeProvider) Invalidate(string) bool { return true }

func newTestBot(p *fakeProvider) *Bot {
	return &Bot{
		provider:  p,
		router:    command.New([]core.Command{command.NewForgetCommand(p)}),
		maxTokens: 300,
	}
}

func TestRespond_PlainText(t *testing.T) {
	p := &fakeProvider{formatted: "Likes tea"}
	b := newTestBot(p)

	reply := b.respond(context.Background(), "telegram-7", "42", "what should I drink?")

	assert.Equal(t, "**Relevant context**\n\nLikes tea", reply)
	assert.Equal(t, core.ContextRequest{UserID: "telegram-7", Query: "what should I drink?", CallID: "42"}, p.lastReq)
	assert.Equal(t, []string{"what should I drink?"}, p.remembered)
}

func TestRespond_NothingRemembered(t *testing.T) {
	p := &fakeProvider{rememberErr: errors.New("offline")}
	reply := newTestBot(p).respond(context.Background(), "telegram-7", "1", "hi")

	assert.Contains(t, reply, "Nothing relevant remembered yet.")
	assert.Contains(t, reply, "Could not store this message.")
}

func TestRespond_Command(t *testing.T) {
	p := &fakeProvider{}
	reply := newTestBot(p).respond(context.Background(), "telegram-7", "1", "/forget")

	assert.Contains(t, reply, "Cached profile dropped")
	assert.Empty(t, p.remembered)
}

func TestRespond_BuildError(t *testing.T) {
	p := &fakeProvider{buildErr: errors.New("context retrieval failed: nope")}
	reply := newTestBot(p).respond(context.Background(), "telegram-7", "1", "hi")

	assert.Equal(t, "error: context retrieval failed: nope", reply)
	assert.Empty(t, p.remembered)
}

func TestBotCommands(t *testing.T) {
	cmds := botCommands(command.New([]core.Command{command.NewForgetCommand(&fakeProvider{})}))
	require.Len(t, cmds, 1)
	assert.Equal(t, "forget", cmds[0].Text)
}

func TestSplitHTML(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitHTML("short", 10))

	lines := strings.Repeat("line of text\n", 10)
	chunks := splitHTML(strings.TrimSpace(lines), 40)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40)
		assert.False(t, strings.HasPrefix(c, "\n"))
	}
	assert.Equal(t, strings.Count(lines, "line of text"), strings.Count(strings.Join(chunks, "\n"), "line of text"))
}

func TestSplitHTML_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("привет", 20)
	for _, c := range splitHTML(text, 15) {
		assert.True(t, utf8.ValidString(c), "chunk %q is not valid UTF-8", c)
		assert.LessOrEqual(t, len(c), 15)
	}
}
