package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) (*config.AppConfig, *config.MemoryConfig) {
	t.Helper()
	return &config.AppConfig{RuntimePath: t.TempDir()}, &config.MemoryConfig{
		Backend:         config.BackendLocal,
		MaxTokens:       200,
		SearchThreshold: 0.5,
		CacheEnabled:    true,
		CacheTTL:        time.Minute,
		CacheSize:       10,
		SweepInterval:   time.Minute,
	}
}

func TestInitAssembler_LocalBackend(t *testing.T) {
	ctx := context.Background()
	appCfg, memCfg := localConfig(t)

	a, cleanups, err := initAssembler(ctx, appCfg, memCfg)
	require.NoError(t, err)
	require.Len(t, cleanups, 2)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			assert.NoError(t, cleanups[i].Shutdown(ctx))
		}
	}()

	_, err = a.Remember(ctx, "alice", "Prefers dark roast coffee", true)
	require.NoError(t, err)

	p, err := a.BuildPrompt(ctx, core.ContextRequest{UserID: "alice"}, core.FormatOptions{})
	require.NoError(t, err)

	assert.Contains(t, p.Output.Formatted, "Prefers dark roast coffee")
	assert.LessOrEqual(t, p.Output.UsedTokens, memCfg.MaxTokens)
	assert.True(t, p.Record.HasSource(core.SourceProfile))
}

func TestInitAssembler_LocalRecentMemories(t *testing.T) {
	ctx := context.Background()
	appCfg, memCfg := localConfig(t)

	a, cleanups, err := initAssembler(ctx, appCfg, memCfg)
	require.NoError(t, err)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			assert.NoError(t, cleanups[i].Shutdown(ctx))
		}
	}()

	_, err = a.Remember(ctx, "alice", "Asked about sourdough starters", false)
	require.NoError(t, err)

	rec, err := a.GetContext(ctx, core.ContextRequest{UserID: "alice", CallID: "turn-1", SkipProfile: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asked about sourdough starters"}, rec.RecentMemories)
	assert.True(t, rec.HasSource(core.SourceRecentMemories))
}

func TestContextCmd_CallIDUsage(t *testing.T) {
	flag := contextCmd.Flags().Lookup("call-id")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "enables recent memories")
}

func TestInitBackend_Unknown(t *testing.T) {
	appCfg, memCfg := localConfig(t)
	memCfg.Backend = "redis"

	_, _, err := initBackend(context.Background(), appCfg, memCfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestContextFlags_Request(t *testing.T) {
	f := contextFlags{query: "coffee", callID: "c1", noRecent: true, maxTokens: 50}

	assert.Equal(t, core.ContextRequest{
		UserID:     "alice",
		Query:      "coffee",
		CallID:     "c1",
		SkipRecent: true,
		MaxTokens:  50,
	}, f.request("alice"))
}

func TestPrintPrompt(t *testing.T) {
	p := &core.Prompt{
		Record: &core.ContextRecord{
			Profile:  &core.Profile{Static: []string{"likes tea"}},
			Metadata: core.ContextMetadata{UserID: "alice", Sources: []string{core.SourceProfile}},
		},
		Output: core.FormattedOutput{Formatted: "### User Profile\n- likes tea", UsedTokens: 7},
	}

	tests := []struct {
		name  string
		flags contextFlags
		check func(t *testing.T, out string)
	}{
		{
			name:  "text",
			flags: contextFlags{},
			check: func(t *testing.T, out string) {
				assert.Equal(t, "### User Profile\n- likes tea\n", out)
			},
		},
		{
			name:  "json",
			flags: contextFlags{asJSON: true},
			check: func(t *testing.T, out string) {
				var got core.Prompt
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.Equal(t, 7, got.Output.UsedTokens)
				assert.Equal(t, "alice", got.Record.Metadata.UserID)
			},
		},
		{
			name:  "sections",
			flags: contextFlags{sections: true},
			check: func(t *testing.T, out string) {
				var got []core.ContentSection
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				require.NotEmpty(t, got)
				assert.Contains(t, got[0].Content, "likes tea")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printPrompt(&buf, p, tt.flags))
			tt.check(t, buf.String())
		})
	}
}

func TestPrintPrompt_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := printPrompt(&buf, &core.Prompt{Record: &core.ContextRecord{}}, contextFlags{})

	require.NoError(t, err)
	assert.Equal(t, "Nothing remembered yet.\n", buf.String())
}

func TestRunFormat(t *testing.T) {
	in := strings.NewReader(`[
		{"id": "a", "content": "low priority note", "priority": 10, "tokens": 5, "source": "search"},
		{"id": "b", "content": "important fact", "priority": 90, "source": "profile"}
	]`)
	opts := core.FormatOptions{MaxTokens: 100, IncludeMetadata: true}

	var buf bytes.Buffer
	require.NoError(t, runFormat(in, &buf, opts, false))

	var got core.FormattedOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Sections, 2)
	assert.Equal(t, "b", got.Sections[0].ID)
	assert.Positive(t, got.Sections[0].Tokens)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, 2, got.Metadata.IncludedItems)
}

func TestRunFormat_Errors(t *testing.T) {
	var buf bytes.Buffer

	err := runFormat(strings.NewReader("not json"), &buf, core.FormatOptions{MaxTokens: 10}, true)
	assert.Error(t, err)

	err = runFormat(strings.NewReader("[]"), &buf, core.FormatOptions{}, true)
	assert.ErrorIs(t, err, format.ErrInvalidBudget)
}

type fixedCounter int

func (c fixedCounter) Count(string) int { return int(c) }

func TestPrintTokens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTokens(&buf, "one two three four", nil))
	assert.Equal(t, "estimate: 5\n", buf.String())

	buf.Reset()
	require.NoError(t, printTokens(&buf, "", fixedCounter(3)))
	assert.Equal(t, "estimate: 0\ncl100k_base: 3\n", buf.String())
}
