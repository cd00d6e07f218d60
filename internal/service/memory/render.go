package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/format"
)

const (
	PriorityStatic  = 80
	PriorityDynamic = 70
	PrioritySearch  = 60
	PriorityRecent  = 50
)

// Render concatenates the record into headed blocks without any budget.
func Render(rec *core.ContextRecord) string {
	if rec == nil {
		return ""
	}

	var blocks []string
	add := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		var b strings.Builder
		b.WriteString("### " + title)
		for _, item := range items {
			b.WriteString("\n- " + item)
		}
		blocks = append(blocks, b.String())
	}

	if rec.Profile != nil {
		add("User Profile", rec.Profile.Static)
		add("Recent Facts", rec.Profile.Dynamic)
	}
	add("Relevant Memories", rec.SearchResults)
	add("Recent Conversation", rec.RecentMemories)

	return strings.Join(blocks, "\n\n")
}

// Sections flattens the record into prioritized sections. IDs count down
// within each list so the formatter's descending-id tie-break keeps the
// backend order.
func Sections(rec *core.ContextRecord) []core.ContentSection {
	if rec == nil {
		return nil
	}

	profileSource := core.SourceProfile
	if rec.HasSource(core.SourceCache) {
		profileSource = core.SourceCache
	}

	var out []core.ContentSection
	add := func(prefix, source string, priority int, items []string) {
		width := max(3, len(strconv.Itoa(len(items)-1)))
		for i, item := range items {
			id := fmt.Sprintf("%s-%0*d", prefix, width, len(items)-1-i)
			out = append(out, format.NewSection(id, item, source, priority))
		}
	}

	if rec.Profile != nil {
		add("static", profileSource, PriorityStatic, rec.Profile.Static)
		add("dynamic", profileSource, PriorityDynamic, rec.Profile.Dynamic)
	}
	add("search", core.SourceSearch, PrioritySearch, rec.SearchResults)
	add("recent", core.SourceRecentMemories, PriorityRecent, rec.RecentMemories)

	return out
}

// BuildPrompt retrieves the context and packs it into the token budget. The
// budget is req.MaxTokens, then opts.MaxTokens, then the assembler default.
func (a *Assembler) BuildPrompt(ctx context.Context, req core.ContextRequest, opts core.FormatOptions) (*core.Prompt, error) {
	switch {
	case req.MaxTokens > 0:
		opts.MaxTokens = req.MaxTokens
	case opts.MaxTokens <= 0:
		opts.MaxTokens = a.opts.MaxTokens
	}

	f, err := format.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create formatter: %w", err)
	}

	rec, err := a.GetContext(ctx, req)
	if err != nil {
		return nil, err
	}

	return &core.Prompt{
		Record: rec,
		Output: f.Format(Sections(rec)),
	}, nil
}
