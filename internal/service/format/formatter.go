package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/textsim"
)

const (
	DefaultSeparator = "\n\n"
	// DefaultSimilarityThreshold above which two sections are near duplicates.
	DefaultSimilarityThreshold = 0.85
)

var ErrInvalidBudget = errors.New("max tokens must be positive")

type Options = core.FormatOptions

// Formatter ranks, deduplicates and packs sections into a token budget.
type Formatter struct {
	opts Options
}

func New(opts Options) (*Formatter, error) {
	if opts.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, opts.MaxTokens)
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be within (0, 1], got %v", opts.SimilarityThreshold)
	}
	return &Formatter{opts: opts}, nil
}

// Format is a one-shot helper around New and Formatter.Format.
func Format(sections []core.ContentSection, opts Options) (core.FormattedOutput, error) {
	f, err := New(opts)
	if err != nil {
		return core.FormattedOutput{}, err
	}
	return f.Format(sections), nil
}

func (f *Formatter) Options() Options {
	return f.opts
}

func (f *Formatter) Format(sections []core.ContentSection) core.FormattedOutput {
	sorted := rank(sections)
	unique := f.dedupe(sorted)
	included, excluded, used := f.pack(unique)

	out := core.FormattedOutput{
		Formatted:  f.render(included, used),
		UsedTokens: used,
		Sections:   included,
	}
	if f.opts.IncludeMetadata {
		out.Metadata = &core.FormatMetadata{
			TotalItems:    len(unique),
			IncludedItems: len(included),
			ExcludedItems: len(excluded),
			Sources:       sources(included),
		}
	}
	return out
}

// rank orders by priority, then by id, both descending. Among equal
// priorities the id that sorts later is placed first.
func rank(sections []core.ContentSection) []core.ContentSection {
	sorted := make([]core.ContentSection, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

func (f *Formatter) dedupe(sorted []core.ContentSection) []core.ContentSection {
	seen := make(map[string]struct{}, len(sorted))
	unique := make([]core.ContentSection, 0, len(sorted))

	for _, s := range sorted {
		key := strings.ToLower(strings.TrimSpace(s.Content))
		if _, ok := seen[key]; ok {
			continue
		}
		if f.nearDuplicate(s.Content, unique) {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

func (f *Formatter) nearDuplicate(content string, accepted []core.ContentSection) bool {
	for _, a := range accepted {
		if textsim.Similarity(content, a.Content) > f.opts.SimilarityThreshold {
			return true
		}
	}
	return false
}

// pack fills the budget greedily in rank order. A section that does not fit
// is skipped and later ones are still tried.
func (f *Formatter) pack(sections []core.ContentSection) (included, excluded []core.ContentSection, used int) {
	included = make([]core.ContentSection, 0, len(sections))
	for _, s := range sections {
		if used+s.Tokens > f.opts.MaxTokens {
			excluded = append(excluded, s)
			continue
		}
		included = append(included, s)
		used += s.Tokens
	}
	return included, excluded, used
}

func (f *Formatter) render(included []core.ContentSection, used int) string {
	var b strings.Builder
	for _, s := range included {
		b.WriteString(s.Content)
		if f.opts.IncludeMetadata {
			fmt.Fprintf(&b, " [%s]", s.Source)
		}
		if f.opts.IncludeTokens {
			fmt.Fprintf(&b, " [%dt]", s.Tokens)
		}
		b.WriteString(f.opts.Separator)
	}
	if f.opts.IncludeTokens {
		fmt.Fprintf(&b, "Total: %d/%d tokens", used, f.opts.MaxTokens)
	}
	return trimTrailing(b.String(), f.opts.Separator)
}

func trimTrailing(s, sep string) string {
	for {
		trimmed := strings.TrimRight(s, " \t\r\n")
		trimmed = strings.TrimSuffix(trimmed, sep)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func sources(included []core.ContentSection) []string {
	seen := make(map[string]struct{}, len(included))
	out := make([]string, 0, len(included))
	for _, s := range included {
		if _, ok := seen[s.Source]; ok {
			continue
		}
		seen[s.Source] = struct{}{}
		out = append(out, s.Source)
	}
	return out
}
