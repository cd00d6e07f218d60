package format

import (
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/tokens"
)

// NewSection builds a section and estimates its token count.
func NewSection(id, content, source string, priority int) core.ContentSection {
	return core.ContentSection{
		ID:       id,
		Content:  content,
		Priority: priority,
		Tokens:   tokens.Estimate(content),
		Source:   source,
	}
}

// WithEstimatedTokens fills in missing token counts, e.g. for sections
// decoded from JSON.
func WithEstimatedTokens(sections []core.ContentSection) []core.ContentSection {
	out := make([]core.ContentSection, len(sections))
	for i, s := range sections {
		if s.Tokens <= 0 {
			s.Tokens = tokens.Estimate(s.Content)
		}
		out[i] = s
	}
	return out
}
