package core

import (
	"context"
	"strings"
)

// MemoryBackend is the memory store the assembler reads from and writes to.
// Implementations sanitize container tags with SanitizeContainerTag.
type MemoryBackend interface {
	Profile(ctx context.Context, containerTag, query string) (*ProfileResponse, error)
	Add(ctx context.Context, content, containerTag string, metadata map[string]any) (*AddResponse, error)
	SearchMemories(ctx context.Context, req MemorySearch) (*SearchResults, error)
	SearchDocuments(ctx context.Context, query string, containerTags []string, limit int) (*DocumentResults, error)
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
	// SearchResults is nil when the backend ran no query.
	SearchResults *SearchResults `json:"searchResults,omitempty"`
}

type MemorySearch struct {
	Query        string
	ContainerTag string
	Threshold    float64
	Limit        int
}

type SearchResults struct {
	Results []MemoryResult `json:"results"`
}

// Memories returns the memory text of every result that has one.
func (s *SearchResults) Memories() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		if text, ok := r.Text(); ok {
			out = append(out, text)
		}
	}
	return out
}

type MemoryResult struct {
	// Memory is nil when the backend returned no memory field.
	Memory   *string        `json:"memory,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (r MemoryResult) Text() (string, bool) {
	if r.Memory == nil {
		return "", false
	}
	return *r.Memory, true
}

type DocumentResults struct {
	Results []DocumentResult `json:"results"`
}

type DocumentResult struct {
	DocumentID string         `json:"documentId"`
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type AddResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RecentQuery is the search query used to pull recent conversation memories.
// Backends without semantic search may answer it by recency alone.
const RecentQuery = "recent conversation"

// Memory kinds understood by the backends via the "kind" metadata key.
const (
	MetadataKind = "kind"
	KindStatic   = "static"
	KindDynamic  = "dynamic"
)

// SanitizeContainerTag keeps only [A-Za-z0-9_-]. The backend rejects anything
// else, e.g. the leading '+' of phone-number shaped user IDs.
func SanitizeContainerTag(tag string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, tag)
}

func SanitizeContainerTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := SanitizeContainerTag(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ContextProvider is what the transports need from the assembler.
type ContextProvider interface {
	GetContext(ctx context.Context, req ContextRequest) (*ContextRecord, error)
	BuildPrompt(ctx context.Context, req ContextRequest, opts FormatOptions) (*Prompt, error)
	Remember(ctx context.Context, userID, content string, static bool) (*AddResponse, error)
	Invalidate(userID string) bool
}
