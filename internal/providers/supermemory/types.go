package supermemory

import (
	"strings"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/conv"
)

type profileRequest struct {
	ContainerTag string `json:"containerTag"`
	Query        string `json:"q,omitempty"`
}

type addRequest struct {
	Content      string         `json:"content"`
	ContainerTag string         `json:"containerTag"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type memorySearchRequest struct {
	Query        string  `json:"q"`
	ContainerTag string  `json:"containerTag"`
	Threshold    float64 `json:"threshold"`
	Limit        int     `json:"limit,omitempty"`
}

type documentSearchRequest struct {
	Query         string   `json:"q"`
	ContainerTags []string `json:"containerTags,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

type profileResponse struct {
	Profile struct {
		Static  []string `json:"static"`
		Dynamic []string `json:"dynamic"`
	} `json:"profile"`
	SearchResults *searchResponse `json:"searchResults"`
}

func (r profileResponse) toCore() *core.ProfileResponse {
	out := &core.ProfileResponse{
		Profile: core.Profile{
			Static:  nonNil(r.Profile.Static),
			Dynamic: nonNil(r.Profile.Dynamic),
		},
	}
	if r.SearchResults != nil {
		out.SearchResults = r.SearchResults.toCore()
	}
	return out
}

type searchResponse struct {
	Results []memoryResult `json:"results"`
}

// memoryResult accepts both score spellings the API has used.
type memoryResult struct {
	Memory     *string        `json:"memory"`
	Score      float64        `json:"score"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata"`
}

func (r searchResponse) toCore() *core.SearchResults {
	out := &core.SearchResults{Results: make([]core.MemoryResult, 0, len(r.Results))}
	for _, m := range r.Results {
		score := m.Score
		if score == 0 {
			score = m.Similarity
		}
		out.Results = append(out.Results, core.MemoryResult{
			Memory:   m.Memory,
			Score:    score,
			Metadata: m.Metadata,
		})
	}
	return out
}

type documentSearchResponse struct {
	Results []struct {
		DocumentID string         `json:"documentId"`
		Title      string         `json:"title"`
		Score      float64        `json:"score"`
		Content    string         `json:"content"`
		Metadata   map[string]any `json:"metadata"`
		Chunks     []struct {
			Content string `json:"content"`
		} `json:"chunks"`
	} `json:"results"`
}

func (r documentSearchResponse) toCore() *core.DocumentResults {
	out := &core.DocumentResults{Results: make([]core.DocumentResult, 0, len(r.Results))}
	for _, d := range r.Results {
		content := d.Content
		if content == "" {
			parts := make([]string, 0, len(d.Chunks))
			for _, ch := range d.Chunks {
				parts = append(parts, ch.Content)
			}
			content = strings.Join(parts, "\n")
		}
		if conv.LooksLikeHTML(content) {
			if text, err := conv.HTMLToText(content); err == nil {
				content = text
			}
		}
		out.Results = append(out.Results, core.DocumentResult{
			DocumentID: d.DocumentID,
			Title:      d.Title,
			Content:    content,
			Score:      d.Score,
			Metadata:   d.Metadata,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
