package core

const (
	TuskName          = "TuskMem"
	TuskUserAgent     = "TuskMem/0.1"
	TuskRepositoryURL = "https://github.com/sandevgo/tuskmem"
	TuskVersion       = "0.1.0"
)

// Provenance tags recorded in ContextMetadata.Sources.
const (
	SourceCache          = "cache"
	SourceProfile        = "profile"
	SourceSearch         = "search"
	SourceRecentMemories = "recent-memories"
)

// Profile is the pair of fact lists the backend keeps per user.
type Profile struct {
	Static  []string `json:"static"`
	Dynamic []string `json:"dynamic"`
}

// ContextRecord is the assembled context for one user turn. Sources is the
// only signal that an optional sub-fetch was skipped or failed.
type ContextRecord struct {
	Profile        *Profile        `json:"profile,omitempty"`
	RecentMemories []string        `json:"recentMemories"`
	SearchResults  []string        `json:"searchResults"`
	TotalTokens    int             `json:"totalTokens"`
	Metadata       ContextMetadata `json:"metadata"`
}

type ContextMetadata struct {
	UserID          string   `json:"userId"`
	RetrievalTimeMs int64    `json:"retrievalTimeMs"`
	Sources         []string `json:"sources"`
}

// HasSource reports whether tag was recorded for this record.
func (r *ContextRecord) HasSource(tag string) bool {
	for _, s := range r.Metadata.Sources {
		if s == tag {
			return true
		}
	}
	return false
}

// ContextRequest selects what GetContext retrieves. The zero value of the
// Skip flags includes everything.
type ContextRequest struct {
	UserID      string `json:"userId"`
	Query       string `json:"query,omitempty"`
	CallID      string `json:"callId,omitempty"`
	SkipProfile bool   `json:"skipProfile,omitempty"`
	SkipRecent  bool   `json:"skipRecent,omitempty"`
	SkipSearch  bool   `json:"skipSearch,omitempty"`
	// MaxTokens overrides the configured budget when positive.
	MaxTokens int `json:"maxTokens,omitempty"`
}

// ContentSection is one rankable piece of content.
type ContentSection struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
	Tokens   int    `json:"tokens"`
	Source   string `json:"source"`
}

type FormatOptions struct {
	MaxTokens       int    `json:"maxTokens"`
	IncludeTokens   bool   `json:"includeTokens"`
	IncludeMetadata bool   `json:"includeMetadata"`
	Separator       string `json:"separator,omitempty"`
	// SimilarityThreshold above which a section counts as a near duplicate.
	SimilarityThreshold float64 `json:"similarityThreshold,omitempty"`
}

type FormattedOutput struct {
	Formatted  string           `json:"formatted"`
	UsedTokens int              `json:"usedTokens"`
	Sections   []ContentSection `json:"sections"`
	Metadata   *FormatMetadata  `json:"metadata,omitempty"`
}

type FormatMetadata struct {
	TotalItems    int      `json:"totalItems"`
	IncludedItems int      `json:"includedItems"`
	ExcludedItems int      `json:"excludedItems"`
	Sources       []string `json:"sources"`
}

// Prompt pairs a retrieved record with its budgeted rendering.
type Prompt struct {
	Record *ContextRecord  `json:"record"`
	Output FormattedOutput `json:"output"`
}
