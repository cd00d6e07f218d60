package core

import (
	"context"
	"time"
)

// MemoryRepository persists memories for the local backend.
type MemoryRepository interface {
	SaveMemory(ctx context.Context, m StoredMemory) (StoredMemory, error)
	// ListMemories returns newest first. An empty kind matches every kind.
	ListMemories(ctx context.Context, containerTag, kind string, limit int) ([]StoredMemory, error)
	// ListByContainers returns newest first across the given containers.
	ListByContainers(ctx context.Context, containerTags []string, limit int) ([]StoredMemory, error)
}

type StoredMemory struct {
	ID           string         `json:"id"`
	ContainerTag string         `json:"container_tag"`
	Content      string         `json:"content"`
	Kind         string         `json:"kind"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ContentHash  string         `json:"content_hash"`
	CreatedAt    time.Time      `json:"created_at"`
	// Duplicate is set when SaveMemory found an existing row with the same hash.
	Duplicate bool `json:"-"`
	// Promoted is set when that existing row was dynamic and became static.
	Promoted bool `json:"-"`
}
