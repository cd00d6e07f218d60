package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

// SaveMemory inserts m. When the container already holds the same content
// hash, the existing row is returned with Duplicate set. A dynamic row
// restated as static is promoted and returned with Promoted set.
func (r *MemoryRepo) SaveMemory(ctx context.Context, m core.StoredMemory) (core.StoredMemory, error) {
	var metadata sql.NullString
	if len(m.Metadata) > 0 {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return core.StoredMemory{}, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (id, container_tag, content, kind, metadata, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (container_tag, content_hash) DO NOTHING`,
		m.ID, m.ContainerTag, m.Content, m.Kind, metadata, m.ContentHash, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return core.StoredMemory{}, fmt.Errorf("failed to insert memory: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.StoredMemory{}, err
	}
	if affected > 0 {
		return m, nil
	}

	existing, err := r.getByHash(ctx, m.ContainerTag, m.ContentHash)
	if err != nil {
		return core.StoredMemory{}, err
	}
	existing.Duplicate = true

	// A fact restated as static outranks its earlier dynamic copy.
	if existing.Kind == core.KindDynamic && m.Kind == core.KindStatic {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE memories SET kind = ? WHERE id = ?`, core.KindStatic, existing.ID,
		); err != nil {
			return core.StoredMemory{}, fmt.Errorf("failed to promote memory: %w", err)
		}
		existing.Kind = core.KindStatic
		existing.Promoted = true
		log.FromCtx(ctx).Debug().Str("id", existing.ID).Msg("memory promoted to static")
		return existing, nil
	}

	log.FromCtx(ctx).Debug().Str("id", existing.ID).Msg("memory already stored")
	return existing, nil
}

func (r *MemoryRepo) getByHash(ctx context.Context, containerTag, hash string) (core.StoredMemory, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, container_tag, content, kind, metadata, content_hash, created_at
		 FROM memories WHERE container_tag = ? AND content_hash = ?`,
		containerTag, hash,
	)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StoredMemory{}, fmt.Errorf("memory with hash %s vanished after conflict", hash)
	}
	return m, err
}

func (r *MemoryRepo) ListMemories(ctx context.Context, containerTag, kind string, limit int) ([]core.StoredMemory, error) {
	query := `SELECT id, container_tag, content, kind, metadata, content_hash, created_at
		FROM memories WHERE container_tag = ?`
	args := []any{containerTag}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return r.query(ctx, query, args...)
}

func (r *MemoryRepo) ListByContainers(ctx context.Context, containerTags []string, limit int) ([]core.StoredMemory, error) {
	if len(containerTags) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(containerTags)), ",")
	query := `SELECT id, container_tag, content, kind, metadata, content_hash, created_at
		FROM memories WHERE container_tag IN (` + placeholders + `)
		ORDER BY created_at DESC, rowid DESC`
	args := make([]any, 0, len(containerTags)+1)
	for _, t := range containerTags {
		args = append(args, t)
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return r.query(ctx, query, args...)
}

func (r *MemoryRepo) query(ctx context.Context, query string, args ...any) ([]core.StoredMemory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var out []core.StoredMemory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(out)).Msg("loaded memories")
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(s scanner) (core.StoredMemory, error) {
	var (
		m        core.StoredMemory
		metadata sql.NullString
		created  int64
	)
	if err := s.Scan(&m.ID, &m.ContainerTag, &m.Content, &m.Kind, &metadata, &m.ContentHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("failed to scan memory: %w", err)
	}

	m.CreatedAt = time.Unix(0, created).UTC()
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return m, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return m, nil
}

var _ core.MemoryRepository = (*MemoryRepo)(nil)
