package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tOgg1/squads/internal/squads/rescache"
)

// ResourceRepository is the manifest of payloads in the resource cache
// directory. It implements rescache.Manifest.
type ResourceRepository struct {
	db *DB
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(db *DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

var _ rescache.Manifest = (*ResourceRepository)(nil)

// RecordResource upserts entry. It is called from cache workers.
func (r *ResourceRepository) RecordResource(ctx context.Context, entry rescache.ManifestEntry) error {
	fetchedAt := entry.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	return defaultBusyRetry.do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO resources (identity, path, size, fetched_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(identity) DO UPDATE SET path = excluded.path, size = excluded.size, fetched_at = excluded.fetched_at
		`, entry.Identity, entry.Path, entry.Size, fetchedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to record resource %s: %w", entry.Identity, err)
		}
		return nil
	})
}

// Get returns the manifest entry for identity.
func (r *ResourceRepository) Get(ctx context.Context, identity string) (rescache.ManifestEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT identity, path, size, fetched_at FROM resources WHERE identity = ?
	`, identity)
	entry, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rescache.ManifestEntry{}, fmt.Errorf("resource %s: %w", identity, ErrNotFound)
	}
	return entry, err
}

// List returns manifest entries, most recently fetched first.
func (r *ResourceRepository) List(ctx context.Context) ([]rescache.ManifestEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT identity, path, size, fetched_at FROM resources ORDER BY fetched_at DESC, identity
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var out []rescache.ManifestEntry
	for rows.Next() {
		entry, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(s scanner) (rescache.ManifestEntry, error) {
	var entry rescache.ManifestEntry
	var fetchedAt string
	if err := s.Scan(&entry.Identity, &entry.Path, &entry.Size, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry, err
		}
		return entry, fmt.Errorf("failed to scan resource: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		entry.FetchedAt = t
	}
	return entry, nil
}
