package storage

import (
	"context"
	"fmt"

	"github.com/docassist/docassist/internal/localfs"
	"github.com/docassist/docassist/internal/models"
)

// pathPayload is implemented by payloads that can be reopened from disk.
type pathPayload interface {
	Path() string
}

// SaveSelection replaces the persisted selection with entries. Entries
// without an on-disk source cannot be restored and are reported by count.
func (s *Store) SaveSelection(ctx context.Context, entries []models.FileEntry) (skipped int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM staged_entries"); err != nil {
		return 0, fmt.Errorf("clear selection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO staged_entries (position, source_path, relative_path, size, content_type) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	pos := 0
	for _, e := range entries {
		src, ok := e.Payload.(pathPayload)
		if !ok {
			skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx, pos, src.Path(), e.RelativePath, e.Size(), e.ContentType()); err != nil {
			return 0, fmt.Errorf("save %s: %w", e.RelativePath, err)
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return skipped, nil
}

// LoadSelection restores the persisted selection in order. Payloads point
// back at the source files; they are not reopened here.
func (s *Store) LoadSelection(ctx context.Context) ([]models.FileEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_path, relative_path, size, content_type FROM staged_entries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	defer rows.Close()

	var entries []models.FileEntry
	for rows.Next() {
		var (
			src, rel, contentType string
			size                  int64
		)
		if err := rows.Scan(&src, &rel, &size, &contentType); err != nil {
			return nil, err
		}
		entries = append(entries, models.NewFileEntry(localfs.RestorePayload(src, size, contentType), rel))
	}
	return entries, rows.Err()
}
