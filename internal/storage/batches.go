package storage

import (
	"context"
	"fmt"

	"github.com/docassist/docassist/internal/models"
)

// RecordBatch stores a finished batch with its failures and returns its id.
func (s *Store) RecordBatch(ctx context.Context, rec models.BatchRecord, failures []models.UploadOutcome) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO batch_runs (started_at, finished_at, total, uploaded, failed, cancelled) VALUES (?, ?, ?, ?, ?, ?)",
		toMillis(rec.StartedAt), toMillis(rec.FinishedAt), rec.Total, rec.Uploaded, rec.Failed, rec.Cancelled)
	if err != nil {
		return 0, fmt.Errorf("record batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO batch_failures (batch_id, filename, message) VALUES (?, ?, ?)",
			id, f.Filename, f.ErrorMessage); err != nil {
			return 0, fmt.Errorf("record failure %s: %w", f.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentBatches returns up to limit batches, newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]models.BatchRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, total, uploaded, failed, cancelled
		FROM batch_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load batch history: %w", err)
	}
	defer rows.Close()

	var records []models.BatchRecord
	for rows.Next() {
		var (
			rec               models.BatchRecord
			started, finished int64
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Total, &rec.Uploaded, &rec.Failed, &rec.Cancelled); err != nil {
			return nil, err
		}
		rec.StartedAt = fromMillis(started)
		rec.FinishedAt = fromMillis(finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// BatchFailures returns the per-file failures recorded for batch id.
func (s *Store) BatchFailures(ctx context.Context, id int64) ([]models.UploadOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename, message FROM batch_failures WHERE batch_id = ? ORDER BY rowid", id)
	if err != nil {
		return nil, fmt.Errorf("load batch failures: %w", err)
	}
	defer rows.Close()

	var out []models.UploadOutcome
	for rows.Next() {
		var o models.UploadOutcome
		if err := rows.Scan(&o.Filename, &o.ErrorMessage); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
