package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docassist/docassist/internal/localfs"
	"github.com/docassist/docassist/internal/models"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "docassist.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := openTemp(t)
	v, err := s.userVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v)
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docassist.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.userVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docassist.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, nil)
	assert.ErrorContains(t, err, "newer than this binary")
}

func TestSelectionRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	dir := t.TempDir()
	src := filepath.Join(dir, "q1.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.7 data"), 0644))
	payload, err := localfs.OpenPayload(src)
	require.NoError(t, err)

	entries := []models.FileEntry{
		models.NewFileEntry(payload, "Reports/q1.pdf"),
		models.NewFileEntry(models.NewBytesPayload("mem.pdf", []byte("x")), "mem.pdf"),
		models.NewFileEntry(payload, "q1.pdf"),
	}

	skipped, err := s.SaveSelection(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	loaded, err := s.LoadSelection(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Reports/q1.pdf", loaded[0].RelativePath)
	assert.Equal(t, "q1.pdf", loaded[1].Filename)
	assert.Equal(t, payload.Size(), loaded[0].Size())
	assert.Equal(t, "application/pdf", loaded[0].ContentType())

	rc, err := loaded[0].Payload.Open()
	require.NoError(t, err)
	rc.Close()

	// saving an empty selection clears it
	_, err = s.SaveSelection(ctx, nil)
	require.NoError(t, err)
	loaded, err = s.LoadSelection(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestChatHistory(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	for i, text := range []string{"hello", "hi there", "what is q1?", "q1 is..."} {
		msg := models.ChatMessage{ID: text, Text: text, IsUser: i%2 == 0, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.AppendMessage(ctx, "ada", msg))
	}
	require.NoError(t, s.AppendMessage(ctx, "bob", models.NewChatMessage("bob's", true)))

	all, err := s.ChatHistory(ctx, "ada", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "hello", all[0].Text)
	assert.True(t, all[0].IsUser)
	assert.False(t, all[1].IsUser)
	assert.True(t, all[3].Timestamp.Equal(base.Add(3*time.Minute)))

	last, err := s.ChatHistory(ctx, "ada", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "what is q1?", last[0].Text)
	assert.Equal(t, "q1 is...", last[1].Text)

	require.NoError(t, s.ClearChat(ctx, "ada"))
	all, err = s.ChatHistory(ctx, "ada", 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	bobs, err := s.ChatHistory(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)
}

func TestBatchHistory(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	first, err := s.RecordBatch(ctx, models.BatchRecord{
		StartedAt: start, FinishedAt: start.Add(2 * time.Second), Total: 2, Uploaded: 2,
	}, nil)
	require.NoError(t, err)

	second, err := s.RecordBatch(ctx, models.BatchRecord{
		StartedAt: start.Add(time.Minute), FinishedAt: start.Add(time.Minute + time.Second),
		Total: 3, Uploaded: 1, Failed: 2, Cancelled: true,
	}, []models.UploadOutcome{
		{Filename: "c.xlsx", ErrorMessage: "File appears to be empty when read"},
		{Filename: "d.pdf", ErrorMessage: "unsupported file type"},
	})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	recs, err := s.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second, recs[0].ID)
	assert.True(t, recs[0].Cancelled)
	assert.Equal(t, 2, recs[0].Failed)
	assert.True(t, recs[1].StartedAt.Equal(start))

	failures, err := s.BatchFailures(ctx, second)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "c.xlsx", failures[0].Filename)
	assert.Equal(t, "File appears to be empty when read", failures[0].ErrorMessage)

	limited, err := s.RecentBatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCASSIST_CONFIG_DIR", dir)
	assert.Equal(t, filepath.Join(dir, "docassist.db"), DefaultPath())
}
