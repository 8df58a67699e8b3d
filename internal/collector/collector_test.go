package collector

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/docassist/docassist/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func relPaths(entries []models.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelativePath
	}
	sort.Strings(out)
	return out
}

func dropTree() fstest.MapFS {
	return fstest.MapFS{
		"Reports/q1.pdf":          {Data: []byte("%PDF-1.7 q1")},
		"Reports/notes.txt":       {Data: []byte("skip me")},
		"Reports/Archive/q0.pdf":  {Data: []byte("%PDF-1.4 q0")},
		"Reports/Archive/q0.XLSX": {Data: []byte("PK sheet")},
		"Reports/Archive/img.png": {Data: []byte("png")},
		"deck.pptx":               {Data: []byte("PK slides")},
		"readme.md":               {Data: []byte("# hi")},
		"Empty":                   {Mode: fs.ModeDir | 0o755},
	}
}

func TestCollect_FilesAndDirectories(t *testing.T) {
	items, err := FSItems(dropTree(), "Reports", "deck.pptx", "readme.md")
	require.NoError(t, err)

	entries, report := New(nil).Collect(context.Background(), items)

	want := []string{
		"Reports/Archive/q0.XLSX",
		"Reports/Archive/q0.pdf",
		"Reports/q1.pdf",
		"deck.pptx",
	}
	if diff := cmp.Diff(want, relPaths(entries)); diff != "" {
		t.Errorf("collected paths mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, report.Collected)
	assert.Equal(t, 3, report.Unsupported)
	assert.Zero(t, report.Unreadable)
	assert.Zero(t, report.DirErrors)

	for _, e := range entries {
		assert.True(t, len(e.RelativePath) >= len(e.Filename))
		assert.Equal(t, e.Filename, e.RelativePath[len(e.RelativePath)-len(e.Filename):])
		assert.Positive(t, e.Size())
	}
}

func TestCollect_TopLevelFileHasNoPrefix(t *testing.T) {
	items, err := FSItems(dropTree(), "deck.pptx")
	require.NoError(t, err)

	entries, _ := New(nil).Collect(context.Background(), items)
	require.Len(t, entries, 1)
	assert.Equal(t, "deck.pptx", entries[0].RelativePath)
	assert.Equal(t, "Files", entries[0].FolderGroup())
}

func TestCollect_Idempotent(t *testing.T) {
	items, err := FSItems(dropTree(), "Reports", "deck.pptx")
	require.NoError(t, err)

	c := New(nil)
	first, _ := c.Collect(context.Background(), items)
	second, _ := c.Collect(context.Background(), items)
	if diff := cmp.Diff(relPaths(first), relPaths(second)); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestCollect_EmptyDirectory(t *testing.T) {
	items, err := FSItems(dropTree(), "Empty")
	require.NoError(t, err)

	entries, report := New(nil).Collect(context.Background(), items)
	assert.Empty(t, entries)
	assert.Zero(t, report.Skipped())
}

// fakeItem injects read failures.
type fakeItem struct {
	name     string
	dir      bool
	children []Item
	openErr  error
	listErr  error
}

func (f *fakeItem) Name() string { return f.name }
func (f *fakeItem) IsDir() bool  { return f.dir }

func (f *fakeItem) Open() (models.Payload, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return models.NewBytesPayload(f.name, []byte("data")), nil
}

func (f *fakeItem) ReadDir(ctx context.Context) ([]Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.children, nil
}

func TestCollect_FailuresAreIsolated(t *testing.T) {
	items := []Item{
		&fakeItem{name: "root", dir: true, children: []Item{
			&fakeItem{name: "ok.pdf"},
			&fakeItem{name: "locked.pdf", openErr: errors.New("permission denied")},
			&fakeItem{name: "broken", dir: true, listErr: errors.New("i/o error"), children: []Item{
				&fakeItem{name: "never.pdf"},
			}},
			&fakeItem{name: "sub", dir: true, children: []Item{
				&fakeItem{name: "deep.ppt"},
			}},
		}},
		&fakeItem{name: "top.xls"},
	}

	entries, report := New(nil).Collect(context.Background(), items)

	assert.Equal(t, []string{"root/ok.pdf", "root/sub/deep.ppt", "top.xls"}, relPaths(entries))
	assert.Equal(t, 1, report.Unreadable)
	assert.Equal(t, 1, report.DirErrors)
	assert.Equal(t, 2, report.Skipped())
}

func TestCollect_CancelledContext(t *testing.T) {
	items, err := FSItems(dropTree(), "Reports", "deck.pptx")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, _ := New(nil).Collect(ctx, items)
	assert.Empty(t, entries)
}

func TestCollect_NoItems(t *testing.T) {
	entries, report := New(nil).Collect(context.Background(), nil)
	assert.Empty(t, entries)
	assert.Equal(t, Report{}, report)
}

func TestFSItems_MissingPath(t *testing.T) {
	_, err := FSItems(dropTree(), "nope.pdf")
	assert.Error(t, err)
}
