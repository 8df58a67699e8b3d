package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/docassist/docassist/internal/collector"
)

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{".gitignore", true},
		{"visible.txt", false},
		{"normal", false},
		{"/path/to/.hidden", true},
		{"/path/to/visible.txt", false},
		{"../.hidden", true},
		{"../visible.txt", false},
		{"/path/to/~$deck.pptx", true},
		{"..", false}, // Special case: parent dir reference
		{".", false},  // Special case: current dir reference
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := IsHidden(tt.path)
			if result != tt.expected {
				t.Errorf("IsHidden(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsHiddenName(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{".hidden", true},
		{".gitignore", true},
		{"visible.txt", false},
		{"normal", false},
		{"..", false}, // Parent dir reference starts with . but is special
		{".", false},  // Current dir reference
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsHiddenName(tt.name)
			if result != tt.expected {
				t.Errorf("IsHiddenName(%q) = %v, want %v", tt.name, result, tt.expected)
			}
		})
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"visible.pdf":  "test",
		".hidden":      "test",
		"another.xlsx": "test",
		"~$lock.pptx":  "test",
		"subdir/x.pdf": "test",
		".hiddendir/y": "test",
	})

	t.Run("exclude hidden", func(t *testing.T) {
		entries, err := ListDirectory(context.Background(), tmpDir, ListOptions{IncludeHidden: false})
		if err != nil {
			t.Fatal(err)
		}

		// visible.pdf, another.xlsx, subdir
		if len(entries) != 3 {
			t.Errorf("got %d entries, want 3", len(entries))
		}
		for _, e := range entries {
			if IsHiddenName(e.Name) {
				t.Errorf("found hidden entry %q when IncludeHidden=false", e.Name)
			}
		}
	})

	t.Run("include hidden", func(t *testing.T) {
		entries, err := ListDirectory(context.Background(), tmpDir, ListOptions{IncludeHidden: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 6 {
			t.Errorf("got %d entries, want 6", len(entries))
		}
	})

	t.Run("entry properties", func(t *testing.T) {
		entries, err := ListDirectory(context.Background(), tmpDir, ListOptions{IncludeHidden: true})
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if e.Path != filepath.Join(tmpDir, e.Name) {
				t.Errorf("entry %q has Path=%q", e.Name, e.Path)
			}
			wantDir := e.Name == "subdir" || e.Name == ".hiddendir"
			if e.IsDir != wantDir {
				t.Errorf("entry %q IsDir = %v, want %v", e.Name, e.IsDir, wantDir)
			}
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ListDirectory(ctx, tmpDir, ListOptions{}); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		_, err := ListDirectory(context.Background(), "/nonexistent/path", ListOptions{})
		if err == nil {
			t.Error("expected error for nonexistent directory")
		}
	})
}

func TestWalkFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"file1.pdf":             "1",
		".hidden_file":          "h",
		"subdir/file2.pdf":      "2",
		".hidden_dir/file3.pdf": "3",
	})

	collect := func(opts WalkOptions) []string {
		var names []string
		err := WalkFiles(tmpDir, opts, func(entry FileEntry) error {
			names = append(names, entry.Name)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		sort.Strings(names)
		return names
	}

	if got := collect(WalkOptions{SkipHiddenDirs: true}); strings.Join(got, ",") != "file1.pdf,file2.pdf" {
		t.Errorf("exclude hidden = %v", got)
	}
	if got := collect(WalkOptions{IncludeHidden: true}); len(got) != 4 {
		t.Errorf("include hidden = %v, want 4 files", got)
	}
	// hidden files skipped, hidden dirs still entered
	if got := collect(WalkOptions{}); strings.Join(got, ",") != "file1.pdf,file2.pdf,file3.pdf" {
		t.Errorf("skip hidden files only = %v", got)
	}

	if err := WalkFiles(filepath.Join(tmpDir, "missing"), WalkOptions{}, func(FileEntry) error { return nil }); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestOpenPayload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "q1.pdf")
	content := "%PDF-1.7\n%quarterly"
	writeTree(t, tmpDir, map[string]string{"q1.pdf": content})

	payload, err := OpenPayload(path)
	if err != nil {
		t.Fatalf("OpenPayload() error = %v", err)
	}
	if payload.Size() != int64(len(content)) {
		t.Errorf("Size() = %d, want %d", payload.Size(), len(content))
	}
	if payload.ContentType() != "application/pdf" {
		t.Errorf("ContentType() = %q", payload.ContentType())
	}

	rc, err := payload.Open()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != content {
		t.Errorf("Open() content = %q", data)
	}

	if _, err := OpenPayload(tmpDir); err == nil {
		t.Error("OpenPayload() on a directory should fail")
	}

	restored := RestorePayload(path, 3, "application/pdf")
	if restored.Path() != path || restored.Size() != 3 {
		t.Errorf("RestorePayload() = %+v", restored)
	}
}

func TestItemsFeedCollector(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "Reports")
	writeTree(t, root, map[string]string{
		"q1.pdf":         "%PDF q1",
		"Archive/q0.pdf": "%PDF q0",
		"notes.txt":      "skip",
		".~lock.q1.pdf#": "lock",
	})
	loose := filepath.Join(tmpDir, "deck.pptx")
	writeTree(t, tmpDir, map[string]string{"deck.pptx": "PK"})

	items, err := NewItems([]string{root, loose}, ListOptions{})
	if err != nil {
		t.Fatalf("NewItems() error = %v", err)
	}

	entries, report := collector.New(nil).Collect(context.Background(), items)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelativePath)
	}
	sort.Strings(paths)

	want := "Reports/Archive/q0.pdf,Reports/q1.pdf,deck.pptx"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("collected = %s, want %s", got, want)
	}
	if report.Unsupported != 1 {
		t.Errorf("Unsupported = %d, want 1", report.Unsupported)
	}

	if _, err := NewItems([]string{filepath.Join(tmpDir, "missing.pdf")}, ListOptions{}); err == nil {
		t.Error("NewItems() should fail for a missing path")
	}
}

func TestPickFilesAndFolder(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"Reports/q1.pdf":         "a",
		"Reports/Archive/q0.pdf": "b",
		"loose.xls":              "c",
	})

	flat, err := PickFiles([]string{filepath.Join(tmpDir, "loose.xls")})
	if err != nil {
		t.Fatalf("PickFiles() error = %v", err)
	}
	if len(flat) != 1 || flat[0].Name != "loose.xls" || flat[0].FolderPath != "loose.xls" {
		t.Errorf("PickFiles() = %+v", flat)
	}
	if _, err := PickFiles([]string{filepath.Join(tmpDir, "Reports")}); err == nil {
		t.Error("PickFiles() should reject directories")
	}

	folder, err := PickFolder(filepath.Join(tmpDir, "Reports"), WalkOptions{SkipHiddenDirs: true})
	if err != nil {
		t.Fatalf("PickFolder() error = %v", err)
	}
	var paths []string
	for _, p := range folder {
		paths = append(paths, p.FolderPath)
	}
	sort.Strings(paths)
	if got := strings.Join(paths, ","); got != "Reports/Archive/q0.pdf,Reports/q1.pdf" {
		t.Errorf("PickFolder() paths = %s", got)
	}
	if _, err := PickFolder(filepath.Join(tmpDir, "loose.xls"), WalkOptions{}); err == nil {
		t.Error("PickFolder() should reject files")
	}
}
