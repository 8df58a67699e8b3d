package localfs

import (
	"context"
	"fmt"
	"os"

	"github.com/docassist/docassist/internal/collector"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/pathutil"
)

// Item is a collector.Item for a path on the local disk.
type Item struct {
	path  string
	name  string
	isDir bool
	opts  ListOptions
}

// NewItems stats each path and wraps it for the collector.
func NewItems(paths []string, opts ListOptions) ([]collector.Item, error) {
	items := make([]collector.Item, 0, len(paths))
	for _, p := range paths {
		abs, err := pathutil.Absolute(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		items = append(items, &Item{path: abs, name: info.Name(), isDir: info.IsDir(), opts: opts})
	}
	return items, nil
}

func (i *Item) Name() string { return i.name }
func (i *Item) IsDir() bool  { return i.isDir }

// Path is the absolute path of the item.
func (i *Item) Path() string { return i.path }

func (i *Item) Open() (models.Payload, error) {
	return OpenPayload(i.path)
}

func (i *Item) ReadDir(ctx context.Context) ([]collector.Item, error) {
	entries, err := ListDirectory(ctx, i.path, i.opts)
	if err != nil {
		return nil, err
	}
	children := make([]collector.Item, 0, len(entries))
	for _, e := range entries {
		children = append(children, &Item{path: e.Path, name: e.Name, isDir: e.IsDir, opts: i.opts})
	}
	return children, nil
}
