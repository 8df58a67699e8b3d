package collector

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"github.com/docassist/docassist/internal/models"
)

// fsItem adapts a path inside an fs.FS. File content is read fully on Open.
type fsItem struct {
	fsys  fs.FS
	name  string
	path  string
	isDir bool
}

// FSItems returns one Item per named path in fsys, in argument order.
func FSItems(fsys fs.FS, paths ...string) ([]Item, error) {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		items = append(items, &fsItem{fsys: fsys, name: path.Base(p), path: p, isDir: info.IsDir()})
	}
	return items, nil
}

func (i *fsItem) Name() string { return i.name }
func (i *fsItem) IsDir() bool  { return i.isDir }

func (i *fsItem) Open() (models.Payload, error) {
	data, err := fs.ReadFile(i.fsys, i.path)
	if err != nil {
		return nil, err
	}
	return models.NewBytesPayload(i.name, data), nil
}

func (i *fsItem) ReadDir(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(i.fsys, i.path)
	if err != nil {
		return nil, err
	}
	children := make([]Item, 0, len(entries))
	for _, e := range entries {
		children = append(children, &fsItem{
			fsys:  i.fsys,
			name:  e.Name(),
			path:  path.Join(i.path, e.Name()),
			isDir: e.IsDir(),
		})
	}
	return children, nil
}
