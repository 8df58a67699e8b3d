package localfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/pathutil"
)

// PickFiles builds a flat picker selection from file paths. Directories
// are rejected; use PickFolder for those.
func PickFiles(paths []string) ([]models.PickedFile, error) {
	picked := make([]models.PickedFile, 0, len(paths))
	for _, p := range paths {
		abs, err := pathutil.Absolute(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory (use --folder)", p)
		}
		payload, err := OpenPayload(abs)
		if err != nil {
			return nil, err
		}
		picked = append(picked, models.PickedFile{
			Payload:    payload,
			Name:       info.Name(),
			FolderPath: info.Name(),
		})
	}
	return picked, nil
}

// PickFolder selects every regular file under root, the way a browser
// folder picker does: FolderPath is root's base name joined with the
// path relative to root.
func PickFolder(root string, opts WalkOptions) ([]models.PickedFile, error) {
	abs, err := pathutil.Absolute(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	base := filepath.Base(abs)
	var picked []models.PickedFile
	err = WalkFiles(abs, opts, func(entry FileEntry) error {
		rel, err := filepath.Rel(abs, entry.Path)
		if err != nil {
			return nil
		}
		payload, err := OpenPayload(entry.Path)
		if err != nil {
			return nil
		}
		picked = append(picked, models.PickedFile{
			Payload:    payload,
			Name:       entry.Name,
			FolderPath: base + "/" + filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return picked, nil
}
