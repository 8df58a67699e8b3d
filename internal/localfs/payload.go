package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docassist/docassist/internal/models"
)

// sniffLen is how much of a file is read to detect its content type.
const sniffLen = 3072

// FilePayload is a models.Payload backed by a file on disk. Size is fixed
// when the payload is created; Open reopens the file each time.
type FilePayload struct {
	path        string
	size        int64
	contentType string
}

// OpenPayload stats path and sniffs its content type.
func OpenPayload(path string) (*FilePayload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &FilePayload{
		path:        path,
		size:        info.Size(),
		contentType: models.ContentTypeFor(filepath.Base(path), head[:n]),
	}, nil
}

// RestorePayload rebuilds a payload from persisted metadata without
// touching the disk.
func RestorePayload(path string, size int64, contentType string) *FilePayload {
	return &FilePayload{path: path, size: size, contentType: contentType}
}

func (p *FilePayload) Path() string        { return p.path }
func (p *FilePayload) Size() int64         { return p.size }
func (p *FilePayload) ContentType() string { return p.contentType }

func (p *FilePayload) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}
