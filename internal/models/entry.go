package models

import (
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/docassist/docassist/internal/constants"
)

// Payload is an opaque handle to a file's content.
type Payload interface {
	// Size is the exact byte length of the content.
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// FileEntry is one staged document. Entries are immutable values;
// RelativePath always ends with Filename.
type FileEntry struct {
	Payload      Payload
	Filename     string
	RelativePath string // "/"-separated, from the selection root
}

// NewFileEntry derives Filename from relativePath, normalizing separators.
func NewFileEntry(payload Payload, relativePath string) FileEntry {
	rel := strings.Trim(strings.ReplaceAll(relativePath, "\\", "/"), "/")
	return FileEntry{
		Payload:      payload,
		Filename:     path.Base(rel),
		RelativePath: rel,
	}
}

// FolderGroup is RelativePath without the filename, or "Files" for
// entries staged without a folder.
func (e FileEntry) FolderGroup() string {
	dir := path.Dir(e.RelativePath)
	if dir == "." || dir == "/" || dir == "" {
		return constants.DefaultFolderGroup
	}
	return dir
}

// Size returns the payload size, or 0 without a payload.
func (e FileEntry) Size() int64 {
	if e.Payload == nil {
		return 0
	}
	return e.Payload.Size()
}

// ContentType returns the payload's MIME type.
func (e FileEntry) ContentType() string {
	if e.Payload == nil {
		return ContentTypeFor(e.Filename, nil)
	}
	return e.Payload.ContentType()
}

// Extension returns the lower-cased text after the final ".", or "".
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// IsAllowed reports whether name has one of the accepted document extensions.
func IsAllowed(name string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, allowed := range constants.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

var extensionTypes = map[string]string{
	"pdf":  "application/pdf",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentTypeFor sniffs head with mimetype and falls back to the
// extension table when detection is generic (octet-stream, text, zip, OLE).
func ContentTypeFor(name string, head []byte) string {
	if len(head) > 0 {
		mt := mimetype.Detect(head)
		if !isGeneric(mt) {
			return mt.String()
		}
	}
	if ct, ok := extensionTypes[Extension(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func isGeneric(mt *mimetype.MIME) bool {
	for _, generic := range []string{"application/octet-stream", "text/plain", "application/zip", "application/x-ole-storage"} {
		if mt.Is(generic) {
			return true
		}
	}
	return false
}

// BytesPayload is an in-memory Payload.
type BytesPayload struct {
	data        []byte
	contentType string
}

// NewBytesPayload wraps data, sniffing its content type against name.
func NewBytesPayload(name string, data []byte) *BytesPayload {
	return &BytesPayload{data: data, contentType: ContentTypeFor(name, data)}
}

func (p *BytesPayload) Size() int64         { return int64(len(p.data)) }
func (p *BytesPayload) ContentType() string { return p.contentType }

func (p *BytesPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p.data)), nil
}

// PickedFile is one file from a file or folder picker, before filtering.
type PickedFile struct {
	Payload Payload
	Name    string

	// FolderPath is the folder-qualified path the picker reports, e.g.
	// "Reports/Archive/q0.pdf". For a flat pick it is just Name.
	FolderPath string
}
