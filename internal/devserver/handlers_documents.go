package devserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/docassist/docassist/internal/cloud/storage"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/util/sanitize"
)

type uploadResponse struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// handleUpload stores the multipart field "file".
func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return newBadRequestError("multipart field \"file\" is required", err)
	}

	name := sanitize.Filename(fh.Filename)
	if name == "" {
		return newBadRequestError("file name is required", nil)
	}
	if !models.IsAllowed(name) {
		return newBadRequestError("unsupported file type: "+name, nil)
	}
	if fh.Size == 0 {
		return newBadRequestError("file is empty: "+name, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return newInternalError("failed to read upload", err)
	}
	defer f.Close()

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = models.ContentTypeFor(name, nil)
	}

	key := uuid.NewString() + "/" + name
	if err := s.store.Put(c.Request().Context(), key, f, fh.Size, contentType); err != nil {
		if storage.IsDiskFullError(err) {
			return &APIError{Status: http.StatusInsufficientStorage, Code: "STORAGE_FULL", Message: "document store is full"}
		}
		return newInternalError("failed to store document", err)
	}

	username := currentUser(c)
	s.mu.Lock()
	doc := &document{
		ID:          s.nextID,
		FileName:    name,
		UploadDate:  time.Now().UTC(),
		owner:       username,
		blobKey:     key,
		size:        fh.Size,
		contentType: contentType,
	}
	s.documents[doc.ID] = doc
	s.nextID++
	s.mu.Unlock()

	s.logger.Debug().Int64("id", doc.ID).Str("file", name).Int64("size", fh.Size).Msg("dev backend: document stored")
	return c.JSON(http.StatusOK, uploadResponse{
		ID:       doc.ID,
		Filename: name,
		Message:  "File uploaded successfully",
	})
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs := s.documentsFor(currentUser(c))
	if docs == nil {
		docs = []*document{}
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return newBadRequestError("document id must be numeric", err)
	}

	s.mu.Lock()
	doc, ok := s.documents[id]
	if !ok || doc.owner != currentUser(c) {
		s.mu.Unlock()
		return newNotFoundError("document", raw)
	}
	delete(s.documents, id)
	s.mu.Unlock()

	if err := s.store.Delete(c.Request().Context(), doc.blobKey); err != nil {
		s.logger.Warn().Err(err).Str("key", doc.blobKey).Msg("dev backend: blob delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleTextInDB returns what the "database" holds: one line per document
// with its stored size. Documents whose blob has gone missing are marked.
func (s *Server) handleTextInDB(c echo.Context) error {
	var sb strings.Builder
	for _, doc := range s.documentsFor(currentUser(c)) {
		size, err := s.blobSize(c, doc)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Fprintf(&sb, "%s (content missing)\n", doc.FileName)
		case err != nil:
			return newInternalError("failed to read document "+doc.FileName, err)
		default:
			fmt.Fprintf(&sb, "%s (%d bytes, %s)\n", doc.FileName, size, doc.contentType)
		}
	}
	return c.String(http.StatusOK, sb.String())
}

func (s *Server) blobSize(c echo.Context, doc *document) (int64, error) {
	rc, err := s.store.Get(c.Request().Context(), doc.blobKey)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(io.Discard, rc)
}

// handleAsk echoes the question with the documents it was asked against.
func (s *Server) handleAsk(c echo.Context) error {
	question := sanitize.Question(c.QueryParam("question"))
	if question == "" {
		return newBadRequestError("question is required", nil)
	}

	docs := s.documentsFor(currentUser(c))
	if docID := c.QueryParam("documentId"); docID != "" {
		var match []*document
		for _, doc := range docs {
			if strconv.FormatInt(doc.ID, 10) == docID {
				match = append(match, doc)
			}
		}
		if len(match) == 0 {
			return newNotFoundError("document", docID)
		}
		docs = match
	}

	if len(docs) == 0 {
		return c.String(http.StatusOK, fmt.Sprintf("No documents have been uploaded yet, so I cannot answer: %q", question))
	}

	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.FileName
	}
	return c.String(http.StatusOK, fmt.Sprintf("You asked: %q\n\nSearched %d document(s): %s", question, len(docs), strings.Join(names, ", ")))
}
