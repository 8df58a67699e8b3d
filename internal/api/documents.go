package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/docassist/docassist/internal/models"
)

// Upload sends one document as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (*models.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var wire struct {
		ID       documentID `json:"id"`
		Filename string     `json:"filename"`
		Message  string     `json:"message"`
	}
	err = c.doJSON(ctx, request{
		method:      nethttp.MethodPost,
		path:        "/upload",
		rawBody:     buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &wire)
	if err != nil {
		return nil, err
	}

	out := &models.UploadResponse{ID: string(wire.ID), Filename: wire.Filename, Message: wire.Message}
	if out.Filename == "" {
		out.Filename = filename
	}
	return out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// documentID accepts both numeric and string ids.
type documentID string

func (id *documentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = documentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	*id = documentID(n.String())
	return nil
}

type wireDocument struct {
	ID         documentID `json:"id"`
	FileName   string     `json:"fileName"`
	UploadDate *time.Time `json:"uploadDate,omitempty"`
}

// ListDocuments returns every uploaded document.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var wire []wireDocument
	if err := c.doJSON(ctx, request{method: nethttp.MethodGet, path: "/documents"}, &wire); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(wire))
	for _, w := range wire {
		doc := models.Document{ID: string(w.ID), Name: w.FileName}
		if w.UploadDate != nil {
			doc.UploadDate = *w.UploadDate
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument removes one document by id.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	return c.doJSON(ctx, request{
		method: nethttp.MethodDelete,
		path:   "/deletedocument/" + url.PathEscape(id),
	}, nil)
}

// FetchText returns the extracted text the backend holds for all documents.
func (c *Client) FetchText(ctx context.Context) (string, error) {
	return c.doText(ctx, request{method: nethttp.MethodGet, path: "/textindb"})
}

// Ask sends a question to the answering backend. documentID narrows the
// question to one document when non-empty.
func (c *Client) Ask(ctx context.Context, question, documentID string) (string, error) {
	q := url.Values{}
	q.Set("question", question)
	if documentID != "" {
		q.Set("documentId", documentID)
	}
	return c.doText(ctx, request{method: nethttp.MethodGet, path: "/ask", query: q})
}
