package services

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/devserver"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/state"
	"github.com/docassist/docassist/internal/transfer"
)

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Options{Out: &bytes.Buffer{}})
}

// newLoggedInClient starts a dev backend and registers a user.
func newLoggedInClient(t *testing.T) (*api.Client, *devserver.Server) {
	t.Helper()
	dev := devserver.New(devserver.Options{BcryptCost: bcrypt.MinCost, Logger: quietLogger()})
	srv := httptest.NewServer(dev.Handler())
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.APIBaseURL = srv.URL + "/api"
	cfg.MaxRetries = 0

	client, err := api.NewClient(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.Register(context.Background(), "ada", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return client, dev
}

func uploadDocs(t *testing.T, client *api.Client, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := client.Upload(context.Background(), name, "application/pdf", []byte("%PDF-1.4 "+name)); err != nil {
			t.Fatalf("Upload(%s) error = %v", name, err)
		}
	}
}

func TestDocumentService_ListAndDelete(t *testing.T) {
	client, _ := newLoggedInClient(t)
	uploadDocs(t, client, "a.pdf", "b.pdf")

	bus := events.NewEventBus(10)
	defer bus.Close()
	deleted := bus.Subscribe(events.EventDocumentDeleted)

	ds := NewDocumentService(client, bus, quietLogger())
	ctx := context.Background()

	docs, err := ds.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "a.pdf" || docs[1].Name != "b.pdf" {
		t.Fatalf("List() = %+v", docs)
	}

	if err := ds.Delete(ctx, docs[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	select {
	case ev := <-deleted:
		if ev.(*events.DocumentEvent).DocumentID != docs[0].ID {
			t.Errorf("deleted event id = %q", ev.(*events.DocumentEvent).DocumentID)
		}
	case <-time.After(time.Second):
		t.Error("no document_deleted event")
	}

	err = ds.Delete(ctx, docs[0].ID)
	if !api.IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}

	if err := ds.Delete(ctx, ""); err == nil {
		t.Error("Delete(\"\") should fail")
	}
}

func TestDocumentService_DeleteAll(t *testing.T) {
	client, dev := newLoggedInClient(t)
	uploadDocs(t, client, "a.pdf", "b.pptx", "c.xlsx")

	ds := NewDocumentService(client, nil, quietLogger())
	summary, err := ds.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if summary.Deleted != 3 || len(summary.Failed) != 0 {
		t.Errorf("DeleteAll() = %+v", summary)
	}
	if summary.Message != "Successfully deleted 3 documents" {
		t.Errorf("Message = %q", summary.Message)
	}
	if dev.DocumentCount() != 0 {
		t.Errorf("backend still holds %d documents", dev.DocumentCount())
	}
}

type flakyDocs struct {
	docs    []models.Document
	fail    map[string]error
	listErr error
	deletes []string
}

func (f *flakyDocs) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return f.docs, f.listErr
}

func (f *flakyDocs) DeleteDocument(ctx context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	return f.fail[id]
}

func (f *flakyDocs) FetchText(ctx context.Context) (string, error) {
	return "", errors.New("not implemented")
}

func TestDocumentService_DeleteAllCollectsFailures(t *testing.T) {
	fake := &flakyDocs{
		docs: []models.Document{{ID: "1", Name: "a.pdf"}, {ID: "2", Name: "b.pdf"}, {ID: "3", Name: "c.pdf"}},
		fail: map[string]error{"2": &api.APIError{Status: 500, Message: "storage offline"}},
	}
	ds := NewDocumentService(fake, nil, quietLogger())

	summary, err := ds.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if strings.Join(fake.deletes, ",") != "1,2,3" {
		t.Errorf("deletes = %v, want exactly one per document in order", fake.deletes)
	}
	if summary.Deleted != 2 || len(summary.Failed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if f := summary.Failed[0]; f.ID != "2" || f.Name != "b.pdf" || f.Error != "storage offline" {
		t.Errorf("failure = %+v", f)
	}
	if summary.Message != "Deleted 2 of 3 documents, 1 failed" {
		t.Errorf("Message = %q", summary.Message)
	}
}

func TestDocumentService_DeleteAllListFailure(t *testing.T) {
	fake := &flakyDocs{listErr: errors.New("connection refused")}
	ds := NewDocumentService(fake, nil, quietLogger())

	if _, err := ds.DeleteAll(context.Background()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("DeleteAll() error = %v", err)
	}
	if len(fake.deletes) != 0 {
		t.Errorf("deletes issued after list failure: %v", fake.deletes)
	}
}

func TestDocumentService_NoClient(t *testing.T) {
	ds := NewDocumentService(nil, nil, quietLogger())
	if _, err := ds.List(context.Background()); err == nil {
		t.Error("List() without client should fail")
	}
}

func TestDocumentService_Text(t *testing.T) {
	client, _ := newLoggedInClient(t)
	uploadDocs(t, client, "a.pdf")

	text, err := NewDocumentService(client, nil, quietLogger()).Text(context.Background())
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(text, "a.pdf") {
		t.Errorf("Text() = %q", text)
	}
}

type savedSelection struct {
	saves [][]models.FileEntry
}

func (s *savedSelection) SaveSelection(ctx context.Context, entries []models.FileEntry) (int, error) {
	s.saves = append(s.saves, entries)
	return 0, nil
}

func stage(sel *state.SelectionModel, files map[string]string, order ...string) {
	for _, name := range order {
		sel.Add(models.NewFileEntry(models.NewBytesPayload(name, []byte(files[name])), name))
	}
}

func newUploadService(t *testing.T, client *api.Client, store SelectionStore) (*UploadService, *state.SelectionModel) {
	t.Helper()
	sel := state.NewSelectionModel(nil)
	pipeline := transfer.NewPipeline(client, transfer.Options{
		InterRequestDelay: time.Millisecond,
		DisplayResetDelay: -1,
		Logger:            quietLogger(),
	})
	t.Cleanup(pipeline.Close)
	docs := NewDocumentService(client, nil, quietLogger())
	return NewUploadService(sel, pipeline, docs, store, quietLogger()), sel
}

func TestUploadService_ClearsSelectionOnSuccess(t *testing.T) {
	client, _ := newLoggedInClient(t)
	store := &savedSelection{}
	us, sel := newUploadService(t, client, store)

	stage(sel, map[string]string{"a.pdf": "%PDF a", "b.pdf": "%PDF b"}, "a.pdf", "b.pdf")

	result, err := us.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.Summary.UploadedCount != 2 || !result.SelectionCleared {
		t.Errorf("result = %+v", result)
	}
	if sel.Len() != 0 {
		t.Errorf("selection len = %d, want 0", sel.Len())
	}
	if len(result.Documents) != 2 || result.RefreshErr != nil {
		t.Errorf("refreshed documents = %+v (err %v)", result.Documents, result.RefreshErr)
	}
	if len(store.saves) != 1 || len(store.saves[0]) != 0 {
		t.Errorf("selection saves = %v", store.saves)
	}
}

func TestUploadService_KeepsSelectionOnPartialFailure(t *testing.T) {
	client, _ := newLoggedInClient(t)
	us, sel := newUploadService(t, client, nil)

	stage(sel, map[string]string{"a.pdf": "%PDF a", "empty.pdf": ""}, "a.pdf", "empty.pdf")

	result, err := us.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.Summary.UploadedCount != 1 || len(result.Summary.Failed) != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.SelectionCleared || sel.Len() != 2 {
		t.Errorf("selection should be kept, len = %d", sel.Len())
	}
	if len(result.Documents) != 1 {
		t.Errorf("documents = %+v", result.Documents)
	}
}

func TestUploadService_NothingStaged(t *testing.T) {
	client, _ := newLoggedInClient(t)
	us, _ := newUploadService(t, client, nil)

	if _, err := us.Upload(context.Background()); !errors.Is(err, ErrNothingStaged) {
		t.Errorf("Upload() error = %v, want ErrNothingStaged", err)
	}
}
