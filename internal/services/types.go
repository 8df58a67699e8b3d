// Package services provides the document inventory and upload
// orchestration shared by the CLI commands. It has no terminal code;
// state changes are published on the event bus.
package services

import (
	"context"

	"github.com/docassist/docassist/internal/models"
)

// DocumentAPI is the part of api.Client the inventory depends on.
type DocumentAPI interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	FetchText(ctx context.Context) (string, error)
}

// SelectionStore persists the staged selection between invocations.
// storage.Store implements it.
type SelectionStore interface {
	SaveSelection(ctx context.Context, entries []models.FileEntry) (skipped int, err error)
}

// UploadResult is the outcome of UploadService.Upload.
type UploadResult struct {
	Summary models.BatchSummary

	// Documents is the refreshed inventory; nil when RefreshErr is set.
	Documents  []models.Document
	RefreshErr error

	// SelectionCleared is true when every entry uploaded.
	SelectionCleared bool
}

// DocumentServiceInterface is implemented by DocumentService.
type DocumentServiceInterface interface {
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (models.DeleteSummary, error)
	Text(ctx context.Context) (string, error)
}

var _ DocumentServiceInterface = (*DocumentService)(nil)
