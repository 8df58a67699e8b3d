package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/progress"
	stringutil "github.com/docassist/docassist/internal/util/strings"
)

// DocumentService lists and deletes the user's uploaded documents.
type DocumentService struct {
	client   DocumentAPI
	eventBus *events.EventBus
	logger   *logging.Logger
}

// NewDocumentService creates a DocumentService. logger may be nil.
func NewDocumentService(client DocumentAPI, eventBus *events.EventBus, logger *logging.Logger) *DocumentService {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &DocumentService{
		client:   client,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (ds *DocumentService) currentClient() (DocumentAPI, error) {
	if ds.client == nil {
		return nil, errors.New("API client not configured")
	}
	return ds.client, nil
}

// List returns the documents in backend order.
func (ds *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	client, err := ds.currentClient()
	if err != nil {
		return nil, err
	}

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		ds.publish(events.EventDocumentsRefreshed, "", 0, err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	ds.publish(events.EventDocumentsRefreshed, "", len(docs), nil)
	return docs, nil
}

// Delete removes one document.
func (ds *DocumentService) Delete(ctx context.Context, id string) error {
	client, err := ds.currentClient()
	if err != nil {
		return err
	}
	if id == "" {
		return errors.New("document id is required")
	}

	if err := client.DeleteDocument(ctx, id); err != nil {
		ds.publish(events.EventDocumentDeleted, id, 0, err)
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	ds.logger.Debug().Str("id", id).Msg("Document deleted")
	ds.publish(events.EventDocumentDeleted, id, 1, nil)
	return nil
}

// DeleteAll deletes every listed document.
func (ds *DocumentService) DeleteAll(ctx context.Context) (models.DeleteSummary, error) {
	return ds.DeleteAllWithProgress(ctx, progress.NewNoOpProgress())
}

// DeleteAllWithProgress lists the documents and issues one delete per
// document, sequentially. Individual failures are collected in the
// summary; only a list failure or cancellation returns an error.
func (ds *DocumentService) DeleteAllWithProgress(ctx context.Context, reporter progress.Reporter) (models.DeleteSummary, error) {
	docs, err := ds.List(ctx)
	if err != nil {
		return models.DeleteSummary{}, err
	}
	client, err := ds.currentClient()
	if err != nil {
		return models.DeleteSummary{}, err
	}

	var summary models.DeleteSummary
	reporter.Start(int64(len(docs)), "Deleting documents")

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			reporter.Finish()
			summary.Message = deleteMessage(summary, len(docs))
			return summary, err
		}
		reporter.SetDescription(fmt.Sprintf("Deleting %s", doc.Name))

		if err := client.DeleteDocument(ctx, doc.ID); err != nil {
			summary.Failed = append(summary.Failed, models.DeleteFailure{
				ID:    doc.ID,
				Name:  doc.Name,
				Error: api.ErrorMessage(err),
			})
			ds.logger.Warn().Str("id", doc.ID).Str("name", doc.Name).Err(err).Msg("Delete failed")
			ds.publish(events.EventDocumentDeleted, doc.ID, 0, err)
		} else {
			summary.Deleted++
			ds.publish(events.EventDocumentDeleted, doc.ID, 1, nil)
		}
		reporter.Update(int64(i + 1))
	}
	reporter.Finish()

	summary.Message = deleteMessage(summary, len(docs))
	ds.logger.Info().Int("deleted", summary.Deleted).Int("failed", len(summary.Failed)).Msg(summary.Message)
	return summary, nil
}

func deleteMessage(s models.DeleteSummary, total int) string {
	if len(s.Failed) == 0 && s.Deleted == total {
		return "Successfully deleted " + stringutil.CountNoun(s.Deleted, "document")
	}
	return fmt.Sprintf("Deleted %d of %s, %d failed", s.Deleted, stringutil.CountNoun(total, "document"), len(s.Failed))
}

// Text returns the extracted text the backend has stored.
func (ds *DocumentService) Text(ctx context.Context) (string, error) {
	client, err := ds.currentClient()
	if err != nil {
		return "", err
	}
	text, err := client.FetchText(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document text: %w", err)
	}
	return text, nil
}

func (ds *DocumentService) publish(t events.EventType, id string, count int, err error) {
	ds.eventBus.Publish(&events.DocumentEvent{
		BaseEvent:  events.NewBase(t),
		DocumentID: id,
		Count:      count,
		Error:      err,
	})
}
