package services

import (
	"context"
	"errors"

	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/state"
	"github.com/docassist/docassist/internal/transfer"
)

// ErrNothingStaged is returned by Upload when the selection is empty.
var ErrNothingStaged = errors.New("no documents are staged for upload")

// UploadService runs the staged selection through the pipeline and keeps
// the selection and inventory consistent with the outcome.
type UploadService struct {
	selection *state.SelectionModel
	pipeline  *transfer.Pipeline
	documents *DocumentService
	store     SelectionStore // optional
	logger    *logging.Logger
}

// NewUploadService wires the pieces together. store and logger may be nil.
func NewUploadService(selection *state.SelectionModel, pipeline *transfer.Pipeline, documents *DocumentService, store SelectionStore, logger *logging.Logger) *UploadService {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &UploadService{
		selection: selection,
		pipeline:  pipeline,
		documents: documents,
		store:     store,
		logger:    logger,
	}
}

// Upload runs one batch over a snapshot of the selection. The selection
// is cleared only when every entry uploaded; after a partial failure or
// cancellation it is kept so the batch can be retried. The inventory is
// refreshed whatever the outcome, except when the batch never started.
func (us *UploadService) Upload(ctx context.Context) (UploadResult, error) {
	entries := us.selection.Snapshot()
	if len(entries) == 0 {
		return UploadResult{}, ErrNothingStaged
	}

	summary, runErr := us.pipeline.Run(ctx, entries)
	if errors.Is(runErr, transfer.ErrBatchInProgress) {
		return UploadResult{}, runErr
	}

	result := UploadResult{Summary: summary}
	if runErr == nil && len(summary.Failed) == 0 {
		us.selection.Clear()
		result.SelectionCleared = true
		us.persist(ctx)
	}

	// the refresh must run even when ctx was cancelled mid-batch
	refreshCtx := ctx
	if runErr != nil {
		refreshCtx = context.WithoutCancel(ctx)
	}
	docs, err := us.documents.List(refreshCtx)
	if err != nil {
		result.RefreshErr = err
		us.logger.Warn().Err(err).Msg("Could not refresh documents after upload")
	} else {
		result.Documents = docs
	}

	return result, runErr
}

func (us *UploadService) persist(ctx context.Context) {
	if us.store == nil {
		return
	}
	if _, err := us.store.SaveSelection(ctx, us.selection.Snapshot()); err != nil {
		us.logger.Warn().Err(err).Msg("Failed to save staged selection")
	}
}
