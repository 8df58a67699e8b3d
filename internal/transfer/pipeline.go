// Package transfer runs staged documents through the upload transport as
// one strictly sequential batch and tracks the batch state for observers.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
)

// ErrBatchInProgress is returned by Run while another batch is running.
var ErrBatchInProgress = errors.New("an upload batch is already in progress")

// Uploader sends one document to the backend. api.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*models.UploadResponse, error)
}

// Recorder persists a finished batch. storage.Store implements it.
type Recorder interface {
	RecordBatch(ctx context.Context, rec models.BatchRecord, failures []models.UploadOutcome) (int64, error)
}

// Observer receives every batch state transition, in order.
type Observer func(models.UploadBatchState)

// Options configures a Pipeline. Zero durations fall back to the defaults
// in constants; a negative duration disables the wait.
type Options struct {
	InterRequestDelay time.Duration
	DisplayResetDelay time.Duration
	UploadTimeout     time.Duration

	EventBus *events.EventBus
	Logger   *logging.Logger
	Recorder Recorder
}

// Pipeline is the upload batch state machine:
// Idle -> Running -> Completed | CompletedWithErrors -> Idle.
type Pipeline struct {
	uploader Uploader
	opts     Options
	logger   *logging.Logger

	mu         sync.Mutex
	state      models.UploadBatchState
	observers  []Observer
	resetTimer *time.Timer
	generation uint64 // bumped on every Run so stale reset timers are ignored
}

// NewPipeline creates an idle pipeline.
func NewPipeline(uploader Uploader, opts Options) *Pipeline {
	if opts.InterRequestDelay == 0 {
		opts.InterRequestDelay = constants.InterRequestDelay
	}
	if opts.DisplayResetDelay == 0 {
		opts.DisplayResetDelay = constants.DisplayResetDelay
	}
	if opts.UploadTimeout == 0 {
		opts.UploadTimeout = constants.UploadRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Pipeline{
		uploader: uploader,
		opts:     opts,
		logger:   logger,
		state:    models.UploadBatchState{Phase: models.PhaseIdle},
	}
}

// AddObserver registers fn for every later transition.
func (p *Pipeline) AddObserver(fn Observer) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// State returns the current batch state.
func (p *Pipeline) State() models.UploadBatchState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Running reports whether a batch is in flight.
func (p *Pipeline) Running() bool {
	return p.State().Phase == models.PhaseRunning
}

// Run uploads a copy of entries in order. Per-file failures are collected
// in the summary and never stop the batch. If ctx is cancelled the
// remaining entries are skipped and the partial summary is returned with
// ctx.Err().
func (p *Pipeline) Run(ctx context.Context, entries []models.FileEntry) (models.BatchSummary, error) {
	if !p.begin(len(entries)) {
		return models.BatchSummary{}, ErrBatchInProgress
	}

	snapshot := make([]models.FileEntry, len(entries))
	copy(snapshot, entries)

	started := time.Now()
	total := len(snapshot)
	var summary models.BatchSummary

	p.logger.Info().Int("files", total).Msg("Upload batch started")

	for i, entry := range snapshot {
		if i > 0 {
			if err := p.wait(ctx); err != nil {
				return p.abandon(ctx, started, total, summary, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return p.abandon(ctx, started, total, summary, err)
		}

		p.update(events.EventBatchProgress, func(s *models.UploadBatchState) {
			s.Index = i + 1
			s.Progress = i * 100 / total
			s.Status = fmt.Sprintf("Uploading %d/%d: %s", i+1, total, entry.Filename)
		})

		outcome, err := p.uploadOne(ctx, entry)
		if err != nil && ctx.Err() != nil {
			return p.abandon(ctx, started, total, summary, ctx.Err())
		}
		if outcome.Succeeded {
			summary.UploadedCount++
		} else {
			summary.Failed = append(summary.Failed, outcome)
			p.logger.Warn().Str("file", outcome.Filename).Str("reason", outcome.ErrorMessage).Msg("Upload failed")
		}

		p.update(events.EventBatchEntryDone, func(s *models.UploadBatchState) {
			s.Uploaded = summary.UploadedCount
			s.FailedNum = len(summary.Failed)
		})
	}

	p.finish(ctx, started, total, summary, false)
	return summary, nil
}

// uploadOne reads the payload fully and hands it to the uploader. The
// returned error is the transport error, if any, so Run can tell a
// cancellation apart from a server failure.
func (p *Pipeline) uploadOne(ctx context.Context, entry models.FileEntry) (models.UploadOutcome, error) {
	outcome := models.UploadOutcome{Filename: entry.Filename}

	data, err := readPayload(entry.Payload)
	if err != nil {
		outcome.ErrorMessage = api.ErrorMessage(err)
		return outcome, nil
	}
	if len(data) == 0 {
		outcome.ErrorMessage = constants.EmptyFileMessage
		return outcome, nil
	}

	uploadCtx, cancel := context.WithTimeout(ctx, p.opts.UploadTimeout)
	defer cancel()

	resp, err := p.uploader.Upload(uploadCtx, entry.Filename, entry.ContentType(), data)
	if err != nil {
		outcome.ErrorMessage = api.ErrorMessage(err)
		return outcome, err
	}

	outcome.Succeeded = true
	if resp != nil {
		p.logger.Debug().Str("file", entry.Filename).Str("id", resp.ID).Msg("Uploaded")
	}
	return outcome, nil
}

func readPayload(payload models.Payload) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	rc, err := payload.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.opts.InterRequestDelay < 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.opts.InterRequestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// begin moves Idle (or a finished phase still on display) to Running.
func (p *Pipeline) begin(total int) bool {
	p.mu.Lock()
	if p.state.Phase == models.PhaseRunning {
		p.mu.Unlock()
		return false
	}
	if p.resetTimer != nil {
		p.resetTimer.Stop()
		p.resetTimer = nil
	}
	p.generation++
	p.state = models.UploadBatchState{
		Phase:  models.PhaseRunning,
		Total:  total,
		Status: fmt.Sprintf("Starting upload of %d file(s)", total),
	}
	s, observers := p.state, p.observers
	p.mu.Unlock()

	p.notify(events.EventBatchStarted, s, observers)
	return true
}

func (p *Pipeline) finish(ctx context.Context, started time.Time, total int, summary models.BatchSummary, cancelled bool) {
	phase := models.PhaseCompleted
	status := fmt.Sprintf("Uploaded %d file(s)", summary.UploadedCount)
	if len(summary.Failed) > 0 {
		phase = models.PhaseCompletedWithErrors
		status = fmt.Sprintf("Uploaded %d of %d file(s), %d failed", summary.UploadedCount, total, len(summary.Failed))
	}
	if cancelled {
		status = fmt.Sprintf("Cancelled after %d of %d file(s)", summary.Total(), total)
	}

	p.update(events.EventBatchFinished, func(s *models.UploadBatchState) {
		s.Phase = phase
		s.Progress = 100
		s.Status = status
		s.Index = 0
		s.Uploaded = summary.UploadedCount
		s.FailedNum = len(summary.Failed)
	})

	p.logger.Info().
		Int("uploaded", summary.UploadedCount).
		Int("failed", len(summary.Failed)).
		Bool("cancelled", cancelled).
		Dur("elapsed", time.Since(started)).
		Msg("Upload batch finished")

	p.record(ctx, models.BatchRecord{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Total:      total,
		Uploaded:   summary.UploadedCount,
		Failed:     len(summary.Failed),
		Cancelled:  cancelled,
	}, summary.Failed)

	p.scheduleReset()
}

func (p *Pipeline) abandon(ctx context.Context, started time.Time, total int, summary models.BatchSummary, err error) (models.BatchSummary, error) {
	p.finish(ctx, started, total, summary, true)
	return summary, err
}

func (p *Pipeline) record(ctx context.Context, rec models.BatchRecord, failures []models.UploadOutcome) {
	if p.opts.Recorder == nil {
		return
	}
	// The batch may have ended because ctx was cancelled; history is still written.
	if _, err := p.opts.Recorder.RecordBatch(context.WithoutCancel(ctx), rec, failures); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to record upload history")
	}
}

func (p *Pipeline) scheduleReset() {
	if p.opts.DisplayResetDelay < 0 {
		p.reset(p.currentGeneration())
		return
	}

	p.mu.Lock()
	gen := p.generation
	p.resetTimer = time.AfterFunc(p.opts.DisplayResetDelay, func() {
		p.reset(gen)
	})
	p.mu.Unlock()
}

func (p *Pipeline) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// reset returns the pipeline to Idle unless a newer batch has started.
func (p *Pipeline) reset(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.state.Phase == models.PhaseRunning {
		p.mu.Unlock()
		return
	}
	p.resetTimer = nil
	p.state = models.UploadBatchState{Phase: models.PhaseIdle}
	s, observers := p.state, p.observers
	p.mu.Unlock()

	p.notify(events.EventBatchReset, s, observers)
}

// Close stops a pending display reset.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resetTimer != nil {
		p.resetTimer.Stop()
		p.resetTimer = nil
	}
}

func (p *Pipeline) update(t events.EventType, mutate func(*models.UploadBatchState)) {
	p.mu.Lock()
	mutate(&p.state)
	s, observers := p.state, p.observers
	p.mu.Unlock()

	p.notify(t, s, observers)
}

func (p *Pipeline) notify(t events.EventType, s models.UploadBatchState, observers []Observer) {
	for _, fn := range observers {
		fn(s)
	}
	p.opts.EventBus.Publish(&BatchEvent{BaseEvent: events.NewBase(t), State: s})
}

// BatchEvent carries a batch state transition on the event bus.
type BatchEvent struct {
	events.BaseEvent
	State models.UploadBatchState
}
