package models

import "time"

// BatchPhase is the upload pipeline's state.
type BatchPhase int

const (
	PhaseIdle BatchPhase = iota
	PhaseRunning
	PhaseCompleted
	PhaseCompletedWithErrors
)

func (p BatchPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseCompletedWithErrors:
		return "completed_with_errors"
	default:
		return "unknown"
	}
}

// UploadOutcome is the result of one entry in a batch.
type UploadOutcome struct {
	Filename     string `json:"filename" yaml:"filename"`
	Succeeded    bool   `json:"succeeded" yaml:"succeeded"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// BatchSummary is returned when a batch ends.
type BatchSummary struct {
	UploadedCount int             `json:"uploadedCount" yaml:"uploadedCount"`
	Failed        []UploadOutcome `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Total is the number of entries attempted.
func (s BatchSummary) Total() int {
	return s.UploadedCount + len(s.Failed)
}

// UploadBatchState is the value delivered to observers on every transition.
type UploadBatchState struct {
	Phase     BatchPhase
	Progress  int // 0-100
	Status    string
	Index     int // 1-based index of the entry in flight, 0 when none
	Total     int
	Uploaded  int
	FailedNum int
}

// BatchRecord is one row of upload history.
type BatchRecord struct {
	ID         int64     `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`
	Total      int       `json:"total" yaml:"total"`
	Uploaded   int       `json:"uploaded" yaml:"uploaded"`
	Failed     int       `json:"failed" yaml:"failed"`
	Cancelled  bool      `json:"cancelled" yaml:"cancelled"`
}
