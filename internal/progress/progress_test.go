package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/docassist/docassist/internal/models"
)

func TestBatchUI_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	ui := newBatchUI(&buf, false)

	states := []models.UploadBatchState{
		{Phase: models.PhaseRunning, Total: 2, Status: "Starting upload of 2 file(s)"},
		{Phase: models.PhaseRunning, Index: 1, Total: 2, Progress: 0, Status: "Uploading 1/2: a.pdf"},
		{Phase: models.PhaseRunning, Index: 1, Total: 2, Progress: 0, Status: "Uploading 1/2: a.pdf", Uploaded: 1},
		{Phase: models.PhaseRunning, Index: 2, Total: 2, Progress: 50, Status: "Uploading 2/2: b.pdf"},
		{Phase: models.PhaseCompletedWithErrors, Total: 2, Progress: 100, Status: "Uploaded 1 of 2 file(s), 1 failed"},
		{Phase: models.PhaseIdle},
	}
	for _, s := range states {
		ui.Observe(s)
	}
	ui.Wait()

	want := []string{
		"Starting upload of 2 file(s)",
		"[  0%] Uploading 1/2: a.pdf",
		"[ 50%] Uploading 2/2: b.pdf",
		"✗ Uploaded 1 of 2 file(s), 1 failed",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBatchUI_IgnoresStatesAfterFinish(t *testing.T) {
	var buf bytes.Buffer
	ui := newBatchUI(&buf, false)

	ui.Observe(models.UploadBatchState{Phase: models.PhaseCompleted, Progress: 100, Status: "Uploaded 1 file(s)"})
	ui.Observe(models.UploadBatchState{Phase: models.PhaseRunning, Index: 1, Status: "Uploading 1/1: late.pdf"})

	if got := buf.String(); got != "✓ Uploaded 1 file(s)\n" {
		t.Errorf("output = %q", got)
	}
	if ui.IsTerminal() {
		t.Error("plain UI reported a terminal")
	}
	if ui.Writer() != &buf {
		t.Error("Writer() should be the plain output")
	}
}

func TestCLIProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewCLIProgress(&buf)

	p.Start(3, "Deleting documents")
	p.Update(2)
	p.SetDescription("Deleting b.pdf")
	p.Finish()
	p.Error(errors.New("one left"))

	if !strings.Contains(buf.String(), "Error: one left") {
		t.Errorf("error not written: %q", buf.String())
	}
}

func TestNoOpProgress(t *testing.T) {
	var r Reporter = NewNoOpProgress()
	r.Start(1, "x")
	r.Update(1)
	r.Finish()
}
