package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/docassist/docassist/internal/models"
)

// BatchUI renders upload batch state. On a terminal it draws one mpb bar
// for the whole batch; otherwise it prints a line per status change.
type BatchUI struct {
	progress   *mpb.Progress
	bar        *mpb.Bar
	out        io.Writer
	isTerminal bool

	// read by the bar decorator; must not take mu
	status atomic.Value

	mu       sync.Mutex
	lastLine string
	done     bool
}

// NewBatchUI creates a batch UI writing to f.
func NewBatchUI(f *os.File) *BatchUI {
	isTerminal := term.IsTerminal(int(f.Fd()))
	if isTerminal {
		enableANSI(f)
	}
	return newBatchUI(f, isTerminal)
}

// NewBatchUIFor picks bars when out is a terminal file and plain lines
// for anything else.
func NewBatchUIFor(out io.Writer) *BatchUI {
	if f, ok := out.(*os.File); ok {
		return NewBatchUI(f)
	}
	return newBatchUI(out, false)
}

func newBatchUI(out io.Writer, isTerminal bool) *BatchUI {
	u := &BatchUI{out: out, isTerminal: isTerminal}
	if isTerminal {
		u.progress = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(60),
		)
	}
	return u
}

// Observe consumes one pipeline transition. It satisfies transfer.Observer.
func (u *BatchUI) Observe(s models.UploadBatchState) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done || s.Phase == models.PhaseIdle {
		return
	}
	u.status.Store(s.Status)

	if !u.isTerminal {
		u.printLine(s)
		return
	}

	if u.bar == nil {
		u.bar = u.newBar()
	}
	switch s.Phase {
	case models.PhaseRunning:
		u.bar.SetCurrent(int64(s.Progress))
	case models.PhaseCompleted:
		u.bar.SetTotal(100, true)
		u.done = true
	case models.PhaseCompletedWithErrors:
		// keep the bar visible so the failure count stays on screen
		u.bar.SetCurrent(100)
		u.bar.Abort(false)
		u.done = true
	}
}

func (u *BatchUI) newBar() *mpb.Bar {
	return u.progress.New(100,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				status, _ := u.status.Load().(string)
				return status
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
}

func (u *BatchUI) printLine(s models.UploadBatchState) {
	line := s.Status
	switch s.Phase {
	case models.PhaseCompleted:
		line = "✓ " + s.Status
		u.done = true
	case models.PhaseCompletedWithErrors:
		line = "✗ " + s.Status
		u.done = true
	case models.PhaseRunning:
		if s.Index > 0 {
			line = fmt.Sprintf("[%3d%%] %s", s.Progress, s.Status)
		}
	}
	if line == "" || line == u.lastLine {
		return
	}
	u.lastLine = line
	fmt.Fprintln(u.out, line)
}

// Wait blocks until the bar has finished rendering.
func (u *BatchUI) Wait() {
	if u.progress == nil {
		return
	}
	u.mu.Lock()
	if u.bar != nil && !u.done {
		u.bar.Abort(false)
		u.done = true
	}
	u.mu.Unlock()
	u.progress.Wait()
}

// Writer returns a writer that prints above the bar while it is active.
func (u *BatchUI) Writer() io.Writer {
	if u.progress != nil {
		return u.progress
	}
	return u.out
}

// IsTerminal reports whether bars are drawn.
func (u *BatchUI) IsTerminal() bool {
	return u.isTerminal
}
