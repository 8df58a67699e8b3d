// Package collector expands dropped files and directories into staged
// FileEntry values.
package collector

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/models"
)

// Item is a dropped file-system entry: either a file or a directory.
type Item interface {
	Name() string
	IsDir() bool

	// Open returns the file's content handle. Only called for files.
	Open() (models.Payload, error)

	// ReadDir lists the immediate children in one batch. Only called for
	// directories.
	ReadDir(ctx context.Context) ([]Item, error)
}

// Report counts what the collector skipped.
type Report struct {
	Collected   int
	Unsupported int // files whose extension is not accepted
	Unreadable  int // files that could not be opened
	DirErrors   int // directories whose listing failed; their subtree is dropped
}

// Skipped is the total number of files and directories left out.
func (r Report) Skipped() int {
	return r.Unsupported + r.Unreadable + r.DirErrors
}

type counters struct {
	unsupported atomic.Int64
	unreadable  atomic.Int64
	dirErrors   atomic.Int64
}

// Collector walks dropped items concurrently.
type Collector struct {
	logger *logging.Logger
}

// New creates a Collector. A nil logger logs to stderr.
func New(logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Collector{logger: logger}
}

// Collect expands items into entries whose RelativePath is the path from
// the drop root. Each top-level item and each directory child is visited
// in its own goroutine; all of them finish before Collect returns.
//
// The order of the returned entries is NOT guaranteed. Read and listing
// failures never fail the collection: the file or subtree is dropped and
// counted in the Report. A cancelled ctx stops descending.
func (c *Collector) Collect(ctx context.Context, items []Item) ([]models.FileEntry, Report) {
	var n counters
	entries := c.collect(ctx, items, "", &n)

	return entries, Report{
		Collected:   len(entries),
		Unsupported: int(n.unsupported.Load()),
		Unreadable:  int(n.unreadable.Load()),
		DirErrors:   int(n.dirErrors.Load()),
	}
}

func (c *Collector) collect(ctx context.Context, items []Item, prefix string, n *counters) []models.FileEntry {
	var (
		mu  sync.Mutex
		out []models.FileEntry
		g   errgroup.Group
	)

	for _, item := range items {
		g.Go(func() error {
			found := c.visit(ctx, item, prefix, n)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			out = append(out, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // visit never returns an error

	return out
}

func (c *Collector) visit(ctx context.Context, item Item, prefix string, n *counters) []models.FileEntry {
	if ctx.Err() != nil {
		return nil
	}

	name := item.Name()
	rel := name
	if prefix != "" {
		rel = prefix + "/" + name
	}

	if item.IsDir() {
		children, err := item.ReadDir(ctx)
		if err != nil {
			n.dirErrors.Add(1)
			c.logger.Debug().Err(err).Str("dir", rel).Msg("skipping unreadable directory")
			return nil
		}
		return c.collect(ctx, children, rel, n)
	}

	if !models.IsAllowed(name) {
		n.unsupported.Add(1)
		return nil
	}

	payload, err := item.Open()
	if err != nil {
		n.unreadable.Add(1)
		c.logger.Debug().Err(err).Str("file", rel).Msg("skipping unreadable file")
		return nil
	}
	return []models.FileEntry{models.NewFileEntry(payload, rel)}
}
