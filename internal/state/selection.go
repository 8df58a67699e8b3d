package state

import (
	"fmt"
	"sync"

	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/models"
)

// SelectionModel is the ordered list of staged entries.
// Thread-safe for concurrent access. Entries are never mutated in place;
// every change swaps in a new slice.
type SelectionModel struct {
	eventBus *events.EventBus

	mu      sync.RWMutex
	entries []models.FileEntry
}

// NewSelectionModel creates an empty selection. bus may be nil.
func NewSelectionModel(bus *events.EventBus) *SelectionModel {
	return &SelectionModel{eventBus: bus}
}

// AddFromPicker appends the allowed files from a picker result and
// returns how many were added and how many were filtered out.
func (s *SelectionModel) AddFromPicker(files []models.PickedFile, policy FolderPolicy) (added, skipped int) {
	accepted := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		if !models.IsAllowed(f.Name) {
			skipped++
			continue
		}
		rel := f.Name
		if policy == PolicyFolder && f.FolderPath != "" {
			rel = f.FolderPath
		}
		accepted = append(accepted, models.NewFileEntry(f.Payload, rel))
	}

	if len(accepted) > 0 {
		s.Add(accepted...)
	}
	return len(accepted), skipped
}

// Add appends entries in order. Duplicates are kept.
func (s *SelectionModel) Add(entries ...models.FileEntry) {
	s.mu.Lock()
	next := make([]models.FileEntry, 0, len(s.entries)+len(entries))
	next = append(next, s.entries...)
	next = append(next, entries...)
	s.entries = next
	s.mu.Unlock()

	s.publish("add")
}

// ReplaceAll swaps the whole list for entries.
func (s *SelectionModel) ReplaceAll(entries []models.FileEntry) {
	next := make([]models.FileEntry, len(entries))
	copy(next, entries)

	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()

	s.publish("replace")
}

// Remove drops the entry at index. Indices of later entries shift down.
func (s *SelectionModel) Remove(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.entries) {
		n := len(s.entries)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (selection has %d entries)", ErrIndexOutOfRange, index, n)
	}
	next := make([]models.FileEntry, 0, len(s.entries)-1)
	next = append(next, s.entries[:index]...)
	next = append(next, s.entries[index+1:]...)
	s.entries = next
	s.mu.Unlock()

	s.publish("remove")
	return nil
}

// Clear empties the selection.
func (s *SelectionModel) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	s.publish("clear")
}

// Len returns the number of staged entries.
func (s *SelectionModel) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of the entries for the upload pipeline.
func (s *SelectionModel) Snapshot() []models.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FileEntry, len(s.entries))
	copy(result, s.entries)
	return result
}

// GroupByFolder groups the current entries, see GroupByFolder.
func (s *SelectionModel) GroupByFolder() map[string][]models.FileEntry {
	return GroupByFolder(s.Snapshot())
}

// GroupKeys returns folder groups in first-seen order.
func (s *SelectionModel) GroupKeys() []string {
	return GroupKeys(s.Snapshot())
}

// TotalSize sums the payload sizes.
func (s *SelectionModel) TotalSize() int64 {
	return TotalSize(s.Snapshot())
}

// LargeFiles returns entries above the large-file warning threshold.
func (s *SelectionModel) LargeFiles() []models.FileEntry {
	var large []models.FileEntry
	for _, e := range s.Snapshot() {
		if e.Size() > constants.LargeFileWarningBytes {
			large = append(large, e)
		}
	}
	return large
}

func (s *SelectionModel) publish(reason string) {
	if s.eventBus == nil {
		return
	}
	s.mu.RLock()
	count := len(s.entries)
	total := TotalSize(s.entries)
	s.mu.RUnlock()

	s.eventBus.Publish(NewSelectionChangedEvent(count, total, reason))
}

// GroupByFolder maps each folder group to its entries, preserving order
// within each group.
func GroupByFolder(entries []models.FileEntry) map[string][]models.FileEntry {
	groups := make(map[string][]models.FileEntry)
	for _, e := range entries {
		key := e.FolderGroup()
		groups[key] = append(groups[key], e)
	}
	return groups
}

// GroupKeys returns the distinct folder groups in first-seen order.
func GroupKeys(entries []models.FileEntry) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range entries {
		key := e.FolderGroup()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// TotalSize sums the payload sizes of entries.
func TotalSize(entries []models.FileEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size()
	}
	return total
}

// FormatSize renders bytes as "%.1f KB" below 1 MiB and "%.1f MB" above.
func FormatSize(bytes int64) string {
	if bytes < constants.SizeMiB {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/constants.SizeMiB)
}
