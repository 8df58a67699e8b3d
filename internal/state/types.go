// Package state provides the observable selection container. It holds the
// staged documents and publishes an event on every change so any frontend
// can subscribe and redraw.
package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docassist/docassist/internal/events"
)

// ErrIndexOutOfRange is returned by Remove for a position outside the list.
var ErrIndexOutOfRange = errors.New("selection index out of range")

// FolderPolicy decides how picker results are keyed.
type FolderPolicy int

const (
	// PolicyFlat keys every file by its name alone.
	PolicyFlat FolderPolicy = iota
	// PolicyFolder keeps the folder-qualified path the picker reports.
	PolicyFolder
)

func (p FolderPolicy) String() string {
	if p == PolicyFolder {
		return "folder"
	}
	return "flat"
}

// ParseFolderPolicy accepts "flat" or "folder" (case-insensitive).
func ParseFolderPolicy(s string) (FolderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return PolicyFlat, nil
	case "folder", "":
		return PolicyFolder, nil
	}
	return PolicyFlat, fmt.Errorf("unknown folder policy %q (want flat or folder)", s)
}

// SelectionChangedEvent is published after every selection mutation.
type SelectionChangedEvent struct {
	events.BaseEvent
	Count      int
	TotalBytes int64
	Reason     string // "add", "replace", "remove", "clear"
}

// NewSelectionChangedEvent creates a new SelectionChangedEvent.
func NewSelectionChangedEvent(count int, totalBytes int64, reason string) *SelectionChangedEvent {
	return &SelectionChangedEvent{
		BaseEvent:  events.NewBase(events.EventSelectionChanged),
		Count:      count,
		TotalBytes: totalBytes,
		Reason:     reason,
	}
}
