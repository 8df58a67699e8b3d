// Package events provides the in-process event bus used by the selection
// model, the upload pipeline and the document services.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/docassist/docassist/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog   EventType = "log"
	EventError EventType = "error"

	// Selection
	EventSelectionChanged EventType = "selection_changed"

	// Upload batch lifecycle
	EventBatchStarted   EventType = "batch_started"
	EventBatchProgress  EventType = "batch_progress"
	EventBatchEntryDone EventType = "batch_entry_done"
	EventBatchFinished  EventType = "batch_finished"
	EventBatchReset     EventType = "batch_reset"

	// Inventory
	EventDocumentsRefreshed EventType = "documents_refreshed"
	EventDocumentDeleted    EventType = "document_deleted"

	// Session
	EventSessionChanged EventType = "session_changed"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Stage   string
	Error   error
}

// ErrorEvent represents error conditions
type ErrorEvent struct {
	BaseEvent
	Stage string
	Error error
}

// DocumentEvent is published by the inventory service.
type DocumentEvent struct {
	BaseEvent
	DocumentID string
	Count      int
	Error      error
}

// SessionEvent is published on login, logout and registration.
type SessionEvent struct {
	BaseEvent
	Username      string
	Authenticated bool
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// closedChan is handed out after Close so receivers never block.
func closedChan() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return closedChan()
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return closedChan()
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for a subscriber whose buffer is full are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil || event == nil {
		return
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		eb.deliver(ch, event)
	}
	for _, ch := range eb.all {
		eb.deliver(ch, event)
	}
}

func (eb *EventBus) deliver(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		eb.droppedEvents.Add(1)
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, stage string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: NewBase(EventLog),
		Level:     level,
		Message:   message,
		Stage:     stage,
		Error:     err,
	})
}

// Unsubscribe removes a subscription channel from every list it appears in.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		eb.subscribers[eventType] = removeChan(subscribers, ch)
	}
	eb.all = removeChan(eb.all, ch)
}

func removeChan(list []chan Event, ch <-chan Event) []chan Event {
	for i, subCh := range list {
		if subCh == ch {
			list[i] = list[len(list)-1]
			return list[:len(list)-1]
		}
	}
	return list
}

// DroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) DroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
