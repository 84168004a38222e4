// Package events carries lifecycle notifications out of the engine.
// Publishing is fire-and-forget: the core never blocks on, or fails
// because of, the event collaborator.
package events

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle event names published by the engine
const (
	ConstraintCreated   = "constraint.created"
	ConstraintUpdated   = "constraint.updated"
	ConstraintDeleted   = "constraint.deleted"
	ConstraintEvaluated = "constraint.evaluated"
	BulkEvaluated       = "constraints.bulk.evaluated"
	ConflictDetected    = "conflict.detected"
	ResolutionApplied   = "resolution.applied"
	ResolutionRejected  = "resolution.rejected"
)

// Event is a single lifecycle notification with its entity IDs and payload
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// New builds an event envelope
func New(name string, payload map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher receives engine lifecycle events. Implementations must return
// quickly; slow consumers belong behind AsyncPublisher.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// LogPublisher writes events to a zap logger, used by the CLI
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that logs each event at debug level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(event Event) {
	p.logger.Debug("event published",
		zap.String("event_id", event.ID.String()),
		zap.String("name", event.Name),
		zap.Any("payload", event.Payload))
}

// AsyncPublisher decouples publishing from delivery with a buffered
// channel and a background drain goroutine. When the buffer is full the
// event is dropped rather than blocking the caller.
type AsyncPublisher struct {
	sink   Publisher
	buffer chan Event
	done   chan struct{}
	logger *zap.Logger
}

// NewAsyncPublisher wraps a sink publisher with an async buffer
func NewAsyncPublisher(sink Publisher, bufferSize int, logger *zap.Logger) *AsyncPublisher {
	p := &AsyncPublisher{
		sink:   sink,
		buffer: make(chan Event, bufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.drain()
	return p
}

func (p *AsyncPublisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		p.sink.Publish(event)
	}
}

// Publish enqueues an event, dropping it if the buffer is full
func (p *AsyncPublisher) Publish(event Event) {
	select {
	case p.buffer <- event:
	default:
		p.logger.Warn("event buffer full, dropping event", zap.String("name", event.Name))
	}
}

// Close stops accepting events and waits for buffered events to drain
func (p *AsyncPublisher) Close() {
	close(p.buffer)
	<-p.done
}
