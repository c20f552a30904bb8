package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher is the sink sync events are emitted to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
	Close() error
}

// Emitter publishes structured sync events (room lifecycle, message
// creation, failures) alongside the diagnostic log.
type Emitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// SyncEnvelope is the wire format of an emitted sync event.
type SyncEnvelope struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	OccurredAt    string      `json:"occurred_at"`
	Service       string      `json:"service"`
	Environment   string      `json:"environment"`
	RoomID        string      `json:"room_id,omitempty"`
	UserID        *string     `json:"user_id,omitempty"`
	Payload       SyncPayload `json:"payload"`
}

// SyncPayload carries the event name and a free-form detail line.
type SyncPayload struct {
	Event  string `json:"event"`
	Detail string `json:"detail,omitempty"`
}

// NewEmitter builds an Emitter. A nil publisher makes Emit a no-op.
func NewEmitter(publisher Publisher, routingKey, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one sync event. Publish failures are logged, never surfaced.
func (e *Emitter) Emit(ctx context.Context, event, detail, roomID string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("sync event: event=%s room_id=%s user_id=%v detail=%q", event, roomID, userID, detail)
	envelope := SyncEnvelope{
		SchemaVersion: 1,
		EventType:     "sync_events",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RoomID:        roomID,
		UserID:        userID,
		Payload: SyncPayload{
			Event:  event,
			Detail: detail,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope, nil); err != nil {
		log.Printf("sync event publish failed: %v", err)
	}
}
