package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"chat-sync/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEmitter(publisher, "sync_events.rooms", "chat-sync", "test")

	userID := "u1"
	publisher.On("Publish", mock.Anything, "sync_events.rooms", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(SyncEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "sync_events" &&
			envelope.Service == "chat-sync" &&
			envelope.Environment == "test" &&
			envelope.RoomID == "r1" &&
			envelope.Payload.Event == "message_created" &&
			envelope.Payload.Detail == "text"
	}), mock.Anything).Return(nil).Once()

	emitter.Emit(context.Background(), "message_created", "text", "r1", &userID)
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEmitter(publisher, "sync_events.rooms", "chat-sync", "test")

	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	emitter.Emit(context.Background(), "room_closed", "", "r1", nil)
	publisher.AssertExpectations(t)
}

func TestEmitNilReceiverAndPublisher(t *testing.T) {
	// Handlers may run without an emitter; both forms must be no-ops.
	var emitter *Emitter
	emitter.Emit(context.Background(), "noop", "", "", nil)

	emitter = NewEmitter(nil, "sync_events.rooms", "chat-sync", "test")
	emitter.Emit(context.Background(), "noop", "", "", nil)
}
