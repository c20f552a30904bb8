package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/observability"
	"chat-sync/internal/store"
	"chat-sync/internal/upload"
)

var (
	ErrNoRoomSelected = errors.New("no room selected")
	ErrEmptyContent   = errors.New("message content is empty")
	ErrDuplicateSend  = errors.New("identical content sent moments ago")
	ErrSendInFlight   = errors.New("another send is in flight")
)

// DefaultSendCooldown is how long the idempotency guard outlives a
// successful dispatch. The poller's next tick may observe the same message;
// the store's merge deduplicates it by id, so the cooldown only has to
// suppress user-driven resubmission.
const DefaultSendCooldown = time.Second

// SendCoordinator turns a user send intent into exactly one accepted
// server-side message, even under double-submission. All state it guards
// with is owned per instance; one coordinator serves one session.
type SendCoordinator struct {
	client   api.Client
	store    *store.MessageStore
	uploader *upload.Uploader
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	room        *models.RoomDetail
	inFlight    bool
	lastContent string
	lastSentAt  time.Time
}

// NewSendCoordinator builds a coordinator with no room selected.
// cooldown <= 0 selects DefaultSendCooldown.
func NewSendCoordinator(client api.Client, st *store.MessageStore, uploader *upload.Uploader, cooldown time.Duration) *SendCoordinator {
	if cooldown <= 0 {
		cooldown = DefaultSendCooldown
	}
	return &SendCoordinator{
		client:   client,
		store:    st,
		uploader: uploader,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// SetRoom points the coordinator at the active room. nil deselects.
func (sc *SendCoordinator) SetRoom(room *models.RoomDetail) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.room = room
	sc.inFlight = false
	sc.lastContent = ""
}

// MarkRoomClosed records the open → closed transition for the active room.
func (sc *SendCoordinator) MarkRoomClosed(roomID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.room != nil && sc.room.ID == roomID {
		sc.room.Status = models.RoomClosed
	}
}

// SendText dispatches a text message. Validation failures and the
// idempotency guard reject synchronously before any network call; a
// transport failure releases the guard so the user can retry immediately.
func (sc *SendCoordinator) SendText(ctx context.Context, content string) (models.Message, error) {
	content = strings.TrimSpace(content)

	sc.mu.Lock()
	if err := sc.checkSendable(); err != nil {
		sc.mu.Unlock()
		observability.IncSend("text", "rejected")
		return models.Message{}, err
	}
	if content == "" {
		sc.mu.Unlock()
		observability.IncSend("text", "rejected")
		return models.Message{}, ErrEmptyContent
	}
	if content == sc.lastContent && sc.now().Sub(sc.lastSentAt) < sc.cooldown {
		sc.mu.Unlock()
		observability.IncSend("text", "duplicate")
		return models.Message{}, ErrDuplicateSend
	}
	roomID := sc.room.ID
	sc.inFlight = true
	sc.lastContent = content
	sc.lastSentAt = sc.now()
	sc.mu.Unlock()

	msg, err := sc.client.SendText(ctx, roomID, content)
	return sc.finish(msg, "text", err)
}

// SendImage validates and uploads the binary payload, then dispatches an
// image message carrying the returned reference and optional caption.
func (sc *SendCoordinator) SendImage(ctx context.Context, filename string, data []byte, caption string) (models.Message, error) {
	sc.mu.Lock()
	if err := sc.checkSendable(); err != nil {
		sc.mu.Unlock()
		observability.IncSend("image", "rejected")
		return models.Message{}, err
	}
	roomID := sc.room.ID
	sc.mu.Unlock()

	ref, err := sc.uploader.Upload(ctx, filename, data)
	if err != nil {
		observability.IncSend("image", "rejected")
		return models.Message{}, err
	}

	sc.mu.Lock()
	if err := sc.checkSendable(); err != nil {
		sc.mu.Unlock()
		observability.IncSend("image", "rejected")
		return models.Message{}, err
	}
	sc.inFlight = true
	sc.mu.Unlock()

	msg, err := sc.client.SendImage(ctx, roomID, ref, strings.TrimSpace(caption))
	return sc.finish(msg, "image", err)
}

// checkSendable enforces room selection, lifecycle and the in-flight flag.
// Caller holds the lock.
func (sc *SendCoordinator) checkSendable() error {
	if sc.room == nil {
		return ErrNoRoomSelected
	}
	if sc.room.Status == models.RoomClosed {
		return api.ErrRoomClosed
	}
	if sc.inFlight {
		return ErrSendInFlight
	}
	return nil
}

// finish reconciles a dispatch outcome. The server either fully created the
// message or did not; only the former mutates the store.
func (sc *SendCoordinator) finish(msg models.Message, kind string, err error) (models.Message, error) {
	sc.mu.Lock()
	sc.inFlight = false
	if err != nil {
		sc.lastContent = ""
		sc.mu.Unlock()
		observability.IncSend(kind, "error")
		return models.Message{}, fmt.Errorf("dispatch %s message: %w", kind, err)
	}
	sc.lastSentAt = sc.now()
	sc.mu.Unlock()

	sc.store.Merge([]models.Message{msg})
	observability.IncSend(kind, "ok")
	return msg, nil
}
