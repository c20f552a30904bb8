package session

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/observability"
	"chat-sync/internal/store"
)

// reconnectDelay paces websocket redial attempts.
const reconnectDelay = 2 * time.Second

// RoomWatcher is a push-based alternative to Poller behind the same Watcher
// surface: it subscribes to the room's websocket feed and merges pushed
// messages into the store. Store and coordinator contracts are untouched;
// delivery remains best effort and a poll tick can always catch up.
type RoomWatcher struct {
	wsBaseURL string
	tokens    api.TokenProvider
	store     *store.MessageStore
	onMerge   func(inserted []models.Message)
	onClosed  func(roomID string)

	mu     sync.Mutex
	cancel context.CancelFunc
	conn   *websocket.Conn
	done   chan struct{}
}

// NewRoomWatcher builds an idle watcher. wsBaseURL is the ws:// or wss://
// base of the messaging service.
func NewRoomWatcher(wsBaseURL string, tokens api.TokenProvider, st *store.MessageStore, onMerge func([]models.Message), onClosed func(string)) *RoomWatcher {
	return &RoomWatcher{
		wsBaseURL: wsBaseURL,
		tokens:    tokens,
		store:     st,
		onMerge:   onMerge,
		onClosed:  onClosed,
	}
}

// Start subscribes to the room feed, redialing until stopped.
func (w *RoomWatcher) Start(roomID string) {
	w.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	observability.IncWatcherActive("ws")
	go w.run(ctx, roomID, done)
}

// Stop tears the subscription down and waits for the read loop to exit.
func (w *RoomWatcher) Stop() {
	w.mu.Lock()
	cancel, done, conn := w.cancel, w.done, w.conn
	w.cancel, w.done, w.conn = nil, nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	<-done
	observability.DecWatcherActive("ws")
}

func (w *RoomWatcher) run(ctx context.Context, roomID string, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.subscribe(ctx, roomID, done); err != nil && ctx.Err() == nil {
			log.Printf("room watcher disconnected room=%s: %v", roomID, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (w *RoomWatcher) subscribe(ctx context.Context, roomID string, done chan struct{}) error {
	token, err := w.tokens.Token(ctx)
	if err != nil {
		return err
	}

	feedURL := w.wsBaseURL + "/ws/rooms/" + url.PathEscape(roomID) + "?token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feedURL, nil)
	if err != nil {
		return err
	}

	// Publish the conn under the same lock Stop snapshots under. If Stop ran
	// between the dial and this point it already cleared w.done, and nobody
	// would ever close this conn to unblock the read loop; bail out instead
	// of entering it.
	w.mu.Lock()
	if w.done != done {
		w.mu.Unlock()
		conn.Close()
		return nil
	}
	w.conn = conn
	w.mu.Unlock()
	defer conn.Close()

	for {
		var event models.RoomEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}

		switch event.Type {
		case models.RoomEventMessage:
			if event.Message == nil || w.store.RoomID() != roomID {
				continue
			}
			inserted := w.store.Merge([]models.Message{*event.Message})
			observability.AddMerged(len(inserted))
			if len(inserted) > 0 && w.onMerge != nil {
				w.onMerge(inserted)
			}
		case models.RoomEventClosed:
			if w.onClosed != nil {
				w.onClosed(roomID)
			}
		}
	}
}

var _ Watcher = (*Poller)(nil)
var _ Watcher = (*RoomWatcher)(nil)
