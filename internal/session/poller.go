package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/observability"
	"chat-sync/internal/store"
)

// DefaultPollInterval matches the reference cadence of the chat screens.
const DefaultPollInterval = 2 * time.Second

// Watcher is the transport that keeps a store current while a room is
// selected. Poller is the reference implementation; RoomWatcher offers the
// same surface over a push channel.
type Watcher interface {
	Start(roomID string)
	Stop()
}

// Poller periodically asks the server for messages newer than the store's
// cursor and merges the response. Failures are logged and retried on the
// next interval; a missed tick is not fatal.
type Poller struct {
	client   api.Client
	store    *store.MessageStore
	interval time.Duration
	onMerge  func(inserted []models.Message)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller builds an idle poller. interval <= 0 selects DefaultPollInterval.
func NewPoller(client api.Client, st *store.MessageStore, interval time.Duration, onMerge func([]models.Message)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: client, store: st, interval: interval, onMerge: onMerge}
}

// Start schedules the recurring tick for the room. If a previous loop is
// still running it is stopped first, so at most one loop exists.
func (p *Poller) Start(roomID string) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	observability.IncWatcherActive("poll")
	go p.loop(ctx, roomID, done)
}

// Stop cancels the scheduled recurrence and waits for the loop to exit.
// It must complete before a store Load for another room; an in-flight
// request from the old loop may still resolve afterwards, but its result is
// discarded by the room guard in tick.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	observability.DecWatcherActive("poll")
}

func (p *Poller) loop(ctx context.Context, roomID string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("poll tick failed room=%s: %v", roomID, err)
				observability.IncPollTick("error")
			}
		}
	}
}

// Tick performs a single poll pass: skip when no cursor exists yet,
// otherwise fetch messages newer than the cursor and merge them. The merge
// is guarded by the store's current room id, so a response that arrives
// after a room switch mutates nothing.
func (p *Poller) Tick(ctx context.Context) error {
	roomID := p.store.RoomID()
	if roomID == "" {
		observability.IncPollTick("skipped")
		return nil
	}
	cursor, ok := p.store.Cursor()
	if !ok {
		observability.IncPollTick("skipped")
		return nil
	}

	result, err := p.client.CheckNew(ctx, roomID, cursor)
	if err != nil {
		return err
	}
	observability.IncPollTick("ok")
	if !result.HasNewMessages {
		return nil
	}
	if p.store.RoomID() != roomID {
		return nil
	}

	inserted := p.store.Merge(result.Messages)
	observability.AddMerged(len(inserted))
	if len(inserted) > 0 && p.onMerge != nil {
		p.onMerge(inserted)
	}
	return nil
}
