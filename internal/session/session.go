package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/store"
	"chat-sync/internal/upload"
)

// DefaultPageSize is the initial message page loaded when opening a room.
const DefaultPageSize = 50

// Listener receives engine notifications on the poller's goroutine.
// Implementations must not block.
type Listener interface {
	// OnMessages is invoked with the subset of merged messages that were
	// actually inserted, in conversation order.
	OnMessages(inserted []models.Message)
}

// Options tune a Session. The zero value selects reference behavior.
type Options struct {
	PollInterval time.Duration
	SendCooldown time.Duration
	PageSize     int
	MaxUpload    int64
	Listener     Listener
}

// Session is the façade a chat screen drives: select a room, read the merged
// sequence, send, and tear down cleanly when switching rooms. One session
// owns one MessageStore; opening a room always stops the previous watcher
// before the store is primed for the new one.
//
// Control methods (Open, Close, Send*, RefreshNow) are meant to be called
// from a single caller goroutine; the store itself is safe for the
// concurrent merges the poller performs.
type Session struct {
	client      api.Client
	role        models.Role
	store       *store.MessageStore
	poller      *Poller
	coordinator *SendCoordinator
	listener    Listener
	pageSize    int

	room *models.RoomDetail
}

// New builds an idle session for a viewer role. Role only decides which
// participant is "self" for display; it never affects synchronization.
func New(client api.Client, role models.Role, opts Options) *Session {
	st := store.NewMessageStore()
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s := &Session{
		client:   client,
		role:     role,
		store:    st,
		listener: opts.Listener,
		pageSize: pageSize,
	}
	s.poller = NewPoller(client, st, opts.PollInterval, s.notify)
	uploader := upload.NewUploader(client, opts.MaxUpload)
	s.coordinator = NewSendCoordinator(client, st, uploader, opts.SendCooldown)
	return s
}

// Open selects a room: the previous poller is stopped synchronously, the
// room detail and first message page are fetched, the store is primed, and
// a fresh poller is started. On failure no room is selected; the previous
// room's poller is already gone, so leaving it selected would leave a room
// that looks open but never syncs.
func (s *Session) Open(ctx context.Context, roomID string) (models.RoomDetail, error) {
	s.poller.Stop()
	s.room = nil
	s.coordinator.SetRoom(nil)

	detail, err := s.client.GetRoom(ctx, roomID)
	if err != nil {
		return models.RoomDetail{}, fmt.Errorf("load room %s: %w", roomID, err)
	}
	page, err := s.client.ListMessages(ctx, roomID, 1, s.pageSize)
	if err != nil {
		return models.RoomDetail{}, fmt.Errorf("load messages for %s: %w", roomID, err)
	}

	s.store.Load(roomID, page)
	s.room = &detail
	s.coordinator.SetRoom(s.room)
	s.poller.Start(roomID)
	return detail, nil
}

// Close stops the poller and deselects the room. The store is left intact.
func (s *Session) Close() {
	s.poller.Stop()
	s.room = nil
	s.coordinator.SetRoom(nil)
}

// Room returns the currently selected room, or nil.
func (s *Session) Room() *models.RoomDetail {
	return s.room
}

// Self returns the viewer's participant entry in the selected room.
func (s *Session) Self() (models.Participant, bool) {
	if s.room == nil {
		return models.Participant{}, false
	}
	return s.room.Participant(s.role), true
}

// Messages returns the merged, ordered conversation sequence.
func (s *Session) Messages() []models.Message {
	return s.store.Messages()
}

// SendText delegates to the coordinator.
func (s *Session) SendText(ctx context.Context, content string) (models.Message, error) {
	return s.coordinator.SendText(ctx, content)
}

// SendImage delegates to the coordinator.
func (s *Session) SendImage(ctx context.Context, filename string, data []byte, caption string) (models.Message, error) {
	return s.coordinator.SendImage(ctx, filename, data, caption)
}

// RefreshNow runs a single poll pass, the manual analogue of a tick.
func (s *Session) RefreshNow(ctx context.Context) error {
	return s.poller.Tick(ctx)
}

// MarkRead asks the server to flag the room read for the viewer. Best
// effort: a failure is logged, never surfaced, and heals on the next
// directory refresh.
func (s *Session) MarkRead(ctx context.Context) {
	if s.room == nil {
		return
	}
	if err := s.client.MarkRead(ctx, s.room.ID); err != nil {
		log.Printf("mark read failed room=%s: %v", s.room.ID, err)
	}
}

// SetWallpaper stores the viewer's cosmetic wallpaper preference.
func (s *Session) SetWallpaper(ctx context.Context, wallpaper string) error {
	if s.room == nil {
		return ErrNoRoomSelected
	}
	return s.client.SetWallpaper(ctx, s.room.ID, wallpaper)
}

// MarkRoomClosed records an externally observed open → closed transition
// and stops the watcher, since no further sends or polls are legal.
func (s *Session) MarkRoomClosed(roomID string) {
	if s.room == nil || s.room.ID != roomID {
		return
	}
	s.poller.Stop()
	s.room.Status = models.RoomClosed
	s.coordinator.MarkRoomClosed(roomID)
}

func (s *Session) notify(inserted []models.Message) {
	if s.listener != nil {
		s.listener.OnMessages(inserted)
	}
}
