package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-sync/internal/models"
)

// MemoryStore is the in-memory implementation of both repositories. It backs
// tests and local development when no database is configured.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*roomState
	now   func() time.Time
}

type roomState struct {
	room       models.Room
	messages   []models.Message
	wallpapers map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*roomState),
		now:   time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CreateRoom registers an open room between a mentor and a learner.
func (s *MemoryStore) CreateRoom(ctx context.Context, label string, mentor, learner models.Participant) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mentor.Role = models.RoleMentor
	learner.Role = models.RoleLearner
	room := models.Room{
		ID:        uuid.NewString(),
		Label:     label,
		Mentor:    mentor,
		Learner:   learner,
		Status:    models.RoomOpen,
		CreatedAt: s.now(),
	}
	s.rooms[room.ID] = &roomState{
		room:       room,
		wallpapers: make(map[string]string),
	}
	return room, nil
}

// ListRooms returns the user's rooms with viewer-specific unread counts,
// most recently active first.
func (s *MemoryStore) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Room
	for _, state := range s.rooms {
		if !state.room.IsParticipant(userID) {
			continue
		}
		out = append(out, s.summarize(state, userID))
	}
	sort.Slice(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out, nil
}

// GetRoom returns the full room payload for a viewer.
func (s *MemoryStore) GetRoom(ctx context.Context, roomID, viewerID string) (models.RoomDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return models.RoomDetail{}, ErrRoomNotFound
	}

	wallpapers := make(map[string]string, len(state.wallpapers))
	for user, wallpaper := range state.wallpapers {
		wallpapers[user] = wallpaper
	}
	return models.RoomDetail{
		Room:       s.summarize(state, viewerID),
		Wallpapers: wallpapers,
	}, nil
}

// IsParticipant checks whether the user belongs to the room.
func (s *MemoryStore) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	return state.room.IsParticipant(userID), nil
}

// CloseRoom performs the open → closed transition. It never reverses.
func (s *MemoryStore) CloseRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	state.room.Status = models.RoomClosed
	return nil
}

// SetWallpaper stores a per-viewer cosmetic preference.
func (s *MemoryStore) SetWallpaper(ctx context.Context, roomID, userID, wallpaper string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	state.wallpapers[userID] = wallpaper
	return nil
}

// CreateMessage appends a message with a server-assigned id and a timestamp
// strictly greater than the room's newest message.
func (s *MemoryStore) CreateMessage(ctx context.Context, roomID, senderID string, msgType models.MessageType, content string, attachment *models.AttachmentRef) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return models.Message{}, ErrRoomNotFound
	}
	if state.room.Status == models.RoomClosed {
		return models.Message{}, ErrRoomClosed
	}

	ts := s.now()
	if n := len(state.messages); n > 0 && !ts.After(state.messages[n-1].Time) {
		ts = state.messages[n-1].Time.Add(time.Millisecond)
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		SenderID:   senderID,
		Type:       msgType,
		Content:    content,
		Attachment: attachment,
		Time:       ts,
	}
	state.messages = append(state.messages, msg)
	return msg, nil
}

// ListMessages returns one page, page 1 being the most recent, each page in
// ascending order.
func (s *MemoryStore) ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	end := len(state.messages) - (page-1)*pageSize
	if end <= 0 {
		return nil, nil
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}

	out := make([]models.Message, end-start)
	copy(out, state.messages[start:end])
	return out, nil
}

// MessagesSince returns messages strictly newer than the cursor, ascending.
func (s *MemoryStore) MessagesSince(ctx context.Context, roomID string, since time.Time) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	var out []models.Message
	for _, msg := range state.messages {
		if msg.Time.After(since) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// MarkRead flags the counterpart's messages read for the reader, returning
// the number of messages affected.
func (s *MemoryStore) MarkRead(ctx context.Context, roomID, readerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}

	marked := 0
	for i := range state.messages {
		if state.messages[i].SenderID != readerID && !state.messages[i].IsRead {
			state.messages[i].IsRead = true
			marked++
		}
	}
	return marked, nil
}

// summarize fills the viewer-specific summary fields. Caller holds the lock.
func (s *MemoryStore) summarize(state *roomState, viewerID string) models.Room {
	room := state.room
	for _, msg := range state.messages {
		if msg.SenderID != viewerID && !msg.IsRead {
			room.UnreadCount++
		}
	}
	if n := len(state.messages); n > 0 {
		last := state.messages[n-1]
		room.LastMessage = &models.MessagePreview{
			Content: previewContent(last),
			Time:    last.Time,
		}
	}
	return room
}

func previewContent(msg models.Message) string {
	if msg.Type == models.MessageImage && msg.Content == "" {
		return "[image]"
	}
	return msg.Content
}

func lastActivity(room models.Room) time.Time {
	if room.LastMessage != nil {
		return room.LastMessage.Time
	}
	return room.CreatedAt
}

var _ RoomRepository = (*MemoryStore)(nil)
var _ MessageRepository = (*MemoryStore)(nil)
