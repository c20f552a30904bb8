package store

import (
	"sort"
	"sync"
	"time"

	"chat-sync/internal/models"
)

// MessageStore holds the canonical, deduplicated, time-ordered message log
// for exactly one room at a time. It is the single serialization point
// between the poller and the send coordinator: whichever resolves first
// merges first, but the visible order is invariant to arrival order because
// entries are keyed by id and kept sorted by (time, id).
type MessageStore struct {
	mu       sync.RWMutex
	roomID   string
	messages []models.Message
	ids      map[string]struct{}
	cursor   time.Time
}

// NewMessageStore creates an empty store with no room selected.
func NewMessageStore() *MessageStore {
	return &MessageStore{ids: make(map[string]struct{})}
}

// Load replaces the entire log with the initial page for a room and resets
// the cursor to the time of the newest message (zero time when empty).
func (s *MessageStore) Load(roomID string, page []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roomID = roomID
	s.messages = s.messages[:0]
	s.ids = make(map[string]struct{}, len(page))
	s.cursor = time.Time{}

	for _, msg := range page {
		if msg.RoomID != roomID {
			continue
		}
		if _, ok := s.ids[msg.ID]; ok {
			continue
		}
		s.ids[msg.ID] = struct{}{}
		s.messages = append(s.messages, msg)
		if msg.Time.After(s.cursor) {
			s.cursor = msg.Time
		}
	}
	sort.Slice(s.messages, func(i, j int) bool {
		return s.messages[i].Before(s.messages[j])
	})
}

// Merge inserts messages whose id is not already present and advances the
// cursor to the maximum time seen. A message older than the cursor but with
// a novel id is still inserted at its sorted position. Messages belonging
// to a different room are dropped. Returns the subset actually inserted, in
// conversation order.
func (s *MessageStore) Merge(incoming []models.Message) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []models.Message
	for _, msg := range incoming {
		if msg.RoomID != s.roomID {
			continue
		}
		if msg.Time.After(s.cursor) {
			s.cursor = msg.Time
		}
		if _, ok := s.ids[msg.ID]; ok {
			continue
		}
		s.ids[msg.ID] = struct{}{}
		s.insert(msg)
		inserted = append(inserted, msg)
	}
	sort.Slice(inserted, func(i, j int) bool {
		return inserted[i].Before(inserted[j])
	})
	return inserted
}

// insert places msg at its sorted position. Caller holds the lock.
func (s *MessageStore) insert(msg models.Message) {
	i := sort.Search(len(s.messages), func(i int) bool {
		return msg.Before(s.messages[i])
	})
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg
}

// Cursor returns the synchronization cursor. ok is false while no message
// has been loaded, in which case poll ticks are skipped.
func (s *MessageStore) Cursor() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, !s.cursor.IsZero()
}

// RoomID returns the room the store currently belongs to.
func (s *MessageStore) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// Messages returns a copy of the ordered log.
func (s *MessageStore) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages held.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
