package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sync/internal/models"
)

func seedRoom(t *testing.T, s *MemoryStore) models.Room {
	t.Helper()
	room, err := s.CreateRoom(context.Background(), "Landing page revamp",
		models.Participant{ID: "m1", Name: "Vera"},
		models.Participant{ID: "l1", Name: "Tunde"})
	require.NoError(t, err)
	return room
}

func TestCreateRoomAssignsRoles(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, models.RoomOpen, room.Status)
	assert.Equal(t, models.RoleMentor, room.Mentor.Role)
	assert.Equal(t, models.RoleLearner, room.Learner.Role)
}

func TestCreateMessageTimestampsAreStrictlyIncreasing(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	// A frozen clock forces the monotonic bump.
	fixed := time.Unix(1000, 0)
	s.SetClock(func() time.Time { return fixed })

	first, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, "one", nil)
	require.NoError(t, err)
	second, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, "two", nil)
	require.NoError(t, err)

	assert.True(t, second.Time.After(first.Time))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateMessageClosedRoom(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)
	require.NoError(t, s.CloseRoom(context.Background(), room.ID))

	_, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, "too late", nil)
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestCreateMessageUnknownRoom(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.CreateMessage(context.Background(), "missing", "m1", models.MessageText, "hi", nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestListMessagesPagination(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	contents := []string{"a", "b", "c", "d", "e"}
	for _, content := range contents {
		_, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, content, nil)
		require.NoError(t, err)
	}

	// Page 1 holds the newest slice, ascending within the page.
	page1, err := s.ListMessages(context.Background(), room.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "d", page1[0].Content)
	assert.Equal(t, "e", page1[1].Content)

	page3, err := s.ListMessages(context.Background(), room.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "a", page3[0].Content)

	empty, err := s.ListMessages(context.Background(), room.ID, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessagesSinceIsStrictlyNewer(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	first, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, "one", nil)
	require.NoError(t, err)
	second, err := s.CreateMessage(context.Background(), room.ID, "l1", models.MessageText, "two", nil)
	require.NoError(t, err)

	newer, err := s.MessagesSince(context.Background(), room.ID, first.Time)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, second.ID, newer[0].ID)

	none, err := s.MessagesSince(context.Background(), room.ID, second.Time)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMarkReadCountsCounterpartMessagesOnly(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	_, err := s.CreateMessage(context.Background(), room.ID, "m1", models.MessageText, "from mentor", nil)
	require.NoError(t, err)
	_, err = s.CreateMessage(context.Background(), room.ID, "l1", models.MessageText, "from learner", nil)
	require.NoError(t, err)

	marked, err := s.MarkRead(context.Background(), room.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	// Nothing left unread for the mentor.
	marked, err = s.MarkRead(context.Background(), room.ID, "m1")
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestListRoomsUnreadAndPreview(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	_, err := s.CreateMessage(context.Background(), room.ID, "l1", models.MessageText, "hello mentor", nil)
	require.NoError(t, err)
	_, err = s.CreateMessage(context.Background(), room.ID, "l1", models.MessageImage, "", nil)
	require.NoError(t, err)

	rooms, err := s.ListRooms(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	assert.Equal(t, 2, rooms[0].UnreadCount)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "[image]", rooms[0].LastMessage.Content)

	rooms, err = s.ListRooms(context.Background(), "outsider")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestListRoomsSortsByRecentActivity(t *testing.T) {
	s := NewMemoryStore()
	quiet := seedRoom(t, s)
	busy, err := s.CreateRoom(context.Background(), "API onboarding",
		models.Participant{ID: "m1"}, models.Participant{ID: "l2"})
	require.NoError(t, err)

	_, err = s.CreateMessage(context.Background(), busy.ID, "l2", models.MessageText, "ping", nil)
	require.NoError(t, err)

	rooms, err := s.ListRooms(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, busy.ID, rooms[0].ID)
	assert.Equal(t, quiet.ID, rooms[1].ID)
}

func TestGetRoomIncludesWallpapers(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	require.NoError(t, s.SetWallpaper(context.Background(), room.ID, "m1", "forest"))

	detail, err := s.GetRoom(context.Background(), room.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, "forest", detail.Wallpapers["m1"])

	_, err = s.GetRoom(context.Background(), "missing", "m1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestIsParticipant(t *testing.T) {
	s := NewMemoryStore()
	room := seedRoom(t, s)

	member, err := s.IsParticipant(context.Background(), room.ID, "l1")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = s.IsParticipant(context.Background(), room.ID, "outsider")
	require.NoError(t, err)
	assert.False(t, member)

	_, err = s.IsParticipant(context.Background(), "missing", "l1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
