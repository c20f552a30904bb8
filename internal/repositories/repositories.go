package repositories

import (
	"context"
	"errors"
	"time"

	"chat-sync/internal/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")
)

// RoomRepository abstracts room persistence.
type RoomRepository interface {
	CreateRoom(ctx context.Context, label string, mentor, learner models.Participant) (models.Room, error)
	ListRooms(ctx context.Context, userID string) ([]models.Room, error)
	GetRoom(ctx context.Context, roomID, viewerID string) (models.RoomDetail, error)
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	CloseRoom(ctx context.Context, roomID string) error
	SetWallpaper(ctx context.Context, roomID, userID, wallpaper string) error
}

// MessageRepository abstracts message persistence. CreateMessage assigns the
// id and a monotonic timestamp; no message is ever accepted into a closed
// room.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, senderID string, msgType models.MessageType, content string, attachment *models.AttachmentRef) (models.Message, error)
	ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error)
	MessagesSince(ctx context.Context, roomID string, since time.Time) ([]models.Message, error)
	MarkRead(ctx context.Context, roomID, readerID string) (int, error)
}
