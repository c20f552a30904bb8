package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/repositories"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) ListRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *ClientMock) GetRoom(ctx context.Context, roomID string) (models.RoomDetail, error) {
	args := m.Called(ctx, roomID)
	var detail models.RoomDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.RoomDetail)
	}
	return detail, args.Error(1)
}

func (m *ClientMock) ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, page, pageSize)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ClientMock) CheckNew(ctx context.Context, roomID string, since time.Time) (api.CheckNewResult, error) {
	args := m.Called(ctx, roomID, since)
	var result api.CheckNewResult
	if val := args.Get(0); val != nil {
		result = val.(api.CheckNewResult)
	}
	return result, args.Error(1)
}

func (m *ClientMock) SendText(ctx context.Context, roomID, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ClientMock) UploadImage(ctx context.Context, filename, contentType string, data []byte) (models.AttachmentRef, error) {
	args := m.Called(ctx, filename, contentType, data)
	var ref models.AttachmentRef
	if val := args.Get(0); val != nil {
		ref = val.(models.AttachmentRef)
	}
	return ref, args.Error(1)
}

func (m *ClientMock) SendImage(ctx context.Context, roomID string, ref models.AttachmentRef, caption string) (models.Message, error) {
	args := m.Called(ctx, roomID, ref, caption)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ClientMock) MarkRead(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *ClientMock) SetWallpaper(ctx context.Context, roomID, wallpaper string) error {
	args := m.Called(ctx, roomID, wallpaper)
	return args.Error(0)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, label string, mentor, learner models.Participant) (models.Room, error) {
	args := m.Called(ctx, label, mentor, learner)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID, viewerID string) (models.RoomDetail, error) {
	args := m.Called(ctx, roomID, viewerID)
	var detail models.RoomDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.RoomDetail)
	}
	return detail, args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) CloseRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) SetWallpaper(ctx context.Context, roomID, userID, wallpaper string) error {
	args := m.Called(ctx, roomID, userID, wallpaper)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, senderID string, msgType models.MessageType, content string, attachment *models.AttachmentRef) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, msgType, content, attachment)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, roomID string, page, pageSize int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, page, pageSize)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MessagesSince(ctx context.Context, roomID string, since time.Time) ([]models.Message, error) {
	args := m.Called(ctx, roomID, since)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, roomID, readerID string) (int, error) {
	args := m.Called(ctx, roomID, readerID)
	return args.Int(0), args.Error(1)
}

var _ api.Client = (*ClientMock)(nil)
var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
