package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
	"chat-sync/internal/repositories"
	"chat-sync/internal/telemetry"
	"chat-sync/internal/ws"
)

// RoomHandler manages the messaging endpoints the sync engine consumes.
type RoomHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
	emitter     *telemetry.Emitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, hub *ws.Hub, emitter *telemetry.Emitter) *RoomHandler {
	return &RoomHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		hub:         hub,
		emitter:     emitter,
	}
}

// ListRooms returns the caller's conversation summaries.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetString("userID")

	rooms, err := h.roomRepo.ListRooms(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom returns the full room payload used to prime a session.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")

	detail, err := h.roomRepo.GetRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !detail.IsParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetMessages returns one ordered page of the room's log.
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	if !h.requireParticipant(c, roomID) {
		return
	}

	var query struct {
		Page     int `form:"page,default=1"`
		PageSize int `form:"page_size,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), roomID, query.Page, query.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CheckNew returns messages strictly newer than the caller's cursor.
func (h *RoomHandler) CheckNew(c *gin.Context) {
	roomID := c.Param("room_id")
	if !h.requireParticipant(c, roomID) {
		return
	}

	since, err := time.Parse(time.RFC3339Nano, c.Query("since"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since cursor"})
		return
	}

	msgs, err := h.messageRepo.MessagesSince(c.Request.Context(), roomID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, api.CheckNewResult{
		HasNewMessages: len(msgs) > 0,
		Messages:       msgs,
	})
}

// PostMessage stores a text message and pushes it to room subscribers.
func (h *RoomHandler) PostMessage(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")
	if !h.requireParticipant(c, roomID) {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.createMessage(c, roomID, userID, models.MessageText, req.Content, nil)
}

// PostImageMessage stores an image message from an uploaded attachment.
func (h *RoomHandler) PostImageMessage(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")
	if !h.requireParticipant(c, roomID) {
		return
	}

	var req struct {
		Attachment models.AttachmentRef `json:"attachment" binding:"required"`
		Caption    string               `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Attachment.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attachment url is required"})
		return
	}

	h.createMessage(c, roomID, userID, models.MessageImage, req.Caption, &req.Attachment)
}

func (h *RoomHandler) createMessage(c *gin.Context, roomID, userID string, msgType models.MessageType, content string, attachment *models.AttachmentRef) {
	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), roomID, userID, msgType, content, attachment)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, repositories.ErrRoomNotFound):
			status = http.StatusNotFound
		case errors.Is(err, repositories.ErrRoomClosed):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(roomID, msg)
	h.emitter.Emit(c.Request.Context(), "message_created", string(msgType), roomID, &userID)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead flags the counterpart's messages read for the caller.
func (h *RoomHandler) MarkRead(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")
	if !h.requireParticipant(c, roomID) {
		return
	}

	marked, err := h.messageRepo.MarkRead(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// CloseRoom performs the open → closed transition and notifies subscribers.
// Triggered by the project lifecycle collaborator when an engagement ends.
func (h *RoomHandler) CloseRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")
	if !h.requireParticipant(c, roomID) {
		return
	}

	if err := h.roomRepo.CloseRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to close room"})
		return
	}

	h.hub.BroadcastRoomClosed(roomID)
	h.emitter.Emit(c.Request.Context(), "room_closed", "", roomID, &userID)
	c.Status(http.StatusNoContent)
}

// SetWallpaper stores the caller's cosmetic wallpaper preference.
func (h *RoomHandler) SetWallpaper(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")
	if !h.requireParticipant(c, roomID) {
		return
	}

	var req struct {
		Wallpaper string `json:"wallpaper"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.roomRepo.SetWallpaper(c.Request.Context(), roomID, userID, req.Wallpaper); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set wallpaper"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) requireParticipant(c *gin.Context, roomID string) bool {
	userID := c.GetString("userID")
	member, err := h.roomRepo.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return false
	}
	return true
}
