package models

import "time"

// MessageType discriminates text messages from image-backed ones.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

// AttachmentRef is the durable reference produced by an image upload.
type AttachmentRef struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// Message is one entry in a room's conversation log. The id and time are
// server-assigned and never change after creation; messages are totally
// ordered by (Time, ID).
type Message struct {
	ID         string         `json:"id"`
	RoomID     string         `json:"room_id"`
	SenderID   string         `json:"sender_id"`
	Type       MessageType    `json:"type"`
	Content    string         `json:"content,omitempty"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
	Time       time.Time      `json:"time"`
	IsRead     bool           `json:"is_read"`
}

// Before reports whether m sorts ahead of other in the conversation order.
func (m Message) Before(other Message) bool {
	if m.Time.Equal(other.Time) {
		return m.ID < other.ID
	}
	return m.Time.Before(other.Time)
}

// RoomEvent is broadcasted through room websocket feeds.
type RoomEvent struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"room_id,omitempty"`
	Message *Message `json:"message,omitempty"`
}

const (
	RoomEventMessage = "message"
	RoomEventClosed  = "room_closed"
)
