package models

import "time"

// Role identifies which side of a mentorship conversation a participant is on.
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleLearner Role = "learner"
)

// RoomStatus is the lifecycle state of a room. Rooms only ever move from
// open to closed; the transition is triggered externally when the underlying
// project engagement ends.
type RoomStatus string

const (
	RoomOpen   RoomStatus = "open"
	RoomClosed RoomStatus = "closed"
)

// Participant is one of the two parties in a room.
type Participant struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Role Role   `db:"role" json:"role"`
}

// MessagePreview is the denormalized last-message summary shown in room lists.
type MessagePreview struct {
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Room is a bounded two-party conversation tied to one project engagement.
// Participants are immutable for the room's lifetime.
type Room struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Mentor      Participant     `json:"mentor"`
	Learner     Participant     `json:"learner"`
	Status      RoomStatus      `json:"status"`
	UnreadCount int             `json:"unread_count"`
	LastMessage *MessagePreview `json:"last_message,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Participant returns the room party matching the given role.
func (r Room) Participant(role Role) Participant {
	if role == RoleMentor {
		return r.Mentor
	}
	return r.Learner
}

// Counterpart returns the other party relative to the given role.
func (r Room) Counterpart(role Role) Participant {
	if role == RoleMentor {
		return r.Learner
	}
	return r.Mentor
}

// IsParticipant reports whether the user belongs to the room.
func (r Room) IsParticipant(userID string) bool {
	return r.Mentor.ID == userID || r.Learner.ID == userID
}

// RoomDetail is the full room payload used to prime a conversation session.
// Wallpapers are per-viewer cosmetic preferences keyed by participant id;
// they are opaque to the engine.
type RoomDetail struct {
	Room
	Wallpapers map[string]string `json:"wallpapers,omitempty"`
}
