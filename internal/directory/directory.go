package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chat-sync/internal/api"
	"chat-sync/internal/models"
)

// RoomDirectory lists the rooms the viewer participates in and supports text
// filtering over the counterpart's name and the room label. It is
// read-mostly: the only write path is re-fetching summaries, typically after
// a send, to refresh previews and unread counts.
type RoomDirectory struct {
	client api.Client
	role   models.Role

	mu    sync.RWMutex
	rooms []models.Room
}

// New builds an empty directory for a viewer role.
func New(client api.Client, role models.Role) *RoomDirectory {
	return &RoomDirectory{client: client, role: role}
}

// Refresh replaces the cached summaries with the server's current view.
// Unread counts and previews are a cache, never authoritative.
func (d *RoomDirectory) Refresh(ctx context.Context) error {
	rooms, err := d.client.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("refresh rooms: %w", err)
	}

	d.mu.Lock()
	d.rooms = rooms
	d.mu.Unlock()
	return nil
}

// Rooms returns the cached summaries.
func (d *RoomDirectory) Rooms() []models.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}

// Filter returns rooms whose counterpart name or label contains the query,
// case-insensitively. An empty query returns everything.
func (d *RoomDirectory) Filter(query string) []models.Room {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d.Rooms()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.Room
	for _, room := range d.rooms {
		name := strings.ToLower(room.Counterpart(d.role).Name)
		label := strings.ToLower(room.Label)
		if strings.Contains(name, query) || strings.Contains(label, query) {
			out = append(out, room)
		}
	}
	return out
}

// TotalUnread sums unread counts across cached rooms.
func (d *RoomDirectory) TotalUnread() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, room := range d.rooms {
		total += room.UnreadCount
	}
	return total
}
