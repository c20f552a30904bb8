package ws

import "time"

// ConnInfo carries the identity and correlation metadata captured at the
// websocket handshake, reused when emitting lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
