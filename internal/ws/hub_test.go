package ws

import "testing"

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("r1", nil, ConnInfo{UserID: "u1"})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room feed to be created")
	}

	hub.RemoveClient("r1", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room feed to be removed")
	}
}

func TestHubTracksConnInfo(t *testing.T) {
	hub := NewHub()

	hub.AddClient("r1", nil, ConnInfo{UserID: "u1", ConnID: "c1"})
	info, ok := hub.getConnInfo("r1", nil)
	if !ok {
		t.Fatalf("expected conn info to be tracked")
	}
	if info.UserID != "u1" || info.ConnID != "c1" {
		t.Fatalf("unexpected conn info: %+v", info)
	}

	hub.RemoveClient("r1", nil)
	if _, ok := hub.getConnInfo("r1", nil); ok {
		t.Fatalf("expected conn info to be dropped")
	}
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.BroadcastRoomClosed("r1")
}
