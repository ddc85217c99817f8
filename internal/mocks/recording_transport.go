package mocks

import (
	"sync"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// RecordingTransport is an in-memory chat.Transport that keeps group
// membership and records every delivery per connection.
type RecordingTransport struct {
	mu       sync.Mutex
	groups   map[string]map[string]struct{}
	received map[string][]chat.Event
}

// NewRecordingTransport returns an empty RecordingTransport.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{
		groups:   make(map[string]map[string]struct{}),
		received: make(map[string][]chat.Event),
	}
}

func (t *RecordingTransport) JoinGroup(connID, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.groups[roomID]; !ok {
		t.groups[roomID] = make(map[string]struct{})
	}
	t.groups[roomID][connID] = struct{}{}
	return nil
}

func (t *RecordingTransport) LeaveGroup(connID, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.groups[roomID], connID)
	return nil
}

func (t *RecordingTransport) SendToGroup(roomID string, event chat.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for connID := range t.groups[roomID] {
		t.received[connID] = append(t.received[connID], event)
	}
}

func (t *RecordingTransport) SendToConnection(connID string, event chat.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.received[connID] = append(t.received[connID], event)
}

// Received returns the events delivered to a connection so far.
func (t *RecordingTransport) Received(connID string) []chat.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]chat.Event{}, t.received[connID]...)
}

// ReceivedNamed returns the delivered events with the given name.
func (t *RecordingTransport) ReceivedNamed(connID, name string) []chat.Event {
	var out []chat.Event
	for _, e := range t.Received(connID) {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// InGroup reports whether the connection is bound to the room's group.
func (t *RecordingTransport) InGroup(connID, roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.groups[roomID][connID]
	return ok
}

// Reset forgets every recorded delivery but keeps group membership.
func (t *RecordingTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.received = make(map[string][]chat.Event)
}
