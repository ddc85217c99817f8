package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Kind distinguishes buildings from the rooms created inside them.
type Kind string

const (
	KindBuilding Kind = "building"
	KindRoom     Kind = "room"
)

// Listing is the summary returned by room listings.
type Listing struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	MemberCount int    `json:"userCount"`
}

// Details is a full snapshot of a room.
type Details struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     Kind       `json:"type"`
	ParentID string     `json:"parentId,omitempty"`
	Children []string   `json:"children"`
	Members  []Identity `json:"connectedUsers"`
}

// Ref is a non-owning handle to a room, resolved through the Directory.
type Ref struct {
	ID       string
	ParentID string
}

// Room is a node of the hierarchy. A single mutex guards members and
// children together.
type Room struct {
	id        string
	name      string
	kind      Kind
	parentID  string
	transport Transport
	now       func() time.Time

	mu         sync.Mutex
	members    map[string]Identity
	order      []string
	children   map[string]*Room
	childOrder []string
}

func newRoom(id, name string, kind Kind, parentID string, t Transport, now func() time.Time) *Room {
	r := &Room{
		id:        id,
		name:      name,
		kind:      kind,
		parentID:  parentID,
		transport: t,
		now:       now,
		members:   make(map[string]Identity),
	}
	if kind == KindBuilding {
		r.children = make(map[string]*Room)
	}
	return r
}

func (r *Room) ID() string       { return r.id }
func (r *Room) Name() string     { return r.name }
func (r *Room) Kind() Kind       { return r.kind }
func (r *Room) ParentID() string { return r.parentID }

// IsBuilding reports whether the room may own subrooms.
func (r *Room) IsBuilding() bool { return r.kind == KindBuilding }

// Ref returns a handle that does not keep the room alive.
func (r *Room) Ref() Ref { return Ref{ID: r.id, ParentID: r.parentID} }

// Broadcast delivers a chat message to every connection bound to the room.
// An empty room simply drops it.
func (r *Room) Broadcast(senderID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transport.SendToGroup(r.id, Event{Name: EventChat, Data: ChatMessage{
		Timestamp: r.now().UnixMilli(),
		SenderID:  senderID,
		Message:   text,
	}})
}

// AddMember binds the connection to the room and announces it. The caller
// must already have removed the connection from any other room.
func (r *Room) AddMember(connID string, who Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(connID, who)
}

// RemoveMember unbinds the connection and announces it. Removing a
// connection that is not a member does nothing.
func (r *Room) RemoveMember(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(connID)
}

func (r *Room) addLocked(connID string, who Identity) error {
	if _, ok := r.members[connID]; ok {
		return nil
	}
	if err := r.transport.JoinGroup(connID, r.id); err != nil {
		return fmt.Errorf("%w: join %s: %v", ErrServerError, r.id, err)
	}
	r.members[connID] = who
	r.order = append(r.order, connID)
	r.noticeLocked(who.Name + " joined the room.")
	return nil
}

// removeLocked always drops the membership, even when the transport fails,
// so a failed leave never leaves a dangling member behind.
func (r *Room) removeLocked(connID string) error {
	who, ok := r.members[connID]
	if !ok {
		return nil
	}
	delete(r.members, connID)
	r.order = lo.Without(r.order, connID)

	err := r.transport.LeaveGroup(connID, r.id)
	r.noticeLocked(who.Name + " left the room.")
	if err != nil {
		return fmt.Errorf("%w: leave %s: %v", ErrServerError, r.id, err)
	}
	return nil
}

func (r *Room) noticeLocked(text string) {
	r.transport.SendToGroup(r.id, Event{Name: EventSystem, Data: SystemMessage{
		Timestamp: r.now().UnixMilli(),
		Sender:    SystemSender,
		Message:   text,
	}})
}

// CreateSubRoom allocates a new room owned by this building. Rooms that are
// not buildings cannot be subdivided.
func (r *Room) CreateSubRoom(name string) (*Room, error) {
	if r.kind != KindBuilding {
		return nil, fmt.Errorf("%w: %s", ErrNotABuilding, r.id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := NewRoomID()
	for _, taken := r.children[id]; taken; _, taken = r.children[id] {
		id = NewRoomID()
	}
	child := newRoom(id, name, KindRoom, r.id, r.transport, r.now)
	r.children[id] = child
	r.childOrder = append(r.childOrder, id)
	return child, nil
}

// Child looks up a subroom by id.
func (r *Room) Child(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	child, ok := r.children[id]
	return child, ok
}

// Children returns subroom ids in creation order. It is empty for subrooms.
func (r *Room) Children() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.childOrder...)
}

// ChildRooms returns the subrooms in creation order.
func (r *Room) ChildRooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Map(r.childOrder, func(id string, _ int) *Room {
		return r.children[id]
	})
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// HasMember reports whether the connection is bound to the room.
func (r *Room) HasMember(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[connID]
	return ok
}

// Members returns a snapshot of the current members in join order.
func (r *Room) Members() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked()
}

func (r *Room) membersLocked() []Identity {
	return lo.Map(r.order, func(connID string, _ int) Identity {
		return r.members[connID]
	})
}

// Listing summarizes the room for room lists.
func (r *Room) Listing() Listing {
	return Listing{
		ID:          r.id,
		Name:        r.name,
		Kind:        r.kind,
		MemberCount: r.MemberCount(),
	}
}

// Details takes a consistent snapshot of the room.
func (r *Room) Details() Details {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Details{
		ID:       r.id,
		Name:     r.name,
		Kind:     r.kind,
		ParentID: r.parentID,
		Children: append([]string{}, r.childOrder...),
		Members:  r.membersLocked(),
	}
}
