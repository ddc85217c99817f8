package chat

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Building is a configured top-level room.
type Building struct {
	ID   string
	Name string
}

// Directory owns the buildings. It is read-only after construction; all
// mutation happens inside the rooms themselves.
type Directory struct {
	buildings map[string]*Room
	order     []string
}

// Option customizes a Directory.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to timestamp broadcasts.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewDirectory builds the directory from the configured buildings.
func NewDirectory(t Transport, buildings []Building, opts ...Option) (*Directory, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Directory{buildings: make(map[string]*Room, len(buildings))}
	for _, b := range buildings {
		if b.ID == "" {
			return nil, fmt.Errorf("building %q has no id", b.Name)
		}
		if _, ok := d.buildings[b.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoom, b.ID)
		}
		name := b.Name
		if name == "" {
			name = b.ID
		}
		d.buildings[b.ID] = newRoom(b.ID, name, KindBuilding, "", t, o.now)
		d.order = append(d.order, b.ID)
	}
	return d, nil
}

// Get returns the building with the given id.
func (d *Directory) Get(id string) (*Room, bool) {
	room, ok := d.buildings[id]
	return room, ok
}

// TopLevel returns the buildings in configuration order.
func (d *Directory) TopLevel() []*Room {
	return lo.Map(d.order, func(id string, _ int) *Room {
		return d.buildings[id]
	})
}

// Resolve turns a handle back into a room.
func (d *Directory) Resolve(ref Ref) (*Room, bool) {
	if ref.ParentID == "" {
		return d.Get(ref.ID)
	}
	building, ok := d.Get(ref.ParentID)
	if !ok {
		return nil, false
	}
	return building.Child(ref.ID)
}

// Move transfers a connection from one room to another as a single critical
// section spanning both rooms. Locks are taken in room id order. If the
// transfer fails part way the connection is left in no room at all.
func (d *Directory) Move(connID string, who Identity, from, to *Room) error {
	if from == to {
		return nil
	}

	first, second := from, to
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := from.removeLocked(connID); err != nil {
		return err
	}
	return to.addLocked(connID, who)
}
