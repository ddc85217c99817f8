package dispatch

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// Session is the protocol state of one authenticated connection. Commands
// and the final disconnect are serialized by the session mutex, and the
// current room is only written while the matching room operation runs.
type Session struct {
	id       string
	identity chat.Identity
	d        *Dispatcher

	mu      sync.Mutex
	current *chat.Ref
	closed  bool
}

func (s *Session) ID() string              { return s.id }
func (s *Session) Identity() chat.Identity { return s.identity }

// CurrentRoom returns the id of the room the connection is in.
func (s *Session) CurrentRoom() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", false
	}
	return s.current.ID, true
}

// Handle decodes one inbound frame, runs the command, and delivers its
// response to the connection. The response is also returned.
func (s *Session) Handle(frame []byte) Response {
	var req Request
	var resp Response
	if err := json.Unmarshal(frame, &req); err != nil {
		resp = Failure("", fmt.Errorf("%w: %v", ErrMalformedRequest, err))
	} else {
		resp = s.Execute(req.Command, req.Data)
	}
	s.d.transport.SendToConnection(s.id, chat.Event{Name: chat.EventResponse, Data: resp})
	return resp
}

// Execute runs a single command without delivering the response.
func (s *Session) Execute(command string, data json.RawMessage) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Failure(command, chat.ErrNotAuthenticated)
	}
	handler, ok := s.d.handlers[command]
	if !ok {
		return Failure(command, fmt.Errorf("%w: %q", ErrUnknownCommand, command))
	}

	out, err := handler(s, data)
	if err != nil {
		s.d.log.Debug("Command failed", "clientId", s.id, "command", command, "error", err)
		return Failure(command, err)
	}
	return Success(command, out)
}

// Disconnect removes the connection from its room. It is idempotent and
// never moves the connection up to a parent room.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.current == nil {
		return
	}
	if room, ok := s.room(); ok {
		if err := room.RemoveMember(s.id); err != nil {
			s.d.log.Warn("Leave on disconnect failed", "clientId", s.id, "roomId", room.ID(), "error", err)
		}
	}
	s.current = nil
	s.d.log.Debug("Session closed", "clientId", s.id, "userId", s.identity.ID)
}

func (s *Session) room() (*chat.Room, bool) {
	if s.current == nil {
		return nil, false
	}
	return s.d.directory.Resolve(*s.current)
}

func (s *Session) enter(room *chat.Room) {
	ref := room.Ref()
	s.current = &ref
}

func (s *Session) joinRoom(in JoinRoomRequest) (*chat.Details, error) {
	current, inRoom := s.room()
	if !inRoom {
		target, ok := s.d.directory.Get(in.RoomID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", chat.ErrUnknownRoom, in.RoomID)
		}
		if err := target.AddMember(s.id, s.identity); err != nil {
			return nil, err
		}
		s.enter(target)
		s.d.log.Info("Joined room", "clientId", s.id, "userId", s.identity.ID, "roomId", target.ID())
		return lo.ToPtr(target.Details()), nil
	}

	if !current.IsBuilding() {
		return nil, fmt.Errorf("%w: %s has no subrooms", chat.ErrNotInBuilding, current.ID())
	}
	target, ok := current.Child(in.RoomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a subroom of %s", chat.ErrUnknownRoom, in.RoomID, current.ID())
	}
	if err := s.d.directory.Move(s.id, s.identity, current, target); err != nil {
		s.current = nil
		return nil, err
	}
	s.enter(target)
	s.d.log.Info("Joined room", "clientId", s.id, "userId", s.identity.ID, "roomId", target.ID())
	return lo.ToPtr(target.Details()), nil
}

func (s *Session) leaveRoom(empty) (LeaveRoomResult, error) {
	current, ok := s.room()
	if !ok {
		return LeaveRoomResult{}, chat.ErrNotInRoom
	}

	if current.ParentID() == "" {
		err := current.RemoveMember(s.id)
		s.current = nil
		if err != nil {
			return LeaveRoomResult{}, err
		}
		s.d.log.Info("Left room", "clientId", s.id, "userId", s.identity.ID, "roomId", current.ID())
		return LeaveRoomResult{}, nil
	}

	parent, ok := s.d.directory.Get(current.ParentID())
	if !ok {
		err := current.RemoveMember(s.id)
		s.current = nil
		if err != nil {
			return LeaveRoomResult{}, err
		}
		return LeaveRoomResult{}, fmt.Errorf("%w: parent %s vanished", chat.ErrServerError, current.ParentID())
	}
	if err := s.d.directory.Move(s.id, s.identity, current, parent); err != nil {
		s.current = nil
		return LeaveRoomResult{}, err
	}
	s.enter(parent)
	s.d.log.Info("Left room", "clientId", s.id, "userId", s.identity.ID, "roomId", current.ID(), "parentId", parent.ID())
	return LeaveRoomResult{Room: lo.ToPtr(parent.Details())}, nil
}

func (s *Session) createRoom(in CreateRoomRequest) (CreateRoomResult, error) {
	current, ok := s.room()
	if !ok {
		return CreateRoomResult{}, chat.ErrNotInRoom
	}
	if !current.IsBuilding() {
		return CreateRoomResult{}, fmt.Errorf("%w: cannot create a room inside %s", chat.ErrNotInBuilding, current.ID())
	}
	sub, err := current.CreateSubRoom(in.Name)
	if err != nil {
		return CreateRoomResult{}, err
	}
	s.d.log.Info("Room created", "clientId", s.id, "userId", s.identity.ID, "roomId", sub.ID(), "parentId", current.ID())
	return CreateRoomResult{ID: sub.ID(), Name: sub.Name()}, nil
}

func (s *Session) chatMessage(in ChatMessageRequest) (any, error) {
	current, ok := s.room()
	if !ok {
		return nil, chat.ErrNotInRoom
	}
	current.Broadcast(s.identity.ID, in.Message)
	return nil, nil
}

// roomList lists the buildings when the connection is in no room, the
// subrooms of its building, or nothing inside a subroom.
func (s *Session) roomList(empty) ([]chat.Listing, error) {
	var rooms []*chat.Room
	if current, ok := s.room(); ok {
		rooms = current.ChildRooms()
	} else {
		rooms = s.d.directory.TopLevel()
	}
	return lo.Map(rooms, func(room *chat.Room, _ int) chat.Listing {
		return room.Listing()
	}), nil
}

func (s *Session) roomDetails(empty) (*chat.Details, error) {
	current, ok := s.room()
	if !ok {
		return nil, chat.ErrNotInRoom
	}
	return lo.ToPtr(current.Details()), nil
}
