// Package dispatch runs the per-connection protocol: it binds an
// authenticated identity to a connection, routes inbound commands to the
// room hierarchy, and answers each command with exactly one response.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/campuschat/internal/chat"
)

type handlerFunc func(s *Session, data json.RawMessage) (any, error)

// Dispatcher holds the command table shared by every session.
type Dispatcher struct {
	directory *chat.Directory
	transport chat.Transport
	log       *slog.Logger
	validate  *validator.Validate
	handlers  map[string]handlerFunc
}

// New wires a dispatcher to the directory and the transport that delivers
// its responses.
func New(directory *chat.Directory, transport chat.Transport, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		directory: directory,
		transport: transport,
		log:       log,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	d.handlers = map[string]handlerFunc{
		CommandJoinRoom:    route(d, (*Session).joinRoom),
		CommandLeaveRoom:   route(d, (*Session).leaveRoom),
		CommandCreateRoom:  route(d, (*Session).createRoom),
		CommandChatMessage: route(d, (*Session).chatMessage),
		CommandRoomList:    route(d, (*Session).roomList),
		CommandRoomDetails: route(d, (*Session).roomDetails),
	}
	return d
}

// route binds a typed handler to the table: the payload is decoded into In,
// validated, and the handler's Out becomes the response data.
func route[In any, Out any](d *Dispatcher, fn func(*Session, In) (Out, error)) handlerFunc {
	return func(s *Session, data json.RawMessage) (any, error) {
		var in In
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &in); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
			}
		}
		if err := d.check(in); err != nil {
			return nil, err
		}
		return fn(s, in)
	}
}

func (d *Dispatcher) check(in any) error {
	v, ok := in.(invalid)
	if !ok {
		return nil
	}
	err := d.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return v.invalid(fieldErrs[0])
	}
	return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
}

// Connect authenticates a new connection. An incomplete identity is
// rejected with ErrNotAuthenticated and no session is created; the caller
// must report the failure and close the connection.
func (d *Dispatcher) Connect(connID string, who chat.Identity) (*Session, error) {
	if !who.Complete() {
		d.log.Warn("Rejected unauthenticated connection", "clientId", connID)
		return nil, chat.ErrNotAuthenticated
	}
	d.log.Debug("Connection authenticated", "clientId", connID, "userId", who.ID)
	return &Session{id: connID, identity: who, d: d}, nil
}

// Directory exposes the room directory the dispatcher routes to.
func (d *Dispatcher) Directory() *chat.Directory {
	return d.directory
}
