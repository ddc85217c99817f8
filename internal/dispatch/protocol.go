package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// Command names accepted from clients.
const (
	CommandJoinRoom    = "join_room"
	CommandLeaveRoom   = "leave_room"
	CommandCreateRoom  = "create_room"
	CommandChatMessage = "chat_msg"
	CommandRoomList    = "room_list"
	CommandRoomDetails = "room_details"

	// EventConnection tags the response to the authentication handshake.
	EventConnection = "connection"
)

// Room name bounds, inclusive.
const (
	MinRoomNameLength = 3
	MaxRoomNameLength = 20
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedRequest = errors.New("malformed request")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// Request is an inbound frame.
type Request struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response answers exactly one request.
type Response struct {
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,min=3,max=20"`
}

type ChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type empty struct{}

// LeaveRoomResult names the room the connection landed in, nil when it no
// longer is in any room.
type LeaveRoomResult struct {
	Room *chat.Details `json:"room"`
}

type CreateRoomResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// invalid turns a validation failure into a command failure.
type invalid interface {
	invalid(fe validator.FieldError) error
}

func (JoinRoomRequest) invalid(validator.FieldError) error {
	return fmt.Errorf("%w: missing roomId parameter", chat.ErrUnknownRoom)
}

func (CreateRoomRequest) invalid(fe validator.FieldError) error {
	switch fe.Tag() {
	case "min":
		return fmt.Errorf("%w: room name too short | min length: %d", chat.ErrInvalidName, MinRoomNameLength)
	case "max":
		return fmt.Errorf("%w: room name too long | max length: %d", chat.ErrInvalidName, MaxRoomNameLength)
	default:
		return fmt.Errorf("%w: missing name parameter", chat.ErrInvalidName)
	}
}

func (ChatMessageRequest) invalid(validator.FieldError) error {
	return chat.ErrEmptyMessage
}

// errorCode names the failure kind for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrNotAuthenticated):
		return "NotAuthenticated"
	case errors.Is(err, chat.ErrUnknownRoom):
		return "UnknownRoom"
	case errors.Is(err, chat.ErrNotInRoom):
		return "NotInRoom"
	case errors.Is(err, chat.ErrNotInBuilding), errors.Is(err, chat.ErrNotABuilding):
		return "NotInBuilding"
	case errors.Is(err, chat.ErrInvalidName):
		return "InvalidName"
	case errors.Is(err, chat.ErrEmptyMessage):
		return "EmptyMessage"
	case errors.Is(err, ErrUnknownCommand):
		return "UnknownCommand"
	case errors.Is(err, ErrMalformedRequest):
		return "MalformedRequest"
	case errors.Is(err, ErrRateLimited):
		return "RateLimited"
	default:
		return "ServerError"
	}
}

// Success builds a successful response.
func Success(event string, data any) Response {
	return Response{Event: event, Success: true, Message: "OK", Data: data}
}

// Failure builds a failed response from a command error.
func Failure(event string, err error) Response {
	return Response{Event: event, Success: false, Message: err.Error(), Code: errorCode(err)}
}
