package chat

import "errors"

// Command failures reported back to the requesting connection. None of them
// terminate the connection.
var (
	ErrNotAuthenticated = errors.New("user not logged in")
	ErrUnknownRoom      = errors.New("unknown room")
	ErrNotInRoom        = errors.New("user not in a room")
	ErrNotInBuilding    = errors.New("user not in a building")
	ErrNotABuilding     = errors.New("room is not a building")
	ErrInvalidName      = errors.New("invalid room name")
	ErrEmptyMessage     = errors.New("messages cannot be empty")
	ErrServerError      = errors.New("server error")
	ErrDuplicateRoom    = errors.New("duplicate room id")
)
