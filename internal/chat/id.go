package chat

import (
	"strings"

	"github.com/google/uuid"
)

// SubRoomPrefix marks ids of rooms created at runtime.
const SubRoomPrefix = "ROOM"

// NewRoomID returns a random subroom id: the prefix followed by the 32 hex
// digits of a version 4 UUID.
func NewRoomID() string {
	return SubRoomPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
