//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Package session authenticates chat connections. A login creates a session
// record in a Store and hands the client a signed token naming it; the
// WebSocket handshake resolves that token back into a chat identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Tyrowin/campuschat/internal/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidLogin    = errors.New("username and avatarId are required")
)

// Record is what a login stores about a user.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	AvatarID  string    `json:"avatarId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity projects the record onto the public chat identity.
func (r Record) Identity() chat.Identity {
	return chat.Identity{ID: r.UserID, Name: r.Username, AvatarID: r.AvatarID}
}

// Store persists session records until they expire.
type Store interface {
	Save(ctx context.Context, rec Record, ttl time.Duration) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const keyPrefix = "session:"

func key(id string) string {
	return keyPrefix + id
}

func encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", rec.ID, err)
	}
	return data, nil
}

func decode(id string, data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return rec, nil
}
