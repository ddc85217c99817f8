//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks
package chat

// Transport scopes delivery to the connections bound to a room. Sends to a
// connection that has gone away are dropped silently.
type Transport interface {
	JoinGroup(connID, roomID string) error
	LeaveGroup(connID, roomID string) error
	SendToGroup(roomID string, event Event)
	SendToConnection(connID string, event Event)
}
