package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// ErrUnknownConnection is returned when a group operation names a
// connection the hub does not hold.
var ErrUnknownConnection = errors.New("unknown connection")

// Hub owns the live WebSocket clients and the room groups they are bound to.
// It is the chat.Transport used by the room hierarchy.
type Hub struct {
	clients    map[string]*Client
	groups     map[string]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	log        *slog.Logger
}

var _ chat.Transport = (*Hub)(nil)

// NewHub creates a Hub. Run must be started before clients register.
func NewHub(log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log,
	}
}

// Register hands a client to the run loop, which starts its pumps. It
// returns false once the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) release(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		h.remove(client)
	}
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run is the hub's registration loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("Client registered", "clientId", client.id, "addr", client.addr, "clients", clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// remove drops a client from the hub and every group, then closes its send
// channel. Removing an unknown client is a no-op.
func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mutex.Unlock()
		return
	}
	h.dropLocked(client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	close(client.send)
	h.log.Info("Client unregistered", "clientId", client.id, "addr", client.addr, "clients", clientCount)
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client.id)
	for roomID := range client.rooms {
		h.leaveLocked(client.id, roomID)
	}
	client.closed = true
}

func (h *Hub) leaveLocked(connID, roomID string) {
	group, ok := h.groups[roomID]
	if !ok {
		return
	}
	if client, ok := group[connID]; ok {
		delete(client.rooms, roomID)
		delete(group, connID)
	}
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

// JoinGroup binds a live connection to a room's group.
func (h *Hub) JoinGroup(connID, roomID string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	client, ok := h.clients[connID]
	if !ok || client.closed {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}

	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[string]*Client)
		h.groups[roomID] = group
	}
	group[connID] = client
	client.rooms[roomID] = struct{}{}
	return nil
}

// LeaveGroup unbinds a connection from a room's group. Connections that are
// already gone are ignored.
func (h *Hub) LeaveGroup(connID, roomID string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.leaveLocked(connID, roomID)
	return nil
}

// GroupSize reports how many connections are bound to a room.
func (h *Hub) GroupSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.groups[roomID])
}

// SendToGroup encodes the event once and queues it for every group member.
func (h *Hub) SendToGroup(roomID string, event chat.Event) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}

	clients := h.groupSnapshot(roomID)
	h.log.Debug("Delivering to room", "roomId", roomID, "event", event.Name, "recipients", len(clients))

	var clientsToRemove []*Client
	for _, client := range clients {
		if !h.safeSend(client, payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

// SendToConnection queues the event for a single connection.
func (h *Hub) SendToConnection(connID string, event chat.Event) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}

	h.mutex.RLock()
	client, exists := h.clients[connID]
	h.mutex.RUnlock()
	if !exists {
		return
	}

	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

func (h *Hub) encode(event chat.Event) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Error encoding event", "event", event.Name, "error", err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) groupSnapshot(roomID string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	group := h.groups[roomID]
	clients := make([]*Client, 0, len(group))
	for _, client := range group {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	current, exists := h.clients[client.id]
	if !exists || current != client || client.closed {
		// Gone already; nothing to clean up.
		return true
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// removeFailedClients drops clients whose send buffer is full. Their write
// pump sees the closed channel and tears the connection down.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if current, exists := h.clients[client.id]; exists && current == client {
			h.dropLocked(client)
			channelsToClose = append(channelsToClose, client.send)
			h.log.Warn("Client removed due to full send buffer", "clientId", client.id, "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("Error closing client connection", "addr", client.addr, "error", err)
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown stops the run loop, closes every connection and waits for the
// client goroutines up to timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
