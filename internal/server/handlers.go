// Package server exposes HTTP handlers, including the authenticated
// WebSocket upgrade, login and room listing.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/Tyrowin/campuschat/internal/chat"
	"github.com/Tyrowin/campuschat/internal/dispatch"
	"github.com/Tyrowin/campuschat/internal/session"
)

const maxLoginBody = 4 << 10

// Handlers serves the HTTP surface of the chat server.
type Handlers struct {
	cfg        *Config
	hub        *Hub
	dispatcher *dispatch.Dispatcher
	sessions   *session.Provider
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

// NewHandlers wires the handlers to their collaborators.
func NewHandlers(cfg *Config, hub *Hub, dispatcher *dispatch.Dispatcher, sessions *session.Provider, log *slog.Logger) *Handlers {
	origins := newOriginPolicy(cfg.Origins(), log)
	return &Handlers{
		cfg:        cfg,
		hub:        hub,
		dispatcher: dispatcher,
		sessions:   sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		log: log,
	}
}

// WebSocketHandler upgrades the request and admits the connection only if
// the request carries a valid session. Unauthenticated connections receive
// a failed "connection" response and are closed.
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	who, authenticated := h.sessions.ResolveIdentity(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	if !authenticated {
		h.rejectConnection(conn, r.RemoteAddr, chat.ErrNotAuthenticated)
		return
	}

	connID := uuid.NewString()
	sess, err := h.dispatcher.Connect(connID, who)
	if err != nil {
		h.rejectConnection(conn, r.RemoteAddr, err)
		return
	}

	client := NewClient(connID, conn, h.hub, sess, r.RemoteAddr, h.cfg, h.log)
	if !h.hub.Register(client) {
		sess.Disconnect()
		_ = conn.Close()
		return
	}
	h.log.Info("User connected", "clientId", connID, "user", who.Name, "userId", who.ID)
}

func (h *Handlers) rejectConnection(conn *websocket.Conn, addr string, cause error) {
	defer func() {
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("Error closing rejected connection", "addr", addr, "error", err)
		}
	}()

	h.log.Info("Rejected unauthenticated connection", "addr", addr)
	deadline := time.Now().Add(writeWait)
	_ = conn.SetWriteDeadline(deadline)

	event := chat.Event{Name: chat.EventResponse, Data: dispatch.Failure(dispatch.EventConnection, cause)}
	if err := conn.WriteJSON(event); err != nil {
		h.log.Warn("Error writing rejection", "addr", addr, "error", err)
		return
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not authenticated")
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
}

// LoginHandler creates a session from a JSON or form body and returns the
// user id, setting the session cookie.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Login only accepts POST requests.", http.StatusMethodNotAllowed)
		return
	}

	login, err := decodeLogin(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, token, err := h.sessions.Login(r.Context(), login)
	switch {
	case errors.Is(err, session.ErrInvalidLogin):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("Login failed", "error", err)
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(token, h.cfg.SecureCookies))
	writeJSON(w, http.StatusOK, map[string]string{"userId": rec.UserID, "token": token})
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (session.LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var login session.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
			return session.LoginRequest{}, fmt.Errorf("invalid login body: %w", err)
		}
		return login, nil
	}

	if err := r.ParseForm(); err != nil {
		return session.LoginRequest{}, fmt.Errorf("invalid login form: %w", err)
	}
	return session.LoginRequest{
		Username: r.PostForm.Get("username"),
		AvatarID: r.PostForm.Get("avatarId"),
	}, nil
}

// LogoutHandler forgets the caller's session and clears the cookie.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Logout only accepts POST requests.", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sessions.Logout(r); err != nil {
		h.log.Error("Session store failed during logout", "error", err)
		http.Error(w, "could not end session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cfg.SecureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

// RoomsHandler lists the top-level rooms.
func (h *Handlers) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed.", http.StatusMethodNotAllowed)
		return
	}

	rooms := lo.Map(h.dispatcher.Directory().TopLevel(), func(room *chat.Room, _ int) chat.Listing {
		return room.Listing()
	})
	writeJSON(w, http.StatusOK, rooms)
}

// HealthHandler reports liveness in plain text.
func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Campus chat server is running! Connections: %d", h.hub.ClientCount())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
