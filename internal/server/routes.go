package server

import "net/http"

// SetupRoutes maps the HTTP endpoints onto a ServeMux.
func SetupRoutes(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HealthHandler)
	mux.HandleFunc("/health", h.HealthHandler)
	mux.HandleFunc("/ws", h.WebSocketHandler)
	mux.HandleFunc("/login", h.LoginHandler)
	mux.HandleFunc("/logout", h.LogoutHandler)
	mux.HandleFunc("/rooms", h.RoomsHandler)
	return mux
}
