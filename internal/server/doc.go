// Package server implements the HTTP and WebSocket surface of the campus chat
// server.
//
// The Hub holds live connections and implements chat.Transport, so rooms
// deliver through it without knowing about sockets. Each Client runs a read
// pump that feeds frames to its dispatch.Session and a write pump that drains
// the hub's queue. Handlers gate the WebSocket upgrade on a session created
// through /login.
package server
