// Package chat implements the room hierarchy used by the campus chat server.
//
// The directory owns a fixed set of top-level rooms ("buildings"). Each
// building owns the subrooms created inside it at runtime; subrooms never
// own rooms of their own. Membership changes and broadcasts are pushed to a
// Transport, which scopes delivery to the connections bound to a room.
package chat
