package models

// Client message types accepted over the room websocket.
const (
	ActionMove = "move"
	ActionPing = "ping"
	// ActionSync asks for the sender's current state snapshot.
	ActionSync = "sync"
)

// GameAction captures a message sent by a player's client.
type GameAction struct {
	Type string `json:"type"`

	// Piece is the index (0-3) of the piece the player wants to move.
	Piece int `json:"piece"`
}
