package room

import "errors"

var (
	// ErrNotYourTurn is returned to a player that moves out of order. Nothing is
	// mutated and nothing is broadcast.
	ErrNotYourTurn = errors.New("it's not your turn")
	// ErrSeatUnavailable is returned when the room has no free seat left.
	ErrSeatUnavailable = errors.New("no seat available")
	ErrPlayerNotFound  = errors.New("player not found in room")
	ErrNoMatch         = errors.New("no match in progress")
	ErrNotSeated       = errors.New("player is not seated in the match")
	ErrRoomClosed      = errors.New("room is closed")
)
