package models

import (
	"github.com/google/uuid"
)

// Color identifies a seat in a room. The set of colors is closed and ordered.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// MaxSeats is the number of seats a room can ever offer.
const MaxSeats = 4

var allColors = [MaxSeats]Color{Red, Blue, Green, Yellow}

// AllColors returns every seat color in assignment order.
func AllColors() []Color {
	out := make([]Color, len(allColors))
	copy(out, allColors[:])
	return out
}

// Valid reports whether c is one of the known seat colors.
func (c Color) Valid() bool {
	for _, known := range allColors {
		if c == known {
			return true
		}
	}
	return false
}

type Player struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Nick  string    `json:"nick"`

	// InGame is true while the player holds a seat in the running match.
	// A connected player that is not InGame is only watching the room.
	InGame bool `json:"inGame"`
}

// NewPlayer builds a player with a fresh per-connection identity.
func NewPlayer(nick string) *Player {
	return &Player{
		ID:   uuid.New(),
		Nick: nick,
	}
}
