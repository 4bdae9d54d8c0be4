// Package engine holds the board-game rules a room delegates to. The room only
// depends on the Engine interface; Ludo is the rule set the server ships with.
package engine

import (
	"errors"

	"github.com/jason-s-yu/chinczyk/internal/models"
)

// FinishTarget is the number of finished pieces that wins a seat the match.
const FinishTarget = 4

// ErrIllegalMove is returned when a move is not allowed by the rules. The board is
// left untouched.
var ErrIllegalMove = errors.New("illegal move")

// Move is a player's request to move one of their pieces by the current dice value.
type Move struct {
	Piece int `json:"piece"`
}

// Engine is the rule-engine state of one match.
type Engine interface {
	// HandleMove applies a move for seat and reports whether it consumed the turn.
	HandleMove(seat models.Color, m Move) (consumedTurn bool, err error)
	// RollNext draws the next random outcome and bumps the turn counter.
	RollNext()
	// Dice is the most recent outcome.
	Dice() int
	// TurnID is the engine's internal turn counter.
	TurnID() int
	// Board returns a copy of the current board.
	Board() Board
	// RemoveSeat takes a seat's pieces off the board.
	RemoveSeat(seat models.Color)
	// Finished returns how many of seat's pieces reached home.
	Finished(seat models.Color) int
}

// Factory builds the engine for a new match seated with the given colors.
type Factory func(seats []models.Color) Engine
