package room

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chinczyk/internal/engine"
	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/sirupsen/logrus"
)

// Match is the state of one running game. It exists only while a match is on.
type Match struct {
	ID         uuid.UUID
	Engine     engine.Engine
	TurnHolder models.Color
}

// The methods below make up the match lifecycle. They all assume r.mu is held and
// queue broadcasts rather than sending.

// start seats the first capacity connections and begins a new match.
func (r *Room) start() {
	r.players.SeatFirst(r.capacity)
	seated := r.players.SeatedColors()
	if len(seated) == 0 {
		return
	}

	r.winners = nil
	r.match = &Match{
		ID:         uuid.New(),
		Engine:     r.newEngine(seated),
		TurnHolder: seated[r.rng.Intn(len(seated))],
	}
	r.armTurn()

	r.log.WithFields(logrus.Fields{
		"match": r.match.ID,
		"seats": seated,
		"first": r.match.TurnHolder,
	}).Info("match started")
	r.broadcast()
}

// end stops the running match and returns everyone to the lobby.
func (r *Room) end() {
	r.scheduler.Cancel()
	r.reportResults()
	if r.match != nil {
		r.log.WithFields(logrus.Fields{"match": r.match.ID, "winners": len(r.winners)}).Info("match ended")
	}
	r.match = nil
	r.players.UnseatAll()
}

func (r *Room) restart() {
	r.reportResults()
	r.start()
}

// restartOrEnd starts a fresh match when enough players are connected to fill
// the room, otherwise it ends the current one.
func (r *Room) restartOrEnd() {
	if r.players.Len() >= r.capacity {
		r.restart()
		return
	}
	r.end()
	r.broadcast()
}

// advanceTurn hands the turn to the seat following the holder in the current
// seated order. When the holder is last or no longer seated the turn goes to the
// first seat. With one seat or fewer left the match ends.
func (r *Room) advanceTurn() {
	if r.match == nil {
		return
	}
	seated := r.players.SeatedColors()
	if len(seated) <= 1 {
		r.end()
		return
	}
	r.armTurn()
	r.match.TurnHolder = nextHolder(seated, r.match.TurnHolder)
	r.match.Engine.RollNext()
}

func nextHolder(seated []models.Color, current models.Color) models.Color {
	i := slices.Index(seated, current)
	if i < 0 || i+1 >= len(seated) {
		return seated[0]
	}
	return seated[i+1]
}

// handleMove validates and applies a move of c's seat.
func (r *Room) handleMove(c *Connection, m engine.Move) error {
	seat := c.Player.Color
	if !c.Player.InGame || seat != r.match.TurnHolder {
		return ErrNotYourTurn
	}

	consumed, err := r.match.Engine.HandleMove(seat, m)
	if err != nil {
		return fmt.Errorf("move piece %d: %w", m.Piece, err)
	}
	// a finishing move ends the seat's play even when the roll grants another
	switch {
	case r.match.Engine.Finished(seat) >= engine.FinishTarget:
		r.finish(c)
	case consumed:
		r.advanceTurn()
	}
	r.broadcast()
	return nil
}

// finish records c as a winner and takes its seat out of play.
func (r *Room) finish(c *Connection) {
	r.winners = append(r.winners, c.Player.ID)
	r.log.WithFields(logrus.Fields{
		"player": c.Player.ID,
		"seat":   c.Player.Color,
		"place":  len(r.winners),
	}).Info("player finished")

	if len(r.winners) >= r.capacity {
		r.restartOrEnd()
		return
	}
	r.unseat(c)
	r.reportStatus()
}

// unseat removes c's seat from the running match. A seat holding the turn passes
// it on before it leaves the seated set.
func (r *Room) unseat(c *Connection) {
	if r.match == nil || !c.Player.InGame {
		return
	}
	r.match.Engine.RemoveSeat(c.Player.Color)
	if r.match.TurnHolder == c.Player.Color {
		r.advanceTurn()
	}
	c.Player.InGame = false
}

// endIfDeserted ends a match left with at most one seated player.
func (r *Room) endIfDeserted() {
	if r.match != nil && len(r.players.SeatedColors()) <= 1 {
		r.end()
	}
}

func (r *Room) armTurn() {
	r.scheduler.Arm(r.onTurnExpired)
}

// onTurnExpired runs on the timer goroutine.
func (r *Room) onTurnExpired(gen uint64) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("panic", p).Error("turn expiry failed")
		}
	}()
	r.mu.Lock()
	defer r.unlockAndFlush()

	r.scheduler.Expire(gen, func() {
		if r.match == nil {
			return
		}
		r.log.WithField("seat", r.match.TurnHolder).Info("turn timed out, advancing")
		r.advanceTurn()
		r.broadcast()
	})
}
