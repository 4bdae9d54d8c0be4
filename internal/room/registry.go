package room

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chinczyk/internal/models"
)

// Sender is the transport side of a connection. SendText must not block; a
// transport that cannot keep up drops the message for that connection only.
type Sender interface {
	SendText(data []byte)
}

// Connection binds one transport handle to exactly one player.
type Connection struct {
	Player *models.Player
	sender Sender
}

// NewConnection binds player p to the transport handle s.
func NewConnection(p *models.Player, s Sender) *Connection {
	return &Connection{Player: p, sender: s}
}

// SendText hands data to the connection's transport without blocking.
func (c *Connection) SendText(data []byte) {
	c.sender.SendText(data)
}

// PlayerRegistry keeps the room's connections in join order and owns seat
// assignment. It is not safe for concurrent use; the owning room's lock guards it.
type PlayerRegistry struct {
	conns []*Connection
}

// NewPlayerRegistry returns an empty registry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{}
}

// FreeColor returns the first color, in seat order, that no connection holds.
func (r *PlayerRegistry) FreeColor() (models.Color, error) {
	taken := r.TakenColors()
	for _, c := range models.AllColors() {
		if !slices.Contains(taken, c) {
			return c, nil
		}
	}
	return "", ErrSeatUnavailable
}

// Add assigns the lowest free color to c's player and appends the connection.
func (r *PlayerRegistry) Add(c *Connection) error {
	color, err := r.FreeColor()
	if err != nil {
		return err
	}
	c.Player.Color = color
	c.Player.InGame = false
	r.conns = append(r.conns, c)
	return nil
}

// Remove drops the connection of playerID, freeing its color.
func (r *PlayerRegistry) Remove(playerID uuid.UUID) (*Connection, bool) {
	for i, c := range r.conns {
		if c.Player.ID == playerID {
			r.conns = slices.Delete(r.conns, i, i+1)
			return c, true
		}
	}
	return nil, false
}

// ByID looks up the connection of playerID.
func (r *PlayerRegistry) ByID(playerID uuid.UUID) (*Connection, bool) {
	for _, c := range r.conns {
		if c.Player.ID == playerID {
			return c, true
		}
	}
	return nil, false
}

// ByColor looks up the connection holding color.
func (r *PlayerRegistry) ByColor(color models.Color) (*Connection, bool) {
	for _, c := range r.conns {
		if c.Player.Color == color {
			return c, true
		}
	}
	return nil, false
}

// Connections returns the connections in join order. The slice is a copy.
func (r *PlayerRegistry) Connections() []*Connection {
	return slices.Clone(r.conns)
}

// Len returns the number of connections, seated or not.
func (r *PlayerRegistry) Len() int { return len(r.conns) }

// TakenColors returns the colors held by every connection in join order.
func (r *PlayerRegistry) TakenColors() []models.Color {
	out := make([]models.Color, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c.Player.Color)
	}
	return out
}

// SeatedColors returns the colors of in-game players in join order.
func (r *PlayerRegistry) SeatedColors() []models.Color {
	var out []models.Color
	for _, c := range r.conns {
		if c.Player.InGame {
			out = append(out, c.Player.Color)
		}
	}
	return out
}

// SeatedIDs returns the ids of in-game players in join order.
func (r *PlayerRegistry) SeatedIDs() []uuid.UUID {
	out := []uuid.UUID{}
	for _, c := range r.conns {
		if c.Player.InGame {
			out = append(out, c.Player.ID)
		}
	}
	return out
}

// IDs returns the ids of all connected players in join order.
func (r *PlayerRegistry) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c.Player.ID)
	}
	return out
}

// SeatFirst marks the first n connections as in game.
func (r *PlayerRegistry) SeatFirst(n int) {
	for i, c := range r.conns {
		if i >= n {
			break
		}
		c.Player.InGame = true
	}
}

// UnseatAll takes every player out of the game.
func (r *PlayerRegistry) UnseatAll() {
	for _, c := range r.conns {
		c.Player.InGame = false
	}
}
