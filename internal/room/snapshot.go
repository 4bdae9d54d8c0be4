package room

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chinczyk/internal/engine"
	"github.com/jason-s-yu/chinczyk/internal/models"
)

// Snapshot is the per-viewer state pushed to clients. While no match runs only
// IsGameOn and Nicks are set.
type Snapshot struct {
	IsGameOn  bool                    `json:"is_game_on"`
	MyColor   models.Color            `json:"my_color,omitempty"`
	TurnID    int                     `json:"turn_id,omitempty"`
	WhosTurn  models.Color            `json:"whos_turn,omitempty"`
	Dice      int                     `json:"dice,omitempty"`
	GameData  engine.Board            `json:"game_data,omitempty"`
	Nicks     map[models.Color]string `json:"nicks"`
	Timestamp string                  `json:"timestamp,omitempty"`
}

// Stats is the administrative view of a room.
type Stats struct {
	IsGameOn          bool                   `json:"is_game_on"`
	WhosTurn          models.Color           `json:"whos_turn,omitempty"`
	NumberOfPlayers   int                    `json:"number_of_players"`
	PlayersIDs        []uuid.UUID            `json:"players_ids"`
	NumberOfConnected int                    `json:"number_of_connected_players"`
	Winners           []uuid.UUID            `json:"winners"`
	Regular           map[models.Color][]int `json:"regular,omitempty"`
	Finish            map[models.Color][]int `json:"finish,omitempty"`
	Idle              map[models.Color][]int `json:"idle,omitempty"`
}

// Snapshot returns the serialized state as playerID currently sees it.
func (r *Room) Snapshot(playerID uuid.UUID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.players.ByID(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return json.Marshal(r.snapshotFor(c))
}

func (r *Room) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		IsGameOn:          r.match != nil,
		NumberOfPlayers:   len(r.players.SeatedColors()),
		PlayersIDs:        r.players.IDs(),
		NumberOfConnected: r.players.Len(),
		Winners:           r.currentWinners(),
	}
	if r.match != nil {
		board := r.match.Engine.Board()
		s.WhosTurn = r.match.TurnHolder
		s.Regular = board.Cells(engine.ZoneRegular)
		s.Finish = board.Cells(engine.ZoneFinish)
		s.Idle = board.Cells(engine.ZoneIdle)
	}
	return s
}

// snapshots serializes the state of every connection. Called with r.mu held.
func (r *Room) snapshots() []delivery {
	conns := r.players.Connections()
	out := make([]delivery, 0, len(conns))
	for _, c := range conns {
		if c.Player == nil {
			r.log.Error("connection without player skipped in broadcast")
			continue
		}
		data, err := json.Marshal(r.snapshotFor(c))
		if err != nil {
			r.log.WithError(err).WithField("player", c.Player.ID).Error("failed to serialize state")
			continue
		}
		out = append(out, delivery{conn: c, data: data})
	}
	return out
}

func (r *Room) snapshotFor(c *Connection) Snapshot {
	if r.match == nil {
		nicks := make(map[models.Color]string)
		for i, other := range r.players.Connections() {
			if i >= r.capacity {
				break
			}
			nicks[other.Player.Color] = other.Player.Nick
		}
		return Snapshot{IsGameOn: false, Nicks: nicks}
	}

	nicks := make(map[models.Color]string)
	for _, other := range r.players.Connections() {
		if other.Player.InGame {
			nicks[other.Player.Color] = other.Player.Nick
		}
	}
	return Snapshot{
		IsGameOn:  true,
		MyColor:   c.Player.Color,
		TurnID:    r.match.Engine.TurnID(),
		WhosTurn:  r.match.TurnHolder,
		Dice:      r.match.Engine.Dice(),
		GameData:  r.match.Engine.Board(),
		Nicks:     nicks,
		Timestamp: r.scheduler.Deadline().UTC().Format(time.RFC3339),
	}
}
