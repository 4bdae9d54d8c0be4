// Package room hosts the authoritative state of one game room: its connections,
// seats, turn timer and the running match.
//
// A Room serializes every operation behind one mutex. Timer expiry re-enters
// through the same mutex. State snapshots are built while the lock is held and
// handed to the connections after it is released, so a slow client never stalls
// the room.
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chinczyk/internal/engine"
	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Reporter receives best-effort notifications about results and occupancy.
// Implementations must return immediately.
type Reporter interface {
	ReportResults(models.MatchResult)
	ReportRoomStatus(models.RoomStatus)
}

type noopReporter struct{}

func (noopReporter) ReportResults(models.MatchResult)   {}
func (noopReporter) ReportRoomStatus(models.RoomStatus) {}

// Options configures new rooms. Zero values fall back to production defaults.
type Options struct {
	Capacity    int
	TurnTimeout time.Duration
	Clock       clockwork.Clock
	NewEngine   engine.Factory
	Reporter    Reporter
	Logger      logrus.FieldLogger
	// Rand picks the first turn holder of each match.
	Rand *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 || o.Capacity > models.MaxSeats {
		o.Capacity = models.MaxSeats
	}
	if o.Capacity < 2 {
		o.Capacity = 2
	}
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = DefaultTurnTimeout
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.NewEngine == nil {
		o.NewEngine = engine.NewLudo
	}
	if o.Reporter == nil {
		o.Reporter = noopReporter{}
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Room is one game room together with its match, if one is running.
type Room struct {
	ID string

	mu        sync.Mutex
	capacity  int
	players   *PlayerRegistry
	scheduler *TurnScheduler
	match     *Match
	winners   []uuid.UUID
	closed    bool

	// pendingBroadcast coalesces every broadcast requested during one operation.
	pendingBroadcast bool

	newEngine engine.Factory
	reporter  Reporter
	rng       *rand.Rand
	log       logrus.FieldLogger
}

// NewRoom creates an empty room. Missing options take their defaults.
func NewRoom(id string, opts Options) *Room {
	opts = opts.withDefaults()
	return &Room{
		ID:        id,
		capacity:  opts.Capacity,
		players:   NewPlayerRegistry(),
		scheduler: NewTurnScheduler(opts.Clock, opts.TurnTimeout),
		newEngine: opts.NewEngine,
		reporter:  opts.Reporter,
		rng:       opts.Rand,
		log:       opts.Logger.WithField("room", id),
	}
}

// Capacity returns the number of seats in the room.
func (r *Room) Capacity() int { return r.capacity }

// Join seats c's player on the lowest free color. When the room fills up and no
// match is running, a match starts.
func (r *Room) Join(c *Connection) error {
	r.mu.Lock()
	defer r.unlockAndFlush()

	if r.closed {
		return ErrRoomClosed
	}
	if r.players.Len() >= r.capacity {
		return ErrSeatUnavailable
	}
	if err := r.players.Add(c); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"player": c.Player.ID,
		"nick":   c.Player.Nick,
		"seat":   c.Player.Color,
	}).Info("player joined")
	r.reportStatus()

	if r.match == nil && r.players.Len() >= r.capacity {
		r.start()
	}
	r.broadcast()
	return nil
}

// Leave removes a disconnected player from the room.
func (r *Room) Leave(playerID uuid.UUID) error {
	r.mu.Lock()
	defer r.unlockAndFlush()

	c, ok := r.players.ByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	r.unseat(c)
	r.players.Remove(playerID)
	r.log.WithField("player", playerID).Info("player left")

	r.endIfDeserted()
	r.reportStatus()
	r.broadcast()
	return nil
}

// Kick takes a player out of the running match. The connection stays in the
// room as a spectator until it disconnects.
func (r *Room) Kick(playerID uuid.UUID) error {
	r.mu.Lock()
	defer r.unlockAndFlush()

	c, ok := r.players.ByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if r.match == nil {
		return ErrNoMatch
	}
	if !c.Player.InGame {
		return ErrNotSeated
	}
	r.unseat(c)
	r.log.WithField("player", playerID).Info("player kicked")

	r.endIfDeserted()
	r.reportStatus()
	r.broadcast()
	return nil
}

// Move applies a move for playerID. ErrNotYourTurn and engine.ErrIllegalMove
// leave the room untouched and trigger no broadcast.
func (r *Room) Move(playerID uuid.UUID, m engine.Move) error {
	r.mu.Lock()
	defer r.unlockAndFlush()

	c, ok := r.players.ByID(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	if r.match == nil {
		return ErrNoMatch
	}
	return r.handleMove(c, m)
}

// Close stops the turn timer. The room accepts no further joins.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.scheduler.Cancel()
}

// Len returns the number of connections in the room.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players.Len()
}

func (r *Room) broadcast() {
	r.pendingBroadcast = true
}

type delivery struct {
	conn *Connection
	data []byte
}

// unlockAndFlush builds the queued broadcast, releases the lock and sends.
func (r *Room) unlockAndFlush() {
	var out []delivery
	if r.pendingBroadcast {
		r.pendingBroadcast = false
		out = r.snapshots()
	}
	r.mu.Unlock()

	for _, d := range out {
		d.conn.SendText(d.data)
	}
}

func (r *Room) reportResults() {
	r.reporter.ReportResults(models.MatchResult{
		RoomID:  r.ID,
		Results: r.currentWinners(),
	})
}

func (r *Room) reportStatus() {
	r.reporter.ReportRoomStatus(models.RoomStatus{
		RoomID:           r.ID,
		CurrentResults:   r.currentWinners(),
		ConnectionsCount: r.players.Len(),
		ActivePlayers:    r.activePlayers(),
	})
}

func (r *Room) currentWinners() []uuid.UUID {
	out := make([]uuid.UUID, len(r.winners))
	copy(out, r.winners)
	return out
}

// activePlayers lists seated players plus connected winners while a match runs,
// and every connected player otherwise.
func (r *Room) activePlayers() []uuid.UUID {
	if r.match == nil {
		return r.players.IDs()
	}
	out := r.players.SeatedIDs()
	for _, id := range r.players.IDs() {
		for _, w := range r.winners {
			if w == id {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
