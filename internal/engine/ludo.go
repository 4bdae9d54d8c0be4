package engine

import (
	"math/rand"
	"time"

	"github.com/jason-s-yu/chinczyk/internal/models"
)

const (
	TrackLength   = 40
	PiecesPerSeat = 4

	// cells between the start squares of two neighbouring colors
	seatSpacing = TrackLength / models.MaxSeats
	exitRoll    = 6
)

// Zone is where a piece currently is.
type Zone string

const (
	ZoneIdle    Zone = "idle"
	ZoneRegular Zone = "regular"
	ZoneFinish  Zone = "finish"
)

// Piece is the public view of one piece. Cell is the absolute track cell for
// regular pieces, the lane slot for finished pieces and -1 for idle pieces.
type Piece struct {
	Zone Zone `json:"zone"`
	Cell int  `json:"cell"`
}

// Board maps each seat still in play to its pieces, indexed by piece number.
type Board map[models.Color][]Piece

// Cells groups the cells of every piece in zone z by seat.
func (b Board) Cells(z Zone) map[models.Color][]int {
	out := make(map[models.Color][]int, len(b))
	for color, pieces := range b {
		cells := []int{}
		for _, p := range pieces {
			if p.Zone == z {
				cells = append(cells, p.Cell)
			}
		}
		out[color] = cells
	}
	return out
}

type piece struct {
	zone Zone
	// progress counts the cells walked from the seat's start square; for finished
	// pieces it is the lane slot.
	progress int
}

// Ludo is the default rule set: four pieces per seat, a six to leave the base, an
// extra roll after moving on a six, and captures sending pieces back to base.
type Ludo struct {
	rng    *rand.Rand
	pieces map[models.Color]*[PiecesPerSeat]piece
	dice   int
	turnID int
}

// NewLudo is an engine.Factory backed by a time-seeded random source.
func NewLudo(seats []models.Color) Engine {
	return NewLudoWithSource(seats, rand.NewSource(time.Now().UnixNano()))
}

// NewLudoWithSource builds a Ludo board for seats and rolls the opening dice.
func NewLudoWithSource(seats []models.Color, src rand.Source) *Ludo {
	l := &Ludo{
		rng:    rand.New(src),
		pieces: make(map[models.Color]*[PiecesPerSeat]piece, len(seats)),
	}
	for _, seat := range seats {
		var set [PiecesPerSeat]piece
		for i := range set {
			set[i] = piece{zone: ZoneIdle}
		}
		l.pieces[seat] = &set
	}
	l.RollNext()
	return l
}

func (l *Ludo) RollNext() {
	l.dice = l.rng.Intn(6) + 1
	l.turnID++
}

func (l *Ludo) Dice() int   { return l.dice }
func (l *Ludo) TurnID() int { return l.turnID }

func (l *Ludo) RemoveSeat(seat models.Color) {
	delete(l.pieces, seat)
}

// Finished returns how many of seat's pieces are in the finish lane.
func (l *Ludo) Finished(seat models.Color) int {
	set, ok := l.pieces[seat]
	if !ok {
		return 0
	}
	n := 0
	for _, p := range set {
		if p.zone == ZoneFinish {
			n++
		}
	}
	return n
}

func (l *Ludo) Board() Board {
	b := make(Board, len(l.pieces))
	for seat, set := range l.pieces {
		out := make([]Piece, PiecesPerSeat)
		for i, p := range set {
			switch p.zone {
			case ZoneIdle:
				out[i] = Piece{Zone: ZoneIdle, Cell: -1}
			case ZoneRegular:
				out[i] = Piece{Zone: ZoneRegular, Cell: absoluteCell(seat, p.progress)}
			case ZoneFinish:
				out[i] = Piece{Zone: ZoneFinish, Cell: p.progress}
			}
		}
		b[seat] = out
	}
	return b
}

// HandleMove moves one of seat's pieces by the current dice. When seat has no
// legal move for this roll any request passes the turn.
func (l *Ludo) HandleMove(seat models.Color, m Move) (bool, error) {
	set, ok := l.pieces[seat]
	if !ok {
		return false, ErrIllegalMove
	}
	if !l.hasLegalMove(seat) {
		return true, nil
	}
	if m.Piece < 0 || m.Piece >= PiecesPerSeat {
		return false, ErrIllegalMove
	}
	next, ok := l.target(seat, set[m.Piece])
	if !ok {
		return false, ErrIllegalMove
	}

	set[m.Piece] = next
	if next.zone == ZoneRegular {
		l.capture(seat, absoluteCell(seat, next.progress))
	}

	if l.dice == exitRoll {
		l.RollNext()
		return false, nil
	}
	return true, nil
}

// target computes where p lands with the current dice.
func (l *Ludo) target(seat models.Color, p piece) (piece, bool) {
	switch p.zone {
	case ZoneIdle:
		if l.dice != exitRoll {
			return piece{}, false
		}
		return piece{zone: ZoneRegular, progress: 0}, true
	case ZoneRegular:
		np := p.progress + l.dice
		if np < TrackLength {
			return piece{zone: ZoneRegular, progress: np}, true
		}
		slot := np - TrackLength
		if slot >= PiecesPerSeat || l.laneTaken(seat, slot) {
			return piece{}, false
		}
		return piece{zone: ZoneFinish, progress: slot}, true
	default:
		return piece{}, false
	}
}

func (l *Ludo) hasLegalMove(seat models.Color) bool {
	set := l.pieces[seat]
	for _, p := range set {
		if _, ok := l.target(seat, p); ok {
			return true
		}
	}
	return false
}

func (l *Ludo) laneTaken(seat models.Color, slot int) bool {
	for _, p := range l.pieces[seat] {
		if p.zone == ZoneFinish && p.progress == slot {
			return true
		}
	}
	return false
}

// capture sends every opposing piece on cell back to base.
func (l *Ludo) capture(mover models.Color, cell int) {
	for seat, set := range l.pieces {
		if seat == mover {
			continue
		}
		for i, p := range set {
			if p.zone == ZoneRegular && absoluteCell(seat, p.progress) == cell {
				set[i] = piece{zone: ZoneIdle}
			}
		}
	}
}

func absoluteCell(seat models.Color, progress int) int {
	return (seatIndex(seat)*seatSpacing + progress) % TrackLength
}

func seatIndex(seat models.Color) int {
	for i, c := range models.AllColors() {
		if c == seat {
			return i
		}
	}
	return 0
}
