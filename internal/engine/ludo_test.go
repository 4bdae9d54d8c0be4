package engine

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestLudo(t *testing.T, seats ...models.Color) *Ludo {
	t.Helper()
	if len(seats) == 0 {
		seats = []models.Color{models.Red, models.Blue}
	}
	return NewLudoWithSource(seats, rand.NewSource(1))
}

func TestNewLudoStartsInBase(t *testing.T) {
	l := newTestLudo(t)

	assert.Equal(t, 1, l.TurnID())
	assert.GreaterOrEqual(t, l.Dice(), 1)
	assert.LessOrEqual(t, l.Dice(), 6)

	board := l.Board()
	require.Len(t, board, 2)
	for _, pieces := range board {
		require.Len(t, pieces, PiecesPerSeat)
		for _, p := range pieces {
			assert.Equal(t, Piece{Zone: ZoneIdle, Cell: -1}, p)
		}
	}
}

func TestHandleMoveWithoutLegalMovePassesTurn(t *testing.T) {
	l := newTestLudo(t)
	l.dice = 3
	before := l.Board()

	consumed, err := l.HandleMove(models.Red, Move{Piece: 2})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, before, l.Board())
}

func TestSixLeavesBaseAndGrantsAnotherRoll(t *testing.T) {
	l := newTestLudo(t)
	l.dice = 6
	turn := l.TurnID()

	consumed, err := l.HandleMove(models.Blue, Move{Piece: 0})
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Equal(t, turn+1, l.TurnID())

	p := l.Board()[models.Blue][0]
	assert.Equal(t, ZoneRegular, p.Zone)
	assert.Equal(t, seatSpacing, p.Cell, "blue starts one quarter into the track")
}

func TestRegularMoveConsumesTurn(t *testing.T) {
	l := newTestLudo(t)
	l.pieces[models.Red][1] = piece{zone: ZoneRegular, progress: 5}
	l.dice = 3

	consumed, err := l.HandleMove(models.Red, Move{Piece: 1})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, Piece{Zone: ZoneRegular, Cell: 8}, l.Board()[models.Red][1])
}

func TestIllegalMoveLeavesBoardUntouched(t *testing.T) {
	l := newTestLudo(t)
	l.pieces[models.Red][1] = piece{zone: ZoneRegular, progress: 5}
	l.dice = 3
	before := l.Board()

	_, err := l.HandleMove(models.Red, Move{Piece: 0})
	assert.ErrorIs(t, err, ErrIllegalMove, "idle piece needs a six")

	_, err = l.HandleMove(models.Red, Move{Piece: 7})
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = l.HandleMove(models.Green, Move{Piece: 1})
	assert.ErrorIs(t, err, ErrIllegalMove, "green is not seated")

	assert.Equal(t, before, l.Board())
}

func TestLandingOnOpponentCaptures(t *testing.T) {
	l := newTestLudo(t)
	// blue progress 2 sits on absolute cell 12
	l.pieces[models.Blue][0] = piece{zone: ZoneRegular, progress: 2}
	l.pieces[models.Red][0] = piece{zone: ZoneRegular, progress: 9}
	l.dice = 3

	_, err := l.HandleMove(models.Red, Move{Piece: 0})
	require.NoError(t, err)
	assert.Equal(t, Piece{Zone: ZoneIdle, Cell: -1}, l.Board()[models.Blue][0])
	assert.Equal(t, Piece{Zone: ZoneRegular, Cell: 12}, l.Board()[models.Red][0])
}

func TestFinishLane(t *testing.T) {
	l := newTestLudo(t)
	l.pieces[models.Red][0] = piece{zone: ZoneRegular, progress: 38}
	l.pieces[models.Red][1] = piece{zone: ZoneRegular, progress: 39}
	l.pieces[models.Red][2] = piece{zone: ZoneRegular, progress: 0}
	l.dice = 3

	consumed, err := l.HandleMove(models.Red, Move{Piece: 0})
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Equal(t, 1, l.Finished(models.Red))
	assert.Equal(t, Piece{Zone: ZoneFinish, Cell: 1}, l.Board()[models.Red][0])

	// 39 + 2 lands on the occupied slot 1
	l.dice = 2
	_, err = l.HandleMove(models.Red, Move{Piece: 1})
	assert.ErrorIs(t, err, ErrIllegalMove)

	// finished pieces never move again
	l.dice = 1
	_, err = l.HandleMove(models.Red, Move{Piece: 0})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestLastPieceHomeOnSix(t *testing.T) {
	l := newTestLudo(t)
	for slot := 0; slot < 3; slot++ {
		l.pieces[models.Red][slot] = piece{zone: ZoneFinish, progress: slot}
	}
	l.pieces[models.Red][3] = piece{zone: ZoneRegular, progress: 37}
	l.dice = 6

	consumed, err := l.HandleMove(models.Red, Move{Piece: 3})
	require.NoError(t, err)
	assert.False(t, consumed, "a six grants another roll")
	assert.Equal(t, FinishTarget, l.Finished(models.Red))
}

func TestRemoveSeat(t *testing.T) {
	l := newTestLudo(t, models.Red, models.Blue, models.Green)
	l.RemoveSeat(models.Blue)

	board := l.Board()
	assert.Len(t, board, 2)
	assert.NotContains(t, board, models.Blue)
	assert.Equal(t, 0, l.Finished(models.Blue))
}

func TestBoardCells(t *testing.T) {
	l := newTestLudo(t)
	l.pieces[models.Red][0] = piece{zone: ZoneRegular, progress: 4}
	l.pieces[models.Red][1] = piece{zone: ZoneFinish, progress: 3}

	board := l.Board()
	assert.Equal(t, []int{4}, board.Cells(ZoneRegular)[models.Red])
	assert.Equal(t, []int{3}, board.Cells(ZoneFinish)[models.Red])
	assert.Equal(t, []int{-1, -1}, board.Cells(ZoneIdle)[models.Red])
	assert.Equal(t, []int{}, board.Cells(ZoneFinish)[models.Blue])
}

func TestLudoInvariantsHoldForAnyMoveSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seats := []models.Color{models.Red, models.Blue, models.Green, models.Yellow}
		l := NewLudoWithSource(seats, rand.NewSource(rapid.Int64().Draw(t, "seed")))

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			seat := seats[rapid.IntRange(0, len(seats)-1).Draw(t, "seat")]
			before := l.Board()
			consumed, err := l.HandleMove(seat, Move{Piece: rapid.IntRange(-1, 4).Draw(t, "piece")})
			if err != nil {
				if before[seat] != nil {
					assert.Equal(t, before[seat], l.Board()[seat])
				}
				continue
			}
			if consumed {
				l.RollNext()
			}
		}

		for _, seat := range seats {
			pieces := l.Board()[seat]
			if len(pieces) != PiecesPerSeat {
				t.Fatalf("seat %s has %d pieces", seat, len(pieces))
			}
			if f := l.Finished(seat); f > FinishTarget {
				t.Fatalf("seat %s finished %d pieces", seat, f)
			}
			for _, p := range pieces {
				if p.Zone == ZoneRegular && (p.Cell < 0 || p.Cell >= TrackLength) {
					t.Fatalf("piece off the track: %+v", p)
				}
			}
		}
	})
}
