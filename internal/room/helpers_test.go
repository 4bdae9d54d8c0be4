package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/chinczyk/internal/engine"
	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testTimeout = 10 * time.Second

// testSender records everything a connection was sent.
type testSender struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (s *testSender) SendText(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, data)
}

func (s *testSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *testSender) last(t testing.TB) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.msgs, "no message sent")
	var out map[string]any
	require.NoError(t, json.Unmarshal(s.msgs[len(s.msgs)-1], &out))
	return out
}

func newTestConn(nick string) *Connection {
	return NewConnection(models.NewPlayer(nick), &testSender{})
}

func senderOf(c *Connection) *testSender {
	return c.sender.(*testSender)
}

// recordingReporter keeps every report it receives.
type recordingReporter struct {
	mu       sync.Mutex
	results  []models.MatchResult
	statuses []models.RoomStatus
}

func (r *recordingReporter) ReportResults(m models.MatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, m)
}

func (r *recordingReporter) ReportRoomStatus(s models.RoomStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recordingReporter) lastStatus() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func (r *recordingReporter) allResults() []models.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MatchResult, len(r.results))
	copy(out, r.results)
	return out
}

// fakeEngine lets tests decide what every move does.
type fakeEngine struct {
	seats    []models.Color
	finished map[models.Color]int
	dice     int
	turnID   int
	rolls    int
	moves    int

	consume bool
	err     error
	// finishOnMove makes the moving seat complete all its pieces.
	finishOnMove bool
}

func newFakeEngine(seats []models.Color) *fakeEngine {
	return &fakeEngine{
		seats:    append([]models.Color(nil), seats...),
		finished: make(map[models.Color]int),
		dice:     3,
		turnID:   1,
		consume:  true,
	}
}

func (f *fakeEngine) HandleMove(seat models.Color, _ engine.Move) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.moves++
	if f.finishOnMove {
		f.finished[seat] = engine.FinishTarget
	}
	return f.consume, nil
}

func (f *fakeEngine) RollNext() {
	f.rolls++
	f.turnID++
}

func (f *fakeEngine) Dice() int   { return f.dice }
func (f *fakeEngine) TurnID() int { return f.turnID }

func (f *fakeEngine) Board() engine.Board {
	b := engine.Board{}
	for _, s := range f.seats {
		b[s] = []engine.Piece{{Zone: engine.ZoneIdle, Cell: -1}}
	}
	return b
}

func (f *fakeEngine) RemoveSeat(seat models.Color) {
	for i, s := range f.seats {
		if s == seat {
			f.seats = append(f.seats[:i], f.seats[i+1:]...)
			return
		}
	}
}

func (f *fakeEngine) Finished(seat models.Color) int { return f.finished[seat] }

type testRoom struct {
	*Room
	clock    *clockwork.FakeClock
	reporter *recordingReporter

	mu      sync.Mutex
	engines []*fakeEngine
}

func newTestRoom(t *testing.T, capacity int) *testRoom {
	t.Helper()
	tr := buildTestRoom(capacity)
	t.Cleanup(tr.Close)
	return tr
}

func buildTestRoom(capacity int) *testRoom {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	tr := &testRoom{
		clock:    clockwork.NewFakeClock(),
		reporter: &recordingReporter{},
	}
	tr.Room = NewRoom("test-room", Options{
		Capacity:    capacity,
		TurnTimeout: testTimeout,
		Clock:       tr.clock,
		Reporter:    tr.reporter,
		Logger:      logger,
		Rand:        rand.New(rand.NewSource(7)),
		NewEngine: func(seats []models.Color) engine.Engine {
			e := newFakeEngine(seats)
			tr.mu.Lock()
			tr.engines = append(tr.engines, e)
			tr.mu.Unlock()
			return e
		},
	})
	return tr
}

// eng returns the engine of the most recent match.
func (tr *testRoom) eng() *fakeEngine {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.engines) == 0 {
		return nil
	}
	return tr.engines[len(tr.engines)-1]
}

// fill joins n fresh connections.
func (tr *testRoom) fill(t *testing.T, n int) []*Connection {
	t.Helper()
	conns := make([]*Connection, n)
	for i := range conns {
		conns[i] = newTestConn(string(rune('A' + i)))
		require.NoError(t, tr.Join(conns[i]))
	}
	return conns
}

// setHolder forces the turn holder of the running match.
func (tr *testRoom) setHolder(c models.Color) {
	tr.Room.mu.Lock()
	defer tr.Room.mu.Unlock()
	tr.match.TurnHolder = c
}

func (tr *testRoom) holder() models.Color {
	tr.Room.mu.Lock()
	defer tr.Room.mu.Unlock()
	if tr.match == nil {
		return ""
	}
	return tr.match.TurnHolder
}

func (tr *testRoom) gameOn() bool {
	tr.Room.mu.Lock()
	defer tr.Room.mu.Unlock()
	return tr.match != nil
}

func (tr *testRoom) generation() uint64 {
	tr.Room.mu.Lock()
	defer tr.Room.mu.Unlock()
	return tr.scheduler.Generation()
}

func counts(conns []*Connection) []int {
	out := make([]int, len(conns))
	for i, c := range conns {
		out[i] = senderOf(c).count()
	}
	return out
}

func plusOne(before []int) []int {
	out := make([]int, len(before))
	for i, n := range before {
		out[i] = n + 1
	}
	return out
}
