// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jason-s-yu/chinczyk/internal/engine"
	"github.com/jason-s-yu/chinczyk/internal/middleware"
	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/jason-s-yu/chinczyk/internal/room"
	"github.com/sirupsen/logrus"
)

const (
	outBufferSize = 32
	maxNickLength = 24
	writeTimeout  = 5 * time.Second
	pingInterval  = 30 * time.Second
)

// wsClient is the room.Sender of one websocket. Messages are queued on out and
// written by writePump; a full queue drops the message for this client only.
type wsClient struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
	log  logrus.FieldLogger
}

func newWSClient(logger logrus.FieldLogger) *wsClient {
	return &wsClient{
		out:  make(chan []byte, outBufferSize),
		done: make(chan struct{}),
		log:  logger,
	}
}

func (c *wsClient) SendText(data []byte) {
	select {
	case <-c.done:
	case c.out <- data:
	default:
		c.log.Warn("outbound queue full, dropping message")
	}
}

func (c *wsClient) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal outgoing message")
		return
	}
	c.SendText(data)
}

func (c *wsClient) sendError(msg string) {
	c.sendJSON(map[string]string{"type": "error", "message": msg})
}

func (c *wsClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// RoomWSHandler upgrades the request to a websocket and seats the client in the
// room named by the path: /rooms/{roomId}/ws?nick=...
// The client stays in the room until the socket closes.
func RoomWSHandler(logger *logrus.Logger, store *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.TrimSpace(mux.Vars(r)["roomId"])
		nick := sanitizeNick(r.URL.Query().Get("nick"))

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for room %s connected with invalid subprotocol: %q", roomID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		if roomID == "" {
			c.Close(InvalidRoomIDError, "Missing room id.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		rm := store.GetOrCreate(roomID)
		if rm.Len() >= rm.Capacity() {
			logger.Infof("Room %s is full, rejecting %s", roomID, r.RemoteAddr)
			c.Close(RoomFullError, "Room is full.")
			return
		}

		player := models.NewPlayer(nick)
		log := logger.WithFields(logrus.Fields{"room": roomID, "player": player.ID})
		client := newWSClient(log)
		defer client.stop()

		rm, err = joinRoom(store, roomID, room.NewConnection(player, client))
		switch {
		case errors.Is(err, room.ErrSeatUnavailable):
			c.Close(RoomFullError, "Room is full.")
			return
		case err != nil:
			log.WithError(err).Warn("join failed")
			c.Close(RoomClosedError, "Room is unavailable.")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writePump(ctx, c, client, log)

		err = readRoomMessages(ctx, c, rm, client, player.ID, log)

		cancel()
		if err := rm.Leave(player.ID); err != nil {
			log.WithError(err).Warn("leave failed")
		}
		if store.DeleteIfEmpty(roomID) {
			log.Info("room empty, removed")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// joinRoom joins the room, retrying once if the room was closed for being empty
// between lookup and join.
func joinRoom(store *room.Store, roomID string, conn *room.Connection) (*room.Room, error) {
	rm := store.GetOrCreate(roomID)
	err := rm.Join(conn)
	if errors.Is(err, room.ErrRoomClosed) {
		rm = store.GetOrCreate(roomID)
		err = rm.Join(conn)
	}
	return rm, err
}

func sanitizeNick(raw string) string {
	nick := strings.TrimSpace(raw)
	if nick == "" {
		return "guest"
	}
	if utf8.RuneCountInString(nick) > maxNickLength {
		nick = string([]rune(nick)[:maxNickLength])
	}
	return nick
}

// readRoomMessages reads client actions until the socket closes or ctx is done.
// It returns the read error unless the closure was a normal one.
func readRoomMessages(ctx context.Context, c *websocket.Conn, rm *room.Room, client *wsClient, playerID uuid.UUID, log logrus.FieldLogger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}

		var action models.GameAction
		if err := json.Unmarshal(data, &action); err != nil {
			log.Warnf("Invalid JSON received: %v", err)
			client.sendError("Invalid JSON format.")
			continue
		}

		switch action.Type {
		case models.ActionMove:
			err := rm.Move(playerID, engine.Move{Piece: action.Piece})
			switch {
			case err == nil:
			case errors.Is(err, room.ErrNotYourTurn), errors.Is(err, engine.ErrIllegalMove), errors.Is(err, room.ErrNoMatch):
				client.sendError(err.Error())
			default:
				log.WithError(err).Warn("move failed")
				client.sendError(err.Error())
			}
		case models.ActionPing:
			client.sendJSON(map[string]string{"type": "pong"})
		case models.ActionSync:
			snap, err := rm.Snapshot(playerID)
			if err != nil {
				log.WithError(err).Error("snapshot for connected player failed")
				client.sendError(err.Error())
				continue
			}
			client.SendText(snap)
		default:
			client.sendError(fmt.Sprintf("Unknown action type: %s", action.Type))
		}
	}
}

// writePump drains the client's queue onto the socket and keeps it alive with
// pings.
func writePump(ctx context.Context, c *websocket.Conn, client *wsClient, log logrus.FieldLogger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-client.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warnf("Failed to write to websocket: %v", err)
				// the read loop notices the broken socket and cleans up
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				return
			}
		}
	}
}
