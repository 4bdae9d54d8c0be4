package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jason-s-yu/chinczyk/internal/room"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRoomsHandler returns the ids of all open rooms.
func ListRoomsHandler(store *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"rooms": store.List()})
	}
}

// RoomStatsHandler returns the administrative view of one room.
func RoomStatsHandler(store *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := store.Get(mux.Vars(r)["roomId"])
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rm.Stats())
	}
}

// KickHandler takes a player out of the running match of a room.
func KickHandler(logger *logrus.Logger, store *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		playerID, err := uuid.Parse(vars["playerId"])
		if err != nil {
			http.Error(w, "Invalid player_id format", http.StatusBadRequest)
			return
		}
		rm, ok := store.Get(vars["roomId"])
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		err = rm.Kick(playerID)
		switch {
		case err == nil:
			logger.WithFields(logrus.Fields{"room": rm.ID, "player": playerID}).Info("player kicked by admin")
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, room.ErrPlayerNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, room.ErrNoMatch), errors.Is(err, room.ErrNotSeated):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.WithError(err).Error("kick failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
