// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jason-s-yu/chinczyk/internal/middleware"
	"github.com/jason-s-yu/chinczyk/internal/room"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every HTTP and websocket route of the server.
func NewRouter(logger *logrus.Logger, store *room.Store) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(logger))

	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", ListRoomsHandler(store)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/stats", RoomStatsHandler(store)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/players/{playerId}/kick", KickHandler(logger, store)).Methods(http.MethodPost)

	// room websocket
	r.HandleFunc("/rooms/{roomId}/ws", RoomWSHandler(logger, store))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
