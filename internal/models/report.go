package models

import "github.com/google/uuid"

// MatchResult is reported when a match ends or restarts.
type MatchResult struct {
	RoomID  string      `json:"roomId"`
	Results []uuid.UUID `json:"results"` // winners in finishing order
}

// RoomStatus is reported whenever room occupancy changes.
type RoomStatus struct {
	RoomID           string      `json:"roomId"`
	CurrentResults   []uuid.UUID `json:"currentResults"`
	ConnectionsCount int         `json:"connectionsCount"`
	ActivePlayers    []uuid.UUID `json:"activePlayers"`
}
