// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidRoomIDError  websocket.StatusCode = 3001 // Room ID in the WS URL is empty or malformed.
	RoomFullError       websocket.StatusCode = 3002 // Every seat in the room is taken.
	RoomClosedError     websocket.StatusCode = 3003 // Room shut down while the client was joining.
)
