package types

import "github.com/DoyleJ11/draft-room/internal/engine"

// CreateRoomResponse is returned by POST /rooms.
type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// ActionsResponse is returned by GET /rooms/{roomID}/actions.
type ActionsResponse struct {
	Actions []engine.DraftAction `json:"actions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
