package model

import "errors"

// Common errors used across the application
var (
	// Lobby errors
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrLobbyClosed      = errors.New("lobby is closed")
	ErrBadPassword      = errors.New("password is incorrect")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidSession   = errors.New("invalid session token")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotHost          = errors.New("player is not the host")

	// Chat errors
	ErrRoomNotFound = errors.New("chat room not found")
	ErrRoomClosed   = errors.New("chat room is closed")
)
