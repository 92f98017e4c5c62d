package model

import (
	"time"

	"github.com/kwhittier/lobbyhub/internal/transport"
)

// Role is a player's role within a lobby
type Role string

const (
	// RoleHost is the single privileged member of a non-empty lobby
	RoleHost Role = "host"
	// RolePlayer is an ordinary lobby member
	RolePlayer Role = "player"
)

// Player is one authenticated participant of a lobby.
//
// Conn is the physical connection currently representing the player and is
// rebound on reconnect. JoinedAt records the original join and is not updated
// on reconnect. SessionToken is the opaque one-way-derived credential the
// client presents to resume this player record.
type Player struct {
	Conn         transport.Conn
	Username     string
	Role         Role
	JoinedAt     time.Time
	SessionToken string

	// Reconnecting is true only between a disconnect and either a successful
	// reconnect or the expiry of the grace window. A reconnecting player is
	// still a member: present but unreachable.
	Reconnecting bool
}

// PlayerAuth is what a successful join or reconnect hands back to the client.
type PlayerAuth struct {
	Username     string `json:"username"`
	SessionToken string `json:"sessionToken"`
}
