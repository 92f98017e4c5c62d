// Package response defines the wire shapes of server-to-client socket events.
package response

import "github.com/kwhittier/lobbyhub/internal/model"

// Player is the client-visible view of a lobby member.
type Player struct {
	Username     string     `json:"username"`
	Role         model.Role `json:"role"`
	Reconnecting bool       `json:"reconnecting,omitempty"`
}

// FromPlayer converts a lobby member to its wire view.
func FromPlayer(p *model.Player) Player {
	return Player{Username: p.Username, Role: p.Role, Reconnecting: p.Reconnecting}
}

// FromPlayers converts a membership snapshot to its wire view.
func FromPlayers(players []*model.Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, FromPlayer(p))
	}
	return out
}

// CreatedLobby answers lobby:create.
type CreatedLobby struct {
	LobbyID model.LobbyID `json:"lobbyId"`
}

// PlayerChanged is broadcast to a lobby's channel after any membership
// change. Joined is true only for fresh joins.
type PlayerChanged struct {
	Player  Player   `json:"player"`
	Players []Player `json:"players"`
	Joined  bool     `json:"joined"`
}

// HostChanged is broadcast to a lobby's channel when a new host is elected.
type HostChanged struct {
	Player Player `json:"player"`
}
