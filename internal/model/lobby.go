package model

// LobbyID is an opaque generated identifier for joining lobbies
type LobbyID string

// LobbySettings holds the fixed configuration of a lobby.
//
// Password is required and non-empty iff IsPrivate. The lobby engine stores
// only a bcrypt hash of it; the plaintext never outlives the create request.
type LobbySettings struct {
	MaxPlayers int
	IsPrivate  bool
	Password   string
}

// LobbyInfo is the publicly queryable subset of a lobby's settings.
type LobbyInfo struct {
	IsPrivate bool `json:"isPrivate"`
}
