// Package request defines the payload schemas for inbound socket events.
// Validation tags are enforced by the dispatcher before any handler runs.
package request

// CreateLobby is the payload for lobby:create.
type CreateLobby struct {
	MaxPlayers int    `json:"maxPlayers" validate:"required,min=1,max=64"`
	IsPrivate  bool   `json:"isPrivate"`
	Password   string `json:"password" validate:"omitempty,min=1,max=128"`
}

// JoinLobby is the payload for lobby:join.
type JoinLobby struct {
	LobbyID  string `json:"lobbyId" validate:"required"`
	Username string `json:"username" validate:"max=32"`
	Password string `json:"password" validate:"max=128"`
}

// GetLobby is the payload for lobby:get.
type GetLobby struct {
	LobbyID string `json:"lobbyId" validate:"required"`
}

// Reconnect is the payload for lobby/<id>:reconnect.
type Reconnect struct {
	Username     string `json:"username"`
	SessionToken string `json:"sessionToken" validate:"required"`
}

// LeaveLobby is the payload for lobby/<id>:leave.
type LeaveLobby struct{}

// KickPlayer is the payload for lobby/<id>:kick. Host only.
type KickPlayer struct {
	Username string `json:"username" validate:"required"`
}

// JoinChat is the payload for chat/<room>:join. An empty or taken name is
// replaced with a generated one.
type JoinChat struct {
	Name string `json:"name" validate:"max=32"`
}

// LeaveChat is the payload for chat/<room>:leave.
type LeaveChat struct{}

// ChatMessage is the payload for chat/<room>:message.
type ChatMessage struct {
	Message string `json:"message" validate:"required,max=2048"`
}

// CreateRoom is the payload for chatRoom:create.
type CreateRoom struct {
	Name string `json:"name" validate:"required,max=32"`
}

// GetRooms is the payload for chatRoom:getRooms.
type GetRooms struct{}
