package model

import "github.com/kwhittier/lobbyhub/internal/transport"

// Lifecycle event payloads emitted by a lobby. Each corresponds to one typed
// hook on the lobby's lifecycle bus.

// PlayerEvent carries the player a joined/left/playerRemoved event concerns
type PlayerEvent struct {
	Player *Player
}

// PlayerChangedEvent carries the full membership after any change.
// Joined distinguishes a fresh join (true) from reconnects and removals.
type PlayerChangedEvent struct {
	Player  *Player
	Players []*Player
	Joined  bool
}

// HostChangedEvent announces the newly elected host after a host departure
type HostChangedEvent struct {
	Player *Player
}

// DisconnectedEvent announces a connection whose player is gone for good
type DisconnectedEvent struct {
	Conn transport.Conn
}
