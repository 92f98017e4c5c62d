package transport

// Conn is one physical client connection as seen by the core.
//
// The identity returned by ID is stable for the life of the physical
// connection only; a reconnecting client arrives on a new Conn with a new ID.
// Auth carries the out-of-band handshake fields supplied when the connection
// was established (notably a session token for lobby reconnection).
type Conn interface {
	ID() string
	Auth() map[string]string
	Send(event string, data any) error
}

// Channels provides named broadcast groups over a set of connections.
//
// Channel membership is a projection of domain state, updated alongside it;
// the domain's own membership lists are the source of truth.
type Channels interface {
	Join(channel string, c Conn)
	Leave(channel string, c Conn)
	Broadcast(channel string, event string, data any)
	BroadcastExcept(channel string, except Conn, event string, data any)
	Drop(c Conn)
}
