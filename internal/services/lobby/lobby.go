// Package lobby implements the per-room session engine: membership, host
// role assignment and failover, session-token issuance and verification,
// reconnection grace windows, and idle-timeout retirement.
package lobby

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
	"github.com/kwhittier/lobbyhub/internal/lifecycle"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// Lifecycle groups the typed hooks a lobby emits on. Listeners run
// synchronously on the mutating goroutine, under the lobby's lock: they may
// broadcast and inspect the event payload, but must not call back into the
// lobby's public methods.
type Lifecycle struct {
	Joined        lifecycle.Hook[model.PlayerEvent]
	Left          lifecycle.Hook[model.PlayerEvent]
	PlayerRemoved lifecycle.Hook[model.PlayerEvent]
	PlayerChanged lifecycle.Hook[model.PlayerChangedEvent]
	HostChanged   lifecycle.Hook[model.HostChangedEvent]
	Disconnected  lifecycle.Hook[model.DisconnectedEvent]
	Stopped       lifecycle.Hook[model.LobbyID]
}

// Lobby owns one room's membership and session state. All mutation happens
// under one mutex; socket events and timer callbacks run to completion before
// the next is processed, so no two mutations of the same lobby interleave.
type Lobby struct {
	id           model.LobbyID
	settings     model.LobbySettings
	passwordHash []byte
	secret       string
	graceWindow  time.Duration

	policy   RolePolicy
	clock    clock.Clock
	channels transport.Channels
	timer    *InactivityTimer
	logger   *slog.Logger

	// Lifecycle hooks; subscribe before the lobby receives traffic.
	Lifecycle Lifecycle

	mu      sync.Mutex
	players []*model.Player
	closed  bool
}

// Config carries the per-lobby construction inputs the registry assembles.
type Config struct {
	ID           model.LobbyID
	Settings     model.LobbySettings
	PasswordHash []byte
	Secret       string
	IdleTimeout  time.Duration
	GraceWindow  time.Duration
}

// New creates a lobby. The inactivity timer is created but not started;
// the registry starts it once wiring is complete.
func New(cfg Config, channels transport.Channels, clk clock.Clock, logger *slog.Logger) *Lobby {
	l := &Lobby{
		id:           cfg.ID,
		settings:     cfg.Settings,
		passwordHash: cfg.PasswordHash,
		secret:       cfg.Secret,
		graceWindow:  cfg.GraceWindow,
		policy:       EarliestJoinedPolicy{},
		clock:        clk,
		channels:     channels,
		timer:        NewInactivityTimer(clk, cfg.IdleTimeout),
		logger:       logger.With(slog.String("component", "lobby"), slog.String("lobby", string(cfg.ID))),
	}

	// Host failover runs as a playerRemoved listener so the whole removal
	// sequence stays in one place regardless of which operation triggered it.
	l.Lifecycle.PlayerRemoved.Subscribe(func(ev model.PlayerEvent) {
		if ev.Player.Role != model.RoleHost {
			return
		}
		next := l.policy.NextHost(l.players, ev.Player)
		if next == nil {
			return
		}
		next.Role = model.RoleHost
		l.logger.Info("host reassigned", slog.String("username", next.Username))
		l.Lifecycle.HostChanged.Emit(model.HostChangedEvent{Player: next})
	})

	return l
}

// ID returns the lobby's generated identifier.
func (l *Lobby) ID() model.LobbyID { return l.id }

// Channel returns the transport channel mirroring this lobby's membership.
func (l *Lobby) Channel() string { return "lobby/" + string(l.id) }

// Settings returns the lobby's fixed settings (password cleared).
func (l *Lobby) Settings() model.LobbySettings {
	s := l.settings
	s.Password = ""
	return s
}

// Timer exposes the inactivity timer for registry wiring.
func (l *Lobby) Timer() *InactivityTimer { return l.timer }

// JoinAsHost joins the first participant; it always succeeds on an empty,
// open lobby and assigns the host role.
func (l *Lobby) JoinAsHost(conn transport.Conn, username string) (model.PlayerAuth, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return model.PlayerAuth{}, model.ErrLobbyClosed
	}
	return l.join(conn, username), nil
}

// TryJoin admits a participant, enforcing capacity and privacy.
func (l *Lobby) TryJoin(conn transport.Conn, username, password string) (model.PlayerAuth, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return model.PlayerAuth{}, model.ErrLobbyClosed
	}
	if len(l.players) >= l.settings.MaxPlayers {
		return model.PlayerAuth{}, model.ErrLobbyFull
	}
	if l.settings.IsPrivate {
		if bcrypt.CompareHashAndPassword(l.passwordHash, []byte(password)) != nil {
			return model.PlayerAuth{}, model.ErrBadPassword
		}
	}
	return l.join(conn, username), nil
}

// join admits a trimmed, deduplicated username and issues its session token.
// Caller holds the lock.
func (l *Lobby) join(conn transport.Conn, username string) model.PlayerAuth {
	role := model.RolePlayer
	if len(l.players) == 0 {
		role = model.RoleHost
	}

	p := &model.Player{
		Conn:     conn,
		Username: l.dedupeUsername(strings.TrimSpace(username)),
		Role:     role,
		JoinedAt: l.clock.Now(),
	}
	p.SessionToken = l.deriveToken(p.Username)

	l.channels.Join(l.Channel(), conn)
	l.players = append(l.players, p)
	l.timer.Reset()

	l.logger.Info("player joined",
		slog.String("username", p.Username),
		slog.String("role", string(p.Role)))

	l.Lifecycle.Joined.Emit(model.PlayerEvent{Player: p})
	l.emitPlayerChanged(p, true)

	return model.PlayerAuth{Username: p.Username, SessionToken: p.SessionToken}
}

// dedupeUsername suffixes colliding names: name, name#2, name#3, ...
func (l *Lobby) dedupeUsername(username string) string {
	if username == "" {
		username = "Player"
	}
	candidate := username
	for n := 2; l.userExists(candidate); n++ {
		candidate = username + "#" + strconv.Itoa(n)
	}
	return candidate
}

// deriveToken computes the opaque session token for a (lobby, username)
// binding. It cannot be forged without the per-lobby secret, and a removed
// player's binding is never valid again because a rejoin issues a fresh
// Player record checked by exact token match against live members only.
func (l *Lobby) deriveToken(username string) string {
	sum := sha256.Sum256([]byte(string(l.id) + username + l.secret))
	return hex.EncodeToString(sum[:])
}

// TryReconnect resumes the player record matching the presented token,
// rebinding it to the new physical connection.
func (l *Lobby) TryReconnect(conn transport.Conn, sessionToken string) (*model.Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, model.ErrLobbyClosed
	}
	p := l.playerByToken(sessionToken)
	if p == nil {
		return nil, model.ErrInvalidSession
	}

	l.channels.Join(l.Channel(), conn)
	p.Conn = conn
	p.Reconnecting = false
	l.timer.Reset()

	l.logger.Info("player reconnected", slog.String("username", p.Username))
	l.emitPlayerChanged(p, false)
	return p, nil
}

// WaitForReconnect opens the reconnection grace window for a player whose
// connection dropped. If the player has not reconnected when the window
// expires, the disconnect is confirmed and the player is removed; if a
// reconnect lands first, the expiry check observes the cleared flag and does
// nothing.
func (l *Lobby) WaitForReconnect(p *model.Player) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || !l.isMember(p) {
		return
	}
	p.Reconnecting = true
	l.logger.Info("player waiting for reconnect",
		slog.String("username", p.Username),
		slog.Duration("grace", l.graceWindow))

	l.clock.AfterFunc(l.graceWindow, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Re-read state at fire time: the player may have reconnected, left,
		// or the lobby may have closed while the window was open.
		if l.closed || !l.isMember(p) || !p.Reconnecting {
			return
		}
		l.logger.Info("reconnect window expired", slog.String("username", p.Username))
		l.removePlayer(p)
		l.Lifecycle.Disconnected.Emit(model.DisconnectedEvent{Conn: p.Conn})
	})
}

// Leave removes the player bound to conn after an explicit leave request.
func (l *Lobby) Leave(conn transport.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if p := l.playerByConn(conn); p != nil {
		l.channels.Leave(l.Channel(), conn)
		l.timer.Reset()
		l.Lifecycle.Left.Emit(model.PlayerEvent{Player: p})
		l.removePlayer(p)
	}
	l.Lifecycle.Disconnected.Emit(model.DisconnectedEvent{Conn: conn})
}

// Disconnect removes the player bound to conn after a confirmed disconnect.
func (l *Lobby) Disconnect(conn transport.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if p := l.playerByConn(conn); p != nil {
		l.removePlayer(p)
	}
	l.Lifecycle.Disconnected.Emit(model.DisconnectedEvent{Conn: conn})
}

// Kick forcibly removes a player by name.
func (l *Lobby) Kick(username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return model.ErrLobbyClosed
	}
	for _, p := range l.players {
		if p.Username == username {
			l.channels.Leave(l.Channel(), p.Conn)
			l.timer.Reset()
			l.removePlayer(p)
			return nil
		}
	}
	return model.ErrPlayerNotFound
}

// removePlayer runs the shared removal sequence. Caller holds the lock.
// Order: remove from membership, playerRemoved (which performs host failover
// and emits hostChanged), then playerChanged with joined=false.
func (l *Lobby) removePlayer(p *model.Player) {
	for i, member := range l.players {
		if member == p {
			l.players = append(l.players[:i], l.players[i+1:]...)
			break
		}
	}
	l.logger.Info("player removed", slog.String("username", p.Username))
	l.Lifecycle.PlayerRemoved.Emit(model.PlayerEvent{Player: p})
	l.emitPlayerChanged(p, false)
}

func (l *Lobby) emitPlayerChanged(p *model.Player, joined bool) {
	l.Lifecycle.PlayerChanged.Emit(model.PlayerChangedEvent{
		Player:  p,
		Players: l.snapshot(),
		Joined:  joined,
	})
}

// Stop closes the lobby. Further operations fail with ErrLobbyClosed; the
// Stopped hook tells the registry to deregister the id. Channel membership is
// torn down only after the Stopped listeners run, so closing broadcasts still
// reach the members.
func (l *Lobby) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.timer.Stop()
	members := l.players
	l.players = nil
	l.mu.Unlock()

	l.logger.Info("lobby stopped")
	l.Lifecycle.Stopped.Emit(l.id)
	for _, p := range members {
		l.channels.Leave(l.Channel(), p.Conn)
	}
}

// Closed reports whether the lobby has been stopped.
func (l *Lobby) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// IsFull reports whether the lobby is at capacity.
func (l *Lobby) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.players) >= l.settings.MaxPlayers
}

// UserExists reports whether a username is taken within the lobby.
func (l *Lobby) UserExists(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.userExists(username)
}

// PlayerBySessionToken finds the live member holding the exact token.
func (l *Lobby) PlayerBySessionToken(token string) *model.Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playerByToken(token)
}

// PlayerByConn finds the live member bound to the given connection.
func (l *Lobby) PlayerByConn(conn transport.Conn) *model.Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playerByConn(conn)
}

// IsHost reports whether conn is bound to the lobby's host.
func (l *Lobby) IsHost(conn transport.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.playerByConn(conn)
	return p != nil && p.Role == model.RoleHost
}

// Players returns a snapshot of the membership in join order.
func (l *Lobby) Players() []*model.Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Lobby) snapshot() []*model.Player {
	out := make([]*model.Player, len(l.players))
	copy(out, l.players)
	return out
}

func (l *Lobby) userExists(username string) bool {
	for _, p := range l.players {
		if p.Username == username {
			return true
		}
	}
	return false
}

func (l *Lobby) playerByToken(token string) *model.Player {
	if token == "" {
		return nil
	}
	for _, p := range l.players {
		if p.SessionToken == token {
			return p
		}
	}
	return nil
}

func (l *Lobby) playerByConn(conn transport.Conn) *model.Player {
	for _, p := range l.players {
		if p.Conn != nil && p.Conn.ID() == conn.ID() {
			return p
		}
	}
	return nil
}

func (l *Lobby) isMember(p *model.Player) bool {
	for _, member := range l.players {
		if member == p {
			return true
		}
	}
	return false
}
