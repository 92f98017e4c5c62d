package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/kwhittier/lobbyhub/internal/dependencies/mocks"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/testutil"
	"github.com/kwhittier/lobbyhub/internal/transport"
	"github.com/kwhittier/lobbyhub/internal/transport/transporttest"
)

const testGraceWindow = 30 * time.Second

type LobbySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	channels *transport.ChannelSet
	connSeq  int
}

func TestLobbySuite(t *testing.T) {
	suite.Run(t, new(LobbySuite))
}

func (s *LobbySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.channels = transport.NewChannelSet(testutil.NopLogger())
	s.connSeq = 0
}

func (s *LobbySuite) newLobby(settings model.LobbySettings) *Lobby {
	var hash []byte
	if settings.IsPrivate {
		hash, _ = bcrypt.GenerateFromPassword([]byte(settings.Password), bcrypt.MinCost)
	}
	return New(Config{
		ID:           "LOBBY1",
		Settings:     settings,
		PasswordHash: hash,
		Secret:       "test-secret",
		IdleTimeout:  5 * time.Minute,
		GraceWindow:  testGraceWindow,
	}, s.channels, s.clock, testutil.NopLogger())
}

func (s *LobbySuite) newConn() *transporttest.FakeConn {
	s.connSeq++
	return transporttest.NewConn("conn-" + string(rune('a'+s.connSeq-1)))
}

// Joining

func (s *LobbySuite) TestFirstJoinerBecomesHost() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})

	auth, err := lb.TryJoin(s.newConn(), "Alice", "")
	s.Require().NoError(err)

	s.Equal("Alice", auth.Username)
	s.NotEmpty(auth.SessionToken)
	players := lb.Players()
	s.Require().Len(players, 1)
	s.Equal(model.RoleHost, players[0].Role)
}

func (s *LobbySuite) TestSecondJoinerIsPlayer() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")

	_, err := lb.TryJoin(s.newConn(), "Bob", "")
	s.Require().NoError(err)

	players := lb.Players()
	s.Require().Len(players, 2)
	s.Equal(model.RolePlayer, players[1].Role)
}

func (s *LobbySuite) TestUsernamesAreSuffixedOnCollision() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})

	first, _ := lb.TryJoin(s.newConn(), "Alice", "")
	second, _ := lb.TryJoin(s.newConn(), "Alice", "")
	third, _ := lb.TryJoin(s.newConn(), "Alice", "")

	s.Equal("Alice", first.Username)
	s.Equal("Alice#2", second.Username)
	s.Equal("Alice#3", third.Username)
}

func (s *LobbySuite) TestUsernamesAreAlwaysPairwiseDistinct() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 8})
	names := []string{"Ada", "Ada", "Ada ", "Bo", "Bo", "Ada", "Cy", "Ada"}
	for _, name := range names {
		_, err := lb.TryJoin(s.newConn(), name, "")
		s.Require().NoError(err)
	}

	seen := map[string]bool{}
	for _, p := range lb.Players() {
		s.False(seen[p.Username], "duplicate username %q", p.Username)
		seen[p.Username] = true
	}
}

func (s *LobbySuite) TestJoinTrimsUsername() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	auth, _ := lb.TryJoin(s.newConn(), "  Alice  ", "")
	s.Equal("Alice", auth.Username)
}

func (s *LobbySuite) TestJoinAtCapacityFailsWithoutMutation() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 2})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")

	_, err := lb.TryJoin(s.newConn(), "Carol", "")

	s.ErrorIs(err, model.ErrLobbyFull)
	s.Len(lb.Players(), 2)
	s.True(lb.IsFull())
}

func (s *LobbySuite) TestPrivateJoinWithWrongPasswordFailsWithoutMutation() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4, IsPrivate: true, Password: "hunter2"})

	_, err := lb.TryJoin(s.newConn(), "Alice", "wrong")

	s.ErrorIs(err, model.ErrBadPassword)
	s.Empty(lb.Players())
}

func (s *LobbySuite) TestPrivateJoinWithCorrectPassword() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4, IsPrivate: true, Password: "hunter2"})

	_, err := lb.TryJoin(s.newConn(), "Alice", "hunter2")

	s.Require().NoError(err)
	s.Len(lb.Players(), 1)
}

func (s *LobbySuite) TestJoinMirrorsChannelMembership() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")

	s.Equal(2, s.channels.Members(lb.Channel()))
}

func (s *LobbySuite) TestJoinEmitsJoinedThenPlayerChanged() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	var order []string
	lb.Lifecycle.Joined.Subscribe(func(model.PlayerEvent) { order = append(order, "joined") })
	lb.Lifecycle.PlayerChanged.Subscribe(func(ev model.PlayerChangedEvent) {
		s.True(ev.Joined)
		order = append(order, "playerChanged")
	})

	_, _ = lb.TryJoin(s.newConn(), "Alice", "")

	s.Equal([]string{"joined", "playerChanged"}, order)
}

// Host failover

func (s *LobbySuite) TestHostLeaveReassignsToEarliestJoined() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	host := s.newConn()
	_, _ = lb.TryJoin(host, "Alice", "")
	s.clock.Advance(time.Second)
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")
	s.clock.Advance(time.Second)
	_, _ = lb.TryJoin(s.newConn(), "Carol", "")

	var changes []string
	lb.Lifecycle.HostChanged.Subscribe(func(ev model.HostChangedEvent) {
		changes = append(changes, ev.Player.Username)
	})

	lb.Leave(host)

	s.Equal([]string{"Bob"}, changes)
	s.True(lb.Players()[0].Role == model.RoleHost)
	s.Equal("Bob", lb.Players()[0].Username)
}

func (s *LobbySuite) TestNonHostLeaveDoesNotChangeHost() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")
	bob := s.newConn()
	_, _ = lb.TryJoin(bob, "Bob", "")

	fired := 0
	lb.Lifecycle.HostChanged.Subscribe(func(model.HostChangedEvent) { fired++ })

	lb.Leave(bob)

	s.Zero(fired)
	s.Equal("Alice", lb.Players()[0].Username)
	s.Equal(model.RoleHost, lb.Players()[0].Role)
}

func (s *LobbySuite) TestKickedHostTriggersFailoverOnce() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")
	s.clock.Advance(time.Second)
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")

	fired := 0
	lb.Lifecycle.HostChanged.Subscribe(func(ev model.HostChangedEvent) {
		fired++
		s.Equal("Bob", ev.Player.Username)
	})

	s.Require().NoError(lb.Kick("Alice"))

	s.Equal(1, fired)
}

func (s *LobbySuite) TestLastPlayerLeavingEmitsNoHostChange() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	conn := s.newConn()
	_, _ = lb.TryJoin(conn, "Alice", "")

	fired := 0
	lb.Lifecycle.HostChanged.Subscribe(func(model.HostChangedEvent) { fired++ })

	lb.Leave(conn)

	s.Zero(fired)
	s.Empty(lb.Players())
}

func (s *LobbySuite) TestKickUnknownPlayer() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	s.ErrorIs(lb.Kick("Nobody"), model.ErrPlayerNotFound)
}

// Removal sequence

func (s *LobbySuite) TestRemovalSequenceOrdering() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	host := s.newConn()
	_, _ = lb.TryJoin(host, "Alice", "")
	s.clock.Advance(time.Second)
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")

	var order []string
	lb.Lifecycle.Left.Subscribe(func(model.PlayerEvent) { order = append(order, "left") })
	lb.Lifecycle.PlayerRemoved.Subscribe(func(model.PlayerEvent) { order = append(order, "playerRemoved") })
	lb.Lifecycle.HostChanged.Subscribe(func(model.HostChangedEvent) { order = append(order, "hostChanged") })
	lb.Lifecycle.PlayerChanged.Subscribe(func(ev model.PlayerChangedEvent) {
		s.False(ev.Joined)
		order = append(order, "playerChanged")
	})
	lb.Lifecycle.Disconnected.Subscribe(func(model.DisconnectedEvent) { order = append(order, "disconnected") })

	lb.Leave(host)

	s.Equal([]string{"left", "playerRemoved", "hostChanged", "playerChanged", "disconnected"}, order)
}

// Reconnection

func (s *LobbySuite) TestReconnectRebindsSamePlayer() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	oldConn := s.newConn()
	auth, _ := lb.TryJoin(oldConn, "Alice", "")
	joinedAt := lb.Players()[0].JoinedAt

	lb.WaitForReconnect(lb.PlayerByConn(oldConn))
	s.clock.Advance(10 * time.Second)

	newConn := s.newConn()
	p, err := lb.TryReconnect(newConn, auth.SessionToken)
	s.Require().NoError(err)

	s.Equal("Alice", p.Username)
	s.False(p.Reconnecting)
	s.Equal(newConn.ID(), p.Conn.ID())
	s.Len(lb.Players(), 1, "reconnect must never create a new player")
	s.Equal(joinedAt, p.JoinedAt, "original join time is kept on reconnect")
}

func (s *LobbySuite) TestReconnectEmitsPlayerChangedNotJoined() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	conn := s.newConn()
	auth, _ := lb.TryJoin(conn, "Alice", "")

	var joins []bool
	lb.Lifecycle.PlayerChanged.Subscribe(func(ev model.PlayerChangedEvent) { joins = append(joins, ev.Joined) })
	joined := 0
	lb.Lifecycle.Joined.Subscribe(func(model.PlayerEvent) { joined++ })

	_, err := lb.TryReconnect(s.newConn(), auth.SessionToken)
	s.Require().NoError(err)

	s.Equal([]bool{false}, joins)
	s.Zero(joined)
}

func (s *LobbySuite) TestReconnectWithUnknownTokenFails() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	_, _ = lb.TryJoin(s.newConn(), "Alice", "")

	_, err := lb.TryReconnect(s.newConn(), "bogus")

	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *LobbySuite) TestGraceWindowExpiryRemovesPlayer() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	conn := s.newConn()
	auth, _ := lb.TryJoin(conn, "Alice", "")

	disconnected := 0
	lb.Lifecycle.Disconnected.Subscribe(func(model.DisconnectedEvent) { disconnected++ })

	lb.WaitForReconnect(lb.PlayerByConn(conn))
	s.True(lb.PlayerBySessionToken(auth.SessionToken).Reconnecting,
		"reconnecting player stays in the membership list")

	s.clock.Advance(testGraceWindow)

	s.Empty(lb.Players())
	s.Equal(1, disconnected)

	_, err := lb.TryReconnect(s.newConn(), auth.SessionToken)
	s.ErrorIs(err, model.ErrInvalidSession, "token is invalid once the player is removed")
}

func (s *LobbySuite) TestReconnectBeforeExpiryMakesTimeoutNoop() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	conn := s.newConn()
	auth, _ := lb.TryJoin(conn, "Alice", "")

	lb.WaitForReconnect(lb.PlayerByConn(conn))
	s.clock.Advance(testGraceWindow / 2)

	_, err := lb.TryReconnect(s.newConn(), auth.SessionToken)
	s.Require().NoError(err)

	s.clock.Advance(testGraceWindow)

	s.Len(lb.Players(), 1, "expired window must not remove a reconnected player")
}

func (s *LobbySuite) TestLeaveDuringGraceWindowMakesTimeoutNoop() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	conn := s.newConn()
	_, _ = lb.TryJoin(conn, "Alice", "")
	_, _ = lb.TryJoin(s.newConn(), "Bob", "")

	lb.WaitForReconnect(lb.PlayerByConn(conn))
	lb.Leave(conn)
	s.Len(lb.Players(), 1)

	disconnected := 0
	lb.Lifecycle.Disconnected.Subscribe(func(model.DisconnectedEvent) { disconnected++ })
	s.clock.Advance(testGraceWindow)

	s.Len(lb.Players(), 1)
	s.Zero(disconnected)
}

// Queries and lifecycle

func (s *LobbySuite) TestIsHost() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	host := s.newConn()
	player := s.newConn()
	_, _ = lb.TryJoin(host, "Alice", "")
	_, _ = lb.TryJoin(player, "Bob", "")

	s.True(lb.IsHost(host))
	s.False(lb.IsHost(player))
	s.False(lb.IsHost(s.newConn()))
}

func (s *LobbySuite) TestStoppedLobbyRejectsOperations() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 4})
	auth, _ := lb.TryJoin(s.newConn(), "Alice", "")

	var stopped []model.LobbyID
	lb.Lifecycle.Stopped.Subscribe(func(id model.LobbyID) { stopped = append(stopped, id) })

	lb.Stop()
	lb.Stop() // idempotent

	s.Equal([]model.LobbyID{"LOBBY1"}, stopped)
	s.True(lb.Closed())

	_, err := lb.TryJoin(s.newConn(), "Bob", "")
	s.ErrorIs(err, model.ErrLobbyClosed)
	_, err = lb.TryReconnect(s.newConn(), auth.SessionToken)
	s.ErrorIs(err, model.ErrLobbyClosed)
	s.ErrorIs(lb.Kick("Alice"), model.ErrLobbyClosed)
}

// Scenario from the chat frontend: two-seat public lobby.

func (s *LobbySuite) TestTwoSeatLobbyScenario() {
	lb := s.newLobby(model.LobbySettings{MaxPlayers: 2})

	first, err := lb.TryJoin(s.newConn(), "Alice", "")
	s.Require().NoError(err)
	s.Equal("Alice", first.Username)
	s.Equal(model.RoleHost, lb.Players()[0].Role)

	second, err := lb.TryJoin(s.newConn(), "Alice", "")
	s.Require().NoError(err)
	s.Equal("Alice#2", second.Username)
	s.Equal(model.RolePlayer, lb.Players()[1].Role)

	_, err = lb.TryJoin(s.newConn(), "Bob", "")
	s.ErrorIs(err, model.ErrLobbyFull)
}
