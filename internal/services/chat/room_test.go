package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kwhittier/lobbyhub/internal/dependencies/mocks"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/testutil"
	"github.com/kwhittier/lobbyhub/internal/transport"
	"github.com/kwhittier/lobbyhub/internal/transport/transporttest"
)

type RoomSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	channels *transport.ChannelSet
}

func TestRoomSuite(t *testing.T) {
	suite.Run(t, new(RoomSuite))
}

func (s *RoomSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.channels = transport.NewChannelSet(testutil.NopLogger())
}

func (s *RoomSuite) newRoom(cfg RoomConfig) *Room {
	return NewRoom(cfg, s.channels, s.clock, s.random, testutil.NopLogger())
}

func (s *RoomSuite) TestJoinAssignsRequestedName() {
	room := s.newRoom(RoomConfig{Name: "general"})
	conn := transporttest.NewConn("c1")

	s.Require().NoError(room.Join(conn, "Alice"))

	named := conn.SentNamed(EventName)
	s.Require().Len(named, 1)
	s.Equal("Alice", named[0].Data)
	s.Equal([]model.ChatUser{{Name: "Alice", ID: "Alice"}}, room.Users())
}

func (s *RoomSuite) TestJoinWithTakenNameGetsGeneratedName() {
	room := s.newRoom(RoomConfig{Name: "general"})
	s.Require().NoError(room.Join(transporttest.NewConn("c1"), "Alice"))

	// Brave + Kitten
	s.random.QueueIntn(2, 32)
	conn := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(conn, "Alice"))

	named := conn.SentNamed(EventName)
	s.Require().Len(named, 1)
	s.Equal("BraveKitten", named[0].Data)
	s.Equal(2, room.UserCount())
}

func (s *RoomSuite) TestJoinTwiceIsNoop() {
	room := s.newRoom(RoomConfig{Name: "general"})
	conn := transporttest.NewConn("c1")
	s.Require().NoError(room.Join(conn, "Alice"))
	s.Require().NoError(room.Join(conn, "Alice"))

	s.Equal(1, room.UserCount())
	s.Len(conn.SentNamed(EventName), 1)
}

func (s *RoomSuite) TestJoinNotifiesExistingMembers() {
	room := s.newRoom(RoomConfig{Name: "general"})
	first := transporttest.NewConn("c1")
	s.Require().NoError(room.Join(first, "Alice"))
	first.Reset()

	second := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(second, "Bob"))

	// The existing member sees the list with the joiner; the joiner's own
	// snapshot is taken before they are added.
	updates := first.SentNamed(EventUsers)
	s.Require().Len(updates, 1)
	s.Equal([]model.ChatUser{{Name: "Alice", ID: "Alice"}, {Name: "Bob", ID: "Bob"}}, updates[0].Data)

	own := second.SentNamed(EventUsers)
	s.Require().Len(own, 1)
	s.Equal([]model.ChatUser{{Name: "Alice", ID: "Alice"}}, own[0].Data)
}

func (s *RoomSuite) TestMessageBroadcastsToEveryoneButSender() {
	room := s.newRoom(RoomConfig{Name: "general"})
	alice := transporttest.NewConn("c1")
	bob := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(alice, "Alice"))
	s.Require().NoError(room.Join(bob, "Bob"))

	s.Require().NoError(room.Message(alice, "hello"))

	s.Empty(alice.SentNamed(EventMessage), "sender must not receive their own message")
	got := bob.SentNamed(EventMessage)
	s.Require().Len(got, 1)
	msg, ok := got[0].Data.(model.ChatMessage)
	s.Require().True(ok)
	s.Equal("hello", msg.Message)
	s.Equal("Alice", msg.User)
	s.Equal(s.clock.Now().UnixMilli(), msg.Time)
	s.Equal(0, msg.ID)
}

func (s *RoomSuite) TestMessageIDsIncrease() {
	room := s.newRoom(RoomConfig{Name: "general"})
	alice := transporttest.NewConn("c1")
	bob := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(alice, "Alice"))
	s.Require().NoError(room.Join(bob, "Bob"))

	s.Require().NoError(room.Message(alice, "one"))
	s.Require().NoError(room.Message(bob, "two"))
	s.Require().NoError(room.Message(alice, "three"))

	var ids []int
	for _, ev := range append(alice.SentNamed(EventMessage), bob.SentNamed(EventMessage)...) {
		ids = append(ids, ev.Data.(model.ChatMessage).ID)
	}
	s.ElementsMatch([]int{0, 1, 2}, ids)
}

func (s *RoomSuite) TestMessageFromStrangerAdmitsThemFirst() {
	room := s.newRoom(RoomConfig{Name: "general"})
	bob := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(bob, "Bob"))

	s.random.QueueIntn(2, 32)
	stranger := transporttest.NewConn("c1")
	s.Require().NoError(room.Message(stranger, "hi"))

	s.Equal(2, room.UserCount())
	named := stranger.SentNamed(EventName)
	s.Require().Len(named, 1)
	s.Equal("BraveKitten", named[0].Data)
	got := bob.SentNamed(EventMessage)
	s.Require().Len(got, 1)
	s.Equal("BraveKitten", got[0].Data.(model.ChatMessage).User)
}

func (s *RoomSuite) TestLeaveNotifiesRemainingMembers() {
	room := s.newRoom(RoomConfig{Name: "general"})
	alice := transporttest.NewConn("c1")
	bob := transporttest.NewConn("c2")
	s.Require().NoError(room.Join(alice, "Alice"))
	s.Require().NoError(room.Join(bob, "Bob"))
	bob.Reset()

	room.Leave(alice)

	s.Equal(1, room.UserCount())
	updates := bob.SentNamed(EventUsers)
	s.Require().Len(updates, 1)
	s.Equal([]model.ChatUser{{Name: "Bob", ID: "Bob"}}, updates[0].Data)
}

func (s *RoomSuite) TestLeaveWithoutJoinIsNoop() {
	room := s.newRoom(RoomConfig{Name: "general"})
	room.Leave(transporttest.NewConn("c1"))
	s.Zero(room.UserCount())
}

func (s *RoomSuite) TestTemporaryRoomClosesWhenLastMemberLeaves() {
	room := s.newRoom(RoomConfig{Name: "side", Temporary: true, EmptyTimeout: time.Minute})
	var closed []string
	room.Closing.Subscribe(func(name string) { closed = append(closed, name) })

	conn := transporttest.NewConn("c1")
	s.Require().NoError(room.Join(conn, "Alice"))
	room.Leave(conn)

	s.Equal([]string{"side"}, closed)
	s.ErrorIs(room.Join(transporttest.NewConn("c2"), "Bob"), model.ErrRoomClosed)
}

func (s *RoomSuite) TestTemporaryRoomClosesIfNeverJoined() {
	room := s.newRoom(RoomConfig{Name: "side", Temporary: true, EmptyTimeout: time.Minute})
	closes := 0
	room.Closing.Subscribe(func(string) { closes++ })

	s.clock.Advance(time.Minute)

	s.Equal(1, closes)
}

func (s *RoomSuite) TestTemporaryRoomSurvivesEmptyTimeoutWhenOccupied() {
	room := s.newRoom(RoomConfig{Name: "side", Temporary: true, EmptyTimeout: time.Minute})
	closes := 0
	room.Closing.Subscribe(func(string) { closes++ })

	s.Require().NoError(room.Join(transporttest.NewConn("c1"), "Alice"))
	s.clock.Advance(time.Minute)

	s.Zero(closes)
}

func (s *RoomSuite) TestGeneralRoomDoesNotCloseWhenEmpty() {
	room := s.newRoom(RoomConfig{Name: "general"})
	closes := 0
	room.Closing.Subscribe(func(string) { closes++ })

	conn := transporttest.NewConn("c1")
	s.Require().NoError(room.Join(conn, "Alice"))
	room.Leave(conn)
	s.clock.Advance(time.Hour)

	s.Zero(closes)
	s.NoError(room.Join(transporttest.NewConn("c2"), "Bob"))
}

func (s *RoomSuite) TestDisconnectBehavesLikeLeave() {
	room := s.newRoom(RoomConfig{Name: "general"})
	conn := transporttest.NewConn("c1")
	s.Require().NoError(room.Join(conn, "Alice"))

	room.Disconnect(conn)

	s.Zero(room.UserCount())
}
