package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kwhittier/lobbyhub/internal/testutil"
	"github.com/kwhittier/lobbyhub/internal/transport"
	"github.com/kwhittier/lobbyhub/internal/transport/transporttest"
)

func TestBroadcastReachesAllMembers(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	a := transporttest.NewConn("a")
	b := transporttest.NewConn("b")
	outsider := transporttest.NewConn("c")
	cs.Join("room", a)
	cs.Join("room", b)

	cs.Broadcast("room", "ping", "hello")

	assert.Len(t, a.SentNamed("ping"), 1)
	assert.Len(t, b.SentNamed("ping"), 1)
	assert.Empty(t, outsider.Sent())
}

func TestBroadcastExceptSkipsOriginator(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	a := transporttest.NewConn("a")
	b := transporttest.NewConn("b")
	cs.Join("room", a)
	cs.Join("room", b)

	cs.BroadcastExcept("room", a, "ping", nil)

	assert.Empty(t, a.Sent())
	assert.Len(t, b.SentNamed("ping"), 1)
}

func TestJoinTwiceIsNoop(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	a := transporttest.NewConn("a")
	cs.Join("room", a)
	cs.Join("room", a)

	assert.Equal(t, 1, cs.Members("room"))
	cs.Broadcast("room", "ping", nil)
	assert.Len(t, a.SentNamed("ping"), 1)
}

func TestLeaveRemovesOnlyThatChannel(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	a := transporttest.NewConn("a")
	cs.Join("one", a)
	cs.Join("two", a)

	cs.Leave("one", a)

	assert.Zero(t, cs.Members("one"))
	assert.Equal(t, 1, cs.Members("two"))
}

func TestDropRemovesFromEveryChannel(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	a := transporttest.NewConn("a")
	b := transporttest.NewConn("b")
	cs.Join("one", a)
	cs.Join("two", a)
	cs.Join("two", b)

	cs.Drop(a)

	assert.Zero(t, cs.Members("one"))
	assert.Equal(t, 1, cs.Members("two"))
}

func TestBroadcastToUnknownChannelIsNoop(t *testing.T) {
	cs := transport.NewChannelSet(testutil.NopLogger())
	cs.Broadcast("nowhere", "ping", nil)
	assert.Zero(t, cs.Members("nowhere"))
}
