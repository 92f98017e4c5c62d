package transport

import (
	"log/slog"
	"sync"
)

// ChannelSet is an in-process Channels implementation backed by membership
// maps. It is transport-agnostic: any Conn implementation can join, so the
// websocket layer and the test fakes share it.
type ChannelSet struct {
	mu       sync.RWMutex
	channels map[string]map[string]Conn
	logger   *slog.Logger
}

var _ Channels = (*ChannelSet)(nil)

// NewChannelSet creates an empty ChannelSet.
func NewChannelSet(logger *slog.Logger) *ChannelSet {
	return &ChannelSet{
		channels: make(map[string]map[string]Conn),
		logger:   logger.With(slog.String("component", "channels")),
	}
}

// Join adds a connection to a channel, creating the channel if needed.
// Joining twice is a no-op.
func (s *ChannelSet) Join(channel string, c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.channels[channel]
	if !ok {
		members = make(map[string]Conn)
		s.channels[channel] = members
	}
	members[c.ID()] = c
}

// Leave removes a connection from a channel. Empty channels are deleted.
func (s *ChannelSet) Leave(channel string, c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.channels[channel]
	if !ok {
		return
	}
	delete(members, c.ID())
	if len(members) == 0 {
		delete(s.channels, channel)
	}
}

// Drop removes a connection from every channel it is a member of.
func (s *ChannelSet) Drop(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, members := range s.channels {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(s.channels, name)
		}
	}
}

// Broadcast sends an event to every member of a channel.
func (s *ChannelSet) Broadcast(channel string, event string, data any) {
	s.sendToChannel(channel, "", event, data)
}

// BroadcastExcept sends an event to every member of a channel except one
// connection, typically the originator.
func (s *ChannelSet) BroadcastExcept(channel string, except Conn, event string, data any) {
	s.sendToChannel(channel, except.ID(), event, data)
}

func (s *ChannelSet) sendToChannel(channel string, exceptID string, event string, data any) {
	s.mu.RLock()
	members := s.channels[channel]
	conns := make([]Conn, 0, len(members))
	for id, c := range members {
		if id == exceptID {
			continue
		}
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(event, data); err != nil {
			s.logger.Warn("channel send failed",
				slog.String("channel", channel),
				slog.String("event", event),
				slog.String("conn", c.ID()),
				slog.Any("error", err))
		}
	}
}

// Members returns the current member count of a channel.
func (s *ChannelSet) Members(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels[channel])
}
