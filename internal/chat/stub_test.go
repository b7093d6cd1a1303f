package chat

import (
	"context"
	"net"
	"sync"

	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// stubSession 为测试用的内存会话，记录所有投递给它的行。
type stubSession struct {
	id uint64

	mu     sync.Mutex
	lines  []string
	closed bool
}

func newStubSession(id uint64) *stubSession {
	return &stubSession{id: id}
}

func (s *stubSession) ID() uint64               { return s.id }
func (s *stubSession) Context() context.Context { return context.Background() }
func (s *stubSession) RemoteAddr() net.Addr     { return nil }
func (s *stubSession) LocalAddr() net.Addr      { return nil }
func (s *stubSession) OnConnected()             {}
func (s *stubSession) OnDisconnected(error)     {}

func (s *stubSession) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return merr.WrapErrSessionClosed(s.id)
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *stubSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *stubSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubSession) Close() error {
	return s.Stop()
}

// Lines 返回已投递行的快照。
func (s *stubSession) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Drain 返回已投递的行并清空记录，便于分段断言。
func (s *stubSession) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.lines
	s.lines = nil
	return out
}
