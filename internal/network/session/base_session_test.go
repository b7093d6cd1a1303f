package session

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// readAllLines 在独立协程中读取 peer 上的所有行，连接关闭后将结果写入返回的 channel。
func readAllLines(peer net.Conn) <-chan []string {
	out := make(chan []string, 1)
	go func() {
		var lines []string
		scanner := bufio.NewScanner(peer)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		out <- lines
	}()
	return out
}

func waitSendDone(t *testing.T, s *BaseSession) {
	t.Helper()
	select {
	case <-s.sendDone:
	case <-time.After(5 * time.Second):
		t.Fatal("send loop did not exit in time")
	}
}

func TestBaseSessionSendOrder(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := NewBaseSession(nil, 1, server, &codec.LineCodec{})
	got := readAllLines(client)

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, s.Send(fmt.Sprintf("line-%03d", i)))
	}

	// 优雅关闭：队列排空后连接才关闭，读端应完整收到所有行。
	require.NoError(t, s.Stop())
	waitSendDone(t, s)

	lines := <-got
	require.Len(t, lines, n)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("line-%03d", i), line)
	}
}

func TestBaseSessionSendAfterStop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := NewBaseSession(nil, 2, server, &codec.LineCodec{})
	got := readAllLines(client)

	require.NoError(t, s.Send("hello"))
	require.NoError(t, s.Stop())

	err := s.Send("late")
	require.Error(t, err)
	assert.ErrorIs(t, err, merr.ErrSessionClosed)
	assert.False(t, s.Running())

	waitSendDone(t, s)
	assert.Equal(t, []string{"hello"}, <-got)
}

func TestBaseSessionCloseIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := NewBaseSession(nil, 3, server, &codec.LineCodec{})
	_ = readAllLines(client)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	waitSendDone(t, s)

	select {
	case <-s.Context().Done():
	default:
		t.Fatal("context should be canceled after Close")
	}
}

func TestBaseSessionCloseDiscardsPending(t *testing.T) {
	server, client := net.Pipe()

	s := NewBaseSession(nil, 4, server, &codec.LineCodec{})

	// 读端不消费，发送协程会阻塞在写出上；Close 应能强制其退出。
	for i := 0; i < 8; i++ {
		_ = s.Send("pending")
	}
	require.NoError(t, s.Close())
	_ = client.Close()

	waitSendDone(t, s)
	assert.ErrorIs(t, s.Send("after-close"), merr.ErrSessionClosed)
}

func TestBaseSessionPeerDisconnect(t *testing.T) {
	server, client := net.Pipe()

	s := NewBaseSession(nil, 5, server, &codec.LineCodec{})

	// 对端直接断开后，写出失败应使会话转入关闭状态。
	require.NoError(t, client.Close())
	_ = s.Send("will-fail")

	waitSendDone(t, s)
	assert.False(t, s.Running())
}

func TestUint64IDGenerator(t *testing.T) {
	g := &Uint64IDGenerator{}
	assert.EqualValues(t, 1, g.Next())
	assert.EqualValues(t, 2, g.Next())
	assert.EqualValues(t, 3, g.Next())
}
