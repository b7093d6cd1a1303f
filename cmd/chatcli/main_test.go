package main

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/chat-garden-go/internal/network/connector"
)

// fakeConn 记录所有通过 Send 发出的行，并在收到 /quit 后
// 模拟服务器关闭连接。其上下文独立于测试中模拟的退出信号，
// 与 main 中连接的生命周期约定一致。
type fakeConn struct {
	mu     sync.Mutex
	lines  []string
	closed chan struct{}
}

var _ connector.ClientConn = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) Context() context.Context { return context.Background() }
func (f *fakeConn) RemoteAddr() net.Addr     { return nil }
func (f *fakeConn) LocalAddr() net.Addr      { return nil }
func (f *fakeConn) Recv() <-chan string      { return nil }
func (f *fakeConn) Close() error             { return nil }

func (f *fakeConn) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	if line == "/quit" {
		close(f.closed)
	}
	return nil
}

func (f *fakeConn) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func TestRunLoopSendsQuitOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 模拟已收到退出信号。

	conn := newFakeConn()
	runLoop(ctx, conn, make(chan string), conn.closed)

	// 信号取消的是交互循环，不是连接：/quit 仍然成功发出。
	assert.Equal(t, []string{"/quit"}, conn.Lines())
}

func TestRunLoopSendsQuitOnStdinEOF(t *testing.T) {
	input := make(chan string)
	close(input) // 标准输入 EOF。

	conn := newFakeConn()
	runLoop(context.Background(), conn, input, conn.closed)

	assert.Equal(t, []string{"/quit"}, conn.Lines())
}

func TestRunLoopForwardsInputUntilQuit(t *testing.T) {
	input := make(chan string, 2)
	input <- "hello"
	input <- "/quit"

	conn := newFakeConn()
	runLoop(context.Background(), conn, input, conn.closed)

	assert.Equal(t, []string{"hello", "/quit"}, conn.Lines())
}
