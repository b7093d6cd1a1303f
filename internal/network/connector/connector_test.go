package connector

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
)

const testWaitTimeout = 5 * time.Second

// nopHandler 忽略所有回调，只记录关闭原因。
type nopHandler struct {
	closed chan error
}

func newNopHandler() *nopHandler {
	return &nopHandler{closed: make(chan error, 1)}
}

func (h *nopHandler) OnConnected(ClientConn) {}

func (h *nopHandler) OnLine(ClientConn, string) {}

func (h *nopHandler) OnClosed(_ ClientConn, err error) {
	select {
	case h.closed <- err:
	default:
	}
}
func (h *nopHandler) OnError(ClientConn, network.Stage, error) {}

func dialTestConn(t *testing.T, serve func(net.Conn)) (ClientConn, *nopHandler) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, aerr := ln.Accept()
		if aerr != nil {
			return
		}
		serve(conn)
	}()

	h := newNopHandler()
	conn, err := NewTCPConnector(Config{Codec: &codec.LineCodec{}}).
		Dial(context.Background(), ln.Addr().String(), h)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, h
}

func TestClientConnRecvClosedOnServerEOF(t *testing.T) {
	conn, h := dialTestConn(t, func(c net.Conn) {
		_, _ = c.Write([]byte("hello\n"))
		_ = c.Close()
	})

	select {
	case line := <-conn.Recv():
		assert.Equal(t, "hello", line)
	case <-time.After(testWaitTimeout):
		t.Fatal("no line received")
	}

	// 服务器正常关闭：接收通道被关闭，关闭原因为 nil。
	for {
		select {
		case _, ok := <-conn.Recv():
			if !ok {
				select {
				case cause := <-h.closed:
					assert.NoError(t, cause)
				case <-time.After(testWaitTimeout):
					t.Fatal("OnClosed was not called")
				}
				return
			}
		case <-time.After(testWaitTimeout):
			t.Fatal("recv channel was not closed")
		}
	}
}

func TestClientConnCloseWhileReceiving(t *testing.T) {
	conn, _ := dialTestConn(t, func(c net.Conn) {
		defer c.Close()
		for i := 0; ; i++ {
			if _, werr := fmt.Fprintf(c, "line %d\n", i); werr != nil {
				return
			}
		}
	})

	// 本地 Close 与服务器持续下行并发执行：
	// 接收协程退出后关闭通道，不会出现向已关闭通道发送。
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range conn.Recv() {
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-time.After(testWaitTimeout):
		t.Fatal("recv channel was not closed after Close")
	}
}
