package chat

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/chat-garden-go/internal/network/acceptor"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
)

const testReadTimeout = 5 * time.Second

// startChatServer 在环回地址上启动一个完整的聊天服务器，返回监听地址。
func startChatServer(t *testing.T, maxClients int) string {
	t.Helper()

	srv := NewServer()
	acc, err := acceptor.NewTCPAcceptor("127.0.0.1:0", &codec.LineCodec{}, acceptor.Config{
		MaxClients: maxClients,
		FullNotice: FullNotice(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = acc.Serve(ctx, srv)
	}()

	t.Cleanup(func() {
		cancel()
		_ = acc.Close()
		srv.Close()
		select {
		case <-done:
		case <-time.After(testReadTimeout):
			t.Log("acceptor did not shut down in time")
		}
	})

	return acc.Addr().String()
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) sendLine(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *testClient) readLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testReadTimeout)))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\r\n")
}

func (c *testClient) expectLine(want string) {
	c.t.Helper()
	assert.Equal(c.t, want, c.readLine())
}

func (c *testClient) expectEOF() {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testReadTimeout)))
	_, err := c.r.ReadString('\n')
	require.Error(c.t, err)
}

func (c *testClient) skipWelcome() {
	c.t.Helper()
	c.readLine()
	c.readLine()
}

func TestServerEndToEnd(t *testing.T) {
	addr := startChatServer(t, 8)

	c1 := dialTestClient(t, addr)
	c1.expectLine(noticeWelcome)
	c1.expectLine(noticeWelcomeUsage)

	c1.sendLine("/nick alice")
	c1.expectLine(noticeNickSet("alice"))
	c1.expectLine(noticeJoined("alice"))

	c2 := dialTestClient(t, addr)
	c2.skipWelcome()
	c2.sendLine("/nick bob")
	c2.expectLine(noticeNickSet("bob"))
	c2.expectLine(noticeJoined("bob"))
	c1.expectLine(noticeJoined("bob"))

	c1.sendLine("hello")
	c1.expectLine("alice: hello")
	c2.expectLine("alice: hello")

	c2.sendLine("/pm alice hi")
	c1.expectLine("(PM) bob: hi")

	// 私聊不出现在发送方自己的流中：紧随其后的 /list 回复是 c2 的下一行。
	c2.sendLine("/list")
	c2.expectLine(noticeListHeader)
	c2.expectLine(noticeListEntry("alice"))
	c2.expectLine(noticeListEntry("bob"))
	c2.expectLine(noticeListEnd)

	c2.sendLine("/quit")
	c2.expectLine(noticeFarewell)
	c2.expectEOF()
	c1.expectLine(noticeLeft("bob"))
}

// startWSChatServer 启动一个只开放 WebSocket 入口的聊天服务器，返回 ws:// 形式的 URL。
func startWSChatServer(t *testing.T, maxClients int) string {
	t.Helper()

	srv := NewServer()
	acc, err := acceptor.NewWSAcceptor("127.0.0.1:0", &codec.LineCodec{}, acceptor.Config{
		MaxClients: maxClients,
		FullNotice: FullNotice(),
		Path:       "/ws",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = acc.Serve(ctx, srv)
	}()

	t.Cleanup(func() {
		cancel()
		_ = acc.Close()
		srv.Close()
		select {
		case <-done:
		case <-time.After(testReadTimeout):
			t.Log("ws acceptor did not shut down in time")
		}
	})

	return "ws://" + acc.Addr().String() + "/ws"
}

type wsTestClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWSTestClient(t *testing.T, url string) *wsTestClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsTestClient{t: t, conn: conn}
}

func (c *wsTestClient) sendLine(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(line)))
}

func (c *wsTestClient) readLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testReadTimeout)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	return string(data)
}

func (c *wsTestClient) expectLine(want string) {
	c.t.Helper()
	assert.Equal(c.t, want, c.readLine())
}

func TestServerWebSocketEndToEnd(t *testing.T) {
	url := startWSChatServer(t, 8)

	// 一条文本帧对应一行，语义与 TCP 入口一致。
	c1 := dialWSTestClient(t, url)
	c1.expectLine(noticeWelcome)
	c1.expectLine(noticeWelcomeUsage)

	c1.sendLine("/nick dave")
	c1.expectLine(noticeNickSet("dave"))
	c1.expectLine(noticeJoined("dave"))

	c2 := dialWSTestClient(t, url)
	c2.readLine()
	c2.readLine()
	c2.sendLine("/nick erin")
	c2.expectLine(noticeNickSet("erin"))
	c2.expectLine(noticeJoined("erin"))
	c1.expectLine(noticeJoined("erin"))

	c1.sendLine("hello ws")
	c1.expectLine("dave: hello ws")
	c2.expectLine("dave: hello ws")

	c2.sendLine("/quit")
	c2.expectLine(noticeFarewell)
	c1.expectLine(noticeLeft("erin"))
}

func TestServerDepartureOnTransportFailure(t *testing.T) {
	addr := startChatServer(t, 8)

	c1 := dialTestClient(t, addr)
	c1.skipWelcome()
	c1.sendLine("/nick alice")
	c1.expectLine(noticeNickSet("alice"))
	c1.expectLine(noticeJoined("alice"))

	c2 := dialTestClient(t, addr)
	c2.skipWelcome()
	c2.sendLine("/nick carol")
	c2.expectLine(noticeNickSet("carol"))
	c1.expectLine(noticeJoined("carol"))

	// 不发 /quit，直接断开连接：仍应触发恰好一次离开广播。
	require.NoError(t, c2.conn.Close())
	c1.expectLine(noticeLeft("carol"))
}

func TestServerRejectsWhenFull(t *testing.T) {
	addr := startChatServer(t, 1)

	c1 := dialTestClient(t, addr)
	c1.skipWelcome()

	// 连接池已满：新连接收到提示行后被关闭。
	c2 := dialTestClient(t, addr)
	c2.expectLine(noticeServerFull)
	c2.expectEOF()

	// 原有连接不受影响。
	c1.sendLine("/nick alice")
	c1.expectLine(noticeNickSet("alice"))
}
