package acceptor

import (
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cockroachdb/errors"
)

// wsConn 将一条 WebSocket 连接适配成 net.Conn，约定“一条文本帧 == 一行消息”。
//
// 说明：
//   - Read 把每条文本/二进制帧的内容补上 "\n" 后按字节流暴露给上层，
//     这样行协议的 Codec 可以不区分 TCP 与 WebSocket；
//   - Write 期望每次收到完整的一行（含行结束符），去掉行结束符后作为一条文本帧发送；
//   - 对端正常关闭（CloseNormalClosure/CloseGoingAway）映射为 io.EOF。
type wsConn struct {
	ws *websocket.Conn

	// rbuf 为上一条帧中尚未被 Read 取走的残余字节。
	rbuf []byte
}

var _ net.Conn = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Read 实现 net.Conn.Read。
func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.rbuf) == 0 {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			if errors.Is(err, net.ErrClosed) {
				return 0, net.ErrClosed
			}
			return 0, err
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			// 每条帧视为一行，补上行结束符后交给行级 Codec。
			c.rbuf = append(data, '\n')
		default:
			// 忽略其余控制类消息。
			continue
		}
	}

	n := copy(p, c.rbuf)
	c.rbuf = c.rbuf[n:]
	return n, nil
}

// Write 实现 net.Conn.Write。
//
// 约定调用方（行级 Codec）每次写出恰好一行，行结束符在此处剥离。
func (c *wsConn) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\r\n")
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 实现 net.Conn.Close。
func (c *wsConn) Close() error {
	// 尽力发送关闭帧，便于对端区分正常关闭与异常断开。
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}

// LocalAddr 实现 net.Conn.LocalAddr。
func (c *wsConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

// RemoteAddr 实现 net.Conn.RemoteAddr。
func (c *wsConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// SetDeadline 实现 net.Conn.SetDeadline。
func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

// SetReadDeadline 实现 net.Conn.SetReadDeadline。
func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// SetWriteDeadline 实现 net.Conn.SetWriteDeadline。
func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
