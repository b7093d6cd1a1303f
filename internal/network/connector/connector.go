package connector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/pkg/util/conc"
	"github.com/lk2023060901/chat-garden-go/pkg/util/retry"
)

// Config 描述客户端连接的基础配置。
type Config struct {
	// SendQueueSize 为客户端发送队列的容量。
	SendQueueSize int
	// RecvQueueSize 为客户端接收队列的容量。
	RecvQueueSize int

	// DialTimeout 为单次拨号的超时时间。
	DialTimeout time.Duration
	// DialAttempts 为拨号的最大尝试次数（含首次），重试间隔按指数增长。
	DialAttempts uint

	// Codec 为当前连接使用的行级编解码器。
	Codec codec.Codec
}

func defaultConfig() Config {
	return Config{
		SendQueueSize: 64,
		RecvQueueSize: 64,
		DialTimeout:   3 * time.Second,
		DialAttempts:  5,
	}
}

// ClientConn 抽象了客户端侧的一条行协议连接。
//
// 注意：客户端连接不包含会话 ID 概念。
type ClientConn interface {
	Context() context.Context
	RemoteAddr() net.Addr
	LocalAddr() net.Addr

	// Send 将一行消息投递到发送队列，由独立协程写出。
	Send(line string) error
	// Recv 返回服务器下行消息的通道，连接断开后该通道被关闭。
	Recv() <-chan string

	Close() error
}

// Handler 描述客户端在各阶段的回调能力。
type Handler interface {
	OnConnected(conn ClientConn)
	OnLine(conn ClientConn, line string)
	OnClosed(conn ClientConn, err error)
	OnError(conn ClientConn, stage network.Stage, err error)
}

// Connector 抽象了客户端的拨号器。
type Connector interface {
	Dial(ctx context.Context, addr string, h Handler) (ClientConn, error)
}

// tcpConnector 是基于 TCP 的默认 Connector 实现。
type tcpConnector struct {
	cfg Config
}

// NewTCPConnector 创建一个基于 TCP 的 Connector。
func NewTCPConnector(cfg Config) Connector {
	def := defaultConfig()
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = def.SendQueueSize
	}
	if cfg.RecvQueueSize <= 0 {
		cfg.RecvQueueSize = def.RecvQueueSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.DialAttempts == 0 {
		cfg.DialAttempts = def.DialAttempts
	}
	if cfg.Codec == nil {
		panic("connector: Codec is nil")
	}
	return &tcpConnector{cfg: cfg}
}

// Dial 建立到服务器的 TCP 连接。
//
// 说明：
//   - 拨号失败时按指数退避自动重试，最多尝试 cfg.DialAttempts 次；
//   - 成功后启动收发协程，并回调 h.OnConnected。
func (c *tcpConnector) Dial(ctx context.Context, addr string, h Handler) (ClientConn, error) {
	if addr == "" {
		return nil, fmt.Errorf("connector: addr is empty")
	}
	if h == nil {
		return nil, fmt.Errorf("connector: handler is nil")
	}

	var conn net.Conn
	err := retry.Do(ctx, func() error {
		d := net.Dialer{Timeout: c.cfg.DialTimeout}
		nc, derr := d.DialContext(ctx, "tcp", addr)
		if derr != nil {
			return derr
		}
		conn = nc
		return nil
	}, retry.Attempts(c.cfg.DialAttempts))
	if err != nil {
		return nil, err
	}

	connCtx, cancel := context.WithCancel(ctx)
	cc := newTCPClientConn(connCtx, cancel, conn, c.cfg, h)
	h.OnConnected(cc)
	return cc, nil
}

// tcpClientConn 是基于 TCP 的 ClientConn 默认实现。
type tcpClientConn struct {
	conn net.Conn

	ctx    context.Context
	cancel context.CancelFunc

	cfg Config
	h   Handler

	remoteAddr net.Addr
	localAddr  net.Addr

	sendChan chan string
	recvChan chan string

	codec codec.Codec

	closeOnce sync.Once
}

var _ ClientConn = (*tcpClientConn)(nil)

func newTCPClientConn(
	ctx context.Context,
	cancel context.CancelFunc,
	conn net.Conn,
	cfg Config,
	h Handler,
) *tcpClientConn {
	c := &tcpClientConn{
		conn:       conn,
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		h:          h,
		remoteAddr: conn.RemoteAddr(),
		localAddr:  conn.LocalAddr(),
		sendChan:   make(chan string, cfg.SendQueueSize),
		recvChan:   make(chan string, cfg.RecvQueueSize),
		codec:      cfg.Codec,
	}

	// 使用 conc.Go 启动收发协程，避免直接使用原生 go 关键字。
	_ = conc.Go(c.recvLoop)
	_ = conc.Go(c.sendLoop)

	return c
}

// ClientConn 接口实现。

func (c *tcpClientConn) Context() context.Context { return c.ctx }
func (c *tcpClientConn) RemoteAddr() net.Addr     { return c.remoteAddr }
func (c *tcpClientConn) LocalAddr() net.Addr      { return c.localAddr }
func (c *tcpClientConn) Recv() <-chan string      { return c.recvChan }
func (c *tcpClientConn) Close() error             { return c.close(nil) }

func (c *tcpClientConn) Send(line string) error {
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	case c.sendChan <- line:
		return nil
	}
}

func (c *tcpClientConn) close(cause error) error {
	var err error
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.h.OnClosed(c, cause)
	})
	return err
}

// recvLoop 持续从连接中读取行并回调 OnLine。
// recvChan 只由本协程发送，因此也只由本协程在退出时关闭。
func (c *tcpClientConn) recvLoop() {
	defer close(c.recvChan)

	r := bufio.NewReader(c.conn)

	for {
		select {
		case <-c.ctx.Done():
			c.close(nil)
			return
		default:
		}

		line, err := c.codec.Decode(r)
		if err != nil {
			// EOF/连接关闭视为正常断开，其余错误作为关闭原因上报。
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.close(nil)
				return
			}
			c.h.OnError(c, network.StageRecvLine, err)
			c.close(err)
			return
		}

		select {
		case <-c.ctx.Done():
			c.close(nil)
			return
		case c.recvChan <- line:
		}

		c.h.OnLine(c, line)
	}
}

// sendLoop 从 sendChan 读取行并编码写入连接。
func (c *tcpClientConn) sendLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case line := <-c.sendChan:
			if err := c.codec.Encode(c.conn, line); err != nil {
				c.h.OnError(c, network.StageSendLine, err)
				c.close(network.ErrSendFailed)
				return
			}
		}
	}
}
