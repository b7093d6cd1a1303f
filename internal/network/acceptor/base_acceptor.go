package acceptor

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
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
	"github.com/lk2023060901/chat-garden-go/pkg/util/conc"
)

// BaseAcceptor 是 Acceptor 接口的基础 TCP 实现。
//
// 设计目标：
//   - 对外只暴露 Acceptor 接口和 Handler 回调，不绑定具体业务逻辑；
//   - 内部负责：监听端口、接受连接、创建 Session、驱动行解码并回调 Handler；
//   - 每个连接由协程池中的一个 worker 串行处理，池容量即最大并发连接数；
//   - 池已满时向新连接回写提示行并立即关闭，不让其排队等待。
type BaseAcceptor struct {
	ln    net.Listener
	codec codec.Codec
	cfg   Config
	pool  *conc.Pool

	closeOnce sync.Once
}

// 确保 BaseAcceptor 实现了 Acceptor 接口。
var _ Acceptor = (*BaseAcceptor)(nil)

// rejectNoticeTimeout 为向被拒绝连接回写提示行的最长等待时间。
const rejectNoticeTimeout = time.Second

// NewBaseAcceptor 使用已有的 Listener 创建一个基础接入器。
//
// 参数：
//   - ln ：已创建好的 net.Listener（例如 TCP 监听器）；
//   - c  ：用于当前接入器所有连接的 Codec；
//   - cfg：连接层配置，零值字段取内部默认值。
func NewBaseAcceptor(ln net.Listener, c codec.Codec, cfg Config) (*BaseAcceptor, error) {
	if ln == nil {
		return nil, fmt.Errorf("acceptor: listener is nil")
	}
	if c == nil {
		return nil, fmt.Errorf("acceptor: codec is nil")
	}

	cfg = cfg.withDefaults()

	// 非阻塞池：容量用尽时 Submit 直接返回 ErrPoolOverload，而不是排队。
	pool, err := conc.NewPool(cfg.MaxClients, conc.WithNonBlocking(true))
	if err != nil {
		return nil, err
	}

	return &BaseAcceptor{
		ln:    ln,
		codec: c,
		cfg:   cfg,
		pool:  pool,
	}, nil
}

// NewTCPAcceptor 在给定地址上监听 TCP，并创建一个基础接入器。
//
// 参数：
//   - addr：监听地址，例如 "0.0.0.0:9999"；
//   - c   ：用于当前接入器所有连接的 Codec；
//   - cfg ：连接层配置。
func NewTCPAcceptor(addr string, c codec.Codec, cfg Config) (*BaseAcceptor, error) {
	if addr == "" {
		return nil, fmt.Errorf("acceptor: addr is empty")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewBaseAcceptor(ln, c, cfg)
}

// Serve 实现 Acceptor.Serve。
func (a *BaseAcceptor) Serve(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("acceptor: handler is nil")
	}
	if a.ln == nil {
		return fmt.Errorf("acceptor: listener is nil")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			// 若上层已取消，则将错误视为正常退出。
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// 监听器被 Close 关闭时结束接入循环。
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			// 若为超时错误，则忽略本次超时，继续接受新连接。
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}

			// 其他错误交由上层决定是否重试或重建接入器。
			return err
		}

		wg.Add(1)
		submitErr := a.pool.Submit(func() {
			defer wg.Done()
			handleConn(ctx, conn, a.codec, h)
		})
		if submitErr != nil {
			wg.Done()

			if errors.Is(submitErr, conc.ErrPoolOverload) {
				// 连接数达到上限：回写提示并关闭，不让新连接排队。
				metrics.RejectedConnections.WithLabelValues("tcp").Inc()
				rejectConn(conn, a.codec, a.cfg.FullNotice)
				continue
			}

			_ = conn.Close()
			h.OnError(nil, network.StageAccept, submitErr)
		}
	}
}

// Close 实现 Acceptor.Close。
func (a *BaseAcceptor) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.ln != nil {
			err = a.ln.Close()
		}
		if a.pool != nil {
			a.pool.Release()
		}
	})
	return err
}

// Addr 实现 Acceptor.Addr。
func (a *BaseAcceptor) Addr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// handleConn 处理单个连接的生命周期，TCP 与 WebSocket 接入器共用。
//
// 流程：
//  1. 调用 Handler.OnAccept 创建 Session 实例；
//  2. 调用 sess.OnConnected()；
//  3. 在当前协程中循环读取行，并按顺序回调 Handler.OnMessage；
//  4. 读取或解码失败后，调用 sess.OnDisconnected(cause) 与 Handler.OnSessionClosed。
func handleConn(parentCtx context.Context, conn net.Conn, c codec.Codec, h Handler) {
	// 为该会话创建独立的上下文，便于级联取消。
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	// 创建 Session。
	sess, err := h.OnAccept(ctx, conn, c)
	if err != nil {
		_ = conn.Close()
		h.OnError(nil, network.StageAccept, err)
		return
	}
	if sess == nil {
		_ = conn.Close()
		return
	}

	// 通知会话已建立。
	sess.OnConnected()

	// 在函数结束时负责通知断开和关闭。
	var cause error
	defer func() {
		sess.OnDisconnected(cause)
		h.OnSessionClosed(sess, cause)
		_ = sess.Close()
	}()

	// 读取与业务处理在当前协程中串行执行，保证同一 Session 上的 Handler 不会并发。
	r := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.Decode(r)
		if err != nil {
			// EOF/连接关闭视为正常断开。
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}

			// 其他错误交由 OnError 处理，并结束会话。
			h.OnError(sess, network.StageRecvLine, err)
			cause = err
			return
		}

		h.OnMessage(sess, line)
	}
}

// rejectConn 向被拒绝的连接回写提示行后立即关闭。回写为尽力而为。
func rejectConn(conn net.Conn, c codec.Codec, notice string) {
	if notice != "" {
		_ = conn.SetWriteDeadline(time.Now().Add(rejectNoticeTimeout))
		_ = c.Encode(conn, notice)
	}
	_ = conn.Close()
}
