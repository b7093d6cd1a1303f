package session

import (
	"bufio"
	"context"
	"net"
	"sync"

	"go.uber.org/atomic"

	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// BaseSession 提供了 Session 接口的基础实现。
//
// 设计目标：
//   - 封装最小但完整的会话能力：ID、Context、地址信息、发送与关闭；
//   - 每个会话持有一个无上界的发送队列与一个专职发送协程，
//     投递方仅入队即返回，写出顺序与入队顺序一致；
//   - 默认实现 OnConnected/OnDisconnected 为空，方便业务在自定义 Session 中嵌入并覆写。
type BaseSession struct {
	id uint64

	ctx    context.Context
	cancel context.CancelFunc

	conn  net.Conn
	codec codec.Codec

	remoteAddr net.Addr
	localAddr  net.Addr

	// outbox 为待发送消息的行级队列。
	//   - Send 仅负责将行投递到该队列；
	//   - 独立的发送协程从队列中取出行，编码后写入底层连接。
	outbox *outbox

	// running 标记该会话是否仍可收发，Stop/Close 或写出错误都会将其置为 false。
	running atomic.Bool

	// sendDone 在发送协程退出时关闭，可用于等待队列排空完成。
	sendDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// 确保 BaseSession 实现了 Session 接口。
var _ Session = (*BaseSession)(nil)

// NewBaseSession 创建一个基于 net.Conn 的基础 Session 实例。
//
// 参数：
//   - parent：会话所属的上层上下文（例如 Acceptor 的 Serve ctx）；若为 nil，则使用 context.Background()；
//   - id    ：会话 ID，应在框架或调用侧保证全局唯一；
//   - conn  ：底层网络连接；
//   - c     ：用于该连接的 Codec。
func NewBaseSession(parent context.Context, id uint64, conn net.Conn, c codec.Codec) *BaseSession {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &BaseSession{
		id:         id,
		ctx:        ctx,
		cancel:     cancel,
		conn:       conn,
		codec:      c,
		remoteAddr: conn.RemoteAddr(),
		localAddr:  conn.LocalAddr(),
		outbox:     newOutbox(),
		sendDone:   make(chan struct{}),
	}
	s.running.Store(true)

	go s.sendLoop()

	return s
}

// ID 实现 Session.ID。
func (s *BaseSession) ID() uint64 {
	return s.id
}

// Context 实现 Session.Context。
func (s *BaseSession) Context() context.Context {
	return s.ctx
}

// RemoteAddr 实现 Session.RemoteAddr。
func (s *BaseSession) RemoteAddr() net.Addr {
	return s.remoteAddr
}

// LocalAddr 实现 Session.LocalAddr。
func (s *BaseSession) LocalAddr() net.Addr {
	return s.localAddr
}

// Send 实现 Session.Send。
//
// 内部仅将行投递到会话级发送队列，由独立的发送协程按顺序编码并写入底层连接。
// 这样可以避免多 goroutine 并发写 conn 导致的行交叉，同时保证投递方永不阻塞。
func (s *BaseSession) Send(line string) error {
	if !s.running.Load() {
		return merr.WrapErrSessionClosed(s.id)
	}
	if !s.outbox.push(line) {
		return merr.WrapErrSessionClosed(s.id)
	}
	return nil
}

// Running 实现 Session.Running。
func (s *BaseSession) Running() bool {
	return s.running.Load()
}

// Stop 实现 Session.Stop。
//
// 行为：
//   - 拒绝后续 Send，但发送协程会继续把队列中已有的行全部写出；
//   - 队列排空后由发送协程调用 Close 关闭底层连接。
func (s *BaseSession) Stop() error {
	s.running.Store(false)
	s.outbox.close()
	return nil
}

// Close 实现 Session.Close。
func (s *BaseSession) Close() error {
	s.closeOnce.Do(func() {
		s.running.Store(false)
		s.outbox.close()

		// 先取消上下文，再关闭连接。
		if s.cancel != nil {
			s.cancel()
		}
		if s.conn != nil {
			s.closeErr = s.conn.Close()
		}
	})
	return s.closeErr
}

// OnConnected 默认实现为空，方便在自定义 Session 中覆写。
func (s *BaseSession) OnConnected() {}

// OnDisconnected 默认实现为空，方便在自定义 Session 中覆写。
func (s *BaseSession) OnDisconnected(error) {}

// Recv 从底层连接读取下一行。
//
// 说明：
//   - 应仅由接入层的读循环在单一协程中调用；
//   - r 为包装了底层连接的缓冲读取器，由调用方创建并在会话生命周期内复用。
func (s *BaseSession) Recv(r *bufio.Reader) (string, error) {
	return s.codec.Decode(r)
}

// sendLoop 为每个会话启动的专职发送协程。
//
// 行为：
//   - 从 outbox 中按顺序取出待发送的行，编码后写入底层连接；
//   - 队列关闭并排空后正常退出，并关闭底层连接（优雅关闭路径）；
//   - 写出失败视为会话异常，立即转入 Close。
func (s *BaseSession) sendLoop() {
	defer close(s.sendDone)
	defer func() {
		_ = s.Close()
	}()

	for {
		line, ok := s.outbox.pop(s.ctx.Done())
		if !ok {
			return
		}

		// 发送路径仅在此协程中执行，避免多协程并发写 conn。
		if err := s.codec.Encode(s.conn, line); err != nil {
			s.running.Store(false)
			return
		}
	}
}
