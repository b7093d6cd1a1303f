package session

import (
	"context"
	"net"

	"go.uber.org/atomic"
)

// Session 抽象了一条网络会话/连接。
//
// 约定：
//   - 每个 Session 对应一条底层连接（例如一个 TCP 连接或 WebSocket 会话）。
//   - Session ID 使用 64 位无符号整型，在框架内应保持全局唯一。
//   - 框架层只关心“行”的收发，不关心昵称、房间等具体业务概念。
type Session interface {
	// ID 返回该会话在框架内的全局唯一标识。
	//
	// 说明：
	//   - 一般由框架在接入连接时分配（例如自增 uint64）。
	//   - 业务层可以通过该 ID 建立 “Session <-> 用户” 的映射关系。
	ID() uint64

	// Context 返回与该会话关联的上下文。
	//
	// 说明：
	//   - 可用于级联取消：当会话关闭时，应触发 Context.Done()。
	Context() context.Context

	// RemoteAddr 返回远端地址（客户端地址）。
	//
	// 说明：
	//   - 对于 TCP 连接，通常为 "ip:port"。
	//   - 主要用于日志记录、审计或限流策略。
	RemoteAddr() net.Addr

	// LocalAddr 返回本端地址（服务器监听地址）。
	//
	// 说明：
	//   - 在多监听端口或多网卡场景下，可用于区分不同入口。
	LocalAddr() net.Addr

	// Send 将一行消息投递到该会话的发送队列。
	//
	// 行为：
	//   - 仅入队，不等待实际写出；真正的写出由每个会话专属的发送协程完成，
	//     以保证任意两条消息在连接上的先后顺序与入队顺序一致；
	//   - 队列无容量上限，Send 永不因为慢客户端而阻塞调用方；
	//   - 会话已关闭时返回错误，该行消息被丢弃。
	Send(line string) error

	// Running 报告该会话当前是否仍可收发消息。
	Running() bool

	// Stop 优雅关闭该会话。
	//
	// 说明：
	//   - 停止接收新消息，但已入队的消息仍会全部写出，之后才关闭底层连接；
	//   - 典型场景：向客户端发送告别语后断开，保证对端能收到最后几行；
	//   - 多次调用应是幂等的。
	Stop() error

	// Close 立即关闭该会话。
	//
	// 说明：
	//   - 直接关闭底层连接并触发 Context 的取消，发送队列中未写出的消息被丢弃；
	//   - 多次调用应是幂等的：对已关闭的会话再次调用 Close 不应引发 panic。
	Close() error

	// OnConnected 在会话（底层连接）建立成功后被调用一次。
	//
	// 说明：
	//   - 由接入层在完成 OnAccept 并创建好 Session 后调用；
	//   - 可在实现中执行：打日志、注册到业务映射表等。
	OnConnected()

	// OnDisconnected 在会话检测到底层连接断开时被调用。
	//
	// 参数：
	//   - err 为断开原因；正常关闭时可为 nil。
	OnDisconnected(err error)
}

// IDGenerator 抽象了会话 ID 的分配策略。
type IDGenerator interface {
	// Next 返回下一个全局唯一的会话 ID。
	Next() uint64
}

// Uint64IDGenerator 基于原子自增实现 IDGenerator，分配从 1 开始的连续 ID。
type Uint64IDGenerator struct {
	next atomic.Uint64
}

var _ IDGenerator = (*Uint64IDGenerator)(nil)

// Next 实现 IDGenerator.Next。
func (g *Uint64IDGenerator) Next() uint64 {
	return g.next.Inc()
}
