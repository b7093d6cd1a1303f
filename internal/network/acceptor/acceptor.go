package acceptor

import (
	"context"
	"net"

	"github.com/gorilla/websocket"

	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/internal/network/session"
)

// Handler 由框架使用者实现，用于在服务器侧的各个阶段插入自定义逻辑。
//
// 说明：
//   - OnMessage 在单个会话的读协程中被串行调用，同一会话上的业务处理不会并发；
//   - 所有回调均应避免耗时操作阻塞网络收发。
type Handler interface {
	// OnAccept 在新连接建立后被调用，负责创建该连接对应的 Session。
	//
	// 返回：
	//   - (sess, nil)：接入层接管该 Session 的生命周期；
	//   - (nil, err) ：拒绝该连接，接入层负责关闭底层连接。
	OnAccept(ctx context.Context, conn net.Conn, c codec.Codec) (session.Session, error)

	// OnMessage 在成功读取一行消息后被调用。
	// line 不包含行结束符。
	OnMessage(sess session.Session, line string)

	// OnSessionClosed 在会话生命周期结束时被调用。
	//
	// 参数 cause 为关闭原因，正常关闭时为 nil。
	OnSessionClosed(sess session.Session, cause error)

	// OnError 在会话处理的各个阶段发生错误时被调用。
	//
	// stage 用于标识错误发生的位置，便于监控与排查。
	OnError(sess session.Session, stage network.Stage, err error)
}

// Acceptor 抽象了服务器侧的连接接入层。
//
// 职责：
//   - 监听端口、接受连接，并限制并发连接数；
//   - 为每个连接创建 Session，并调用 Handler 的各阶段回调。
type Acceptor interface {
	// Serve 启动接入循环，阻塞直至 ctx 取消或出现致命错误。
	Serve(ctx context.Context, h Handler) error

	// Close 关闭监听器以及内部资源。
	Close() error

	// Addr 返回实际监听地址。
	Addr() net.Addr
}

// Config 描述 Acceptor 在连接层面的配置。
type Config struct {
	// MaxClients 为该接入器允许的最大并发连接数。
	// 超出后新连接将收到 FullNotice 并被立即关闭。
	MaxClients int

	// FullNotice 为连接数达到上限时回写给被拒绝客户端的提示行。
	FullNotice string

	// Path 为 WebSocket 的升级路径（如 "/ws"），仅 WSAcceptor 使用。
	Path string

	// Upgrader 允许调用方自定义 gorilla/websocket 的升级行为。
	// 若为 nil，则使用内部默认的 Upgrader。
	Upgrader *websocket.Upgrader
}

// 默认配置。
func defaultConfig() Config {
	return Config{
		MaxClients: 100,
		FullNotice: "Server is full. Try again later.",
		Path:       "/ws",
	}
}

func (c *Config) withDefaults() Config {
	cfg := defaultConfig()
	if c == nil {
		return cfg
	}
	if c.MaxClients > 0 {
		cfg.MaxClients = c.MaxClients
	}
	if c.FullNotice != "" {
		cfg.FullNotice = c.FullNotice
	}
	if c.Path != "" {
		cfg.Path = c.Path
	}
	if c.Upgrader != nil {
		cfg.Upgrader = c.Upgrader
	}
	return cfg
}
