package chat

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"

	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/acceptor"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/internal/network/session"
	"github.com/lk2023060901/chat-garden-go/pkg/log"
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
)

// Server 是聊天服务的业务核心，实现 acceptor.Handler。
//
// 职责：
//   - 为每条新连接创建 Session 与 Dispatcher，并下发欢迎语；
//   - 将每行入站输入交给对应连接的 Dispatcher 串行处理；
//   - 在连接关闭时驱动断开清理（注销昵称、离开广播）。
//
// 多个接入器（TCP 与 WebSocket）可以共享同一个 Server 实例，
// 所有入口的会话共用一份 Registry，彼此可见、可互发消息。
type Server struct {
	registry *Registry
	router   *Router
	logger   *log.MLogger

	ids session.Uint64IDGenerator

	mu          sync.Mutex
	dispatchers map[uint64]*Dispatcher
}

// 确保 Server 实现了 acceptor.Handler 接口。
var _ acceptor.Handler = (*Server)(nil)

// NewServer 创建一个空的聊天服务器。
func NewServer() *Server {
	registry := NewRegistry()
	return &Server{
		registry:    registry,
		router:      NewRouter(registry),
		logger:      log.With(log.FieldComponent("server")),
		dispatchers: make(map[uint64]*Dispatcher),
	}
}

// Registry 返回服务器持有的昵称注册表。
func (s *Server) Registry() *Registry {
	return s.registry
}

// Router 返回服务器持有的消息路由器。
func (s *Server) Router() *Router {
	return s.router
}

// OnAccept 实现 acceptor.Handler.OnAccept。
func (s *Server) OnAccept(ctx context.Context, conn net.Conn, c codec.Codec) (session.Session, error) {
	sess := session.NewBaseSession(ctx, s.ids.Next(), conn, c)
	d := NewDispatcher(sess, s.registry, s.router)

	s.mu.Lock()
	s.dispatchers[sess.ID()] = d
	s.mu.Unlock()

	metrics.ConnectedSessions.Inc()
	s.logger.Info("session connected",
		log.FieldSession(sess.ID()),
		zap.Stringer("remote", sess.RemoteAddr()))

	// 欢迎语在读取首行输入之前入队。
	d.Greet()

	return sess, nil
}

// OnMessage 实现 acceptor.Handler.OnMessage。
func (s *Server) OnMessage(sess session.Session, line string) {
	d := s.dispatcher(sess.ID())
	if d == nil {
		return
	}
	d.Dispatch(line)
}

// OnSessionClosed 实现 acceptor.Handler.OnSessionClosed。
func (s *Server) OnSessionClosed(sess session.Session, cause error) {
	s.mu.Lock()
	d, ok := s.dispatchers[sess.ID()]
	delete(s.dispatchers, sess.ID())
	s.mu.Unlock()

	if ok {
		d.Disconnect(cause)
		metrics.ConnectedSessions.Dec()
	}
}

func (s *Server) dispatcher(id uint64) *Dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchers[id]
}

// OnError 实现 acceptor.Handler.OnError。
func (s *Server) OnError(sess session.Session, stage network.Stage, err error) {
	fields := []zap.Field{
		zap.String("stage", string(stage)),
		zap.Error(err),
	}
	if sess != nil {
		fields = append(fields, log.FieldSession(sess.ID()))
	}
	s.logger.Warn("network error", fields...)
}

// Close 断开当前所有连接并清理内部状态。
func (s *Server) Close() {
	s.mu.Lock()
	dispatchers := make([]*Dispatcher, 0, len(s.dispatchers))
	for _, d := range s.dispatchers {
		dispatchers = append(dispatchers, d)
	}
	s.dispatchers = make(map[uint64]*Dispatcher)
	s.mu.Unlock()

	for _, d := range dispatchers {
		d.Disconnect(nil)
		metrics.ConnectedSessions.Dec()
	}
}

// FullNotice 返回连接数达到上限时回写给客户端的提示行，
// 供接入器配置使用。
func FullNotice() string {
	return noticeServerFull
}
