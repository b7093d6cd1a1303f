package acceptor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
	"github.com/lk2023060901/chat-garden-go/pkg/util/conc"
)

// WSAcceptor 是 Acceptor 接口的 WebSocket 实现。
//
// 设计目标：
//   - 在指定地址上监听 HTTP，在 cfg.Path 上处理 WebSocket 升级；
//   - 升级成功后将连接适配为 net.Conn（见 wsConn），复用 TCP 接入器的
//     连接处理流程，业务层无需区分两种入口；
//   - 连接数限制、池满拒绝策略与 BaseAcceptor 保持一致。
type WSAcceptor struct {
	ln    net.Listener
	codec codec.Codec
	cfg   Config
	pool  *conc.Pool

	upgrader *websocket.Upgrader

	closeOnce sync.Once
}

// 确保 WSAcceptor 实现了 Acceptor 接口。
var _ Acceptor = (*WSAcceptor)(nil)

// NewWSAcceptor 在给定地址上监听 HTTP，并创建一个 WebSocket 接入器。
//
// 参数：
//   - addr：监听地址，例如 "0.0.0.0:9998"；
//   - c   ：用于当前接入器所有连接的 Codec；
//   - cfg ：连接层配置，Path 为升级路径。
func NewWSAcceptor(addr string, c codec.Codec, cfg Config) (*WSAcceptor, error) {
	if addr == "" {
		return nil, fmt.Errorf("acceptor: addr is empty")
	}
	if c == nil {
		return nil, fmt.Errorf("acceptor: codec is nil")
	}

	cfg = cfg.withDefaults()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	pool, perr := conc.NewPool(cfg.MaxClients, conc.WithNonBlocking(true))
	if perr != nil {
		_ = ln.Close()
		return nil, perr
	}

	up := cfg.Upgrader
	if up == nil {
		up = &websocket.Upgrader{
			// 行协议本身不依赖 Origin 校验，默认放行，部署时可通过 cfg.Upgrader 收紧。
			CheckOrigin: func(*http.Request) bool { return true },
		}
	}

	return &WSAcceptor{
		ln:       ln,
		codec:    c,
		cfg:      cfg,
		pool:     pool,
		upgrader: up,
	}, nil
}

// Serve 实现 Acceptor.Serve。
func (a *WSAcceptor) Serve(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("acceptor: handler is nil")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	mux := http.NewServeMux()
	mux.HandleFunc(a.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		ws, err := a.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade 失败时 gorilla 已向客户端写出错误响应。
			h.OnError(nil, network.StageAccept, err)
			return
		}

		conn := newWSConn(ws)

		wg.Add(1)
		submitErr := a.pool.Submit(func() {
			defer wg.Done()
			handleConn(ctx, conn, a.codec, h)
		})
		if submitErr != nil {
			wg.Done()

			if errors.Is(submitErr, conc.ErrPoolOverload) {
				metrics.RejectedConnections.WithLabelValues("ws").Inc()
				rejectConn(conn, a.codec, a.cfg.FullNotice)
				return
			}

			_ = conn.Close()
			h.OnError(nil, network.StageAccept, submitErr)
		}
	})

	srv := &http.Server{
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// ctx 取消时关闭监听器，使 Serve 退出。
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = a.Close()
		case <-stop:
		}
	}()

	err := srv.Serve(a.ln)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Close 实现 Acceptor.Close。
func (a *WSAcceptor) Close() error {
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
func (a *WSAcceptor) Addr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}
