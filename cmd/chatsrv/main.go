package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/chat-garden-go/application"
	"github.com/lk2023060901/chat-garden-go/internal/chat"
	"github.com/lk2023060901/chat-garden-go/internal/network/acceptor"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/pkg/log"
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
	"github.com/lk2023060901/chat-garden-go/pkg/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("chatsrv %s\n", version.String())
			return
		}
	}

	app := application.New()
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatsrv: %v\n", err)
		os.Exit(1)
	}

	cfg, err := chat.LoadConfig(app.Config())
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsrv: load config: %v\n", err)
		os.Exit(1)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	logger := app.Logger("chatsrv")
	logger.Info("starting chat server",
		zap.String("version", version.String()),
		zap.String("listen", cfg.Listen),
		zap.Int("maxClients", cfg.MaxClients))

	if err := run(cfg, logger); err != nil {
		logger.Error("chat server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	logger.Info("chat server stopped")
	_ = log.Sync()
}

func run(cfg chat.Config, logger *log.MLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := chat.NewServer()
	lineCodec := &codec.LineCodec{}

	accCfg := acceptor.Config{
		MaxClients: cfg.MaxClients,
		FullNotice: chat.FullNotice(),
		Path:       cfg.WS.Path,
	}

	tcpAcc, err := acceptor.NewTCPAcceptor(cfg.Listen, lineCodec, accCfg)
	if err != nil {
		return errors.Wrap(err, "listen tcp")
	}
	logger.Info("tcp acceptor listening", zap.Stringer("addr", tcpAcc.Addr()))

	var wsAcc *acceptor.WSAcceptor
	if cfg.WS.Listen != "" {
		wsAcc, err = acceptor.NewWSAcceptor(cfg.WS.Listen, lineCodec, accCfg)
		if err != nil {
			_ = tcpAcc.Close()
			return errors.Wrap(err, "listen websocket")
		}
		logger.Info("websocket acceptor listening",
			zap.Stringer("addr", wsAcc.Addr()),
			zap.String("path", cfg.WS.Path))
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		logger.Info("metrics listener enabled", zap.String("addr", cfg.Metrics.Listen))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tcpAcc.Serve(gctx, srv)
	})
	if wsAcc != nil {
		g.Go(func() error {
			return wsAcc.Serve(gctx, srv)
		})
	}
	if metricsSrv != nil {
		g.Go(func() error {
			if serr := metricsSrv.ListenAndServe(); !errors.Is(serr, http.ErrServerClosed) {
				return serr
			}
			return nil
		})
	}

	// 统一的关停路径：信号或任一组件出错都会触发。
	g.Go(func() error {
		<-gctx.Done()

		_ = tcpAcc.Close()
		if wsAcc != nil {
			_ = wsAcc.Close()
		}
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		srv.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
