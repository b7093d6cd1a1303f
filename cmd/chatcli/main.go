package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lk2023060901/chat-garden-go/application"
	network "github.com/lk2023060901/chat-garden-go/internal/network"
	"github.com/lk2023060901/chat-garden-go/internal/network/codec"
	"github.com/lk2023060901/chat-garden-go/internal/network/connector"
	"github.com/lk2023060901/chat-garden-go/pkg/util/conc"
	"github.com/lk2023060901/chat-garden-go/pkg/version"
)

const defaultServerAddr = "127.0.0.1:9999"

// cliHandler 实现 connector.Handler，将连接事件打印到标准错误。
// 服务器下行的消息行通过 Recv 通道在主流程中消费。
type cliHandler struct{}

func (h *cliHandler) OnConnected(conn connector.ClientConn) {
	fmt.Fprintf(os.Stderr, "connected to %v\n", conn.RemoteAddr())
}

func (h *cliHandler) OnLine(connector.ClientConn, string) {}

func (h *cliHandler) OnClosed(conn connector.ClientConn, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "connection closed")
}

func (h *cliHandler) OnError(_ connector.ClientConn, stage network.Stage, err error) {
	fmt.Fprintf(os.Stderr, "error at %s: %v\n", stage, err)
}

// resolveAddr 解析服务器地址：--addr 参数优先，其次 CHAT_SERVER_ADDR 环境变量。
func resolveAddr() string {
	addr := defaultServerAddr
	if env := os.Getenv("CHAT_SERVER_ADDR"); env != "" {
		addr = env
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--addr" && i+1 < len(args) {
			addr = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--addr=") {
			if val := strings.TrimPrefix(arg, "--addr="); val != "" {
				addr = val
			}
		}
	}
	return addr
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("chatcli %s\n", version.String())
			return
		}
	}

	app := application.New()
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := resolveAddr()

	// 连接的生命周期独立于退出信号：收到 SIGINT 后仍要通过
	// 这条连接发送 /quit 并等待告别语，不能随信号一起取消。
	conn, err := connector.NewTCPConnector(connector.Config{
		Codec: &codec.LineCodec{},
	}).Dial(context.Background(), addr, &cliHandler{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	// 打印协程：把服务器下行的每一行原样输出到标准输出。
	done := make(chan struct{})
	_ = conc.Go(func() {
		defer close(done)
		for line := range conn.Recv() {
			fmt.Println(line)
		}
	})

	// 输入协程：把标准输入的每一行原样转发给服务器。
	input := make(chan string)
	_ = conc.Go(func() {
		defer close(input)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			input <- sc.Text()
		}
	})

	runLoop(ctx, conn, input, done)
}

// runLoop 在退出信号、服务器断开与用户输入之间多路复用，
// 直到连接结束或用户主动退出。
func runLoop(ctx context.Context, conn connector.ClientConn, input <-chan string, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			// 收到退出信号：尽力发送 /quit 后等待服务器关闭连接。
			_ = conn.Send("/quit")
			waitServerClose(done)
			return

		case <-done:
			// 服务器关闭了连接。
			return

		case line, ok := <-input:
			if !ok {
				// 标准输入结束（EOF）：按 /quit 处理。
				_ = conn.Send("/quit")
				waitServerClose(done)
				return
			}
			if err := conn.Send(line); err != nil {
				return
			}
			if strings.EqualFold(strings.TrimSpace(line), "/quit") {
				waitServerClose(done)
				return
			}
		}
	}
}

// waitServerClose 等待服务器侧关闭连接，避免丢失告别语；超时则直接退出。
func waitServerClose(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}
}
