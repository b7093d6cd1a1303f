package chat

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/chat-garden-go/internal/network/session"
	"github.com/lk2023060901/chat-garden-go/pkg/log"
	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// dispatchState 为单条连接的命令状态机状态。
type dispatchState int

const (
	// stateUnnamed 表示连接已建立但尚未设置昵称。
	stateUnnamed dispatchState = iota
	// stateNamed 表示连接已持有昵称，可以收发聊天消息。
	stateNamed
	// stateDisconnected 为终态。
	stateDisconnected
)

// Dispatcher 解释单条连接上的每一行输入，并驱动 Registry/Router 执行相应操作。
//
// 状态机：Unnamed -> Named -> Disconnected（终态）。
//
// 并发约定：
//   - Dispatch 由接入层在该连接的读协程中串行调用；
//   - Disconnect 可能与读协程并发（例如服务器主动关停），
//     因此 state/nick 由 mu 保护，终态检查保证注销昵称与
//     离开广播恰好执行一次。
type Dispatcher struct {
	sess     session.Session
	registry *Registry
	router   *Router
	logger   *log.MLogger

	mu    sync.Mutex
	state dispatchState
	nick  string
}

// NewDispatcher 为一条新连接创建 Dispatcher，初始状态为 Unnamed。
func NewDispatcher(sess session.Session, registry *Registry, router *Router) *Dispatcher {
	return &Dispatcher{
		sess:     sess,
		registry: registry,
		router:   router,
		logger: log.With(
			log.FieldComponent("dispatcher"),
			log.FieldSession(sess.ID()),
		),
	}
}

// Greet 在连接建立后下发欢迎语，应在首行输入之前调用一次。
func (d *Dispatcher) Greet() {
	d.router.Notify(d.sess, noticeWelcome, noticeWelcomeUsage)
}

// Nick 返回当前连接持有的昵称，尚未设置时为空串。
func (d *Dispatcher) Nick() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nick
}

// Dispatch 处理一行入站输入。
func (d *Dispatcher) Dispatch(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateDisconnected {
		return
	}

	cmd := ParseCommand(line)
	switch cmd.Kind {
	case CommandEmpty:
		// 空行：无操作，状态不变。

	case CommandSetNick:
		d.handleSetNick(cmd.Nick)

	case CommandList:
		d.handleList()

	case CommandPM:
		d.handlePM(cmd.Nick, cmd.Body)

	case CommandHelp:
		d.router.Notify(d.sess, helpNotice...)

	case CommandQuit:
		// 告别语先入队，由发送队列排空机制尽力送达。
		d.router.Notify(d.sess, noticeFarewell)
		d.disconnectLocked(nil)

	case CommandChat:
		d.handleChat(cmd.Body)
	}
}

// Disconnect 执行断开清理：注销昵称、广播离开通知、停止发送队列。
//
// 该路径对每条连接恰好执行一次，即使显式 /quit 与传输层错误同时触发。
// cause 为断开原因，正常断开时为 nil。
func (d *Dispatcher) Disconnect(cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnectLocked(cause)
}

func (d *Dispatcher) disconnectLocked(cause error) {
	if d.state == stateDisconnected {
		return
	}
	d.state = stateDisconnected

	if d.nick != "" {
		d.registry.Unregister(d.nick)
		d.router.BroadcastAll(noticeLeft(d.nick))
	}

	if cause != nil {
		d.logger.Info("session disconnected",
			log.FieldNick(d.nick),
			zap.Error(cause))
	} else {
		d.logger.Debug("session disconnected", log.FieldNick(d.nick))
	}

	// 优雅停止：已入队的行（含告别语）仍会写出，之后关闭连接。
	_ = d.sess.Stop()
}

func (d *Dispatcher) handleSetNick(name string) {
	if name == "" {
		d.router.Notify(d.sess, noticeNickUsage)
		return
	}

	prev := d.nick
	if err := d.registry.Rename(prev, name, d.sess); err != nil {
		if errors.Is(err, merr.ErrNickTaken) {
			d.router.Notify(d.sess, noticeNickTaken)
			return
		}
		d.logger.Warn("rename failed", log.FieldNick(name), zap.Error(err))
		d.router.Notify(d.sess, noticeNickUsage)
		return
	}

	d.nick = name
	d.state = stateNamed
	d.router.Notify(d.sess, noticeNickSet(name))

	switch {
	case prev == "":
		d.router.BroadcastAll(noticeJoined(name))
	case prev != name:
		d.router.BroadcastAll(noticeRenamed(prev, name))
	}
}

func (d *Dispatcher) handleList() {
	nicks := d.registry.Snapshot()

	lines := make([]string, 0, len(nicks)+2)
	lines = append(lines, noticeListHeader)
	for _, nick := range nicks {
		lines = append(lines, noticeListEntry(nick))
	}
	lines = append(lines, noticeListEnd)

	d.router.Notify(d.sess, lines...)
}

func (d *Dispatcher) handlePM(target, body string) {
	// 检查顺序与参考实现一致：参数不足 -> 未设置昵称 -> 目标查找。
	if target == "" || body == "" {
		d.router.Notify(d.sess, noticePMUsage)
		return
	}
	if d.state != stateNamed {
		d.router.Notify(d.sess, noticeSetNickFirst)
		return
	}

	if err := d.router.SendTo(target, formatPrivate(d.nick, body)); err != nil {
		if errors.Is(err, merr.ErrNickNotFound) {
			d.router.Notify(d.sess, noticeUserNotFound)
			return
		}
		d.logger.Warn("private message failed", log.FieldNick(target), zap.Error(err))
	}
}

func (d *Dispatcher) handleChat(body string) {
	if d.state != stateNamed {
		// 未设置昵称的输入不会被广播。
		d.router.Notify(d.sess, noticeSetNickFirst)
		return
	}
	d.router.BroadcastAll(formatChat(d.nick, body))
}
