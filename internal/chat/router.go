package chat

import (
	"go.uber.org/zap"

	"github.com/lk2023060901/chat-garden-go/internal/network/session"
	"github.com/lk2023060901/chat-garden-go/pkg/log"
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// Router 负责将消息行投递到目标会话的发送队列。
//
// 说明：
//   - 投递只做入队，永不等待实际写出，慢客户端不会拖慢发送方；
//   - 目标集合来自 Registry：广播基于调用时刻的快照，单播基于查找时刻的绑定；
//   - 入队失败（目标会话恰好关闭）按调试日志记录后忽略，不回传给发送方。
type Router struct {
	registry *Registry
	logger   *log.MLogger
}

// NewRouter 创建一个基于给定 Registry 的 Router。
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		logger:   log.With(log.FieldComponent("router")),
	}
}

// BroadcastAll 将 line 投递给快照时刻 Registry 中的每个会话。
//
// 快照语义：广播开始后加入的会话不会收到本条消息；
// 广播期间离开的会话可能收到也可能收不到，两种结果都可接受。
func (r *Router) BroadcastAll(line string) {
	r.registry.Range(func(nick string, sess session.Session) bool {
		if err := sess.Send(line); err != nil {
			r.logger.Debug("drop broadcast line for closed session",
				log.FieldNick(nick),
				zap.Error(err))
			return true
		}
		metrics.RoutedMessages.WithLabelValues(metrics.MessageKindBroadcast).Inc()
		return true
	})
}

// SendTo 将 line 投递给昵称为 nick 的会话。
// 昵称不在线时返回 ErrNickNotFound，由调度器回复发送方。
func (r *Router) SendTo(nick, line string) error {
	sess, ok := r.registry.Lookup(nick)
	if !ok {
		return merr.WrapErrNickNotFound(nick)
	}

	if err := sess.Send(line); err != nil {
		// 目标在查找与入队之间关闭：对发送方呈现为“目标不在线”。
		return merr.WrapErrNickNotFound(nick)
	}

	metrics.RoutedMessages.WithLabelValues(metrics.MessageKindPrivate).Inc()
	return nil
}

// Notify 将一组提示行依次投递给单个会话，仅该会话可见。
// 会话已关闭时静默丢弃。
func (r *Router) Notify(sess session.Session, lines ...string) {
	for _, line := range lines {
		if err := sess.Send(line); err != nil {
			r.logger.Debug("drop notice for closed session",
				log.FieldSession(sess.ID()),
				zap.Error(err))
			return
		}
		metrics.RoutedMessages.WithLabelValues(metrics.MessageKindNotice).Inc()
	}
}
