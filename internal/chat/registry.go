package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/lk2023060901/chat-garden-go/internal/network/session"
	"github.com/lk2023060901/chat-garden-go/pkg/metrics"
	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

// Registry 维护昵称到会话的映射，是“谁在线”的唯一权威来源。
//
// 特性：
//   - 使用读写锁保证并发安全，注册/改名/注销相对彼此线性化：
//     多个会话并发抢占同一昵称时，恰好一个成功，其余观察到昵称已占用；
//   - 尚未设置昵称的会话不在本映射中，因此对 Snapshot 与 Lookup 均不可见；
//   - Range 在遍历前复制一份快照，避免在持锁情况下执行用户回调。
type Registry struct {
	mu     sync.RWMutex
	byNick map[string]session.Session
}

// NewRegistry 创建一个空的 Registry。
func NewRegistry() *Registry {
	return &Registry{
		byNick: make(map[string]session.Session),
	}
}

// Register 将昵称与会话绑定。
// 昵称已被其他在线会话持有时返回 ErrNickTaken，映射保持不变。
func (r *Registry) Register(nick string, sess session.Session) error {
	return r.Rename("", nick, sess)
}

// Rename 原子地将会话从 oldNick 改绑到 newNick。
//
// 行为：
//   - oldNick 为空表示首次注册；
//   - newNick 已被其他会话持有时返回 ErrNickTaken，oldNick 的绑定保持不变；
//   - newNick 与 oldNick 相同且持有者就是 sess 时视为成功的空操作。
func (r *Registry) Rename(oldNick, newNick string, sess session.Session) error {
	if newNick == "" {
		return merr.WrapErrNickEmpty()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, exists := r.byNick[newNick]; exists && holder != sess {
		return merr.WrapErrNickTaken(newNick)
	}

	if oldNick != "" {
		delete(r.byNick, oldNick)
	}
	r.byNick[newNick] = sess

	metrics.RegisteredNicks.Set(float64(len(r.byNick)))
	return nil
}

// Unregister 移除昵称的绑定；昵称不存在时为幂等空操作。
func (r *Registry) Unregister(nick string) {
	if nick == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byNick, nick)
	metrics.RegisteredNicks.Set(float64(len(r.byNick)))
}

// Lookup 查找昵称对应的会话。
func (r *Registry) Lookup(nick string) (session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.byNick[nick]
	return sess, ok
}

// Snapshot 返回当前所有在线昵称的一致性快照，按字典序排序。
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	nicks := lo.Keys(r.byNick)
	r.mu.RUnlock()

	sort.Strings(nicks)
	return nicks
}

// Range 对快照中的每个绑定执行 fn，fn 返回 false 时提前结束。
//
// 快照语义：遍历开始后新注册的会话不会被访问到；
// 遍历期间注销的会话可能仍被访问到，调用方需自行容忍。
func (r *Registry) Range(fn func(nick string, sess session.Session) bool) {
	if fn == nil {
		return
	}

	type binding struct {
		nick string
		sess session.Session
	}

	r.mu.RLock()
	snapshot := make([]binding, 0, len(r.byNick))
	for nick, sess := range r.byNick {
		snapshot = append(snapshot, binding{nick: nick, sess: sess})
	}
	r.mu.RUnlock()

	for _, b := range snapshot {
		if !fn(b.nick, b.sess) {
			return
		}
	}
}

// Count 返回当前在线昵称数量。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNick)
}
