package session

import "sync"

// outbox 为会话的发送队列。
//
// 设计说明：
//   - 队列无容量上限：push 永不阻塞，慢客户端不会拖慢投递方；
//   - 入队顺序即出队顺序，保证同一会话上的消息不乱序；
//   - close 之后 push 失败，但 pop 仍可取出剩余元素，便于优雅关闭时排空队列。
type outbox struct {
	mu     sync.Mutex
	queue  []string
	closed bool

	// wake 用于唤醒阻塞在 pop 上的发送协程，容量为 1 即可合并多次通知。
	wake chan struct{}
}

func newOutbox() *outbox {
	return &outbox{
		wake: make(chan struct{}, 1),
	}
}

// push 将一行消息追加到队尾。
// 队列已关闭时返回 false，消息被丢弃。
func (o *outbox) push(line string) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.queue = append(o.queue, line)
	o.mu.Unlock()

	o.notify()
	return true
}

// pop 取出队首的一行消息，队列为空时阻塞等待。
// 队列已关闭且排空后返回 false。
func (o *outbox) pop(abort <-chan struct{}) (string, bool) {
	for {
		o.mu.Lock()
		if len(o.queue) > 0 {
			line := o.queue[0]
			o.queue = o.queue[1:]
			o.mu.Unlock()
			return line, true
		}
		if o.closed {
			o.mu.Unlock()
			return "", false
		}
		o.mu.Unlock()

		select {
		case <-o.wake:
		case <-abort:
			return "", false
		}
	}
}

// close 关闭队列。已入队的消息仍可被 pop 取出。
// 多次调用是幂等的。
func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.notify()
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *outbox) notify() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}
