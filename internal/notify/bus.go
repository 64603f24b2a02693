package notify

import "sync"

// subscriberBuffer 每个订阅者的缓冲大小
const subscriberBuffer = 16

// Bus 类型安全的发布/订阅总线
// 投递是非阻塞的：订阅者缓冲已满时丢弃该事件
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// NewBus 创建总线
func NewBus[T any]() *Bus[T] { return &Bus[T]{} }

// Publish 广播事件给所有订阅者
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// 跳过慢消费者
		}
	}
}

// Subscribe 订阅事件
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe 取消订阅并关闭其 channel
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// SubscriberCount 当前订阅者数量
func (b *Bus[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close 关闭总线和所有订阅者 channel
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
