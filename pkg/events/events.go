// Package events 提供运行进度事件和观察者列表
//
// 控制器持有一个 Bus；宿主通过 Subscribe 注册处理函数，
// 返回的 Subscription 就是注销句柄，调用 Unsubscribe 即可解除注册。
package events

import (
	"sync"
	"time"
)

// Type 事件类型
type Type string

const (
	RunCreated     Type = "run_created"     // 新的一局已生成
	RunLoaded      Type = "run_loaded"      // 从存档恢复
	RunSaved       Type = "run_saved"       // 已保存
	NodeSelected   Type = "node_selected"   // 选择了节点并开始关卡
	LevelCompleted Type = "level_completed" // 关卡成功
	LevelFailed    Type = "level_failed"    // 关卡失败
	RunCompleted   Type = "run_completed"   // 通关
	RunFailed      Type = "run_failed"      // 失败结束
	RunAbandoned   Type = "run_abandoned"   // 放弃
	ItemPurchased  Type = "item_purchased"  // 商店购买
)

// Event 运行进度事件
type Event struct {
	Type      Type      `json:"type"`
	RunID     string    `json:"runId"`
	NodeID    string    `json:"nodeId,omitempty"`
	Tier      int       `json:"tier"`
	LevelType string    `json:"levelType,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Time      time.Time `json:"time"`
}

// Handler 事件处理函数
type Handler func(Event)

type entry struct {
	id      int
	handler Handler
}

// Bus 观察者列表
// 订阅和注销是并发安全的；事件按订阅顺序同步投递
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers []entry
}

// NewBus 创建空的事件总线
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe 注册处理函数
//
// 返回：
//   - *Subscription: 注销句柄
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers = append(b.handlers, entry{id: b.nextID, handler: h})
	return &Subscription{bus: b, id: b.nextID}
}

// Publish 向所有订阅者投递事件
// 处理函数在锁外调用，因此可以在处理函数中注销自身
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	snapshot := make([]entry, len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.Unlock()

	for _, e := range snapshot {
		e.handler(ev)
	}
}

// Len 返回当前订阅者数量
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.handlers {
		if e.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Subscription 订阅句柄
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// Unsubscribe 解除注册，可重复调用
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}
