// Package sockpub 通过 socket.io 把运行进度事件推送给网页看板
package sockpub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/gonewx/astrorun/pkg/events"
)

// connectTimeout 等待 connect / connect_error 事件的最长时间
const connectTimeout = 15 * time.Second

// Publisher socket.io 事件发布器
type Publisher struct {
	event string
	emit  func(event string, payload any)
	close func()
}

// connectReporter 只保留第一次连接结果
// Dial 返回后客户端重连触发的 connect / connect_error 不会阻塞库内的 goroutine
func connectReporter(ch chan error) func(error) {
	return func(err error) {
		select {
		case ch <- err:
		default:
		}
	}
}

// Dial 连接 socket.io 服务并返回发布器
//
// 参数：
//   - rawURL: 服务地址，如 "http://localhost:3000/socket.io/"，路径部分作为 socket.io path
//   - namespace: 命名空间，为空时使用 "/"
//   - event: 发送事件名，如 "run_event"
//
// 返回：
//   - *Publisher: 已连接的发布器
//   - error: 地址非法、连接失败或超时返回错误
func Dial(rawURL, namespace, event string) (*Publisher, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse socket.io URL: %w", err)
	}
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsed.Path != "" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	report := connectReporter(connected)
	io.Once(types.EventName("connect"), func(...any) {
		report(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(err)
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}

	log.Printf("[SocketPublisher] Connected to %s%s (sid %s)", baseURL, namespace, io.Id())
	return &Publisher{
		event: event,
		emit:  func(ev string, payload any) { io.Emit(ev, payload) },
		close: func() { io.Disconnect() },
	}, nil
}

// Attach 订阅事件总线，返回注销句柄
func (p *Publisher) Attach(bus *events.Bus) *events.Subscription {
	return bus.Subscribe(p.Handle)
}

// Handle 把事件编码为 JSON 对象后发送
// 看板端收到的是普通对象，字段名与 MQTT 负载一致
func (p *Publisher) Handle(ev events.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[SocketPublisher] Failed to marshal event %s: %v", ev.Type, err)
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("[SocketPublisher] Failed to convert event %s: %v", ev.Type, err)
		return
	}
	p.emit(p.event, payload)
}

// Close 断开连接
func (p *Publisher) Close() error {
	if p.close != nil {
		p.close()
		p.close = nil
	}
	return nil
}
