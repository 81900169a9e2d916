// Package mqttpub 将运行进度事件发布到 MQTT broker
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gonewx/astrorun/pkg/events"
)

const (
	// publishTimeout 单条消息等待 broker 确认的最长时间
	publishTimeout = 5 * time.Second
	// queueSize 待发送消息的缓冲长度，队列满时丢弃新事件
	queueSize = 64
)

// publisher 发布所需的最小客户端接口（paho.Client 满足该接口）
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type message struct {
	topic   string
	payload []byte
}

// Publisher 事件发布器
//
// Handle 只把消息放进队列，由单个后台 goroutine 发布并等待确认，
// broker 断线重连期间也不会阻塞事件总线。
type Publisher struct {
	client publisher
	topic  string

	queue    chan message
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.Mutex
	errorLogged bool
}

func newPublisher(client publisher, topic string) *Publisher {
	p := &Publisher{
		client: client,
		topic:  topic,
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// New 创建连接到指定 broker 的发布器（尚未连接）
//
// 参数：
//   - brokerURL: broker 地址，如 "tcp://localhost:1883"
//   - clientID: MQTT 客户端 ID
//   - topic: 发布主题的前缀，事件类型会追加为子主题
func New(brokerURL, clientID, topic string) *Publisher {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return newPublisher(paho.NewClient(opts), topic)
}

// Connect 连接 broker，最多等待 10 秒
func (p *Publisher) Connect() error {
	c, ok := p.client.(paho.Client)
	if !ok {
		return nil
	}
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect timeout")
	}
	return token.Error()
}

// Disconnect 停止后台发布并断开连接，队列中未发送的事件被丢弃
func (p *Publisher) Disconnect() {
	p.stop()
	if c, ok := p.client.(paho.Client); ok {
		c.Disconnect(1000)
	}
}

// Attach 订阅事件总线，返回注销句柄
func (p *Publisher) Attach(bus *events.Bus) *events.Subscription {
	return bus.Subscribe(p.Handle)
}

// Topic 返回事件对应的主题：{prefix}/{type}
func (p *Publisher) Topic(ev events.Event) string {
	return p.topic + "/" + string(ev.Type)
}

// Handle 将事件放入发送队列，立即返回
// 队列已满或发布器已停止时丢弃事件，不影响游戏流程
func (p *Publisher) Handle(ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[MQTTPublisher] Failed to marshal event %s: %v", ev.Type, err)
		return
	}

	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.queue <- message{topic: p.Topic(ev), payload: payload}:
	default:
		p.logOnce(fmt.Errorf("queue full, dropped event %s", ev.Type))
	}
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.queue:
			p.publish(msg)
		}
	}
}

// publish 发布单条消息并等待确认，失败只记录一次日志
func (p *Publisher) publish(msg message) {
	token := p.client.Publish(msg.topic, 1, false, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logOnce(fmt.Errorf("publish timeout on %s", msg.topic))
		return
	}
	if err := token.Error(); err != nil {
		p.logOnce(err)
		return
	}

	p.mu.Lock()
	p.errorLogged = false
	p.mu.Unlock()
}

func (p *Publisher) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Publisher) logOnce(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errorLogged {
		return
	}
	p.errorLogged = true
	log.Printf("[MQTTPublisher] Warning: failed to publish event: %v", err)
}
