package mqttpub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gonewx/astrorun/pkg/events"
)

// fakeToken 模拟 paho token；release 不为 nil 时一直挂起到 release 关闭或超时
type fakeToken struct {
	err      error
	complete bool
	release  chan struct{}
}

func (t *fakeToken) Wait() bool { return t.complete }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	if t.release != nil {
		select {
		case <-t.release:
			return true
		case <-time.After(d):
			return false
		}
	}
	return t.complete
}
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu       sync.Mutex
	messages []published
	err      error
	timeout  bool
	release  chan struct{}  // 非 nil 时 token 挂起，模拟断线重连中的 broker
	notify   chan published // 非 nil 时每条消息发布后通知
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	msg := published{topic: topic, qos: qos, payload: payload.([]byte)}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	err, timeout := c.err, c.timeout
	c.mu.Unlock()

	if c.notify != nil {
		c.notify <- msg
	}
	return &fakeToken{err: err, complete: !timeout, release: c.release}
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (p *Publisher) hasLoggedError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorLogged
}

func TestHandlePublishesJSON(t *testing.T) {
	client := &fakeClient{notify: make(chan published, 1)}
	p := newPublisher(client, "astrorun/runs")
	defer p.Disconnect()

	bus := events.NewBus()
	sub := p.Attach(bus)
	defer sub.Unsubscribe()

	bus.Publish(events.Event{
		Type:      events.NodeSelected,
		RunID:     "run-1",
		NodeID:    "node-1",
		Tier:      2,
		LevelType: "shop",
	})

	var msg published
	select {
	case msg = <-client.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
	if msg.topic != "astrorun/runs/node_selected" {
		t.Errorf("topic = %s, want astrorun/runs/node_selected", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d, want 1", msg.qos)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["runId"] != "run-1" || decoded["nodeId"] != "node-1" || decoded["levelType"] != "shop" {
		t.Errorf("unexpected payload: %s", msg.payload)
	}
	if decoded["tier"] != float64(2) {
		t.Errorf("tier = %v, want 2", decoded["tier"])
	}
}

func TestHandleDoesNotBlockWhileBrokerUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{release: release, notify: make(chan published, queueSize+10)}
	p := newPublisher(client, "t")

	start := time.Now()
	for i := 0; i < queueSize+10; i++ {
		p.Handle(events.Event{Type: events.LevelCompleted})
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Handle blocked for %v while the token was pending", elapsed)
	}
	if !p.hasLoggedError() {
		t.Error("dropping events on a full queue should be logged")
	}

	select {
	case <-client.notify:
	case <-time.After(2 * time.Second):
		t.Error("the worker should have tried to publish the first message")
	}
	close(release)
	p.Disconnect()
}

func TestHandleAfterDisconnect(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(client, "t")
	p.Disconnect()
	p.Disconnect()

	p.Handle(events.Event{Type: events.RunSaved})
	if client.count() != 0 {
		t.Errorf("published %d messages after Disconnect, want 0", client.count())
	}
}

func TestPublishErrorsAreLoggedOnce(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"broker 返回错误", &fakeClient{err: errors.New("not connected")}},
		{"等待超时", &fakeClient{timeout: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Publisher{client: tt.client, topic: "t"}
			p.publish(message{topic: "t/run_failed", payload: []byte("{}")})
			p.publish(message{topic: "t/run_failed", payload: []byte("{}")})

			if tt.client.count() != 2 {
				t.Errorf("published %d messages, want 2", tt.client.count())
			}
			if !p.hasLoggedError() {
				t.Error("failure should be remembered to avoid repeated logs")
			}
		})
	}
}

func TestSuccessResetsErrorFlag(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	p := &Publisher{client: client, topic: "t"}

	p.publish(message{topic: "t/run_saved", payload: []byte("{}")})
	client.err = nil
	p.publish(message{topic: "t/run_saved", payload: []byte("{}")})

	if p.hasLoggedError() {
		t.Error("successful publish should reset the error flag")
	}
}

func TestConnectWithoutPahoClient(t *testing.T) {
	p := newPublisher(&fakeClient{}, "t")
	if err := p.Connect(); err != nil {
		t.Errorf("Connect() = %v, want nil for non-paho client", err)
	}
	p.Disconnect()
}
