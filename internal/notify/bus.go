package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/existflow/promptpicker/internal/logger"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 64

type subscriber struct {
	topic string
	ch    chan Event
}

// Bus is an in-process Channel. Every subscriber owns a buffered queue;
// events for a full queue are dropped.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	buffer  int
	source  string
	dropped atomic.Int64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[string]*subscriber),
		buffer: DefaultBuffer,
		source: uuid.NewString(),
	}
}

// Listen registers a raw subscriber and returns its id and queue. The queue is
// closed by Unsubscribe.
func (b *Bus) Listen(topic string) (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, b.buffer)
	b.subs[id] = &subscriber{topic: topic, ch: ch}
	return id, ch
}

// Unsubscribe removes a subscriber registered with Listen
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Subscribe implements Channel. Handlers run on a goroutine owned by the
// subscription, one event at a time.
func (b *Bus) Subscribe(topic string, handler func(Event)) func() {
	id, ch := b.Listen(topic)

	go func() {
		for ev := range ch {
			handler(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { b.Unsubscribe(id) })
	}
}

// Broadcast implements Channel
func (b *Bus) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	ev, err := NewEvent(topic, b.source, payload)
	if err != nil {
		return err
	}
	b.Publish(ev)
	return nil
}

// Publish delivers an already built event. An empty topic on a subscriber
// matches every topic.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if sub.topic != "" && sub.topic != ev.Topic {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
			logger.Debug("Dropped event for slow subscriber", logger.F("subscriber", id), logger.F("topic", ev.Topic))
		}
	}
}

// Dropped returns how many deliveries were skipped because a queue was full
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// ClientCount returns the number of subscribers
func (b *Bus) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
