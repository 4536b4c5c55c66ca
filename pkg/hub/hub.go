package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-mocap/internal/log"
)

// Option configures a Hub.
type Option func(*Hub)

// WithRetain makes the hub remember its last message and send it to each
// new subscriber, so a freshly opened dashboard shows state immediately.
func WithRetain() Option {
	return func(h *Hub) { h.retain = true }
}

// WithQueue sets the per-subscriber queue length.
func WithQueue(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queue = n
		}
	}
}

// Stats counts hub traffic.
type Stats struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
	Evicted     uint64 `json:"evicted"`
}

// Hub broadcasts messages to every subscriber of one stream.
type Hub struct {
	name   string
	logger *slog.Logger
	retain bool
	queue  int

	subs     map[*Subscriber]struct{}
	mu       sync.RWMutex
	latest   *Message
	inbound  chan Message
	joins    chan *Subscriber
	leaves   chan *Subscriber
	running  atomic.Bool
	finished chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
	evicted   atomic.Uint64
}

// New creates a hub. Call Run before serving subscribers.
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:     name,
		logger:   log.Component("hub").With("stream", name),
		queue:    64,
		subs:     make(map[*Subscriber]struct{}),
		inbound:  make(chan Message, 256),
		joins:    make(chan *Subscriber),
		leaves:   make(chan *Subscriber),
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the stream name.
func (h *Hub) Name() string {
	return h.name
}

// Run owns the subscriber set until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.mu.Lock()
		for s := range h.subs {
			close(s.send)
			delete(h.subs, s)
		}
		h.mu.Unlock()
		h.running.Store(false)
		close(h.finished)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.joins:
			h.mu.Lock()
			h.subs[s] = struct{}{}
			n := len(h.subs)
			if h.latest != nil {
				s.send <- *h.latest
			}
			h.mu.Unlock()
			h.logger.Debug("subscriber joined", "subscribers", n)

		case s := <-h.leaves:
			h.mu.Lock()
			if _, ok := h.subs[s]; ok {
				delete(h.subs, s)
				close(s.send)
			}
			n := len(h.subs)
			h.mu.Unlock()
			h.logger.Debug("subscriber left", "subscribers", n)

		case msg := <-h.inbound:
			h.mu.Lock()
			if h.retain {
				m := msg
				h.latest = &m
			}
			for s := range h.subs {
				select {
				case s.send <- msg:
				default:
					close(s.send)
					delete(h.subs, s)
					h.evicted.Add(1)
					h.logger.Warn("evicted slow subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Running reports whether Run is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// Done is closed once Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.finished
}

// Publish queues msg for every subscriber. It never blocks: when the hub is
// behind the message is dropped and counted.
func (h *Hub) Publish(msg Message) {
	select {
	case h.inbound <- msg:
		h.published.Add(1)
	default:
		if h.dropped.Add(1)%100 == 1 {
			h.logger.Warn("hub backlog full, dropping messages", "dropped", h.dropped.Load())
		}
	}
}

// PublishJSON encodes v and publishes it as text.
func (h *Hub) PublishJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Publish(TextMessage(data))
	return nil
}

// PublishBinary publishes raw bytes.
func (h *Hub) PublishBinary(data []byte) {
	h.Publish(BinaryMessage(data))
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stats returns traffic counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Name:        h.name,
		Subscribers: h.Subscribers(),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
		Evicted:     h.evicted.Load(),
	}
}
