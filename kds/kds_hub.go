package kds

import (
	"sync"

	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventTableClosed        = "table_closed"
)

// Topic is a named channel staff displays subscribe to within one tenant.
type Topic string

const (
	TopicKitchen Topic = "kitchen"
	TopicAdmin   Topic = "admin"
)

func ParseTopic(s string) (Topic, bool) {
	switch t := Topic(s); t {
	case TopicKitchen, TopicAdmin:
		return t, true
	}
	return "", false
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// DefaultBuffer is how many undelivered messages a subscriber may lag behind
// before new ones are dropped for it.
const DefaultBuffer = 64

type subKey struct {
	tenantID uint
	topic    Topic
}

// Subscription receives the messages of one tenant topic in publish order.
type Subscription struct {
	C <-chan Message

	ch       chan Message
	key      subKey
	hub      *Hub
	closeOne sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.closeOne.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// Hub fans messages out to the subscribers of a tenant topic. Publish never
// blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[subKey]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[subKey]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(tenantID uint, topic Topic) *Subscription {
	ch := make(chan Message, h.buffer)
	sub := &Subscription{
		C:   ch,
		ch:  ch,
		key: subKey{tenantID: tenantID, topic: topic},
		hub: h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.key)
		}
	}
	close(sub.ch)
}

// Subscribers counts live subscriptions for a tenant topic.
func (h *Hub) Subscribers(tenantID uint, topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[subKey{tenantID: tenantID, topic: topic}])
}

// Publish delivers msg to every subscriber of the given topics of tenantID.
func (h *Hub) Publish(tenantID uint, msg Message, topics ...Topic) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range topics {
		for sub := range h.subs[subKey{tenantID: tenantID, topic: topic}] {
			select {
			case sub.ch <- msg:
			default:
				utils.ErrorLogger.WithFields(logrus.Fields{
					"tenant_id": tenantID,
					"topic":     topic,
					"event":     msg.Event,
				}).Warn("subscriber buffer full, dropping event")
			}
		}
	}
}
