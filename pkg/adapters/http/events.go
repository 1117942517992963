package http

import (
	"sync"
	"sync/atomic"
)

// Question event types pushed on GET /api/events.
const (
	EventQuestionCreated = "question_created"
	EventQuestionUpdated = "question_updated"
	EventQuestionDeleted = "question_deleted"
)

// eventBuffer is the per-subscriber queue length. A subscriber that falls
// further behind loses events.
const eventBuffer = 16

// QuestionEvent announces a question mutation made through the Server.
type QuestionEvent struct {
	Type   string `json:"type"`
	ID     string `json:"_id"`
	Tenant string `json:"uniquePartnerId"`
}

// Events fans question events out to the subscribers of each tenant.
type Events struct {
	mu      sync.RWMutex
	tenants map[string]map[chan QuestionEvent]struct{}
	dropped atomic.Int64
}

// NewEvents creates an empty broker.
func NewEvents() *Events {
	return &Events{tenants: make(map[string]map[chan QuestionEvent]struct{})}
}

// Subscribe registers a subscriber for tenant. The returned func unregisters
// it and closes the channel; calling it twice is safe.
func (e *Events) Subscribe(tenant string) (<-chan QuestionEvent, func()) {
	ch := make(chan QuestionEvent, eventBuffer)

	e.mu.Lock()
	subs, ok := e.tenants[tenant]
	if !ok {
		subs = make(map[chan QuestionEvent]struct{})
		e.tenants[tenant] = subs
	}
	subs[ch] = struct{}{}
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			subs := e.tenants[tenant]
			delete(subs, ch)
			if len(subs) == 0 {
				delete(e.tenants, tenant)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of ev.Tenant without blocking.
func (e *Events) Publish(ev QuestionEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for ch := range e.tenants[ev.Tenant] {
		select {
		case ch <- ev:
		default:
			e.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of subscribers of tenant.
func (e *Events) Subscribers(tenant string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tenants[tenant])
}

// Dropped counts events lost to full subscriber queues.
func (e *Events) Dropped() int64 {
	return e.dropped.Load()
}
