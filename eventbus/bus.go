package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/svckit/logger"
)

// Standard topics published by the supervision core.
const (
	TopicRegistered    = "service.registered"
	TopicUnregistered  = "service.unregistered"
	TopicUnhealthy     = "service.unhealthy"
	TopicRecovered     = "service.recovered"
	TopicUnrecoverable = "service.unrecoverable"
)

// Event is a registry-internal notification.
type Event struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`
	// Topic names the kind of event, e.g. "service.unhealthy".
	Topic string `json:"topic"`
	// ServiceID is the service the event concerns.
	ServiceID string `json:"service_id"`
	// Timestamp is when the event was published.
	Timestamp time.Time `json:"timestamp"`
	// Fields carries event-specific payload.
	Fields map[string]any `json:"fields,omitempty"`
}

// Listener receives published events. Listeners run synchronously on
// the publisher's goroutine; a panicking listener is recovered and
// logged, never propagated to the publisher or to other listeners.
type Listener func(Event)

// Bus is an in-process pub/sub fabric. Listeners may be registered per
// topic or globally. The listener set is snapshotted before dispatch,
// so a listener can subscribe or unsubscribe during delivery without
// corrupting the iteration.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	topics map[string]map[int]Listener
	global map[int]Listener
	log    *logger.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		topics: make(map[string]map[int]Listener),
		global: make(map[int]Listener),
		log:    logger.Get("eventbus"),
	}
}

// Subscribe registers a listener for one topic and returns a function
// that removes it. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]Listener)
	}
	b.topics[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topics[topic], id)
	}
}

// SubscribeAll registers a listener that receives every event.
func (b *Bus) SubscribeAll(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.global[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.global, id)
	}
}

// Publish delivers an event to all topic and global listeners. The
// event ID and timestamp are assigned here.
func (b *Bus) Publish(topic, serviceID string, fields map[string]any) {
	ev := Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		ServiceID: serviceID,
		Timestamp: time.Now(),
		Fields:    fields,
	}

	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.topics[topic])+len(b.global))
	for _, fn := range b.topics[topic] {
		listeners = append(listeners, fn)
	}
	for _, fn := range b.global {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.dispatch(fn, ev)
	}
}

// dispatch invokes one listener, absorbing panics.
func (b *Bus) dispatch(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event listener panicked", logger.Fields(
				logger.FieldTopic, ev.Topic,
				logger.FieldServiceID, ev.ServiceID,
				logger.FieldError, r,
			))
		}
	}()
	fn(ev)
}
