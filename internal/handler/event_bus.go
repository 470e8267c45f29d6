// internal/handler/event_bus.go
package handler

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// EventBus distributes agent events to subscribers. Services publish
// into it; the websocket handler subscribes out of it.
type EventBus struct {
	subscribers map[string][]chan model.AgentEvent
	events      chan model.AgentEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan model.AgentEvent),
		events:      make(chan model.AgentEvent, 1000),
		logger:      logger,
	}
}

// Start runs the distribution loop until the publish channel closes
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Publish queues an event for distribution. A full bus drops the
// event rather than blocking the publishing service.
func (eb *EventBus) Publish(event model.AgentEvent) {
	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}

// Subscribe subscribes to an event pattern. Patterns are exact types
// ("job.completed"), prefixes ("job.*") or everything ("*").
func (eb *EventBus) Subscribe(pattern string) <-chan model.AgentEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.AgentEvent, 100)
	eb.subscribers[pattern] = append(eb.subscribers[pattern], subscriber)
	return subscriber
}

// distributeEvent fans an event out to matching subscribers
func (eb *EventBus) distributeEvent(event model.AgentEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for pattern, subscribers := range eb.subscribers {
		if !matchesPattern(pattern, string(event.EventType)) {
			continue
		}
		for _, subscriber := range subscribers {
			select {
			case subscriber <- event:
			default:
				// Subscriber is slow, skip
			}
		}
	}
}

// matchesPattern matches an event type against a subscription pattern
func matchesPattern(pattern, eventType string) bool {
	if pattern == "*" || pattern == eventType {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
