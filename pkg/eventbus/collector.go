package eventbus

import (
	"context"
	"encoding/json"
	"sync"

	"helix.run/core/pkg/model"
)

// InMemoryCollector is an internally synchronized buffer of events. The
// recipe Executor substitutes this for a source agent's publisher during a single
// recipe execution, then drains it to obtain the node's output events
// (§4.C.1, §9 "in-memory collector vs. durable publisher").
type InMemoryCollector struct {
	mu     sync.Mutex
	events []*model.Event
}

// NewInMemoryCollector constructs an empty collector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{}
}

// PublishEvent appends a freshly constructed Event to the buffer.
func (c *InMemoryCollector) PublishEvent(ctx context.Context, agentID model.AgentID, payload json.RawMessage, typeOverride string) error {
	ev := model.NewEvent(agentID, eventType(typeOverride), payload)
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

// Drain returns the collected events and clears the buffer.
func (c *InMemoryCollector) Drain() []*model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

// Clear discards any collected events without returning them.
func (c *InMemoryCollector) Clear() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

var _ Publisher = (*InMemoryCollector)(nil)
