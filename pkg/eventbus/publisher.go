// Package eventbus implements the EventPublisher contract of §4.C: an
// in-memory collector used for intra-recipe fan-out, and a durable stream
// publisher (backed by Redis Streams) used for cross-recipe delivery.
package eventbus

import (
	"context"
	"encoding/json"

	"helix.run/core/pkg/model"
)

// Publisher is the contract every agent's AgentContext is handed. Source
// agents are handed a fresh InMemoryCollector; transform/action agents are
// handed the real external Publisher (§4.F.2).
type Publisher interface {
	// PublishEvent builds and records an event sourced from agentID.
	// typeOverride, if non-empty, replaces the type the agent would
	// otherwise have used to derive the publication subject.
	PublishEvent(ctx context.Context, agentID model.AgentID, payload json.RawMessage, typeOverride string) error
}

// eventType picks the type used to construct the Event: typeOverride when
// present, else a generic default. Event.type derivation is left to the
// agent; the override exists for agents that want to publish under a
// type distinct from their own default.
func eventType(typeOverride string) string {
	if typeOverride != "" {
		return typeOverride
	}
	return "helix.event"
}
