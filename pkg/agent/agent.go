// Package agent implements the native agent contract and the Runner that
// manages the lifecycle of both native and sandboxed agents (§4.E).
//
// Roles are not a field on AgentConfig; they are structural. A node with no
// dependencies is a source (§3 AgentConfig.IsSource). Among non-source
// nodes, whether an agent transforms or acts is a capability the agent
// itself declares by which narrow interface it implements — SourceAgent,
// TransformAgent, or ActionAgent — never a unified interface that tries to
// cover every role at once (§9 Design Notes).
package agent

import (
	"context"

	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/sandbox"
	"helix.run/core/pkg/store"
)

// AgentContext bundles the collaborators a native agent needs to do its
// work: the config it was built from, the publisher it should emit to (a
// collector during source execution within a recipe, the durable publisher
// otherwise), the state store, and credential resolution.
type AgentContext struct {
	ProfileID   model.ProfileID
	Config      *model.AgentConfig
	Publisher   eventbus.Publisher
	Store       store.Store
	Credentials sandbox.CredentialProvider
}

// Lifecycle is implemented by every native agent body regardless of role.
type Lifecycle interface {
	// Init prepares the agent to run; called once, before Run, Transform or
	// Execute.
	Init(ctx context.Context, actx *AgentContext) error
	// Stop requests cooperative shutdown. Native agents are never forcibly
	// preempted (§5); a Run loop must observe ctx or the stop channel it
	// was handed.
	Stop(ctx context.Context) error
}

// SourceAgent emits events with no input other than its own configuration
// and state. Run blocks until the source has nothing more to produce, or
// until stop is closed, whichever comes first.
type SourceAgent interface {
	Lifecycle
	Run(ctx context.Context, actx *AgentContext, stop <-chan struct{}) error
}

// TransformAgent maps one input event to zero or more output events.
type TransformAgent interface {
	Lifecycle
	Transform(ctx context.Context, actx *AgentContext, ev *model.Event) ([]*model.Event, error)
}

// ActionAgent consumes an event for its side effect and produces none of
// its own return value; it may still emit further events through actx.
type ActionAgent interface {
	Lifecycle
	Execute(ctx context.Context, actx *AgentContext, ev *model.Event) error
}

// Factory builds a native agent body for the given config. The registry
// maps AgentConfig.Kind to a Factory (§4.E.1); an unknown kind is a
// ConfigError at start_agent time.
type Factory func(cfg *model.AgentConfig) (interface{}, error)
