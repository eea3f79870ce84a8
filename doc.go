// Package helix provides the runtime core for executing multi-tenant agent
// recipes: directed acyclic graphs of agents that source, transform, and act
// on events.
//
// The core loads agent configurations, instantiates agents either natively
// (in-process, trusted) or as sandboxed out-of-process modules, orchestrates
// recipe execution across agents in topological order, mediates side effects
// (event emission, credential access, state persistence) through a controlled
// host interface, and manages the agent lifecycle with failure isolation.
//
// # Components
//
//	pkg/model     identifiers, AgentConfig, Event, Recipe, Credential
//	pkg/helixerr  closed-sum error taxonomy
//	pkg/store     per-(profile, agent) state store
//	pkg/eventbus  event publisher: in-memory collector + durable stream
//	pkg/sandbox   out-of-process sandbox host, host ABI, instance lifecycle
//	pkg/registry  generic factory registry
//	pkg/agent     ManagedAgent lifecycle and the Runner
//	pkg/recipe    DAG validation (Kahn's algorithm) and recipe execution
//
// # Using as a Go library
//
//	import (
//	    "helix.run/core/pkg/agent"
//	    "helix.run/core/pkg/recipe"
//	    "helix.run/core/internal/runtime"
//	)
//
// See internal/runtime for a fully wired example and cmd/helixd for a thin
// bring-up binary.
package helix
