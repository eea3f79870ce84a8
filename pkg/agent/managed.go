package agent

import (
	"sync"

	"helix.run/core/pkg/model"
)

// AgentStatus is the ManagedAgent state machine of §3's Lifecycles section.
type AgentStatus string

const (
	StatusInitializing AgentStatus = "initializing"
	StatusRunning      AgentStatus = "running"
	StatusStopped      AgentStatus = "stopped"
	StatusErrored      AgentStatus = "errored"
	StatusCompleted    AgentStatus = "completed"
)

// bodyKind tags which half of the Native|Sandboxed sum a ManagedAgent
// holds, standing in for a proper sum type.
type bodyKind int

const (
	bodyNative bodyKind = iota
	bodySandboxed
)

// ManagedAgent is the Runner's record of one live agent (§4.E.2). Only the
// Runner ever reads or mutates it; callers interact through Runner's
// methods, never the struct directly.
type ManagedAgent struct {
	mu sync.Mutex

	ID     model.AgentID
	Config *model.AgentConfig

	kind       bodyKind
	native     interface{} // SourceAgent | TransformAgent | ActionAgent
	instanceID model.InstanceID

	status     AgentStatus
	stopSignal chan struct{}
}

func (m *ManagedAgent) setStatus(s AgentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *ManagedAgent) getStatus() AgentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// isRestartable reports whether a start_agent call for an already-present
// record should proceed (Stopped/Errored) rather than return idempotently.
func (m *ManagedAgent) isRestartable() bool {
	s := m.getStatus()
	return s == StatusStopped || s == StatusErrored
}
