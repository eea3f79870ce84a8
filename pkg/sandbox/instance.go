package sandbox

import (
	"sync"

	"helix.run/core/pkg/model"
	"helix.run/core/pkg/sandbox/rpcplugin"
)

// ManagedInstance is the {instance, store, agent_id} tuple the global
// active-instances table owns. Raw host-state records belong to exactly
// one instance for its lifetime.
type ManagedInstance struct {
	ID        model.InstanceID
	AgentID   model.AgentID
	Module    *CompiledModule
	Launched  *rpcplugin.Launched
	HostState *HostState
	Limits    ResourceLimits

	mu     sync.Mutex
	Status InstanceStatus
}

func (i *ManagedInstance) setStatus(s InstanceStatus) {
	i.mu.Lock()
	i.Status = s
	i.mu.Unlock()
}

func (i *ManagedInstance) getStatus() InstanceStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.Status
}
