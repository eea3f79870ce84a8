package sandbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/sandbox/rpcplugin"
)

// Launcher starts a compiled module's executable and dispenses its guest
// interface. rpcplugin.Loader implements this; tests substitute an
// in-process fake to avoid spawning real subprocesses.
type Launcher interface {
	Launch(execPath string, hostAPI rpcplugin.HostAPI) (*rpcplugin.Launched, error)
}

// Host is the sandbox host of §4.D: it owns the module cache and the
// global active_instances map, and implements Load/Instantiate/Call/
// Terminate (§4.D.1, §4.D.5).
type Host struct {
	cache    *ModuleCache
	launcher Launcher

	mu        sync.Mutex
	instances map[model.InstanceID]*ManagedInstance
}

// NewHost constructs a Host backed by launcher (typically rpcplugin.NewLoader()).
func NewHost(launcher Launcher) *Host {
	return &Host{
		cache:     NewModuleCache(),
		launcher:  launcher,
		instances: make(map[model.InstanceID]*ManagedInstance),
	}
}

// LoadModule validates and compiles src, returning a shared CompiledModule
// handle (§4.D.1).
func (h *Host) LoadModule(src ModuleSource, role AgentRole) (*CompiledModule, error) {
	return h.cache.Load(src, role)
}

// Instantiate binds the caller-supplied HostState to module and launches a
// guest process for it, registering the resulting instance in the global
// active_instances map.
func (h *Host) Instantiate(agentID model.AgentID, module *CompiledModule, hostState *HostState, limits ResourceLimits) (model.InstanceID, error) {
	launched, err := h.launcher.Launch(module.ExecPath, hostState)
	if err != nil {
		return model.InstanceID{}, helixerr.NewSandboxError(helixerr.SandboxInstantiate, "launching module process", err)
	}

	inst := &ManagedInstance{
		ID:        model.NewInstanceID(),
		AgentID:   agentID,
		Module:    module,
		Launched:  launched,
		HostState: hostState,
		Limits:    limits,
		Status:    InstanceInstantiated,
	}
	inst.setStatus(InstanceActive)

	h.mu.Lock()
	h.instances[inst.ID] = inst
	h.mu.Unlock()

	return inst.ID, nil
}

// Call resolves the instance's role-bound guest entrypoint and invokes it
// with a bounded wall-clock timeout (§4.D.5). On fuel exhaustion or timeout
// the instance is terminated, never recovered (§5); any other guest error
// is returned as SandboxTrap and leaves the instance active.
func (h *Host) Call(ctx context.Context, id model.InstanceID, args json.RawMessage) (*ExecutionResult, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	if inst.getStatus() != InstanceActive {
		return nil, helixerr.NewSandboxError(helixerr.SandboxInstanceNotFound, id.String(), nil)
	}

	timeout := inst.Limits.CallTimeout
	if timeout <= 0 {
		timeout = DefaultResourceLimits().CallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fuelBefore := inst.HostState.FuelUsed()
	start := time.Now()

	resultCh := make(chan callOutcome, 1)
	go func() {
		resultCh <- h.invoke(inst, args)
	}()

	select {
	case <-callCtx.Done():
		h.Terminate(id)
		return nil, helixerr.NewSandboxError(helixerr.SandboxTimeout, "call exceeded wall-clock timeout", callCtx.Err())
	case outcome := <-resultCh:
		elapsed := time.Since(start)
		if outcome.err != nil {
			if helixerr.IsSandboxKind(outcome.err, helixerr.SandboxFuelExhausted) {
				h.Terminate(id)
			}
			return nil, outcome.err
		}
		return &ExecutionResult{
			Result:               outcome.result,
			ExecutionTime:        elapsed,
			InstructionsExecuted: inst.HostState.FuelUsed() - fuelBefore,
		}, nil
	}
}

type callOutcome struct {
	result json.RawMessage
	err    error
}

func (h *Host) invoke(inst *ManagedInstance, args json.RawMessage) callOutcome {
	var (
		result json.RawMessage
		err    error
	)
	switch inst.Module.Role {
	case RoleSource:
		err = inst.Launched.Module.RunSource(args)
	case RoleTransform:
		var outs [][]byte
		outs, err = inst.Launched.Module.TransformEvent(args)
		if err == nil {
			encoded, mErr := json.Marshal(outs)
			if mErr != nil {
				err = helixerr.NewSandboxError(helixerr.SandboxExecution, "encoding transform outputs", mErr)
			} else {
				result = encoded
			}
		}
	case RoleAction:
		err = inst.Launched.Module.ExecuteEvent(args)
	default:
		err = helixerr.NewSandboxError(helixerr.SandboxFunctionNotFound, string(inst.Module.Role), nil)
	}

	if inst.Limits.FuelBudget > 0 && inst.HostState.FuelExhausted() {
		return callOutcome{err: helixerr.NewSandboxError(helixerr.SandboxFuelExhausted, "fuel budget exhausted during call", err)}
	}
	if err != nil {
		return callOutcome{err: helixerr.NewSandboxError(helixerr.SandboxTrap, "guest call failed", err)}
	}
	return callOutcome{result: result}
}

// Terminate removes the instance from the global map, drops its store and
// host-state handles, and kills the guest process. Any subsequent call
// with this InstanceId fails with SandboxInstanceNotFound.
func (h *Host) Terminate(id model.InstanceID) error {
	h.mu.Lock()
	inst, ok := h.instances[id]
	if ok {
		delete(h.instances, id)
	}
	h.mu.Unlock()

	if !ok {
		return helixerr.NewSandboxError(helixerr.SandboxInstanceNotFound, id.String(), nil)
	}

	inst.setStatus(InstanceTerminated)
	inst.Launched.Kill()
	h.cache.Release(inst.Module)
	return nil
}

func (h *Host) lookup(id model.InstanceID) (*ManagedInstance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	inst, ok := h.instances[id]
	if !ok {
		return nil, helixerr.NewSandboxError(helixerr.SandboxInstanceNotFound, id.String(), nil)
	}
	return inst, nil
}
