package agent

import (
	"context"
	"sync"

	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/registry"
	"helix.run/core/pkg/sandbox"
	"helix.run/core/pkg/store"
)

// Runner is the component named in §4.E: it owns every ManagedAgent and
// exposes start_agent/stop_agent/stop_all/get_status. The outer lock
// (mu) guards only map-level mutations; all per-agent work after lookup
// holds just that agent's own lock (§4.E.5).
type Runner struct {
	configs     model.ConfigStore
	publisher   eventbus.Publisher
	credentials sandbox.CredentialProvider
	stateStore  store.Store
	plugins     *sandbox.PluginManager
	factories   *registry.BaseRegistry[Factory]

	mu     sync.Mutex
	agents map[model.AgentID]*ManagedAgent
}

// NewRunner wires a Runner over its collaborators. factories must be
// populated before the first start_agent call (§9 Design Notes).
func NewRunner(configs model.ConfigStore, publisher eventbus.Publisher, credentials sandbox.CredentialProvider, stateStore store.Store, plugins *sandbox.PluginManager, factories *registry.BaseRegistry[Factory]) *Runner {
	return &Runner{
		configs:     configs,
		publisher:   publisher,
		credentials: credentials,
		stateStore:  stateStore,
		plugins:     plugins,
		factories:   factories,
		agents:      make(map[model.AgentID]*ManagedAgent),
	}
}

// StartAgent implements §4.E.3. role only matters for Sandboxed agents,
// whose guest process cannot be introspected for which host entrypoints it
// implements the way a native Go value can be type-switched; the recipe
// executor (which already knows each node's position in the DAG) supplies
// it. Native bodies declare their role simply by which of SourceAgent /
// TransformAgent / ActionAgent the factory returns.
func (r *Runner) StartAgent(ctx context.Context, agentID model.AgentID, role sandbox.AgentRole) (model.AgentID, error) {
	r.mu.Lock()
	existing, ok := r.agents[agentID]
	r.mu.Unlock()

	if ok && !existing.isRestartable() {
		return agentID, nil
	}

	cfg, found, err := r.configs.GetAgentConfig(agentID)
	if err != nil {
		return model.AgentID{}, helixerr.NewDatabaseError("Runner.StartAgent: loading config", err)
	}
	if !found {
		return model.AgentID{}, helixerr.NewAgentConfigNotFoundError(agentID.String())
	}

	managed := &ManagedAgent{ID: agentID, Config: cfg, status: StatusInitializing}

	r.mu.Lock()
	r.agents[agentID] = managed
	r.mu.Unlock()

	var startErr error
	switch cfg.Runtime {
	case model.RuntimeNative:
		startErr = r.startNative(ctx, managed)
	case model.RuntimeSandboxed:
		startErr = r.startSandboxed(ctx, managed, role)
	default:
		startErr = helixerr.NewConfigError("Runner.StartAgent: unknown runtime "+string(cfg.Runtime), nil)
	}

	if startErr != nil {
		r.mu.Lock()
		delete(r.agents, agentID)
		r.mu.Unlock()
		return model.AgentID{}, startErr
	}

	return agentID, nil
}

func (r *Runner) startNative(ctx context.Context, managed *ManagedAgent) error {
	factory, ok := r.factories.Get(managed.Config.Kind)
	if !ok {
		return helixerr.NewConfigError("Runner.startNative: unknown kind "+managed.Config.Kind, nil)
	}
	body, err := factory(managed.Config)
	if err != nil {
		return helixerr.NewAgentError("Runner.startNative: factory failed", err)
	}
	lifecycle, ok := body.(Lifecycle)
	if !ok {
		return helixerr.NewAgentError("Runner.startNative: body does not implement Lifecycle", nil)
	}

	actx := &AgentContext{
		ProfileID:   managed.Config.ProfileID,
		Config:      managed.Config,
		Publisher:   r.publisher,
		Store:       r.stateStore,
		Credentials: r.credentials,
	}
	if err := lifecycle.Init(ctx, actx); err != nil {
		return helixerr.NewAgentError("Runner.startNative: init failed", err)
	}

	managed.kind = bodyNative
	managed.native = body
	managed.stopSignal = make(chan struct{})
	managed.setStatus(StatusRunning)

	if src, ok := body.(SourceAgent); ok {
		stop := managed.stopSignal
		go func() {
			err := src.Run(ctx, actx, stop)

			managed.mu.Lock()
			defer managed.mu.Unlock()
			if managed.status != StatusRunning {
				// StopAgent already transitioned this record; Run's return
				// was caused by the close(stop), not natural completion.
				return
			}
			if err != nil {
				managed.status = StatusErrored
			} else {
				managed.status = StatusCompleted
			}
		}()
	}
	return nil
}

func (r *Runner) startSandboxed(ctx context.Context, managed *ManagedAgent, role sandbox.AgentRole) error {
	cfg := managed.Config
	pluginID := model.PluginID(cfg.ID)

	r.plugins.Register(&sandbox.PluginConfig{
		ID:             pluginID,
		Name:           cfg.Kind,
		Source:         sandbox.ModuleSource{Path: cfg.ModulePath},
		Role:           role,
		ResourceLimits: sandbox.DefaultResourceLimits(),
	})

	hostState := sandbox.NewHostState(cfg, cfg.ProfileID, r.publisher, r.credentials, r.stateStore, sandbox.Capabilities{}, sandbox.DefaultResourceLimits().FuelBudget)

	instanceID, err := r.plugins.Instantiate(cfg.ID, pluginID, hostState)
	if err != nil {
		return err
	}

	managed.kind = bodySandboxed
	managed.instanceID = instanceID
	managed.setStatus(StatusRunning)
	return nil
}

// StopAgent implements §4.E.3: idempotent no-op if already Stopped or
// Completed.
func (r *Runner) StopAgent(ctx context.Context, agentID model.AgentID) error {
	r.mu.Lock()
	managed, ok := r.agents[agentID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	if managed.status == StatusStopped || managed.status == StatusCompleted {
		return nil
	}

	var stopErr error
	switch managed.kind {
	case bodyNative:
		if managed.stopSignal != nil {
			close(managed.stopSignal)
			managed.stopSignal = nil
		}
		if lifecycle, ok := managed.native.(Lifecycle); ok {
			stopErr = lifecycle.Stop(ctx)
		}
	case bodySandboxed:
		pluginID := model.PluginID(managed.Config.ID)
		stopErr = r.plugins.Unload(pluginID)
	}

	if stopErr != nil {
		managed.status = StatusErrored
		return helixerr.NewAgentError("Runner.StopAgent", stopErr)
	}
	managed.status = StatusStopped
	return nil
}

// StopAll snapshots every managed agent under the outer lock, releases it,
// then stops each individually; failures are logged by the caller and do
// not short-circuit (§4.E.3, §4.E.5).
func (r *Runner) StopAll(ctx context.Context) []error {
	r.mu.Lock()
	snapshot := make([]*ManagedAgent, 0, len(r.agents))
	for _, m := range r.agents {
		snapshot = append(snapshot, m)
	}
	r.mu.Unlock()

	var errs []error
	for _, m := range snapshot {
		if err := r.StopAgent(ctx, m.ID); err != nil {
			errs = append(errs, err)
		}
	}

	r.mu.Lock()
	r.agents = make(map[model.AgentID]*ManagedAgent)
	r.mu.Unlock()

	return errs
}

// Track records a ManagedAgent row as Running without going through the
// Native/Sandboxed start machinery. The recipe executor calls this for
// each node of a recipe it invokes directly, so get_status reports
// recipe-driven agents the same way it reports ambient ones, and a failure
// mid-recipe has a record to transition to Errored via MarkErrored.
func (r *Runner) Track(agentID model.AgentID, cfg *model.AgentConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agentID] = &ManagedAgent{ID: agentID, Config: cfg, status: StatusRunning}
}

// GetStatus implements §4.E.4.
func (r *Runner) GetStatus(agentID model.AgentID) (AgentStatus, bool) {
	r.mu.Lock()
	managed, ok := r.agents[agentID]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	return managed.getStatus(), true
}

// MarkErrored transitions a previously-running agent to Errored on a
// runtime (not start) failure, retaining the record until StopAgent is
// called (§9 Design Notes). The recipe executor calls this when a node
// fails mid-execution.
func (r *Runner) MarkErrored(agentID model.AgentID) {
	r.mu.Lock()
	managed, ok := r.agents[agentID]
	r.mu.Unlock()
	if ok {
		managed.setStatus(StatusErrored)
	}
}

// MarkCompleted transitions a tracked source agent to Completed once it has
// produced its final batch and has nothing more to emit.
func (r *Runner) MarkCompleted(agentID model.AgentID) {
	r.mu.Lock()
	managed, ok := r.agents[agentID]
	r.mu.Unlock()
	if ok {
		managed.setStatus(StatusCompleted)
	}
}
