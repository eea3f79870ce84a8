package recipe

import (
	"context"
	"encoding/json"

	"helix.run/core/pkg/agent"
	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/registry"
	"helix.run/core/pkg/sandbox"
	"helix.run/core/pkg/store"
)

// Executor implements run_recipe (§4.F.2): fetch and validate, compute a
// Kahn topological order, then dispatch each node in that order. Unlike
// Runner.StartAgent, the Executor never retains a long-lived body or
// launches a background goroutine — each node is constructed, invoked, and
// torn down within the single run_recipe call, with the Runner's managed
// map updated alongside purely for get_status visibility.
type Executor struct {
	configs     model.ConfigStore
	runner      *agent.Runner
	durable     eventbus.Publisher
	stateStore  store.Store
	credentials sandbox.CredentialProvider
	host        *sandbox.Host
	plugins     *sandbox.PluginManager
	factories   *registry.BaseRegistry[agent.Factory]
}

// NewExecutor wires an Executor over the same collaborators the Runner
// uses, plus the sandbox Host needed to drive a plugin call synchronously.
func NewExecutor(configs model.ConfigStore, runner *agent.Runner, durable eventbus.Publisher, stateStore store.Store, credentials sandbox.CredentialProvider, host *sandbox.Host, plugins *sandbox.PluginManager, factories *registry.BaseRegistry[agent.Factory]) *Executor {
	return &Executor{
		configs:     configs,
		runner:      runner,
		durable:     durable,
		stateStore:  stateStore,
		credentials: credentials,
		host:        host,
		plugins:     plugins,
		factories:   factories,
	}
}

// RunRecipe implements §4.F.2 steps 1-5. Any node failure aborts the whole
// recipe immediately; events already forwarded to the durable publisher by
// earlier nodes are not rolled back (§4.F.4).
func (e *Executor) RunRecipe(ctx context.Context, recipeID model.RecipeID) error {
	r, found, err := e.configs.GetRecipe(recipeID)
	if err != nil {
		return helixerr.NewDatabaseError("Executor.RunRecipe: loading recipe", err)
	}
	if !found {
		return helixerr.NewRecipeNotFoundError(recipeID.String())
	}
	if !r.Enabled {
		return helixerr.NewRecipeDisabledError(recipeID.String())
	}
	if err := Validate(r); err != nil {
		return err
	}

	order, err := topologicalOrder(r.Graph.Agents)
	if err != nil {
		return err
	}
	dependents := buildDependents(r.Graph.Agents)

	outputs := make(map[model.AgentID][]*model.Event, len(order))
	for _, cfg := range order {
		if !cfg.Enabled {
			outputs[cfg.ID] = nil
			continue
		}

		role := structuralRole(cfg, dependents)
		e.runner.Track(cfg.ID, cfg)

		var out []*model.Event
		var nodeErr error
		if role == sandbox.RoleSource {
			out, nodeErr = e.runSource(ctx, cfg)
		} else {
			inputs := mergedPredecessorEvents(cfg, outputs)
			out, nodeErr = e.runDownstream(ctx, cfg, role, inputs)
		}

		if nodeErr != nil {
			e.runner.MarkErrored(cfg.ID)
			return nodeErr
		}
		e.runner.MarkCompleted(cfg.ID)
		outputs[cfg.ID] = out
	}
	return nil
}

// structuralRole infers a node's role from its position in the DAG, since
// AgentConfig carries no Role field (§3): a node with no dependencies is a
// source; among the rest, a node nothing depends on is an action (it
// terminates the chain), and a node with dependents is a transform. This
// is the fact the recipe executor hands a sandboxed agent as its
// PluginConfig.Role; a native body still declares its role itself by which
// interface it implements (§9 Design Notes), checked in invokeNative, where
// the structural role only decides for a body implementing both.
func structuralRole(cfg *model.AgentConfig, dependents map[model.AgentID][]model.AgentID) sandbox.AgentRole {
	if cfg.IsSource() {
		return sandbox.RoleSource
	}
	if len(dependents[cfg.ID]) == 0 {
		return sandbox.RoleAction
	}
	return sandbox.RoleTransform
}

// mergedPredecessorEvents concatenates each dependency's recorded output
// events, visiting dependencies in ascending AgentID byte order for the
// same determinism reason ties are broken during the topological sort
// (§4.F.2, §4.F.3).
func mergedPredecessorEvents(cfg *model.AgentConfig, outputs map[model.AgentID][]*model.Event) []*model.Event {
	deps := append([]model.AgentID(nil), cfg.Dependencies...)
	sortAgentIDs(deps)
	var merged []*model.Event
	for _, dep := range deps {
		merged = append(merged, outputs[dep]...)
	}
	return merged
}

// runSource drives a source node with a fresh in-memory collector as its
// publisher, then drains it for the node's output events (§4.F.2 step 3).
func (e *Executor) runSource(ctx context.Context, cfg *model.AgentConfig) ([]*model.Event, error) {
	collector := eventbus.NewInMemoryCollector()
	if err := e.invoke(ctx, cfg, sandbox.RoleSource, collector, nil); err != nil {
		return nil, err
	}
	return collector.Drain(), nil
}

// runDownstream feeds each merged predecessor event through a transform or
// action node in order, publishing to the durable publisher, and
// accumulates whatever outputs come back (§4.F.2 step 4).
func (e *Executor) runDownstream(ctx context.Context, cfg *model.AgentConfig, role sandbox.AgentRole, inputs []*model.Event) ([]*model.Event, error) {
	var outputs []*model.Event
	for _, in := range inputs {
		out, err := e.invoke(ctx, cfg, role, e.durable, in)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out...)
	}
	return outputs, nil
}

// invoke runs one node once against one input event (nil for a source)
// through whichever body the agent's runtime names, returning events
// produced directly by a transform. Source and action outputs reach the
// caller only through publisher side effects.
func (e *Executor) invoke(ctx context.Context, cfg *model.AgentConfig, role sandbox.AgentRole, publisher eventbus.Publisher, in *model.Event) ([]*model.Event, error) {
	switch cfg.Runtime {
	case model.RuntimeNative:
		return e.invokeNative(ctx, cfg, role, publisher, in)
	case model.RuntimeSandboxed:
		return e.invokeSandboxed(ctx, cfg, role, publisher, in)
	default:
		return nil, helixerr.NewConfigError("Executor.invoke: unknown runtime "+string(cfg.Runtime), nil)
	}
}

func (e *Executor) invokeNative(ctx context.Context, cfg *model.AgentConfig, role sandbox.AgentRole, publisher eventbus.Publisher, in *model.Event) ([]*model.Event, error) {
	factory, ok := e.factories.Get(cfg.Kind)
	if !ok {
		return nil, helixerr.NewConfigError("Executor.invokeNative: unknown kind "+cfg.Kind, nil)
	}
	body, err := factory(cfg)
	if err != nil {
		return nil, helixerr.NewAgentError("Executor.invokeNative: factory failed", err)
	}
	lifecycle, ok := body.(agent.Lifecycle)
	if !ok {
		return nil, helixerr.NewAgentError("Executor.invokeNative: body does not implement Lifecycle", nil)
	}

	actx := &agent.AgentContext{
		ProfileID:   cfg.ProfileID,
		Config:      cfg,
		Publisher:   publisher,
		Store:       e.stateStore,
		Credentials: e.credentials,
	}
	if err := lifecycle.Init(ctx, actx); err != nil {
		return nil, helixerr.NewAgentError("Executor.invokeNative: init failed", err)
	}
	defer lifecycle.Stop(ctx)

	switch role {
	case sandbox.RoleSource:
		src, ok := body.(agent.SourceAgent)
		if !ok {
			return nil, helixerr.NewAgentError("Executor.invokeNative: "+cfg.Kind+" does not implement SourceAgent", nil)
		}
		stop := make(chan struct{})
		return nil, src.Run(ctx, actx, stop)
	case sandbox.RoleTransform:
		t, ok := body.(agent.TransformAgent)
		if !ok {
			if a, isAction := body.(agent.ActionAgent); isAction {
				return nil, a.Execute(ctx, actx, in)
			}
			return nil, helixerr.NewAgentError("Executor.invokeNative: "+cfg.Kind+" implements neither TransformAgent nor ActionAgent", nil)
		}
		return t.Transform(ctx, actx, in)
	case sandbox.RoleAction:
		a, ok := body.(agent.ActionAgent)
		if !ok {
			if t, isTransform := body.(agent.TransformAgent); isTransform {
				return t.Transform(ctx, actx, in)
			}
			return nil, helixerr.NewAgentError("Executor.invokeNative: "+cfg.Kind+" implements neither TransformAgent nor ActionAgent", nil)
		}
		return nil, a.Execute(ctx, actx, in)
	default:
		return nil, helixerr.NewInternalError("Executor.invokeNative: unreachable role", nil)
	}
}

func (e *Executor) invokeSandboxed(ctx context.Context, cfg *model.AgentConfig, role sandbox.AgentRole, publisher eventbus.Publisher, in *model.Event) ([]*model.Event, error) {
	pluginID := model.PluginID(cfg.ID)
	e.plugins.Register(&sandbox.PluginConfig{
		ID:             pluginID,
		Name:           cfg.Kind,
		Source:         sandbox.ModuleSource{Path: cfg.ModulePath},
		Role:           role,
		ResourceLimits: sandbox.DefaultResourceLimits(),
	})

	hostState := sandbox.NewHostState(cfg, cfg.ProfileID, publisher, e.credentials, e.stateStore, sandbox.Capabilities{}, sandbox.DefaultResourceLimits().FuelBudget)
	instanceID, err := e.plugins.Instantiate(cfg.ID, pluginID, hostState)
	if err != nil {
		return nil, err
	}
	defer e.plugins.Unload(pluginID)

	var args json.RawMessage
	if role == sandbox.RoleSource {
		args, err = json.Marshal(cfg)
	} else {
		args, err = json.Marshal(in)
	}
	if err != nil {
		return nil, helixerr.NewSerializationError("Executor.invokeSandboxed: encoding call args", err)
	}

	result, err := e.host.Call(ctx, instanceID, args)
	if err != nil {
		return nil, err
	}
	if role != sandbox.RoleTransform || result.Result == nil {
		return nil, nil
	}

	var rawOutputs [][]byte
	if err := json.Unmarshal(result.Result, &rawOutputs); err != nil {
		return nil, helixerr.NewSerializationError("Executor.invokeSandboxed: decoding transform outputs", err)
	}
	outs := make([]*model.Event, 0, len(rawOutputs))
	for _, payload := range rawOutputs {
		outs = append(outs, model.NewEvent(cfg.ID, "", payload))
	}
	return outs, nil
}
