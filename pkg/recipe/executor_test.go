package recipe

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/agent"
	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/registry"
	"helix.run/core/pkg/sandbox"
	"helix.run/core/pkg/store"
)

type fakeRecipeStore struct {
	recipe *model.Recipe
}

func (s *fakeRecipeStore) GetAgentConfig(id model.AgentID) (*model.AgentConfig, bool, error) {
	return nil, false, nil
}
func (s *fakeRecipeStore) ListAgentConfigsByProfile(profile model.ProfileID) ([]*model.AgentConfig, error) {
	return nil, nil
}
func (s *fakeRecipeStore) GetRecipe(id model.RecipeID) (*model.Recipe, bool, error) {
	if s.recipe == nil || s.recipe.ID != id {
		return nil, false, nil
	}
	return s.recipe, true, nil
}

type noCreds struct{}

func (noCreds) GetCredential(id model.CredentialID) (*model.Credential, bool, error) {
	return nil, false, nil
}

// emittingSource publishes a single "t.out" event with {"n":1} then returns.
type emittingSource struct{}

func (emittingSource) Init(ctx context.Context, actx *agent.AgentContext) error { return nil }
func (emittingSource) Stop(ctx context.Context) error                           { return nil }
func (emittingSource) Run(ctx context.Context, actx *agent.AgentContext, stop <-chan struct{}) error {
	return actx.Publisher.PublishEvent(ctx, actx.Config.ID, json.RawMessage(`{"n":1}`), "t.out")
}

// countingAction records every event it is invoked with.
type countingAction struct {
	mu     sync.Mutex
	events []*model.Event
}

func (a *countingAction) Init(ctx context.Context, actx *agent.AgentContext) error { return nil }
func (a *countingAction) Stop(ctx context.Context) error                           { return nil }
func (a *countingAction) Execute(ctx context.Context, actx *agent.AgentContext, ev *model.Event) error {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	return nil
}

func (a *countingAction) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

type failingSource struct{}

func (failingSource) Init(ctx context.Context, actx *agent.AgentContext) error { return nil }
func (failingSource) Stop(ctx context.Context) error                           { return nil }
func (failingSource) Run(ctx context.Context, actx *agent.AgentContext, stop <-chan struct{}) error {
	return assertErr
}

var assertErr = errSentinel("source exploded")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }

func newExecutor(t *testing.T, cs model.ConfigStore, factories *registry.BaseRegistry[agent.Factory]) *Executor {
	t.Helper()
	runner := agent.NewRunner(cs, eventbus.NewInMemoryCollector(), noCreds{}, store.NewInMemoryStore(), sandbox.NewPluginManager(sandbox.NewHost(nil)), factories)
	host := sandbox.NewHost(nil)
	plugins := sandbox.NewPluginManager(host)
	return NewExecutor(cs, runner, eventbus.NewInMemoryCollector(), store.NewInMemoryStore(), noCreds{}, host, plugins, factories)
}

func TestExecutor_RunRecipe_SourceToAction(t *testing.T) {
	sourceID, actionID := model.NewAgentID(), model.NewAgentID()
	recipeID := model.NewRecipeID()

	recipe := &model.Recipe{
		ID:      recipeID,
		Name:    "single source to action",
		Enabled: true,
		Graph: model.RecipeGraph{Agents: []*model.AgentConfig{
			{ID: sourceID, Kind: "emitting.source", Runtime: model.RuntimeNative, Enabled: true},
			{ID: actionID, Kind: "counting.action", Runtime: model.RuntimeNative, Enabled: true, Dependencies: []model.AgentID{sourceID}},
		}},
	}
	cs := &fakeRecipeStore{recipe: recipe}

	action := &countingAction{}
	factories := registry.NewBaseRegistry[agent.Factory]()
	require.NoError(t, factories.Register("emitting.source", func(cfg *model.AgentConfig) (interface{}, error) { return emittingSource{}, nil }))
	require.NoError(t, factories.Register("counting.action", func(cfg *model.AgentConfig) (interface{}, error) { return action, nil }))

	exec := newExecutor(t, cs, factories)
	require.NoError(t, exec.RunRecipe(context.Background(), recipeID))

	assert.Equal(t, 1, action.callCount())
	assert.Equal(t, "t.out", action.events[0].Type)
}

func TestExecutor_RunRecipe_UnknownRecipe(t *testing.T) {
	cs := &fakeRecipeStore{}
	exec := newExecutor(t, cs, registry.NewBaseRegistry[agent.Factory]())
	err := exec.RunRecipe(context.Background(), model.NewRecipeID())
	require.Error(t, err)
}

func TestExecutor_RunRecipe_SourceFailureAbortsRecipe(t *testing.T) {
	sourceID, actionID := model.NewAgentID(), model.NewAgentID()
	recipeID := model.NewRecipeID()
	recipe := &model.Recipe{
		ID:      recipeID,
		Name:    "failing source",
		Enabled: true,
		Graph: model.RecipeGraph{Agents: []*model.AgentConfig{
			{ID: sourceID, Kind: "failing.source", Runtime: model.RuntimeNative, Enabled: true},
			{ID: actionID, Kind: "counting.action", Runtime: model.RuntimeNative, Enabled: true, Dependencies: []model.AgentID{sourceID}},
		}},
	}
	cs := &fakeRecipeStore{recipe: recipe}

	action := &countingAction{}
	factories := registry.NewBaseRegistry[agent.Factory]()
	require.NoError(t, factories.Register("failing.source", func(cfg *model.AgentConfig) (interface{}, error) { return failingSource{}, nil }))
	require.NoError(t, factories.Register("counting.action", func(cfg *model.AgentConfig) (interface{}, error) { return action, nil }))

	exec := newExecutor(t, cs, factories)
	err := exec.RunRecipe(context.Background(), recipeID)
	require.Error(t, err)
	assert.Equal(t, 0, action.callCount(), "downstream node must not run once an upstream node fails")

	status, ok := exec.runner.GetStatus(sourceID)
	require.True(t, ok)
	assert.Equal(t, agent.StatusErrored, status)
}

func TestExecutor_RunRecipe_DisabledAgentSkippedWithEmptyOutput(t *testing.T) {
	sourceID, actionID := model.NewAgentID(), model.NewAgentID()
	recipeID := model.NewRecipeID()
	recipe := &model.Recipe{
		ID:      recipeID,
		Name:    "disabled source",
		Enabled: true,
		Graph: model.RecipeGraph{Agents: []*model.AgentConfig{
			{ID: sourceID, Kind: "emitting.source", Runtime: model.RuntimeNative, Enabled: false},
			{ID: actionID, Kind: "counting.action", Runtime: model.RuntimeNative, Enabled: true, Dependencies: []model.AgentID{sourceID}},
		}},
	}
	cs := &fakeRecipeStore{recipe: recipe}

	action := &countingAction{}
	factories := registry.NewBaseRegistry[agent.Factory]()
	require.NoError(t, factories.Register("emitting.source", func(cfg *model.AgentConfig) (interface{}, error) { return emittingSource{}, nil }))
	require.NoError(t, factories.Register("counting.action", func(cfg *model.AgentConfig) (interface{}, error) { return action, nil }))

	exec := newExecutor(t, cs, factories)
	require.NoError(t, exec.RunRecipe(context.Background(), recipeID))
	assert.Equal(t, 0, action.callCount(), "a disabled agent's outputs are the empty list")
}
