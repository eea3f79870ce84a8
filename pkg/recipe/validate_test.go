package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
)

func cfg(id model.AgentID, deps ...model.AgentID) *model.AgentConfig {
	return &model.AgentConfig{ID: id, Kind: "noop", Runtime: model.RuntimeNative, Enabled: true, Dependencies: deps}
}

func TestValidate_RejectsEmptyName(t *testing.T) {
	s := model.NewAgentID()
	r := &model.Recipe{Name: "  ", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{cfg(s)}}}
	err := Validate(r)
	require.Error(t, err)
}

func TestValidate_RejectsEmptyGraph(t *testing.T) {
	r := &model.Recipe{Name: "empty"}
	err := Validate(r)
	require.Error(t, err)
}

func TestValidate_RejectsDuplicateAgentID(t *testing.T) {
	id := model.NewAgentID()
	r := &model.Recipe{Name: "dup", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{cfg(id), cfg(id)}}}
	err := Validate(r)
	require.Error(t, err)
}

func TestValidate_RejectsSelfDependency(t *testing.T) {
	id := model.NewAgentID()
	r := &model.Recipe{Name: "self", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{cfg(id, id)}}}
	err := Validate(r)
	require.Error(t, err)
}

func TestValidate_RejectsDanglingDependency(t *testing.T) {
	id := model.NewAgentID()
	r := &model.Recipe{Name: "dangling", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{cfg(id, model.NewAgentID())}}}
	err := Validate(r)
	require.Error(t, err)
}

func TestValidate_AcceptsLinearChain(t *testing.T) {
	s, a := model.NewAgentID(), model.NewAgentID()
	r := &model.Recipe{Name: "chain", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{
		cfg(s), cfg(a, s),
	}}}
	assert.NoError(t, Validate(r))
}

func TestValidate_RejectsCycle(t *testing.T) {
	a, b := model.NewAgentID(), model.NewAgentID()
	r := &model.Recipe{Name: "cycle", Graph: model.RecipeGraph{Agents: []*model.AgentConfig{
		cfg(a, b), cfg(b, a),
	}}}
	err := Validate(r)
	require.Error(t, err)
	var he *helixerr.HelixError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, helixerr.KindRecipeGraph, he.KindOf())
}

func TestTopologicalOrder_DependencyBeforeDependent(t *testing.T) {
	s, a, b := model.NewAgentID(), model.NewAgentID(), model.NewAgentID()
	agents := []*model.AgentConfig{cfg(b, a), cfg(a, s), cfg(s)}
	order, err := topologicalOrder(agents)
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[model.AgentID]int, 3)
	for i, n := range order {
		pos[n.ID] = i
	}
	assert.Less(t, pos[s], pos[a])
	assert.Less(t, pos[a], pos[b])
}

func TestTopologicalOrder_TiesBrokenByAscendingAgentID(t *testing.T) {
	root := model.NewAgentID()
	leaves := make([]model.AgentID, 4)
	for i := range leaves {
		leaves[i] = model.NewAgentID()
	}
	agents := []*model.AgentConfig{cfg(root)}
	for _, l := range leaves {
		agents = append(agents, cfg(l, root))
	}

	order, err := topologicalOrder(agents)
	require.NoError(t, err)
	require.Len(t, order, 5)
	require.Equal(t, root, order[0].ID)

	sorted := append([]model.AgentID(nil), leaves...)
	sortAgentIDs(sorted)
	for i, id := range sorted {
		assert.Equal(t, id, order[i+1].ID)
	}
}
