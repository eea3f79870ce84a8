// Package recipe implements the recipe validator and executor of §4.F:
// DAG validation and topological-order dispatch over a recipe's agents.
package recipe

import (
	"sort"
	"strings"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
)

// Validate enforces the five checks of §4.F.1 in order, returning the
// first one that fails.
func Validate(r *model.Recipe) error {
	if strings.TrimSpace(r.Name) == "" {
		return helixerr.NewValidationError("recipe.name", nil)
	}
	agents := r.Graph.Agents
	if len(agents) == 0 {
		return helixerr.NewValidationError("recipe must contain at least one agent", nil)
	}

	byID := make(map[model.AgentID]*model.AgentConfig, len(agents))
	for _, a := range agents {
		if _, dup := byID[a.ID]; dup {
			return helixerr.NewValidationError("duplicate agent id "+a.ID.String(), nil)
		}
		byID[a.ID] = a
	}

	for _, a := range agents {
		for _, dep := range a.Dependencies {
			if dep == a.ID {
				return helixerr.NewValidationError("agent "+a.ID.String()+" depends on itself", nil)
			}
			if _, ok := byID[dep]; !ok {
				return helixerr.NewValidationError("agent "+a.ID.String()+" depends on unknown agent "+dep.String(), nil)
			}
		}
	}

	if _, err := topologicalOrder(agents); err != nil {
		return err
	}
	return nil
}

// topologicalOrder implements Kahn's algorithm per §4.F.1 and §4.F.3:
// adjacency dep -> dependent, in-degree per node, a queue seeded with
// zero-in-degree nodes and re-seeded as successors reach zero in-degree,
// with ties among simultaneously-ready nodes broken by ascending AgentID
// byte order for determinism. A processed count short of the node count
// means a cycle remains.
func topologicalOrder(agents []*model.AgentConfig) ([]*model.AgentConfig, error) {
	byID := make(map[model.AgentID]*model.AgentConfig, len(agents))
	inDegree := make(map[model.AgentID]int, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
		inDegree[a.ID] = len(a.Dependencies)
	}
	dependents := buildDependents(agents)

	var ready []model.AgentID
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortAgentIDs(ready)

	var order []*model.AgentConfig
	for len(ready) > 0 {
		sortAgentIDs(ready)
		current := ready[0]
		ready = ready[1:]
		order = append(order, byID[current])

		var justReady []model.AgentID
		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				justReady = append(justReady, dependent)
			}
		}
		sortAgentIDs(justReady)
		ready = append(ready, justReady...)
	}

	if len(order) != len(agents) {
		return nil, helixerr.NewRecipeGraphError("cycles")
	}
	return order, nil
}

// buildDependents inverts each agent's Dependencies into a dep -> []dependent
// adjacency, the direction Kahn's algorithm walks (§4.F.1) and the same
// structural fact the executor uses to tell a leaf node (an Action) from an
// interior one (a Transform) for a sandboxed agent's role.
func buildDependents(agents []*model.AgentConfig) map[model.AgentID][]model.AgentID {
	dependents := make(map[model.AgentID][]model.AgentID, len(agents))
	for _, a := range agents {
		for _, dep := range a.Dependencies {
			dependents[dep] = append(dependents[dep], a.ID)
		}
	}
	return dependents
}

func sortAgentIDs(ids []model.AgentID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}
