package model

// Trigger describes what initiates a recipe run outside of an explicit
// call to run_recipe. Only the shape needed by the core is kept here; the
// scheduler that interprets CRON expressions is an external collaborator
// per §1's Non-goals (general distributed scheduling is out of scope).
type Trigger struct {
	Kind string `json:"kind" yaml:"kind"` // e.g. "cron"
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// RecipeGraph is the set of agents (by reference) composing a recipe. Each
// AgentConfig's own Dependencies field supplies the edges.
type RecipeGraph struct {
	Agents []*AgentConfig `json:"agents" yaml:"agents"`
}

// Recipe is a DAG of agents plus an optional trigger.
type Recipe struct {
	ID        RecipeID    `json:"id" yaml:"id"`
	ProfileID ProfileID   `json:"profile_id" yaml:"profile_id"`
	Name      string      `json:"name" yaml:"name"`
	Graph     RecipeGraph `json:"graph" yaml:"graph"`
	Trigger   *Trigger    `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Enabled   bool        `json:"enabled" yaml:"enabled"`
}
