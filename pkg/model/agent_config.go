package model

import "encoding/json"

// Runtime selects how an agent's body is instantiated.
type Runtime string

const (
	RuntimeNative    Runtime = "native"
	RuntimeSandboxed Runtime = "sandboxed"
)

// AgentConfig is owned by the external ConfigStore and consumed read-only
// by the Runner. Once created it is immutable within a running instance;
// reloading a new definition requires stop -> unload -> instantiate.
type AgentConfig struct {
	ID        AgentID   `json:"id" yaml:"id" jsonschema:"title=Agent ID,description=Unique identifier for this agent"`
	ProfileID ProfileID `json:"profile_id" yaml:"profile_id" jsonschema:"title=Profile ID,description=Tenant this agent belongs to"`
	Kind      string    `json:"kind" yaml:"kind" jsonschema:"title=Kind,description=Resolves to a native factory or names the sandboxed module's behavior"`
	Runtime   Runtime   `json:"runtime" yaml:"runtime" jsonschema:"title=Runtime,enum=native,enum=sandboxed"`

	ModulePath    string          `json:"module_path,omitempty" yaml:"module_path,omitempty" jsonschema:"title=Module Path,description=Required when runtime is sandboxed"`
	Config        json.RawMessage `json:"config,omitempty" yaml:"config,omitempty" jsonschema:"title=Config,description=Opaque agent-interpreted configuration blob"`
	CredentialIDs []CredentialID  `json:"credential_ids,omitempty" yaml:"credential_ids,omitempty" jsonschema:"title=Credential IDs"`
	Enabled       bool            `json:"enabled" yaml:"enabled" jsonschema:"title=Enabled,default=true"`
	Dependencies  []AgentID       `json:"dependencies,omitempty" yaml:"dependencies,omitempty" jsonschema:"title=Dependencies,description=Agent IDs this node consumes events from"`
}

// Validate enforces invariant 4 of §3: a sandboxed runtime requires a
// module path.
func (c *AgentConfig) Validate() error {
	if c.Runtime == RuntimeSandboxed && c.ModulePath == "" {
		return &invariantError{"AgentConfig.Runtime=Sandboxed requires ModulePath"}
	}
	return nil
}

// IsSource reports whether this agent has no dependencies within its
// recipe, i.e. it is a DAG root.
func (c *AgentConfig) IsSource() bool { return len(c.Dependencies) == 0 }

type invariantError struct{ msg string }

func (e *invariantError) Error() string { return e.msg }
