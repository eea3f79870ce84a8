package model

import "github.com/invopop/jsonschema"

// AgentConfigSchema emits the JSON Schema for AgentConfig, the way a
// reference SchemaCmd reflects its own Config struct for a
// config-builder UI (§6's "Config decoding" is paired with this optional
// schema-emission helper for validating AgentConfig.Config payloads before
// they reach a native or sandboxed agent).
func AgentConfigSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&AgentConfig{})
	schema.Title = "Helix AgentConfig"
	schema.Description = "Schema for a single agent's configuration record (§3)."
	return schema
}
