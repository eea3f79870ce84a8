package main

import (
	"encoding/json"
	"fmt"

	"helix.run/core/pkg/model"
)

// SchemaCmd prints the JSON Schema for AgentConfig, for an operator UI
// building agent definitions.
type SchemaCmd struct {
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	schema := model.AgentConfigSchema()
	var (
		out []byte
		err error
	)
	if c.Compact {
		out, err = json.Marshal(schema)
	} else {
		out, err = json.MarshalIndent(schema, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
