package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"helix.run/core/pkg/model"
	"helix.run/core/pkg/recipe"
)

func decodeRecipe(raw []byte) (*model.Recipe, error) {
	var r model.Recipe
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing recipe yaml: %w", err)
	}
	return &r, nil
}

func validateRecipe(r *model.Recipe) error {
	return recipe.Validate(r)
}
