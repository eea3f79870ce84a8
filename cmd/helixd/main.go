// Command helixd is a thin bring-up binary over internal/runtime. It is
// not itself a spec component (SPEC_FULL.md's module layout marks it
// [AMBIENT]) — it exists only to demonstrate wiring the Runner and the
// recipe Executor behind a couple of operator-facing subcommands, the way
// a reference CLI wraps a runtime package behind subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"

	"helix.run/core/internal/runtime"
	"helix.run/core/pkg/config"
	"helix.run/core/pkg/model"
)

// CLI defines helixd's command-line interface.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the runtime and block until a recipe is run or a signal arrives."`
	Validate ValidateCmd `cmd:"" help:"Validate a recipe definition file."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON Schema for AgentConfig."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config   string `short:"c" help:"Path to a RuntimeConfig YAML file." type:"path"`
	LogLevel string `help:"Log level (trace, debug, info, warn, error)." default:"info"`
}

// ServeCmd brings up a Runtime and runs a single recipe to completion, the
// way helixd is expected to be invoked by an external trigger or scheduler
// per spec.md §1 ("general distributed scheduling is out of scope" — this
// binary runs one recipe per invocation rather than hosting its own
// scheduler).
type ServeCmd struct {
	RecipeID string `arg:"" help:"UUID of the recipe to run."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log := hclog.New(&hclog.LoggerOptions{Name: "helixd", Level: hclog.LevelFromString(cli.LogLevel)})

	recipeID, err := model.ParseRecipeID(c.RecipeID)
	if err != nil {
		return fmt.Errorf("invalid recipe id: %w", err)
	}

	cfg := config.Defaults()
	if cli.Config != "" {
		raw, err := os.ReadFile(cli.Config)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		cfg, err = config.Decode(raw)
		if err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
	}

	rt := runtime.New(runtime.WithConfig(cfg), runtime.WithLogger(log))
	defer rt.Shutdown(context.Background())

	log.Info("running recipe", "recipe_id", recipeID.String())
	if err := rt.Executor().RunRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("run_recipe: %w", err)
	}
	log.Info("recipe completed", "recipe_id", recipeID.String())
	return nil
}

// ValidateCmd checks a recipe definition without running it.
type ValidateCmd struct {
	File string `arg:"" help:"Path to a Recipe YAML file." type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.File, err)
	}
	r, err := decodeRecipe(raw)
	if err != nil {
		return err
	}
	if err := validateRecipe(r); err != nil {
		return err
	}
	fmt.Printf("recipe %q is a valid DAG (%d agents)\n", r.Name, len(r.Graph.Agents))
	return nil
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(versionString())
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Name("helixd"), kong.Description("Helix recipe runtime"))
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "helixd:", err)
		os.Exit(1)
	}
}
