// Package runtime wires the Helix components into a single running
// instance using a functional-options bring-up idiom: a struct of
// injectable collaborators, an Option type, and a constructor that
// applies sane in-memory defaults before layering the caller's options
// on top.
package runtime

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"helix.run/core/pkg/agent"
	"helix.run/core/pkg/config"
	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/recipe"
	"helix.run/core/pkg/registry"
	"helix.run/core/pkg/sandbox"
	"helix.run/core/pkg/store"
)

// Runtime owns every collaborator named in §6 and the components built on
// top of them: the sandbox host and plugin manager, the agent Runner, and
// the recipe Executor.
type Runtime struct {
	cfg *config.RuntimeConfig
	log hclog.Logger

	configs     model.ConfigStore
	credentials sandbox.CredentialProvider
	stateStore  store.Store
	durable     eventbus.Publisher

	host      *sandbox.Host
	plugins   *sandbox.PluginManager
	factories *registry.BaseRegistry[agent.Factory]

	runner   *agent.Runner
	executor *recipe.Executor
}

// Option configures a Runtime before it is built.
type Option func(*Runtime)

// WithConfig sets the RuntimeConfig; without it, config.Defaults() is used.
func WithConfig(cfg *config.RuntimeConfig) Option {
	return func(r *Runtime) { r.cfg = cfg }
}

// WithLogger sets the hclog.Logger held by the Runtime. The Runner,
// Executor and sandbox Host it builds take no logger and do not use it.
func WithLogger(log hclog.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithConfigStore overrides the default in-memory ConfigStore.
func WithConfigStore(cs model.ConfigStore) Option {
	return func(r *Runtime) { r.configs = cs }
}

// WithCredentialProvider overrides the default environment-variable
// CredentialProvider.
func WithCredentialProvider(cp sandbox.CredentialProvider) Option {
	return func(r *Runtime) { r.credentials = cp }
}

// WithStateStore overrides the default in-memory state Store.
func WithStateStore(st store.Store) Option {
	return func(r *Runtime) { r.stateStore = st }
}

// WithDurablePublisher overrides the default in-memory collector standing
// in for the durable publisher; production wiring supplies an
// eventbus.StreamPublisher backed by Redis.
func WithDurablePublisher(pub eventbus.Publisher) Option {
	return func(r *Runtime) { r.durable = pub }
}

// WithLauncher overrides the sandbox host's module launcher; production
// wiring supplies rpcplugin.NewLoader().
func WithLauncher(launcher sandbox.Launcher) Option {
	return func(r *Runtime) { r.host = sandbox.NewHost(launcher) }
}

// WithNativeFactory registers a native agent constructor under kind before
// the Runtime is used.
func WithNativeFactory(kind string, factory agent.Factory) Option {
	return func(r *Runtime) {
		_ = r.factories.Register(kind, factory)
	}
}

// New builds a Runtime: in-memory defaults for every external
// collaborator, then the caller's options layered on top, then the
// components that depend on those collaborators (Runner, Executor) wired
// last so they see the final configuration (§4.E, §4.F).
func New(opts ...Option) *Runtime {
	r := &Runtime{
		cfg:         config.Defaults(),
		log:         hclog.NewNullLogger(),
		configs:     model.NewInMemoryConfigStore(),
		credentials: sandbox.NewEnvCredentialProvider(),
		stateStore:  store.NewInMemoryStore(),
		durable:     eventbus.NewInMemoryCollector(),
		factories:   registry.NewBaseRegistry[agent.Factory](),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.host == nil {
		r.host = sandbox.NewHost(nil)
	}
	r.plugins = sandbox.NewPluginManager(r.host)

	r.runner = agent.NewRunner(r.configs, r.durable, r.credentials, r.stateStore, r.plugins, r.factories)
	r.executor = recipe.NewExecutor(r.configs, r.runner, r.durable, r.stateStore, r.credentials, r.host, r.plugins, r.factories)
	return r
}

// Runner exposes start_agent/stop_agent/stop_all/get_status (§4.E).
func (r *Runtime) Runner() *agent.Runner { return r.runner }

// Executor exposes run_recipe (§4.F).
func (r *Runtime) Executor() *recipe.Executor { return r.executor }

// Config returns the RuntimeConfig this instance was built with.
func (r *Runtime) Config() *config.RuntimeConfig { return r.cfg }

// Shutdown stops every managed agent, best-effort (§4.E.3's stop_all).
func (r *Runtime) Shutdown(ctx context.Context) []error {
	return r.runner.StopAll(ctx)
}
