package sandbox

import (
	"sync"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
)

// PluginManager is the layer over the sandbox host named in §4.D.6. A
// plugin has at most one active instance at a time; re-instantiating first
// terminates the previous instance. Unregistering a plugin terminates its
// instance and drops the compiled module from the cache.
type PluginManager struct {
	host *Host

	mu      sync.Mutex
	configs map[model.PluginID]*PluginConfig
	active  map[model.PluginID]model.InstanceID
	modules map[model.PluginID]*CompiledModule
}

// NewPluginManager constructs a manager over host.
func NewPluginManager(host *Host) *PluginManager {
	return &PluginManager{
		host:    host,
		configs: make(map[model.PluginID]*PluginConfig),
		active:  make(map[model.PluginID]model.InstanceID),
		modules: make(map[model.PluginID]*CompiledModule),
	}
}

// Register records cfg without instantiating anything.
func (m *PluginManager) Register(cfg *PluginConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
}

// Instantiate loads (or reuses) the plugin's compiled module and launches a
// fresh instance, terminating any previously active instance for this
// plugin first.
func (m *PluginManager) Instantiate(agentID model.AgentID, pluginID model.PluginID, hostState *HostState) (model.InstanceID, error) {
	m.mu.Lock()
	cfg, ok := m.configs[pluginID]
	m.mu.Unlock()
	if !ok {
		return model.InstanceID{}, helixerr.NewNotFoundError("plugin_config", pluginID.String())
	}

	if prev, ok := m.activeInstance(pluginID); ok {
		if err := m.host.Terminate(prev); err != nil && !helixerr.IsSandboxKind(err, helixerr.SandboxInstanceNotFound) {
			return model.InstanceID{}, err
		}
	}

	module, err := m.host.LoadModule(cfg.Source, cfg.Role)
	if err != nil {
		return model.InstanceID{}, err
	}

	id, err := m.host.Instantiate(agentID, module, hostState, cfg.ResourceLimits)
	if err != nil {
		m.host.cache.Release(module)
		return model.InstanceID{}, err
	}

	m.mu.Lock()
	m.active[pluginID] = id
	m.modules[pluginID] = module
	m.mu.Unlock()

	return id, nil
}

func (m *PluginManager) activeInstance(pluginID model.PluginID) (model.InstanceID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[pluginID]
	return id, ok
}

// Unload terminates a plugin's active instance, if any.
func (m *PluginManager) Unload(pluginID model.PluginID) error {
	id, ok := m.activeInstance(pluginID)
	if !ok {
		return nil
	}
	err := m.host.Terminate(id)
	m.mu.Lock()
	delete(m.active, pluginID)
	m.mu.Unlock()
	return err
}

// Unregister unloads the plugin's instance and drops its compiled module
// from the cache entirely.
func (m *PluginManager) Unregister(pluginID model.PluginID) error {
	if err := m.Unload(pluginID); err != nil {
		return err
	}
	m.mu.Lock()
	module, ok := m.modules[pluginID]
	delete(m.modules, pluginID)
	delete(m.configs, pluginID)
	m.mu.Unlock()
	if ok {
		m.host.cache.Evict(module.Key)
	}
	return nil
}
