// Package sandbox implements the sandbox host of §4.D: a compiled-module
// cache, per-instance host state, the fixed host ABI, fuel/memory/time
// limits, and instance lifecycle management. Modules run out-of-process,
// bootstrapped through github.com/hashicorp/go-plugin the same way the
// teacher's pkg/plugins/grpc loader launches its provider plugins — see
// pkg/sandbox/rpcplugin for the transport.
package sandbox

import (
	"encoding/json"
	"time"

	"helix.run/core/pkg/model"
)

// ResourceLimits configures a single instance's resource envelope (§4.D.4).
type ResourceLimits struct {
	FuelBudget     uint64        // instruction-equivalent budget; RPC calls against the host ABI consume fuel
	MemoryPagesMax uint32        // advisory; enforced by the guest process's own allocator
	CallTimeout    time.Duration // wall-clock timeout applied to each top-level call
}

// DefaultResourceLimits mirrors the configuration options named in spec §6.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		FuelBudget:     1_000_000,
		MemoryPagesMax: 256,
		CallTimeout:    10 * time.Second,
	}
}

// Capabilities gates the optional OS-services layer named in §4.D.4. Deny
// by default; carried forward from helix-wasm's enable_wasi option (see
// SPEC_FULL.md's supplemented-features section).
type Capabilities struct {
	AllowNetwork bool
	AllowPaths   []string
}

// ModuleSource names where a module's bytecode comes from (§4.D.1): a local
// path, raw bytes, or a remote URL fetched once and compiled like the bytes
// case.
type ModuleSource struct {
	Path  string
	Bytes []byte
	URL   string
}

// AgentRole selects which of the three guest entrypoints a module is
// expected to export, per §4.D.3's "must also export one of" rule.
type AgentRole string

const (
	RoleSource    AgentRole = "source"    // exports _helix_run_source
	RoleTransform AgentRole = "transform" // exports _helix_transform_event
	RoleAction    AgentRole = "action"    // exports _helix_execute_event
)

// ExecutionResult is returned by Call (§4.D.5).
type ExecutionResult struct {
	Result               json.RawMessage
	ExecutionTime        time.Duration
	MemoryUsed           uint32
	InstructionsExecuted uint64
}

// InstanceStatus mirrors the Sandbox Instance lifecycle of §3:
// Loaded -> Instantiated -> Active -> Terminated.
type InstanceStatus string

const (
	InstanceLoaded       InstanceStatus = "loaded"
	InstanceInstantiated InstanceStatus = "instantiated"
	InstanceActive       InstanceStatus = "active"
	InstanceTerminated   InstanceStatus = "terminated"
)

// PluginConfig is the record held by the plugin manager layer (§4.D.6),
// enriched with Version and Permissions per the original's plugin
// registration record (SPEC_FULL.md supplemented features).
type PluginConfig struct {
	ID          model.PluginID
	Name        string
	Version     string
	Source      ModuleSource
	Permissions Capabilities
	Role        AgentRole
	ResourceLimits
}
