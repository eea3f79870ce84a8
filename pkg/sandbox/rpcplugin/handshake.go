// Package rpcplugin is the out-of-process transport for sandboxed agent
// modules. It bootstraps guest processes with github.com/hashicorp/go-plugin
// using the standard plugin.HandshakeConfig / plugin.ClientConfig idiom,
// but speaks go-plugin's net/rpc protocol rather than gRPC: the Helix
// host ABI is a flat set of byte-oriented calls with no natural
// protobuf service boundary, so there is nothing to gain from
// hand-faking protoc-generated stubs.
package rpcplugin

import "github.com/hashicorp/go-plugin"

// HandshakeConfig is the magic cookie exchanged at process bring-up so a
// module binary launched outside of Helix refuses to act as a plugin.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "HELIX_SANDBOX_PLUGIN",
	MagicCookieValue: "helix_sandbox_v1",
}

// agentModulePluginKey is the name under which the guest's AgentModule
// implementation is dispensed.
const agentModulePluginKey = "agent_module"

// hostAPIBrokerID is the fixed MuxBroker stream id the guest dials to
// reach back into the host's HostAPI service. A single, well-known id is
// sufficient because the plugin manager enforces at most one active
// instance per plugin, so there is exactly one HostAPI channel needed
// per guest process.
const hostAPIBrokerID = 1
