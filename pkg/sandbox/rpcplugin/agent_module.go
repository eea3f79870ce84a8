package rpcplugin

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// AgentModule is implemented by a guest process and dispensed to the host.
// Exactly one method is meaningful per module's AgentRole (§4.D.3's "must
// export one of" rule); a module that doesn't implement its role's method
// returns ErrFunctionNotFound, which the host, like any other error the
// guest returns, reports as helixerr.SandboxTrap.
type AgentModule interface {
	// RunSource is called for source agents, given the serialized
	// AgentConfig, and returns nothing directly — output events are
	// produced via HostAPI.EmitEvent against the in-memory collector
	// wired as this instance's publisher.
	RunSource(configJSON []byte) error

	// TransformEvent is called for transform agents with one input
	// event and returns the events it produces.
	TransformEvent(eventJSON []byte) ([][]byte, error)

	// ExecuteEvent is called for action agents with one input event
	// and emits nothing itself (it may still call HostAPI.EmitEvent).
	ExecuteEvent(eventJSON []byte) error

	// Configure is invoked once, immediately after dispense, handing
	// the guest a client for the host ABI calls of §4.D.3.
	Configure(host *HostAPIClient)
}

// ErrFunctionNotFound is returned by an AgentModule method a guest doesn't
// implement for its declared role; the host never calls methods outside a
// module's role, so this exists for guest SDKs that
// want a canonical "unimplemented" sentinel.
type ErrFunctionNotFound struct{ Function string }

func (e *ErrFunctionNotFound) Error() string { return "function not exported: " + e.Function }

// AgentModulePlugin implements plugin.Plugin for go-plugin's net/rpc
// protocol. Server runs in the guest process; Client runs in the host
// process — see the package doc comment in handshake.go for why net/rpc rather than
// gRPC was chosen here.
type AgentModulePlugin struct {
	// Impl is set in the guest binary's main(), never in the host.
	Impl AgentModule

	// hostAPI is set by the loader before go-plugin invokes Client in
	// the host process; see loader.go.
	hostAPI HostAPI
}

// Server dials back into the host's HostAPI service over the MuxBroker
// before handing its Impl off for RPC dispatch, completing the
// "host ABI linked via a linker at instantiation" requirement of §4.D.4
// using a process boundary instead of a linear-memory one.
func (p *AgentModulePlugin) Server(broker *plugin.MuxBroker) (interface{}, error) {
	conn, err := broker.Dial(hostAPIBrokerID)
	if err != nil {
		return nil, err
	}
	p.Impl.Configure(NewHostAPIClient(rpc.NewClient(conn)))
	return &AgentModuleRPCServer{Impl: p.Impl}, nil
}

// Client starts serving this instance's HostAPI on the broker before
// returning the guest-facing RPC client handle.
func (p *AgentModulePlugin) Client(broker *plugin.MuxBroker, client *rpc.Client) (interface{}, error) {
	go broker.AcceptAndServe(hostAPIBrokerID, &HostAPIServer{Impl: p.hostAPI})
	return &AgentModuleRPC{client: client}, nil
}

// WithHostAPI binds the host-side implementation the guest will be able to
// call back into. Must be set before go-plugin dispatches Client.
func (p *AgentModulePlugin) WithHostAPI(h HostAPI) *AgentModulePlugin {
	p.hostAPI = h
	return p
}

// AgentModuleRPCServer runs in the guest process and dispatches incoming
// RPC calls to the real implementation.
type AgentModuleRPCServer struct {
	Impl AgentModule
}

func (s *AgentModuleRPCServer) RunSource(args []byte, reply *StatusReply) error {
	err := s.Impl.RunSource(args)
	if err != nil {
		reply.Status = -6
		return err
	}
	reply.Status = 0
	return nil
}

func (s *AgentModuleRPCServer) TransformEvent(args []byte, reply *[][]byte) error {
	out, err := s.Impl.TransformEvent(args)
	*reply = out
	return err
}

func (s *AgentModuleRPCServer) ExecuteEvent(args []byte, reply *StatusReply) error {
	err := s.Impl.ExecuteEvent(args)
	if err != nil {
		reply.Status = -6
		return err
	}
	reply.Status = 0
	return nil
}

// AgentModuleRPC runs in the host process and forwards calls to the
// guest over net/rpc.
type AgentModuleRPC struct {
	client *rpc.Client
}

func (c *AgentModuleRPC) RunSource(configJSON []byte) error {
	var reply StatusReply
	return c.client.Call("Plugin.RunSource", configJSON, &reply)
}

func (c *AgentModuleRPC) TransformEvent(eventJSON []byte) ([][]byte, error) {
	var reply [][]byte
	err := c.client.Call("Plugin.TransformEvent", eventJSON, &reply)
	return reply, err
}

func (c *AgentModuleRPC) ExecuteEvent(eventJSON []byte) error {
	var reply StatusReply
	return c.client.Call("Plugin.ExecuteEvent", eventJSON, &reply)
}
