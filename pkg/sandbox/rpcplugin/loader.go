package rpcplugin

import (
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// Loader launches a compiled module's executable as a child process and
// dispenses its AgentModule, mirroring the bring-up sequence of the
// teacher's pkg/plugins/grpc.GRPCLoader: build a plugin.ClientConfig with
// HandshakeConfig, get the RPC client, dispense by key, wrap for use.
type Loader struct {
	logger hclog.Logger
}

// NewLoader constructs a Loader with a named hclog logger, matching
// NewGRPCLoader's pattern.
func NewLoader() *Loader {
	return &Loader{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:  "helix-sandbox",
			Level: hclog.Info,
		}),
	}
}

// Launched is the handle returned by Launch: the dispensed module plus the
// underlying go-plugin client needed to Kill the process on terminate.
type Launched struct {
	Module AgentModule
	client *plugin.Client
}

// Kill terminates the guest process. Safe to call multiple times.
func (l *Launched) Kill() {
	if l.client != nil {
		l.client.Kill()
	}
}

// Launch starts execPath as a plugin subprocess, wires hostAPI as the
// callback service reachable over the broker, and returns the dispensed
// AgentModule. Any failure here maps to SandboxError{Instantiate}.
func (l *Loader) Launch(execPath string, hostAPI HostAPI) (*Launched, error) {
	impl := &AgentModulePlugin{}
	impl.WithHostAPI(hostAPI)

	clientConfig := &plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			agentModulePluginKey: impl,
		},
		Cmd:              exec.Command(execPath),
		Logger:           l.logger,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	}

	client := plugin.NewClient(clientConfig)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("getting rpc client: %w", err)
	}

	raw, err := rpcClient.Dispense(agentModulePluginKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispensing agent module: %w", err)
	}

	module, ok := raw.(AgentModule)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed value does not implement AgentModule")
	}

	return &Launched{Module: module, client: client}, nil
}

// Validate checks that execPath looks like a launchable executable,
// mirroring GRPCLoader.Validate.
func (l *Loader) Validate(execPath string) error {
	cmd := exec.Command(execPath)
	if cmd.Path == "" {
		return fmt.Errorf("module executable not found: %s", execPath)
	}
	return nil
}
