package sandbox

import (
	"errors"

	"helix.run/core/pkg/sandbox/rpcplugin"
)

// fakeLauncher and fakeModule let host_test.go exercise Host without
// spawning a real subprocess: the module's executable path is treated as
// an opaque key into a registry of in-process behaviors.
type fakeLauncher struct {
	behaviors map[string]*fakeModule
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{behaviors: make(map[string]*fakeModule)}
}

func (l *fakeLauncher) register(execPath string, m *fakeModule) {
	l.behaviors[execPath] = m
}

func (l *fakeLauncher) Launch(execPath string, hostAPI rpcplugin.HostAPI) (*rpcplugin.Launched, error) {
	m, ok := l.behaviors[execPath]
	if !ok {
		return nil, errors.New("no fake registered for " + execPath)
	}
	m.hostAPI = hostAPI
	return &rpcplugin.Launched{Module: m}, nil
}

type fakeModule struct {
	hostAPI         rpcplugin.HostAPI
	runSourceErr    error
	transformOut    [][]byte
	transformErr    error
	executeErr      error
	burnFuelOnCalls int
	block           chan struct{} // if non-nil, RunSource blocks until closed
}

func (m *fakeModule) RunSource(configJSON []byte) error {
	if m.block != nil {
		<-m.block
	}
	m.burnFuel()
	return m.runSourceErr
}

func (m *fakeModule) TransformEvent(eventJSON []byte) ([][]byte, error) {
	m.burnFuel()
	return m.transformOut, m.transformErr
}

func (m *fakeModule) ExecuteEvent(eventJSON []byte) error {
	m.burnFuel()
	return m.executeErr
}

func (m *fakeModule) Configure(host *rpcplugin.HostAPIClient) {}

func (m *fakeModule) burnFuel() {
	for i := 0; i < m.burnFuelOnCalls; i++ {
		m.hostAPI.LogMessage("burning fuel")
	}
}
