package sandbox

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/store"
)

// CredentialProvider is the §6 external collaborator consumed by HostState
// to resolve get_credential calls.
type CredentialProvider interface {
	GetCredential(id model.CredentialID) (*model.Credential, bool, error)
}

// HostState is constructed fresh for every instantiation and bound to its
// store for the instance's lifetime (§4.D.2). It is the receiver behind the
// host ABI server exposed back to the guest process over the broker
// connection established by rpcplugin.
type HostState struct {
	AgentConfig        *model.AgentConfig
	ProfileID          model.ProfileID
	Publisher          eventbus.Publisher
	CredentialProvider CredentialProvider
	StateStore         store.Store
	Capabilities       Capabilities

	mu       sync.Mutex
	fuel     uint64
	fuelUsed uint64
}

// NewHostState builds the per-instance state sharing the given handles.
func NewHostState(cfg *model.AgentConfig, profile model.ProfileID, pub eventbus.Publisher, creds CredentialProvider, st store.Store, caps Capabilities, fuelBudget uint64) *HostState {
	return &HostState{
		AgentConfig:        cfg,
		ProfileID:          profile,
		Publisher:          pub,
		CredentialProvider: creds,
		StateStore:         st,
		Capabilities:       caps,
		fuel:               fuelBudget,
	}
}

// consumeFuel debits n units from the remaining budget. It returns false
// once the budget is exhausted; the caller maps that to SandboxFuelExhausted
// and the instance is terminated, never recovered (§5).
func (h *HostState) consumeFuel(n uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fuel < n {
		h.fuel = 0
		return false
	}
	h.fuel -= n
	h.fuelUsed += n
	return true
}

// FuelUsed reports instructions_executed for the ExecutionResult (§4.D.5).
func (h *HostState) FuelUsed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fuelUsed
}

// FuelExhausted reports whether the remaining budget has reached zero.
func (h *HostState) FuelExhausted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fuel == 0
}

// perCallFuelCost is a fixed debit per host-ABI invocation. The reference
// runtime meters actual guest instructions; since guest code here runs as
// an opaque out-of-process binary, host calls are the only instrumentable
// proxy for fuel consumption.
const perCallFuelCost = 100

// LogMessage implements the log_message host call.
func (h *HostState) LogMessage(msg string) int32 {
	if !h.consumeFuel(perCallFuelCost) {
		return int32(helixerr.StatusInternal)
	}
	return helixerr.StatusOK
}

// EmitEvent implements the emit_event host call.
func (h *HostState) EmitEvent(payloadJSON []byte, typeOverride string) int32 {
	if !h.consumeFuel(perCallFuelCost) {
		return int32(helixerr.StatusInternal)
	}
	if err := h.Publisher.PublishEvent(context.Background(), h.AgentConfig.ID, payloadJSON, typeOverride); err != nil {
		return helixerr.StatusInternal
	}
	return helixerr.StatusOK
}

// GetConfigValue implements get_config_value. bufLen is the caller's
// declared buffer capacity; if the value doesn't fit, no partial write
// occurs and StatusBufferTooSmall is returned (scenario 8 of §8).
func (h *HostState) GetConfigValue(key string, bufLen int) ([]byte, int32) {
	if !h.consumeFuel(perCallFuelCost) {
		return nil, helixerr.StatusInternal
	}
	val, ok := lookupConfigKey(h.AgentConfig.Config, key)
	if !ok {
		return nil, helixerr.StatusNotFound
	}
	if len(val) > bufLen {
		return nil, helixerr.StatusBufferTooSmall
	}
	return val, int32(len(val))
}

// GetState implements get_state.
func (h *HostState) GetState(bufLen int) ([]byte, int32) {
	if !h.consumeFuel(perCallFuelCost) {
		return nil, helixerr.StatusInternal
	}
	val, ok, err := h.StateStore.Get(h.ProfileID, h.AgentConfig.ID)
	if err != nil {
		return nil, helixerr.StatusStateError
	}
	if !ok {
		val = []byte("null")
	}
	if len(val) > bufLen {
		return nil, helixerr.StatusBufferTooSmall
	}
	return val, int32(len(val))
}

// SetState implements set_state.
func (h *HostState) SetState(stateJSON []byte) int32 {
	if !h.consumeFuel(perCallFuelCost) {
		return helixerr.StatusInternal
	}
	if err := h.StateStore.Set(h.ProfileID, h.AgentConfig.ID, stateJSON); err != nil {
		return helixerr.StatusStateError
	}
	return helixerr.StatusOK
}

// GetCredential implements get_credential. Returns StatusNotFound (-2) for
// a missing id (scenario 7 of §8).
func (h *HostState) GetCredential(credID string, bufLen int) ([]byte, int32) {
	if !h.consumeFuel(perCallFuelCost) {
		return nil, helixerr.StatusInternal
	}
	id, err := model.ParseCredentialID(credID)
	if err != nil {
		return nil, helixerr.StatusDeserializeError
	}
	cred, ok, err := h.CredentialProvider.GetCredential(id)
	if err != nil {
		return nil, helixerr.StatusInternal
	}
	if !ok {
		return nil, helixerr.StatusNotFound
	}
	if len(cred.Data) > bufLen {
		return nil, helixerr.StatusBufferTooSmall
	}
	return cred.Data, int32(len(cred.Data))
}

// GetTime implements get_time: milliseconds since the Unix epoch.
func (h *HostState) GetTime() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Random implements random: a 32-bit pseudo-random value. Not
// cryptographically meaningful; guests needing secure randomness should
// derive it from a credential-backed seed instead.
func (h *HostState) Random() uint32 {
	return rand.Uint32()
}
