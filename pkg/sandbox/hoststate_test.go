package sandbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/eventbus"
	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
	"helix.run/core/pkg/store"
)

func newHostStateWithConfig(t *testing.T, cfgJSON string) *HostState {
	t.Helper()
	cfg := &model.AgentConfig{
		ID:        model.NewAgentID(),
		ProfileID: model.NewProfileID(),
		Config:    json.RawMessage(cfgJSON),
	}
	return NewHostState(cfg, cfg.ProfileID, eventbus.NewInMemoryCollector(), noCredentials{}, store.NewInMemoryStore(), Capabilities{}, 1_000_000)
}

func TestHostState_GetConfigValue_Found(t *testing.T) {
	hs := newHostStateWithConfig(t, `{"greeting":"hi"}`)
	val, status := hs.GetConfigValue("greeting", 64)
	require.Equal(t, helixerr.StatusOK, status)
	assert.JSONEq(t, `"hi"`, string(val))
}

func TestHostState_GetConfigValue_NotFound(t *testing.T) {
	hs := newHostStateWithConfig(t, `{"greeting":"hi"}`)
	val, status := hs.GetConfigValue("missing", 64)
	assert.Equal(t, helixerr.StatusNotFound, status)
	assert.Nil(t, val)
}

func TestHostState_GetConfigValue_BufferTooSmallWritesNothing(t *testing.T) {
	hs := newHostStateWithConfig(t, `{"greeting":"a much longer value than the buffer"}`)
	val, status := hs.GetConfigValue("greeting", 4)
	assert.Equal(t, helixerr.StatusBufferTooSmall, status)
	assert.Nil(t, val, "no partial write on buffer-too-small")
}

func TestHostState_GetState_BufferTooSmallWritesNothing(t *testing.T) {
	hs := newHostStateWithConfig(t, `{}`)
	require.Equal(t, helixerr.StatusOK, hs.SetState([]byte(`{"n":1,"padding":"xxxxxxxxxxxxxxxxxxxx"}`)))

	val, status := hs.GetState(4)
	assert.Equal(t, helixerr.StatusBufferTooSmall, status)
	assert.Nil(t, val)
}

func TestHostState_GetState_DefaultsToNullWhenUnset(t *testing.T) {
	hs := newHostStateWithConfig(t, `{}`)
	val, status := hs.GetState(64)
	require.Equal(t, helixerr.StatusOK, status)
	assert.Equal(t, "null", string(val))
}

func TestHostState_GetCredential_NotFound(t *testing.T) {
	hs := newHostStateWithConfig(t, `{}`)
	val, status := hs.GetCredential(model.NewCredentialID().String(), 64)
	assert.Equal(t, helixerr.StatusNotFound, status)
	assert.Nil(t, val)
}

func TestHostState_GetCredential_BufferTooSmallWritesNothing(t *testing.T) {
	hs := newHostStateWithConfig(t, `{}`)
	id := model.NewCredentialID()
	hs.CredentialProvider = stubCredentials{id: id, data: []byte("a secret far longer than four bytes")}

	val, status := hs.GetCredential(id.String(), 4)
	assert.Equal(t, helixerr.StatusBufferTooSmall, status)
	assert.Nil(t, val)
}

func TestHostState_ConsumeFuel_ExhaustsAtZero(t *testing.T) {
	hs := newHostStateWithConfig(t, `{}`)
	hs.fuel = perCallFuelCost
	assert.False(t, hs.FuelExhausted())
	assert.Equal(t, helixerr.StatusOK, hs.LogMessage("one"))
	assert.True(t, hs.FuelExhausted())
	assert.Equal(t, int32(helixerr.StatusInternal), hs.LogMessage("two"))
}

type stubCredentials struct {
	id   model.CredentialID
	data []byte
}

func (s stubCredentials) GetCredential(id model.CredentialID) (*model.Credential, bool, error) {
	if id != s.id {
		return nil, false, nil
	}
	return &model.Credential{ID: id, Data: s.data}, true, nil
}
