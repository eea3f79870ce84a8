package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentID_JSONRoundTripsAsUUIDString(t *testing.T) {
	id := NewAgentID()
	cfg := &AgentConfig{ID: id, Kind: "noop", Runtime: RuntimeNative}

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"`+id.String()+`"`, "an id must serialize as its canonical UUID string, not a byte array")

	var decoded AgentConfig
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.ID)
}

func TestCredentialID_JSONRoundTrip(t *testing.T) {
	id := NewCredentialID()
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(raw))

	var decoded CredentialID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded)
}
