package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix.run/core/pkg/model"
)

func TestEnvCredentialProvider_FoundAndDecoded(t *testing.T) {
	id := model.NewCredentialID()
	t.Setenv(envCredentialVar(id), `{"id":"`+id.String()+`","name":"api-key","kind":"bearer","data":"c2VjcmV0"}`)

	cred, ok, err := NewEnvCredentialProvider().GetCredential(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "api-key", cred.Name)
}

func TestEnvCredentialProvider_NotSet(t *testing.T) {
	_, ok, err := NewEnvCredentialProvider().GetCredential(model.NewCredentialID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnvCredentialProvider_MalformedJSON(t *testing.T) {
	id := model.NewCredentialID()
	t.Setenv(envCredentialVar(id), `not json`)

	_, _, err := NewEnvCredentialProvider().GetCredential(id)
	require.Error(t, err)
}
