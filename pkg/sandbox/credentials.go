package sandbox

import (
	"encoding/json"
	"os"
	"strings"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
)

// EnvCredentialProvider is the reference CredentialProvider named in §6: it
// reads JSON-encoded credentials from environment variables named
// HELIX_CRED_<UPPERCASE_ID>, leaving decryption of Credential.Data to
// whatever wrote the variable. Suitable for local development and the
// test suite; a production deployment supplies its own provider backed by
// a secrets manager.
type EnvCredentialProvider struct{}

// NewEnvCredentialProvider constructs the reference provider.
func NewEnvCredentialProvider() EnvCredentialProvider { return EnvCredentialProvider{} }

func envCredentialVar(id model.CredentialID) string {
	return "HELIX_CRED_" + strings.ToUpper(id.String())
}

// GetCredential implements CredentialProvider.
func (EnvCredentialProvider) GetCredential(id model.CredentialID) (*model.Credential, bool, error) {
	raw, ok := os.LookupEnv(envCredentialVar(id))
	if !ok {
		return nil, false, nil
	}
	var cred model.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, false, helixerr.NewSerializationError("EnvCredentialProvider: decoding "+envCredentialVar(id), err)
	}
	return &cred, true, nil
}

var _ CredentialProvider = EnvCredentialProvider{}
