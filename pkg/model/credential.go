package model

import "time"

// Credential is the record named by §6's CredentialProvider interface.
// Decryption of Data is the provider's responsibility; the core never
// interprets the blob itself.
type Credential struct {
	ID        CredentialID `json:"id"`
	ProfileID ProfileID    `json:"profile_id"`
	Name      string       `json:"name"`
	Kind      string       `json:"kind"`
	Data      []byte       `json:"data"` // encrypted blob
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
