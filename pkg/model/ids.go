// Package model defines the identifiers and records shared by every
// runtime component: AgentConfig, Event, Recipe, and Credential.
package model

import (
	"encoding"

	"github.com/google/uuid"
)

// AgentID, ProfileID, RecipeID, EventID, CredentialID, PolicyID, PluginID,
// and InstanceID are all 128-bit UUIDs, treated as opaque values compared
// by their underlying bytes. Distinct named types prevent accidentally
// passing one kind of id where another is expected.
type (
	AgentID      uuid.UUID
	ProfileID    uuid.UUID
	RecipeID     uuid.UUID
	EventID      uuid.UUID
	CredentialID uuid.UUID
	PolicyID     uuid.UUID
	PluginID     uuid.UUID
	InstanceID   uuid.UUID
)

// NewAgentID generates a fresh, random AgentID.
func NewAgentID() AgentID { return AgentID(uuid.New()) }

// NewProfileID generates a fresh, random ProfileID.
func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

// NewRecipeID generates a fresh, random RecipeID.
func NewRecipeID() RecipeID { return RecipeID(uuid.New()) }

// NewEventID generates a fresh, random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewCredentialID generates a fresh, random CredentialID.
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }

// NewInstanceID generates a fresh, random InstanceID.
func NewInstanceID() InstanceID { return InstanceID(uuid.New()) }

// NewPluginID generates a fresh, random PluginID.
func NewPluginID() PluginID { return PluginID(uuid.New()) }

func (id AgentID) String() string      { return uuid.UUID(id).String() }
func (id ProfileID) String() string    { return uuid.UUID(id).String() }
func (id RecipeID) String() string     { return uuid.UUID(id).String() }
func (id EventID) String() string      { return uuid.UUID(id).String() }
func (id CredentialID) String() string { return uuid.UUID(id).String() }
func (id PolicyID) String() string     { return uuid.UUID(id).String() }
func (id PluginID) String() string     { return uuid.UUID(id).String() }
func (id InstanceID) String() string   { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero-value UUID, used to distinguish
// an unset field from a generated one.
func (id AgentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseAgentID parses a canonical UUID string into an AgentID.
func ParseAgentID(s string) (AgentID, error) {
	u, err := uuid.Parse(s)
	return AgentID(u), err
}

// ParseProfileID parses a canonical UUID string into a ProfileID.
func ParseProfileID(s string) (ProfileID, error) {
	u, err := uuid.Parse(s)
	return ProfileID(u), err
}

// ParseRecipeID parses a canonical UUID string into a RecipeID.
func ParseRecipeID(s string) (RecipeID, error) {
	u, err := uuid.Parse(s)
	return RecipeID(u), err
}

// ParseCredentialID parses a canonical UUID string into a CredentialID.
func ParseCredentialID(s string) (CredentialID, error) {
	u, err := uuid.Parse(s)
	return CredentialID(u), err
}

// MarshalText and UnmarshalText round each id type through its canonical
// UUID string form. Each is a distinct type over uuid.UUID rather than an
// alias, so uuid.UUID's own TextMarshaler/TextUnmarshaler methods are not
// promoted automatically (§3); encoding/json and yaml.v3 both prefer
// MarshalText/UnmarshalText over a struct's field layout, so every id
// serializes as a UUID string rather than a raw byte array.
func (id AgentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *AgentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ProfileID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *ProfileID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id RecipeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *RecipeID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id EventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *EventID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id CredentialID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *CredentialID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PolicyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PolicyID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PluginID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PluginID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id InstanceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *InstanceID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

var _ encoding.TextMarshaler = AgentID{}
var _ encoding.TextUnmarshaler = (*AgentID)(nil)
