// Package helixerr defines the closed-sum error taxonomy shared by every
// runtime component. Each variant carries a stable kind plus a
// human-readable context string rather than a source location: callers
// discriminate on kind for control flow, and context is for operators
// and logs.
package helixerr

import (
	"errors"
	"fmt"
)

// Kind identifies which taxonomy variant an error belongs to.
type Kind string

const (
	KindConfig             Kind = "config"
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindDatabase           Kind = "database"
	KindSerialization      Kind = "serialization"
	KindAgent              Kind = "agent"
	KindAgentConfigMissing Kind = "agent_config_not_found"
	KindRecipeMissing      Kind = "recipe_not_found"
	KindRecipeDisabled     Kind = "recipe_disabled"
	KindRecipeGraph        Kind = "recipe_graph_error"
	KindSandbox            Kind = "sandbox_error"
	KindEncryption         Kind = "encryption"
	KindInternal           Kind = "internal"
)

// SandboxKind is the sub-taxonomy carried by a SandboxError.
type SandboxKind string

const (
	SandboxLoad             SandboxKind = "load"
	SandboxCompile          SandboxKind = "compile"
	SandboxInstantiate      SandboxKind = "instantiate"
	SandboxTrap             SandboxKind = "trap"
	SandboxExecution        SandboxKind = "execution"
	SandboxFunctionNotFound SandboxKind = "function_not_found"
	SandboxFuelExhausted    SandboxKind = "fuel_exhausted"
	SandboxMemoryLimit      SandboxKind = "memory_limit"
	SandboxTimeout          SandboxKind = "timeout"
	SandboxBufferTooSmall   SandboxKind = "buffer_too_small"
	SandboxHostCallFailed   SandboxKind = "host_call_failed"
	SandboxInstanceNotFound SandboxKind = "instance_not_found"
)

// Numeric status codes returned across the sandbox ABI. Other negatives
// are host-call-specific and are documented next to the call that returns
// them.
const (
	StatusOK                 int32 = 0
	StatusSerializationError int32 = -1
	StatusNotFound           int32 = -2
	StatusStateError         int32 = -3
	StatusDeserializeError   int32 = -4
	StatusBufferTooSmall     int32 = -5
	StatusInternal           int32 = -6
)

// HelixError is the common shape every taxonomy member implements.
type HelixError struct {
	K       Kind
	Context string
	Err     error
}

func (e *HelixError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.K, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.K, e.Context)
}

func (e *HelixError) Unwrap() error { return e.Err }

// KindOf returns the taxonomy kind, allowing callers to discriminate via
// errors.As without importing this package's constructors.
func (e *HelixError) KindOf() Kind { return e.K }

func newErr(k Kind, context string, err error) *HelixError {
	return &HelixError{K: k, Context: context, Err: err}
}

// NewConfigError reports a malformed or missing configuration value.
func NewConfigError(context string, err error) *HelixError {
	return newErr(KindConfig, context, err)
}

// NewValidationError reports a value that failed a contract check, such as
// StateStore.merge against a non-object existing value.
func NewValidationError(context string, err error) *HelixError {
	return newErr(KindValidation, context, err)
}

// NotFoundError names the kind of entity and the id that was missing.
type NotFoundError struct {
	EntityKind string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not_found: %s %q", e.EntityKind, e.ID)
}

// NewNotFoundError builds a NotFoundError for the given entity kind and id.
func NewNotFoundError(entityKind, id string) *NotFoundError {
	return &NotFoundError{EntityKind: entityKind, ID: id}
}

// NewConflictError reports a uniqueness or state-transition conflict.
func NewConflictError(context string, err error) *HelixError {
	return newErr(KindConflict, context, err)
}

// NewDatabaseError wraps a failure from a state-store or config-store
// backend.
func NewDatabaseError(context string, err error) *HelixError {
	return newErr(KindDatabase, context, err)
}

// NewSerializationError wraps a JSON marshal/unmarshal failure.
func NewSerializationError(context string, err error) *HelixError {
	return newErr(KindSerialization, context, err)
}

// NewAgentError wraps a failure returned by an agent's init/start/run/stop.
func NewAgentError(context string, err error) *HelixError {
	return newErr(KindAgent, context, err)
}

// NewAgentConfigNotFoundError reports a missing AgentConfig.
func NewAgentConfigNotFoundError(agentID string) *NotFoundError {
	return NewNotFoundError("agent_config", agentID)
}

// NewRecipeNotFoundError reports a missing Recipe.
func NewRecipeNotFoundError(recipeID string) *NotFoundError {
	return NewNotFoundError("recipe", recipeID)
}

// NewRecipeDisabledError reports that a recipe exists but is disabled.
func NewRecipeDisabledError(recipeID string) *HelixError {
	return newErr(KindRecipeDisabled, recipeID, nil)
}

// NewRecipeGraphError reports a structurally invalid recipe graph, such as
// a cycle or a dangling dependency.
func NewRecipeGraphError(context string) *HelixError {
	return newErr(KindRecipeGraph, context, nil)
}

// SandboxError carries the sub-taxonomy of §4.A and the originating cause.
type SandboxError struct {
	SandboxKind SandboxKind
	Context     string
	Err         error
}

func (e *SandboxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sandbox_error[%s]: %s: %v", e.SandboxKind, e.Context, e.Err)
	}
	return fmt.Sprintf("sandbox_error[%s]: %s", e.SandboxKind, e.Context)
}

func (e *SandboxError) Unwrap() error { return e.Err }

// NewSandboxError builds a SandboxError of the given sub-kind.
func NewSandboxError(kind SandboxKind, context string, err error) *SandboxError {
	return &SandboxError{SandboxKind: kind, Context: context, Err: err}
}

// NewEncryptionError wraps a credential decrypt/encrypt failure.
func NewEncryptionError(context string, err error) *HelixError {
	return newErr(KindEncryption, context, err)
}

// NewInternalError is the catch-all for conditions that should be
// unreachable, such as a poisoned lock.
func NewInternalError(context string, err error) *HelixError {
	return newErr(KindInternal, context, err)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsSandboxKind reports whether err is a SandboxError of the given sub-kind.
func IsSandboxKind(err error, kind SandboxKind) bool {
	var se *SandboxError
	if errors.As(err, &se) {
		return se.SandboxKind == kind
	}
	return false
}
