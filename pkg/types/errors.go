package types

import (
	"errors"
	"fmt"
	"strings"
)

// Engine lifecycle errors.
var (
	ErrEngineDetached  = errors.New("engine is detached")
	ErrAlreadyAttached = errors.New("engine is already attached")
)

// Catalog and value-store errors.
var (
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrDuplicateAttribute = errors.New("attribute name already defined")
	ErrEntityNotPersisted = errors.New("entity reference has no durable identity")
	ErrUnknownType        = errors.New("unknown attribute type")
)

// Search errors.
var (
	ErrInvalidOperator = errors.New("invalid filter operator")
	ErrInvalidFilter   = errors.New("invalid filter value")
	ErrInvalidLogic    = errors.New("invalid search logic")
)

// DefinitionError reports every constraint an attribute definition violates,
// never just the first one found.
type DefinitionError struct {
	Name       string
	Violations []string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid attribute definition %q: %s", e.Name, strings.Join(e.Violations, "; "))
}

// FieldError is one per-attribute validation failure. Message is worded
// with the attribute's label, never its internal name; Attribute and Raw
// carry the machine context for API responses.
type FieldError struct {
	Attribute string
	Label     string
	Message   string
	Raw       any
}

// ValidationError aggregates every field failure from a validate pass.
// Batch writes collect all failures before returning, so callers see the
// complete set, not the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Attribute, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the user-facing message for each failed field.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return msgs
}

// StorageError is a sanitized persistence failure. The full cause is logged
// with operation context at the failure site; Error exposes only the
// operation name. Unwrap keeps the cause reachable for errors.Is checks.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure during " + e.Op
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
