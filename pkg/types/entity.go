package types

// EntityRef identifies a host record outside the engine: an opaque durable
// id plus a type tag. The engine never inspects host-record behavior beyond
// this pair.
type EntityRef struct {
	ID   string
	Type string
}

// Persisted reports whether the reference carries a durable identity.
// Value-store writes against an unpersisted reference fail with
// ErrEntityNotPersisted.
func (r EntityRef) Persisted() bool {
	return r.ID != "" && r.Type != ""
}
