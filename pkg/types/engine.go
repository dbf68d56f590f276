package types

// Engine is the attribute storage engine: catalog, typed value store,
// cache synchronizer, and search compiler over one transactional SQL store.
//
// Mutating operations (SetOne, SetMany, Remove, DeleteAttribute) execute
// their value write and cache refresh inside one transaction: both commit
// or neither does. Searches are read-only and make no repeatable-read
// guarantee across calls.
type Engine interface {
	// Attach opens the backing store described by config and bootstraps
	// the schema. Returns ErrAlreadyAttached when already attached.
	Attach(config Config) error

	// Detach releases the backing store. Idempotent. After Detach all
	// operations return ErrEngineDetached.
	Detach() error

	// Define registers a new attribute. Every violated definition
	// constraint is reported in one DefinitionError; a taken name yields
	// ErrDuplicateAttribute.
	Define(def AttributeDefinition) (*AttributeDefinition, error)

	// Lookup returns the definition for name, or ErrAttributeNotFound.
	Lookup(name string) (*AttributeDefinition, error)

	// Attributes lists all definitions, oldest first.
	Attributes() ([]*AttributeDefinition, error)

	// DeleteAttribute removes the definition and cascades to every value
	// record referencing it, transactionally.
	DeleteAttribute(name string) error

	// SetOne validates, casts, and upserts one value, refreshing the
	// entity's cache document in the same transaction.
	SetOne(ref EntityRef, name string, raw any) error

	// SetMany validates every entry first, collecting all failures into
	// one ValidationError; nothing is written unless every entry passes.
	// On success all records are written and the cache is refreshed
	// exactly once, in one transaction.
	SetMany(ref EntityRef, values map[string]any) error

	// GetOne returns the stored (cast) value for name, or nil when unset.
	// The cache document is preferred when the entity type carries one.
	GetOne(ref EntityRef, name string) (any, error)

	// GetAll returns all stored values for ref, keyed by attribute name.
	// Returns an empty map (never nil) when nothing is stored.
	GetAll(ref EntityRef) (map[string]any, error)

	// Remove deletes the value record for name and refreshes the cache.
	Remove(ref EntityRef, name string) error

	// Refresh rebuilds ref's cache document from the value store,
	// overwriting (never merging) the previous document. Idempotent.
	Refresh(ref EntityRef) error

	// Resync rebuilds cache documents for every entity of entityType that
	// holds at least one value, in batches of batchSize. Each batch
	// commits independently; the count of processed entities is returned
	// even on a failing batch.
	Resync(entityType string, batchSize int) (int, error)

	// Search returns the ids of entities matching every filter (AND).
	// Result order is undefined.
	Search(entityType string, filters Filter) ([]string, error)

	// AdvancedSearch combines per-filter id sets with the given logic:
	// LogicAnd intersects (delegating to Search), LogicOr unions.
	AdvancedSearch(entityType string, filters Filter, logic string) ([]string, error)

	// SearchOrdered runs Search and orders the result by the named
	// attribute's typed slot. Entities lacking the attribute sort last.
	SearchOrdered(entityType string, filters Filter, orderBy string, descending bool) ([]string, error)

	// Optimize executes the backend's advisory index statements. Failing
	// statements are logged and skipped, never fatal.
	Optimize() error
}
