package sqlstore

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Schema DDL per dialect. The attributes table is the catalog; the
// attribute_values table holds one row per (entity, attribute) with one
// typed slot populated; attribute_cache holds the denormalized per-entity
// document for cached entity types. Boolean slots are stored as 0/1
// integers in every dialect so scanning stays uniform; date slots are
// stored as "YYYY-MM-DD" text, whose lexicographic order matches
// chronological order.
const (
	createAttributesSQLite = `CREATE TABLE IF NOT EXISTS attributes (
    attribute_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    label TEXT NOT NULL,
    type TEXT NOT NULL,
    required INTEGER NOT NULL,
    options TEXT,
    rules TEXT,
    created_at TEXT NOT NULL
);`

	createValuesSQLite = `CREATE TABLE IF NOT EXISTS attribute_values (
    entity_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    attribute_id TEXT NOT NULL,
    attribute_name TEXT NOT NULL,
    string_slot TEXT,
    number_slot REAL,
    date_slot TEXT,
    boolean_slot INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_id, entity_type, attribute_id)
);`

	createCacheSQLite = `CREATE TABLE IF NOT EXISTS attribute_cache (
    entity_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    document TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_id, entity_type)
);`

	createAttributesMySQL = `CREATE TABLE IF NOT EXISTS attributes (
    attribute_id VARCHAR(36) PRIMARY KEY,
    name VARCHAR(191) NOT NULL UNIQUE,
    label VARCHAR(255) NOT NULL,
    type VARCHAR(16) NOT NULL,
    required TINYINT(1) NOT NULL,
    options JSON,
    rules JSON,
    created_at VARCHAR(35) NOT NULL
);`

	createValuesMySQL = `CREATE TABLE IF NOT EXISTS attribute_values (
    entity_id VARCHAR(64) NOT NULL,
    entity_type VARCHAR(64) NOT NULL,
    attribute_id VARCHAR(36) NOT NULL,
    attribute_name VARCHAR(191) NOT NULL,
    string_slot TEXT,
    number_slot DOUBLE,
    date_slot VARCHAR(10),
    boolean_slot TINYINT(1),
    created_at VARCHAR(35) NOT NULL,
    updated_at VARCHAR(35) NOT NULL,
    PRIMARY KEY (entity_id, entity_type, attribute_id)
);`

	createCacheMySQL = `CREATE TABLE IF NOT EXISTS attribute_cache (
    entity_id VARCHAR(64) NOT NULL,
    entity_type VARCHAR(64) NOT NULL,
    document JSON NOT NULL,
    updated_at VARCHAR(35) NOT NULL,
    PRIMARY KEY (entity_id, entity_type)
);`

	createAttributesPostgres = `CREATE TABLE IF NOT EXISTS attributes (
    attribute_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    label TEXT NOT NULL,
    type TEXT NOT NULL,
    required SMALLINT NOT NULL,
    options TEXT,
    rules TEXT,
    created_at TEXT NOT NULL
);`

	createValuesPostgres = `CREATE TABLE IF NOT EXISTS attribute_values (
    entity_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    attribute_id TEXT NOT NULL,
    attribute_name TEXT NOT NULL,
    string_slot TEXT,
    number_slot DOUBLE PRECISION,
    date_slot TEXT,
    boolean_slot SMALLINT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_id, entity_type, attribute_id)
);`

	createCachePostgres = `CREATE TABLE IF NOT EXISTS attribute_cache (
    entity_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    document TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_id, entity_type)
);`
)

// baseIndexSQLite serves catalog lookups and the search compiler's
// per-attribute scans. Slot-specific and full-text indexes are advisory
// and created by Optimize.
const baseIndexTypeName = `CREATE INDEX IF NOT EXISTS idx_values_type_name ON attribute_values (entity_type, attribute_name);`

// schemaDDL lists the bootstrap statements for a dialect in dependency
// order.
func schemaDDL(dialect string) []string {
	switch dialect {
	case types.DriverMySQL:
		return []string{
			createAttributesMySQL,
			createValuesMySQL,
			createCacheMySQL,
			// MySQL has no CREATE INDEX IF NOT EXISTS; the composite
			// primary key covers (entity_id, entity_type) scans and
			// Optimize adds the rest advisorily.
		}
	case types.DriverPostgres:
		return []string{
			createAttributesPostgres,
			createValuesPostgres,
			createCachePostgres,
			baseIndexTypeName,
		}
	default:
		return []string{
			createAttributesSQLite,
			createValuesSQLite,
			createCacheSQLite,
			baseIndexTypeName,
		}
	}
}

// upsertValueSQL returns the dialect-correct upsert for one value record.
// Placeholders are ?-style; callers rebind for postgres.
func upsertValueSQL(dialect string) string {
	if dialect == types.DriverMySQL {
		return `INSERT INTO attribute_values
    (entity_id, entity_type, attribute_id, attribute_name,
     string_slot, number_slot, date_slot, boolean_slot, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    attribute_name = VALUES(attribute_name),
    string_slot = VALUES(string_slot),
    number_slot = VALUES(number_slot),
    date_slot = VALUES(date_slot),
    boolean_slot = VALUES(boolean_slot),
    updated_at = VALUES(updated_at)`
	}
	return `INSERT INTO attribute_values
    (entity_id, entity_type, attribute_id, attribute_name,
     string_slot, number_slot, date_slot, boolean_slot, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity_id, entity_type, attribute_id) DO UPDATE SET
    attribute_name = excluded.attribute_name,
    string_slot = excluded.string_slot,
    number_slot = excluded.number_slot,
    date_slot = excluded.date_slot,
    boolean_slot = excluded.boolean_slot,
    updated_at = excluded.updated_at`
}

// upsertCacheSQL returns the dialect-correct upsert for a cache document.
func upsertCacheSQL(dialect string) string {
	if dialect == types.DriverMySQL {
		return `INSERT INTO attribute_cache (entity_id, entity_type, document, updated_at)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE document = VALUES(document), updated_at = VALUES(updated_at)`
	}
	return `INSERT INTO attribute_cache (entity_id, entity_type, document, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (entity_id, entity_type) DO UPDATE SET
    document = excluded.document,
    updated_at = excluded.updated_at`
}

// rebind rewrites ?-placeholders to $N for postgres; sqlite and mysql take
// the query unchanged.
func rebind(dialect, query string) string {
	if dialect != types.DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
