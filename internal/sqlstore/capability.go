// This file implements the backend capability adapter: per-dialect feature
// probing with a process-wide cache, SQL fragment builders that degrade
// gracefully when a feature is missing, and advisory index creation.
package sqlstore

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Feature names probed per dialect.
const (
	FeatureJSONFunctions    = "json_functions"
	FeatureFullTextSearch   = "fulltext_search"
	FeatureGeneratedColumns = "generated_columns"
	FeatureCaseSensitiveLK  = "case_sensitive_like"
)

// capabilityCache holds probe results per dialect for the process lifetime.
// Probing touches the database, so each dialect is probed once no matter
// how many backends attach.
var (
	capMu           sync.Mutex
	capabilityCache = map[string]map[string]bool{}
)

// ClearCapabilityCache drops all cached probe results. The next Attach
// re-probes. Intended for tests and for callers that swap database servers
// under a running process.
func ClearCapabilityCache() {
	capMu.Lock()
	defer capMu.Unlock()
	capabilityCache = map[string]map[string]bool{}
}

// Capabilities answers feature questions for one dialect and builds the
// dialect-correct SQL fragments the search compiler needs.
type Capabilities struct {
	dialect  string
	features map[string]bool
}

// NewCapabilities returns the capability set for dialect, probing the
// database on the first call for that dialect and serving the cached result
// afterwards.
func NewCapabilities(dialect string, db *sql.DB) *Capabilities {
	capMu.Lock()
	defer capMu.Unlock()

	features, ok := capabilityCache[dialect]
	if !ok {
		features = probe(dialect, db)
		capabilityCache[dialect] = features
	}
	return &Capabilities{dialect: dialect, features: features}
}

// probe determines the feature set for dialect. Static knowledge covers
// mysql and postgres; sqlite's JSON support depends on compile options, so
// it is probed live.
func probe(dialect string, db *sql.DB) map[string]bool {
	switch dialect {
	case types.DriverMySQL:
		return map[string]bool{
			FeatureJSONFunctions:    true,
			FeatureFullTextSearch:   true,
			FeatureGeneratedColumns: true,
			FeatureCaseSensitiveLK:  false,
		}
	case types.DriverPostgres:
		return map[string]bool{
			FeatureJSONFunctions:    true,
			FeatureFullTextSearch:   true,
			FeatureGeneratedColumns: true,
			FeatureCaseSensitiveLK:  true,
		}
	default:
		return map[string]bool{
			FeatureJSONFunctions:    probeQuery(db, "SELECT json_valid('{}')"),
			FeatureFullTextSearch:   false,
			FeatureGeneratedColumns: true,
			FeatureCaseSensitiveLK:  false,
		}
	}
}

// probeQuery reports whether the statement executes without error.
func probeQuery(db *sql.DB, query string) bool {
	if db == nil {
		return false
	}
	var discard any
	return db.QueryRow(query).Scan(&discard) == nil
}

// Supports reports whether the dialect provides the named feature.
func (c *Capabilities) Supports(feature string) bool {
	return c.features[feature]
}

// LikeFragment builds a substring-match predicate for column. SQLite's LIKE
// is case-insensitive for ASCII and lacks a BINARY modifier, so
// caseSensitive is best-effort there.
func (c *Capabilities) LikeFragment(column string, caseSensitive bool) string {
	switch c.dialect {
	case types.DriverMySQL:
		if caseSensitive {
			return column + ` LIKE BINARY ?`
		}
		return column + ` LIKE ?`
	case types.DriverPostgres:
		if caseSensitive {
			return column + ` LIKE ?`
		}
		return column + ` ILIKE ?`
	default:
		return column + ` LIKE ? ESCAPE '\'`
	}
}

// FullTextFragment builds a full-text predicate for column when the dialect
// supports one, falling back to LIKE otherwise. wrapArg reports whether the
// caller must wrap the search term in LIKE wildcards.
func (c *Capabilities) FullTextFragment(column string) (fragment string, wrapArg bool) {
	if !c.Supports(FeatureFullTextSearch) {
		return c.LikeFragment(column, false), true
	}
	switch c.dialect {
	case types.DriverMySQL:
		return "MATCH(" + column + ") AGAINST (?)", false
	case types.DriverPostgres:
		return "to_tsvector('simple', " + column + ") @@ plainto_tsquery('simple', ?)", false
	default:
		return c.LikeFragment(column, false), true
	}
}

// ComparisonFragment builds an ordering or equality predicate for column.
// Date slots hold "YYYY-MM-DD" text, so plain text comparison is already
// chronological and no dialect needs a cast.
func (c *Capabilities) ComparisonFragment(attrType, column, operator string) (string, error) {
	switch operator {
	case types.OpEQ, types.OpLT, types.OpGT, types.OpLTE, types.OpGTE:
		return column + " " + operator + " ?", nil
	case types.OpNEQ:
		return column + " <> ?", nil
	default:
		return "", fmt.Errorf("%w: %q is not a comparison", types.ErrInvalidOperator, operator)
	}
}

// IndexStatements lists the advisory indexes for the dialect. These speed
// the search compiler's per-attribute slot scans; none is required for
// correctness.
func (c *Capabilities) IndexStatements() []string {
	switch c.dialect {
	case types.DriverMySQL:
		stmts := []string{
			"CREATE INDEX idx_values_type_name ON attribute_values (entity_type, attribute_name)",
			"CREATE INDEX idx_values_string ON attribute_values (entity_type, attribute_name, string_slot(64))",
			"CREATE INDEX idx_values_number ON attribute_values (entity_type, attribute_name, number_slot)",
			"CREATE INDEX idx_values_date ON attribute_values (entity_type, attribute_name, date_slot)",
		}
		if c.Supports(FeatureFullTextSearch) {
			stmts = append(stmts, "CREATE FULLTEXT INDEX idx_values_fulltext ON attribute_values (string_slot)")
		}
		return stmts
	case types.DriverPostgres:
		stmts := []string{
			"CREATE INDEX IF NOT EXISTS idx_values_string ON attribute_values (entity_type, attribute_name, string_slot)",
			"CREATE INDEX IF NOT EXISTS idx_values_number ON attribute_values (entity_type, attribute_name, number_slot)",
			"CREATE INDEX IF NOT EXISTS idx_values_date ON attribute_values (entity_type, attribute_name, date_slot)",
		}
		if c.Supports(FeatureFullTextSearch) {
			stmts = append(stmts,
				"CREATE INDEX IF NOT EXISTS idx_values_fulltext ON attribute_values USING GIN (to_tsvector('simple', coalesce(string_slot, '')))")
		}
		return stmts
	default:
		return []string{
			"CREATE INDEX IF NOT EXISTS idx_values_string ON attribute_values (entity_type, attribute_name, string_slot)",
			"CREATE INDEX IF NOT EXISTS idx_values_number ON attribute_values (entity_type, attribute_name, number_slot)",
			"CREATE INDEX IF NOT EXISTS idx_values_date ON attribute_values (entity_type, attribute_name, date_slot)",
		}
	}
}

// Optimize creates the dialect's advisory indexes. Failures are logged and
// skipped: a missing index slows searches but never breaks them, and mysql
// in particular errors on indexes that already exist.
func (b *Backend) Optimize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	for _, stmt := range b.caps.IndexStatements() {
		if _, err := b.db.Exec(stmt); err != nil {
			b.log.Warn("skipping advisory index",
				zap.String("statement", stmt), zap.Error(err))
		}
	}
	return nil
}
