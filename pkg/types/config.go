package types

import "errors"

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config validation errors.
var (
	ErrDriverEmpty   = errors.New("driver must not be empty")
	ErrDriverUnknown = errors.New("unknown driver")
	ErrDSNRequired   = errors.New("dsn is required for mysql and postgres drivers")
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverMySQL:    true,
	DriverPostgres: true,
}

// Config holds driver selection and parameters for Engine.Attach.
// CachedEntityTypes lists the host entity types that carry a denormalized
// cache document; types not listed are served from the value store directly.
type Config struct {
	Driver            string   `json:"driver" yaml:"driver"`
	DSN               string   `json:"dsn" yaml:"dsn"`
	DataDir           string   `json:"data_dir" yaml:"data_dir"`
	CachedEntityTypes []string `json:"cached_entity_types" yaml:"cached_entity_types"`
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	if c.Driver != DriverSQLite && c.DSN == "" {
		return ErrDSNRequired
	}
	return nil
}

// CachesType reports whether entityType carries a cache document.
func (c Config) CachesType(entityType string) bool {
	for _, t := range c.CachedEntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}
