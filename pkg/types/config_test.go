package types

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"sqlite without dsn", Config{Driver: DriverSQLite, DataDir: "/tmp/facets"}, nil},
		{"mysql with dsn", Config{Driver: DriverMySQL, DSN: "user:pass@/facets"}, nil},
		{"postgres with dsn", Config{Driver: DriverPostgres, DSN: "postgres://localhost/facets"}, nil},
		{"empty driver", Config{}, ErrDriverEmpty},
		{"unknown driver", Config{Driver: "oracle"}, ErrDriverUnknown},
		{"mysql without dsn", Config{Driver: DriverMySQL}, ErrDSNRequired},
		{"postgres without dsn", Config{Driver: DriverPostgres}, ErrDSNRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigCachesType(t *testing.T) {
	cfg := Config{CachedEntityTypes: []string{"contact", "deal"}}
	if !cfg.CachesType("contact") {
		t.Error(`CachesType("contact") = false, want true`)
	}
	if cfg.CachesType("task") {
		t.Error(`CachesType("task") = true, want false`)
	}
	if (Config{}).CachesType("contact") {
		t.Error("empty config should cache nothing")
	}
}
