// Package facets is the public entry point for the custom-attribute engine.
// It wires a configured SQL backend and returns it behind the Engine
// interface.
package facets

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/internal/sqlstore"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// Version is the facets library version.
const Version = "0.1.0"

// New creates and attaches an engine for config. A nil logger disables
// logging. The caller owns the engine and must Detach it when done.
func New(config types.Config, logger *zap.Logger) (types.Engine, error) {
	backend := sqlstore.NewBackend(logger)
	if err := backend.Attach(config); err != nil {
		return nil, err
	}
	return backend, nil
}
