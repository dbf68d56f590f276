// Package types defines the attribute data model, the Engine interface,
// filter and operator vocabulary, configuration, and standard errors for
// the Facets attribute storage engine.
package types
