// Package integration tests the attribute engine end to end through the
// public facade: attach, catalog definition, validated writes, typed reads,
// cache behavior, search, and cascading deletes over a sqlite store.
package integration

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/facets"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// newEngine attaches an engine over a sqlite store in a temp directory.
// cachedTypes lists entity types that carry a cache document.
func newEngine(t *testing.T, cachedTypes ...string) types.Engine {
	t.Helper()
	engine, err := facets.New(types.Config{
		Driver:            types.DriverSQLite,
		DataDir:           t.TempDir(),
		CachedEntityTypes: cachedTypes,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Detach() })
	return engine
}

func defineAge(t *testing.T, engine types.Engine) {
	t.Helper()
	_, err := engine.Define(types.AttributeDefinition{
		Name:  "age",
		Label: "Age",
		Type:  types.TypeNumber,
		Rules: map[string]any{types.RuleMin: 0, types.RuleMax: 120},
	})
	require.NoError(t, err)
}

func TestDefineSetGetRoundTrip(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)

	ref := types.EntityRef{ID: "c-1", Type: "contact"}
	require.NoError(t, engine.SetOne(ref, "age", 25))

	got, err := engine.GetOne(ref, "age")
	require.NoError(t, err)
	assert.Equal(t, float64(25), got, "numbers come back as float64 regardless of input form")
}

func TestValidationRejectsBeforeWriting(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)

	ref := types.EntityRef{ID: "c-1", Type: "contact"}
	err := engine.SetOne(ref, "age", "not a number")

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "age", verr.Fields[0].Attribute)
	assert.Contains(t, verr.Fields[0].Message, "Age", "messages use the label")
	assert.Equal(t, "not a number", verr.Fields[0].Raw)

	got, err := engine.GetOne(ref, "age")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing was written")
}

func TestBatchWritesAreAllOrNothing(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)
	_, err := engine.Define(types.AttributeDefinition{
		Name: "nickname", Label: "Nickname", Type: types.TypeText,
	})
	require.NoError(t, err)

	ref := types.EntityRef{ID: "c-1", Type: "contact"}
	require.NoError(t, engine.SetOne(ref, "age", 25))

	err = engine.SetMany(ref, map[string]any{
		"age":          30,
		"nickname":     "Ada",
		"unknown_attr": "x",
	})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "unknown_attr", verr.Fields[0].Attribute)

	got, err := engine.GetOne(ref, "age")
	require.NoError(t, err)
	assert.Equal(t, float64(25), got, "valid batch entries must not land when any entry fails")

	nick, err := engine.GetOne(ref, "nickname")
	require.NoError(t, err)
	assert.Nil(t, nick)
}

func TestSearchCoercesThroughAttributeType(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)
	_, err := engine.Define(types.AttributeDefinition{
		Name: "level", Label: "Level", Type: types.TypeText,
	})
	require.NoError(t, err)

	// Text attributes compare lexicographically even for numeric-looking
	// strings: "10" < "4" < "5".
	require.NoError(t, engine.SetOne(types.EntityRef{ID: "e-1", Type: "entry"}, "level", "10"))
	require.NoError(t, engine.SetOne(types.EntityRef{ID: "e-2", Type: "entry"}, "level", "5"))

	ids, err := engine.Search("entry", types.Filter{
		"level": types.Condition{Operator: types.OpGT, Value: "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e-2"}, ids)

	// Number attributes compare numerically whatever the filter's form.
	for i := 1; i <= 7; i++ {
		ref := types.EntityRef{ID: fmt.Sprintf("c-%d", i), Type: "contact"}
		require.NoError(t, engine.SetOne(ref, "age", i))
	}
	counts := map[any]int{
		types.Condition{Operator: types.OpGTE, Value: "4"}: 4,
		types.Condition{Operator: types.OpGT, Value: 4}:    3,
		types.Condition{Operator: types.OpGT, Value: "5"}:  2,
	}
	for cond, want := range counts {
		ids, err := engine.Search("contact", types.Filter{"age": cond})
		require.NoError(t, err)
		assert.Len(t, ids, want, "condition %+v", cond)
	}
}

func TestSearchNullMatchesUnsetAndExplicitNull(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)
	_, err := engine.Define(types.AttributeDefinition{
		Name: "nickname", Label: "Nickname", Type: types.TypeText,
	})
	require.NoError(t, err)

	set := types.EntityRef{ID: "c-1", Type: "contact"}
	explicitNull := types.EntityRef{ID: "c-2", Type: "contact"}
	unset := types.EntityRef{ID: "c-3", Type: "contact"}

	require.NoError(t, engine.SetOne(set, "nickname", "Ada"))
	require.NoError(t, engine.SetOne(explicitNull, "nickname", nil))
	require.NoError(t, engine.SetOne(unset, "age", 30))

	ids, err := engine.Search("contact", types.Filter{"nickname": nil})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-2", "c-3"}, ids)

	ids, err = engine.Search("contact", types.Filter{
		"nickname": types.Condition{Operator: types.OpNotNull},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, ids)
}

func TestCacheDocumentTracksValueStore(t *testing.T) {
	engine := newEngine(t, "contact")
	defineAge(t, engine)
	_, err := engine.Define(types.AttributeDefinition{
		Name: "hired_at", Label: "Hired", Type: types.TypeDate,
	})
	require.NoError(t, err)

	ref := types.EntityRef{ID: "c-1", Type: "contact"}
	require.NoError(t, engine.SetMany(ref, map[string]any{
		"age":      25,
		"hired_at": "2026-03-01",
	}))

	values, err := engine.GetAll(ref)
	require.NoError(t, err)
	assert.Equal(t, float64(25), values["age"])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), values["hired_at"],
		"dates come back typed from the cache path")

	// Removal rewrites the document; a rebuilt document agrees with the
	// value store.
	require.NoError(t, engine.Remove(ref, "age"))
	values, err = engine.GetAll(ref)
	require.NoError(t, err)
	assert.NotContains(t, values, "age")

	processed, err := engine.Resync("contact", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestDeleteAttributeCascadesEverywhere(t *testing.T) {
	engine := newEngine(t, "contact")
	defineAge(t, engine)
	_, err := engine.Define(types.AttributeDefinition{
		Name: "nickname", Label: "Nickname", Type: types.TypeText,
	})
	require.NoError(t, err)

	ref := types.EntityRef{ID: "c-1", Type: "contact"}
	require.NoError(t, engine.SetMany(ref, map[string]any{"age": 25, "nickname": "Ada"}))

	require.NoError(t, engine.DeleteAttribute("age"))

	_, err = engine.Lookup("age")
	assert.ErrorIs(t, err, types.ErrAttributeNotFound)

	values, err := engine.GetAll(ref)
	require.NoError(t, err)
	assert.NotContains(t, values, "age", "cache document rewritten in the same transaction")
	assert.Equal(t, "Ada", values["nickname"])

	// Searching the deleted attribute now fails at the catalog.
	_, err = engine.Search("contact", types.Filter{"age": 25})
	assert.ErrorIs(t, err, types.ErrAttributeNotFound)
}

func TestDefinitionErrorsReportEveryViolation(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.Define(types.AttributeDefinition{Name: "9bad", Label: "", Type: "blob"})
	var derr *types.DefinitionError
	require.ErrorAs(t, err, &derr)
	assert.Len(t, derr.Violations, 3)

	defineAge(t, engine)
	_, err = engine.Define(types.AttributeDefinition{Name: "age", Label: "Age", Type: types.TypeText})
	assert.ErrorIs(t, err, types.ErrDuplicateAttribute)
}

func TestSearchOrderedEndToEnd(t *testing.T) {
	engine := newEngine(t)
	defineAge(t, engine)

	for i := 1; i <= 3; i++ {
		ref := types.EntityRef{ID: fmt.Sprintf("c-%d", i), Type: "contact"}
		require.NoError(t, engine.SetOne(ref, "age", i*10))
	}

	ids, err := engine.SearchOrdered("contact", nil, "age", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-3", "c-2", "c-1"}, ids)
}

func TestDetachedEngineRefusesWork(t *testing.T) {
	engine := newEngine(t)
	require.NoError(t, engine.Detach())

	_, err := engine.Lookup("age")
	assert.ErrorIs(t, err, types.ErrEngineDetached)
	assert.ErrorIs(t, engine.SetOne(types.EntityRef{ID: "x", Type: "y"}, "age", 1), types.ErrEngineDetached)

	// Storage failures after attach surface sanitized.
	var serr *types.StorageError
	assert.False(t, errors.As(err, &serr), "lifecycle errors are sentinels, not storage errors")
}
