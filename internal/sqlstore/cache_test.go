package sqlstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestRefreshIsNoopForUncachedType(t *testing.T) {
	b := newTestBackend(t)
	defineBasics(t, b)
	ref := types.EntityRef{ID: "c-1", Type: "contact"}

	if err := b.SetOne(ref, "age", 25); err != nil {
		t.Fatalf("SetOne: %v", err)
	}
	if err := b.Refresh(ref); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, ok, err := b.readCache(ref); err != nil || ok {
		t.Errorf("readCache = (ok=%v, err=%v), want no document for uncached type", ok, err)
	}
}

func TestWritesKeepCacheDocumentCurrent(t *testing.T) {
	b := newTestBackend(t, "contact")
	defineBasics(t, b)
	ref := types.EntityRef{ID: "c-1", Type: "contact"}

	if err := b.SetMany(ref, map[string]any{"age": 25, "nickname": "Ada"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	doc, ok, err := b.readCache(ref)
	if err != nil {
		t.Fatalf("readCache: %v", err)
	}
	if !ok {
		t.Fatal("cache document missing after SetMany")
	}
	if doc["age"] != float64(25) || doc["nickname"] != "Ada" {
		t.Errorf("document = %v", doc)
	}

	// Removal rewrites the document whole; the removed name disappears
	// rather than lingering from a merge.
	if err := b.Remove(ref, "age"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	doc, ok, err = b.readCache(ref)
	if err != nil || !ok {
		t.Fatalf("readCache after remove: ok=%v err=%v", ok, err)
	}
	if _, present := doc["age"]; present {
		t.Errorf("document = %v, want age gone after remove", doc)
	}
}

func TestCachedReadsMatchDirectReads(t *testing.T) {
	b := newTestBackend(t, "contact")
	defineBasics(t, b)

	cached := types.EntityRef{ID: "c-1", Type: "contact"}
	direct := types.EntityRef{ID: "d-1", Type: "deal"}

	values := map[string]any{
		"age":      25,
		"nickname": "Ada",
		"hired_at": "2026-03-01",
		"active":   true,
	}
	if err := b.SetMany(cached, values); err != nil {
		t.Fatalf("SetMany(cached): %v", err)
	}
	if err := b.SetMany(direct, values); err != nil {
		t.Fatalf("SetMany(direct): %v", err)
	}

	fromCache, err := b.GetAll(cached)
	if err != nil {
		t.Fatalf("GetAll(cached): %v", err)
	}
	fromStore, err := b.GetAll(direct)
	if err != nil {
		t.Fatalf("GetAll(direct): %v", err)
	}

	if len(fromCache) != len(fromStore) {
		t.Fatalf("cached %v vs direct %v", fromCache, fromStore)
	}
	for name, want := range fromStore {
		got := fromCache[name]
		if wd, ok := want.(time.Time); ok {
			gd, ok := got.(time.Time)
			if !ok || !gd.Equal(wd) {
				t.Errorf("%s: cached %v (%T), direct %v", name, got, got, want)
			}
			continue
		}
		if got != want {
			t.Errorf("%s: cached %v (%T), direct %v (%T)", name, got, got, want, want)
		}
	}

	// Dates come back typed from both paths.
	if _, ok := fromCache["hired_at"].(time.Time); !ok {
		t.Errorf("cached hired_at = %T, want time.Time", fromCache["hired_at"])
	}
}

func TestResyncRebuildsDocuments(t *testing.T) {
	b := newTestBackend(t, "contact")
	defineBasics(t, b)

	const n = 7
	for i := 0; i < n; i++ {
		ref := types.EntityRef{ID: fmt.Sprintf("c-%02d", i), Type: "contact"}
		if err := b.SetOne(ref, "age", 20+i); err != nil {
			t.Fatalf("SetOne: %v", err)
		}
	}

	// Corrupt one document out from under the engine.
	stale := types.EntityRef{ID: "c-03", Type: "contact"}
	_, err := b.db.Exec(
		"UPDATE attribute_cache SET document = '{}' WHERE entity_id = ? AND entity_type = ?",
		stale.ID, stale.Type)
	if err != nil {
		t.Fatalf("corrupting document: %v", err)
	}

	processed, err := b.Resync("contact", 3)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if processed != n {
		t.Errorf("Resync() = %d, want %d", processed, n)
	}

	doc, ok, err := b.readCache(stale)
	if err != nil || !ok {
		t.Fatalf("readCache: ok=%v err=%v", ok, err)
	}
	if doc["age"] != float64(23) {
		t.Errorf("document = %v, want rebuilt age 23", doc)
	}
}

func TestResyncEmptyType(t *testing.T) {
	b := newTestBackend(t, "contact")
	processed, err := b.Resync("contact", 0)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if processed != 0 {
		t.Errorf("Resync() = %d, want 0", processed)
	}
}
