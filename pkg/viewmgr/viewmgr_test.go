package viewmgr

import "testing"

// ---------------------------------------------------------------------------
// Config normalization
// ---------------------------------------------------------------------------

func TestConfig_NormalizeIgnoresFieldOrder(t *testing.T) {
	a := Config{Collection: "memories", Fields: []string{"content", "summary"}}
	b := Config{Collection: "memories", Fields: []string{"summary", "content"}}

	if a.normalize() != b.normalize() {
		t.Errorf("expected field-order-independent configs to normalize equal:\n%s\n%s", a.normalize(), b.normalize())
	}
}

func TestConfig_NormalizeDiffersOnCollection(t *testing.T) {
	a := Config{Collection: "memories", Fields: []string{"content"}}
	b := Config{Collection: "entities", Fields: []string{"content"}}

	if a.normalize() == b.normalize() {
		t.Error("expected different collections to normalize differently")
	}
}

func TestConfig_NormalizeDiffersOnFieldSet(t *testing.T) {
	a := Config{Collection: "memories", Fields: []string{"content"}}
	b := Config{Collection: "memories", Fields: []string{"content", "summary"}}

	if a.normalize() == b.normalize() {
		t.Error("expected different field sets to normalize differently")
	}
}

func TestCacheKey_ScopesByDatabase(t *testing.T) {
	if cacheKey("db1", "memories_view") == cacheKey("db2", "memories_view") {
		t.Error("expected cache keys to be scoped per database")
	}
}
