package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}
	return path
}

func TestLoadPreservesFileOrder(t *testing.T) {
	// Lexically descending keys catch any accidental map round-trip
	path := writeCatalog(t, `{
		"zeta": ["z1"],
		"alpha": ["a1", "a2"],
		"mid": ["m1"]
	}`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(cat.Names(), expected) {
		t.Errorf("Expected order %v, got %v", expected, cat.Names())
	}
	if cat.QueryCount() != 4 {
		t.Errorf("Expected 4 queries, got %d", cat.QueryCount())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not an object", `["just", "a", "list"]`},
		{"truncated", `{"a": ["q1"`},
		{"wrong value type", `{"a": "not a list"}`},
		{"duplicate category", `{"a": ["q1"], "a": ["q2"]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeCatalog(t, test.content)
			if _, err := Load(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFilter(t *testing.T) {
	path := writeCatalog(t, `{
		"internship_searches": ["i1"],
		"entry_level_searches": ["e1"],
		"open_source_searches": ["o1"]
	}`)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("subset keeps file order regardless of request order", func(t *testing.T) {
		filtered := cat.Filter([]string{"open_source_searches", "internship_searches"})
		expected := []string{"internship_searches", "open_source_searches"}
		if !reflect.DeepEqual(filtered.Names(), expected) {
			t.Errorf("Expected %v, got %v", expected, filtered.Names())
		}
	})

	t.Run("unknown names are dropped silently", func(t *testing.T) {
		filtered := cat.Filter([]string{"entry_level_searches", "no_such_category"})
		expected := []string{"entry_level_searches"}
		if !reflect.DeepEqual(filtered.Names(), expected) {
			t.Errorf("Expected %v, got %v", expected, filtered.Names())
		}
	})

	t.Run("empty request returns everything", func(t *testing.T) {
		filtered := cat.Filter(nil)
		if filtered.QueryCount() != cat.QueryCount() {
			t.Errorf("Expected %d queries, got %d", cat.QueryCount(), filtered.QueryCount())
		}
	})

	t.Run("all unknown yields empty catalog", func(t *testing.T) {
		filtered := cat.Filter([]string{"nothing"})
		if filtered.QueryCount() != 0 {
			t.Errorf("Expected 0 queries, got %d", filtered.QueryCount())
		}
	})
}

func TestQueriesFlattening(t *testing.T) {
	path := writeCatalog(t, `{
		"a": ["q1", "q2"],
		"b": ["q3"]
	}`)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	queries := cat.Queries()
	if len(queries) != 3 {
		t.Fatalf("Expected 3 queries, got %d", len(queries))
	}
	if queries[0].Category != "a" || queries[0].Text != "q1" {
		t.Errorf("Unexpected first query: %+v", queries[0])
	}
	if queries[2].Category != "b" || queries[2].Text != "q3" {
		t.Errorf("Unexpected last query: %+v", queries[2])
	}
}
