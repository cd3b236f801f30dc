// Package catalog loads the category → query-list mapping that drives the
// crawl phase. File order of categories is preserved: the crawl contract
// says categories and queries are processed in catalog order, and Go maps
// would lose it, so decoding walks the JSON token stream.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"feedreach/pkg/models"
)

// Category is one named bucket of related search queries
type Category struct {
	Name    string
	Queries []string
}

// Catalog is an ordered list of categories
type Catalog struct {
	categories []Category
}

// Load reads a catalog from a JSON file of the form
// {"category_name": ["query one", "query two"], ...}
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse catalog: top level must be an object")
	}

	var cat Catalog
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to parse catalog: unexpected key token %v", keyTok)
		}

		var queries []string
		if err := dec.Decode(&queries); err != nil {
			return nil, fmt.Errorf("failed to parse catalog category %q: %w", name, err)
		}

		if seen[name] {
			return nil, fmt.Errorf("failed to parse catalog: duplicate category %q", name)
		}
		seen[name] = true

		cat.categories = append(cat.categories, Category{Name: name, Queries: queries})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return &cat, nil
}

// Categories returns the categories in file order
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Names returns the category names in file order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return names
}

// Filter returns a catalog restricted to the requested categories,
// preserving file order. Unknown names are silently dropped.
// An empty request returns the catalog unchanged.
func (c *Catalog) Filter(requested []string) *Catalog {
	if len(requested) == 0 {
		return c
	}

	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	var filtered Catalog
	for _, cat := range c.categories {
		if want[cat.Name] {
			filtered.categories = append(filtered.categories, cat)
		}
	}
	return &filtered
}

// Queries flattens the catalog into (category, query) pairs in crawl order
func (c *Catalog) Queries() []models.Query {
	var queries []models.Query
	for _, cat := range c.categories {
		for _, q := range cat.Queries {
			queries = append(queries, models.Query{Category: cat.Name, Text: q})
		}
	}
	return queries
}

// QueryCount returns the total number of queries across all categories
func (c *Catalog) QueryCount() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Queries)
	}
	return n
}
