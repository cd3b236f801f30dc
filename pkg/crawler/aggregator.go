package crawler

import (
	"sort"

	"feedreach/pkg/models"
)

// Aggregate collapses contact observations into one counted record per
// distinct (email, category, query) triple. Output order is deterministic
// regardless of extraction order: ascending by email, then category, then
// query. Pure; no state carries across query passes.
func Aggregate(contacts []models.ExtractedContact) []models.AggregatedRecord {
	if len(contacts) == 0 {
		return nil
	}

	type key struct {
		email, category, query string
	}

	counts := make(map[key]int, len(contacts))
	for _, c := range contacts {
		counts[key{c.Email, c.Category, c.Query}]++
	}

	records := make([]models.AggregatedRecord, 0, len(counts))
	for k, n := range counts {
		records = append(records, models.AggregatedRecord{
			Email:    k.email,
			Category: k.category,
			Query:    k.query,
			Count:    n,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Query < b.Query
	})

	return records
}
