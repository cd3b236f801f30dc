package analyze

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"feedreach/pkg/models"
)

// CategoryStat aggregates per-category counts from the contact roster
type CategoryStat struct {
	Category string
	Rows     int
	Unique   int
	Queries  []QueryStat
}

// QueryStat breaks a category down by the search query that produced it
type QueryStat struct {
	Query  string
	Rows   int
	Unique int
}

// Report is the computed view over a contact roster
type Report struct {
	Rows        int
	UniqueTotal int
	Categories  []CategoryStat
}

// Summarize computes per-category statistics over the given rows.
// Categories and queries are ordered by unique count descending, name
// ascending on ties. Uniqueness is per scope: an address harvested under
// two categories counts once in each but once overall.
func Summarize(rows []models.ContactRow) Report {
	report := Report{Rows: len(rows)}

	globalSeen := make(map[string]bool)
	catRows := make(map[string]int)
	catSeen := make(map[string]map[string]bool)
	queryRows := make(map[string]map[string]int)
	querySeen := make(map[string]map[string]map[string]bool)

	for _, row := range rows {
		globalSeen[row.Email] = true
		catRows[row.Category]++

		if catSeen[row.Category] == nil {
			catSeen[row.Category] = make(map[string]bool)
		}
		catSeen[row.Category][row.Email] = true

		if queryRows[row.Category] == nil {
			queryRows[row.Category] = make(map[string]int)
			querySeen[row.Category] = make(map[string]map[string]bool)
		}
		queryRows[row.Category][row.Query]++
		if querySeen[row.Category][row.Query] == nil {
			querySeen[row.Category][row.Query] = make(map[string]bool)
		}
		querySeen[row.Category][row.Query][row.Email] = true
	}

	report.UniqueTotal = len(globalSeen)

	for cat := range catRows {
		stat := CategoryStat{
			Category: cat,
			Rows:     catRows[cat],
			Unique:   len(catSeen[cat]),
		}
		for q := range queryRows[cat] {
			stat.Queries = append(stat.Queries, QueryStat{
				Query:  q,
				Rows:   queryRows[cat][q],
				Unique: len(querySeen[cat][q]),
			})
		}
		sort.Slice(stat.Queries, func(i, j int) bool {
			if stat.Queries[i].Unique != stat.Queries[j].Unique {
				return stat.Queries[i].Unique > stat.Queries[j].Unique
			}
			return stat.Queries[i].Query < stat.Queries[j].Query
		})
		report.Categories = append(report.Categories, stat)
	}

	sort.Slice(report.Categories, func(i, j int) bool {
		if report.Categories[i].Unique != report.Categories[j].Unique {
			return report.Categories[i].Unique > report.Categories[j].Unique
		}
		return report.Categories[i].Category < report.Categories[j].Category
	})

	return report
}

// ListDates returns the distinct date values present in the rows, sorted
// ascending. Rows without a date column are ignored.
func ListDates(rows []models.ContactRow) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		if row.Date != "" {
			seen[row.Date] = true
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// RenderSummary writes the per-category table
func RenderSummary(w io.Writer, report Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Rows", "Unique Emails"})
	for _, cat := range report.Categories {
		t.AppendRow(table.Row{cat.Category, cat.Rows, cat.Unique})
	}
	t.AppendFooter(table.Row{"Total", report.Rows, report.UniqueTotal})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// RenderDetailed writes one table per category with the per-query breakdown
func RenderDetailed(w io.Writer, report Report) {
	for _, cat := range report.Categories {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(cat.Category)
		t.AppendHeader(table.Row{"Query", "Rows", "Unique Emails"})
		for _, q := range cat.Queries {
			t.AppendRow(table.Row{q.Query, q.Rows, q.Unique})
		}
		t.AppendFooter(table.Row{"Subtotal", cat.Rows, cat.Unique})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
		})
		t.Render()
	}
}
