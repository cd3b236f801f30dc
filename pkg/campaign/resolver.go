package campaign

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	errs "feedreach/pkg/errors"
	"feedreach/pkg/models"
)

// ReadRows reads the contact CSV. Both forms are accepted:
// email,category,query,count (aggregated) and email,category,query,date
// (simple); a missing count column implies 1. Rows with an empty email are
// skipped; addresses are lowercased. A non-empty filterDate keeps only rows
// whose date column matches exactly.
func ReadRows(path, filterDate string) ([]models.ContactRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrorTypeNotFound, fmt.Sprintf("contact file not found: %s", path), err)
		}
		return nil, fmt.Errorf("failed to open contact file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to read contact header", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return nil, errs.New(errs.ErrorTypeParsing, "contact file has no email column")
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []models.ContactRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to read contact row", err)
		}

		email := strings.ToLower(field(record, "email"))
		if email == "" {
			continue
		}

		date := field(record, "date")
		if filterDate != "" && date != filterDate {
			continue
		}

		count := 1
		if s := field(record, "count"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				count = n
			}
		}

		rows = append(rows, models.ContactRow{
			Email:    email,
			Category: field(record, "category"),
			Query:    field(record, "query"),
			Count:    count,
			Date:     date,
		})
	}

	return rows, nil
}

// Resolve collapses rows to one recipient per address, first-seen-wins:
// category and query attribution come from the first row in file order,
// later rows for an already-seen address are discarded. Emission order is
// first-occurrence order.
func Resolve(rows []models.ContactRow) []models.Recipient {
	seen := make(map[string]bool, len(rows))
	var recipients []models.Recipient

	for _, row := range rows {
		if seen[row.Email] {
			continue
		}
		seen[row.Email] = true
		recipients = append(recipients, models.Recipient{
			Email:    row.Email,
			Category: row.Category,
			Query:    row.Query,
			Date:     row.Date,
		})
	}

	return recipients
}
