package campaign

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	errs "feedreach/pkg/errors"
	"feedreach/pkg/models"
)

func writeContactFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mail.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write contact file: %v", err)
	}
	return path
}

func TestReadRowsAggregatedForm(t *testing.T) {
	path := writeContactFile(t, "email,category,query,count\n"+
		"A@X.com,cat1,q1,3\n"+
		"b@x.com,cat2,q2,1\n")

	rows, err := ReadRows(path, "")
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}

	expected := []models.ContactRow{
		{Email: "a@x.com", Category: "cat1", Query: "q1", Count: 3},
		{Email: "b@x.com", Category: "cat2", Query: "q2", Count: 1},
	}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Expected %+v, got %+v", expected, rows)
	}
}

func TestReadRowsSimpleFormWithDate(t *testing.T) {
	path := writeContactFile(t, "email,category,query,date\n"+
		"a@x.com,cat1,q1,2026-08-30\n"+
		"b@x.com,cat1,q1,2026-08-31\n")

	t.Run("no filter reads everything", func(t *testing.T) {
		rows, err := ReadRows(path, "")
		if err != nil {
			t.Fatalf("ReadRows failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if rows[0].Count != 1 {
			t.Errorf("Expected implied count 1, got %d", rows[0].Count)
		}
	})

	t.Run("date filter is exact match", func(t *testing.T) {
		rows, err := ReadRows(path, "2026-08-31")
		if err != nil {
			t.Fatalf("ReadRows failed: %v", err)
		}
		if len(rows) != 1 || rows[0].Email != "b@x.com" {
			t.Errorf("Expected only b@x.com, got %+v", rows)
		}
	})
}

func TestReadRowsSkipsBlankEmails(t *testing.T) {
	path := writeContactFile(t, "email,category,query,count\n"+
		",cat1,q1,2\n"+
		"a@x.com,cat1,q1,1\n")

	rows, err := ReadRows(path, "")
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "a@x.com" {
		t.Errorf("Expected the blank row skipped, got %+v", rows)
	}
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "absent.csv"), "")
	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeNotFound {
		t.Errorf("Expected a not_found error, got %v", err)
	}
}

func TestReadRowsNoEmailColumn(t *testing.T) {
	path := writeContactFile(t, "name,category\nAlice,cat1\n")

	_, err := ReadRows(path, "")
	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeParsing {
		t.Errorf("Expected a parsing error, got %v", err)
	}
}

func TestReadRowsEmptyFile(t *testing.T) {
	path := writeContactFile(t, "")

	rows, err := ReadRows(path, "")
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %+v", rows)
	}
}

func TestResolveFirstSeenWins(t *testing.T) {
	rows := []models.ContactRow{
		{Email: "a@x.com", Category: "cat1", Query: "q1", Count: 2},
		{Email: "b@x.com", Category: "cat1", Query: "q2", Count: 1},
		{Email: "a@x.com", Category: "cat2", Query: "q3", Count: 5},
	}

	recipients := Resolve(rows)

	expected := []models.Recipient{
		{Email: "a@x.com", Category: "cat1", Query: "q1"},
		{Email: "b@x.com", Category: "cat1", Query: "q2"},
	}
	if !reflect.DeepEqual(recipients, expected) {
		t.Errorf("Expected %+v, got %+v", expected, recipients)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	if got := Resolve(nil); got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}
