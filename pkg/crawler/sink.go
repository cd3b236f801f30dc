package crawler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"feedreach/pkg/models"
)

// sinkHeader is the contact CSV header in aggregated form
var sinkHeader = []string{"email", "category", "query", "count"}

// Sink appends aggregated records to the contact CSV after each query
// pass, so a crash loses at most the in-flight query. Each Append is one
// buffered write followed by a sync; no record is ever left half-written.
type Sink struct {
	path string
}

// NewSink creates a sink writing to the given path
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the output path
func (s *Sink) Path() string {
	return s.path
}

// Truncate resets the output file. The crawl phase calls this once at run
// start; the crawl is not resumable mid-run by design.
func (s *Sink) Truncate() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to truncate output: %w", err)
	}
	return f.Close()
}

// Append writes the records to the file, emitting the header first if the
// file is empty. Appending zero records is a no-op and does not create or
// alter the file.
func (s *Sink) Append(records []models.AggregatedRecord) error {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if info.Size() == 0 {
		if err := w.Write(sinkHeader); err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
	}

	for _, r := range records {
		row := []string{r.Email, r.Category, r.Query, strconv.Itoa(r.Count)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	// One write call for the whole batch, then force it to stable storage
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append records: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}

	return nil
}
