package campaign

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Ledger is the append-only record of addresses already contacted: plain
// text, one lowercase address per line. Presence is a boolean idempotency
// gate — an address in the ledger is never re-selected for sending unless
// the ledger is explicitly reset.
type Ledger struct {
	path string
}

// NewLedger creates a ledger at the given path
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the set of already-contacted addresses. A missing file is an
// empty ledger, not an error.
func (l *Ledger) Load() (map[string]bool, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to open sent ledger: %w", err)
	}
	defer f.Close()

	sent := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line != "" {
			sent[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sent ledger: %w", err)
	}

	return sent, nil
}

// Record appends one address and forces the write to stable storage before
// returning: a confirmed Record survives a subsequent crash.
func (l *Ledger) Record(email string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open sent ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.ToLower(email) + "\n"); err != nil {
		return fmt.Errorf("failed to append to sent ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync sent ledger: %w", err)
	}

	return nil
}

// Reset deletes the ledger. A missing file is not an error.
func (l *Ledger) Reset() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset sent ledger: %w", err)
	}
	return nil
}
