package campaign

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	errs "feedreach/pkg/errors"
	"feedreach/pkg/models"
	"feedreach/pkg/retry"
	"feedreach/pkg/transport"
)

// fakeTransport records sends and fails on script
type fakeTransport struct {
	sent []transport.Message
	// failures maps a recipient address to the errors its first sends
	// return, consumed in order
	failures map[string][]error
	calls    map[string]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeTransport) Send(ctx context.Context, msg transport.Message) error {
	n := f.calls[msg.To]
	f.calls[msg.To] = n + 1
	if queued := f.failures[msg.To]; n < len(queued) {
		return queued[n]
	}
	f.sent = append(f.sent, msg)
	return nil
}

func silentSleep(recorded *[]time.Duration) retry.SleepFunc {
	return func(ctx context.Context, delay time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		*recorded = append(*recorded, delay)
		return nil
	}
}

func rcpt(email, category string) models.Recipient {
	return models.Recipient{Email: email, Category: category, Query: "q"}
}

func newTestRunner(t *testing.T, tr transport.Transport, opts Options) (*Runner, *Ledger, *[]time.Duration) {
	t.Helper()
	ledger := NewLedger(filepath.Join(t.TempDir(), "sent_emails.log"))
	composer := NewComposer(map[string]Template{
		"cat1": {Subject: "S1 {query}", Body: "B1"},
		"deft": {Subject: "SD", Body: "BD"},
	}, "deft")

	runner := NewRunner(tr, ledger, composer, opts, nil)
	slept := new([]time.Duration)
	runner.SetSleep(silentSleep(slept))
	return runner, ledger, slept
}

func TestRunSendsAndRecordsEveryRecipient(t *testing.T) {
	tr := newFakeTransport()
	runner, ledger, _ := newTestRunner(t, tr, Options{Sender: "me@x.com"})

	recipients := []models.Recipient{rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1")}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Sent != 2 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(tr.sent))
	}
	if tr.sent[0].Subject != "S1 q" {
		t.Errorf("Expected the category template rendered, got %q", tr.sent[0].Subject)
	}

	sent, err := ledger.Load()
	if err != nil {
		t.Fatalf("Ledger load failed: %v", err)
	}
	if !sent["a@x.com"] || !sent["b@x.com"] {
		t.Errorf("Expected both addresses in the ledger, got %v", sent)
	}
}

func TestRunSkipsAlreadySentAddresses(t *testing.T) {
	tr := newFakeTransport()
	runner, ledger, _ := newTestRunner(t, tr, Options{})

	if err := ledger.Record("a@x.com"); err != nil {
		t.Fatalf("Seeding ledger failed: %v", err)
	}

	recipients := []models.Recipient{rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1")}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Skipped != 1 || result.Sent != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(tr.sent) != 1 || tr.sent[0].To != "b@x.com" {
		t.Errorf("Expected only b@x.com delivered, got %+v", tr.sent)
	}
}

func TestRunResumesAfterInterruption(t *testing.T) {
	// First run is interrupted after the first send by a transport failure
	// we do not retry; second run must pick up exactly the remainder.
	path := filepath.Join(t.TempDir(), "sent_emails.log")
	composer := NewComposer(nil, "entry_level_searches")
	recipients := []models.Recipient{
		rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1"), rcpt("c@x.com", "cat1"),
	}

	first := newFakeTransport()
	first.failures["b@x.com"] = []error{errs.New(errs.ErrorTypeRejected, "bounced")}
	runner := NewRunner(first, NewLedger(path), composer, Options{}, nil)
	runner.SetSleep(silentSleep(new([]time.Duration)))

	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if result.Sent != 2 || result.Failed != 1 {
		t.Fatalf("Unexpected first result: %+v", result)
	}

	second := newFakeTransport()
	runner = NewRunner(second, NewLedger(path), composer, Options{}, nil)
	runner.SetSleep(silentSleep(new([]time.Duration)))

	result, err = runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if result.Skipped != 2 || result.Sent != 1 {
		t.Errorf("Unexpected second result: %+v", result)
	}
	if len(second.sent) != 1 || second.sent[0].To != "b@x.com" {
		t.Errorf("Expected only the failed address retried, got %+v", second.sent)
	}
}

func TestRunLimitCapsNewRecipientsOnly(t *testing.T) {
	tr := newFakeTransport()
	runner, ledger, _ := newTestRunner(t, tr, Options{Limit: 2})

	if err := ledger.Record("a@x.com"); err != nil {
		t.Fatalf("Seeding ledger failed: %v", err)
	}

	recipients := []models.Recipient{
		rcpt("a@x.com", "cat1"), // already sent, must not consume the limit
		rcpt("b@x.com", "cat1"),
		rcpt("c@x.com", "cat1"),
		rcpt("d@x.com", "cat1"),
	}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Sent != 2 {
		t.Errorf("Expected 2 sends, got %+v", result)
	}
	if len(tr.sent) != 2 || tr.sent[0].To != "b@x.com" || tr.sent[1].To != "c@x.com" {
		t.Errorf("Expected the first 2 remaining recipients, got %+v", tr.sent)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	tr := newFakeTransport()
	runner, ledger, _ := newTestRunner(t, tr, Options{DryRun: true})

	if err := ledger.Record("a@x.com"); err != nil {
		t.Fatalf("Seeding ledger failed: %v", err)
	}

	recipients := []models.Recipient{rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1")}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Previewed != 1 || result.Skipped != 1 || result.Sent != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(tr.sent) != 0 {
		t.Errorf("Expected no deliveries in dry run, got %+v", tr.sent)
	}

	sent, err := ledger.Load()
	if err != nil {
		t.Fatalf("Ledger load failed: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("Expected the ledger unchanged, got %v", sent)
	}
}

func TestRunRetriesTransientSendFailures(t *testing.T) {
	tr := newFakeTransport()
	tr.failures["a@x.com"] = []error{
		errs.New(errs.ErrorTypeNetwork, "connection reset"),
		errs.New(errs.ErrorTypeNetwork, "connection reset"),
	}
	runner, ledger, slept := newTestRunner(t, tr, Options{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	})

	result, err := runner.Run(context.Background(), []models.Recipient{rcpt("a@x.com", "cat1")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Sent != 1 || result.Failed != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if tr.calls["a@x.com"] != 3 {
		t.Errorf("Expected 3 attempts, got %d", tr.calls["a@x.com"])
	}
	// Linear backoff between attempts: 2s then 4s
	if len(*slept) != 2 || (*slept)[0] != 2*time.Second || (*slept)[1] != 4*time.Second {
		t.Errorf("Expected retry delays [2s 4s], got %v", *slept)
	}

	sent, _ := ledger.Load()
	if !sent["a@x.com"] {
		t.Error("Expected the address recorded after eventual success")
	}
}

func TestRunPermanentFailureDoesNotRetryOrRecord(t *testing.T) {
	tr := newFakeTransport()
	tr.failures["a@x.com"] = []error{errs.New(errs.ErrorTypeRejected, "mailbox full")}
	runner, ledger, _ := newTestRunner(t, tr, Options{MaxRetries: 3})

	recipients := []models.Recipient{rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1")}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Failed != 1 || result.Sent != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if tr.calls["a@x.com"] != 1 {
		t.Errorf("Expected no retry of a permanent failure, got %d attempts", tr.calls["a@x.com"])
	}

	sent, _ := ledger.Load()
	if sent["a@x.com"] {
		t.Error("Failed address must not be in the ledger")
	}
	if !sent["b@x.com"] {
		t.Error("The run must continue past a permanent failure")
	}
}

func TestRunMixedOutcomes(t *testing.T) {
	tr := newFakeTransport()
	tr.failures["bad@addr.com"] = []error{errs.New(errs.ErrorTypeRejected, "invalid recipient")}
	tr.failures["ok@addr.com"] = []error{
		errs.New(errs.ErrorTypeNetwork, "timeout"),
		errs.New(errs.ErrorTypeNetwork, "timeout"),
	}
	runner, ledger, _ := newTestRunner(t, tr, Options{MaxRetries: 3})

	recipients := []models.Recipient{rcpt("bad@addr.com", "cat1"), rcpt("ok@addr.com", "cat1")}
	result, err := runner.Run(context.Background(), recipients)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Sent != 1 || result.Failed != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}

	sent, _ := ledger.Load()
	if sent["bad@addr.com"] {
		t.Error("Permanently failed address must not be in the ledger")
	}
	if !sent["ok@addr.com"] {
		t.Error("Expected the transiently failing address to succeed and be recorded")
	}
}

func TestRunDelaysBetweenSendsButNotAfterLast(t *testing.T) {
	tr := newFakeTransport()
	runner, _, slept := newTestRunner(t, tr, Options{Delay: 7 * time.Second})

	recipients := []models.Recipient{
		rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1"), rcpt("c@x.com", "cat1"),
	}
	if _, err := runner.Run(context.Background(), recipients); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(*slept) != 2 {
		t.Fatalf("Expected 2 inter-send delays, got %v", *slept)
	}
	for _, d := range *slept {
		if d != 7*time.Second {
			t.Errorf("Expected 7s delays, got %v", *slept)
		}
	}
}

func TestRunNothingToDo(t *testing.T) {
	tr := newFakeTransport()
	runner, ledger, _ := newTestRunner(t, tr, Options{})

	if err := ledger.Record("a@x.com"); err != nil {
		t.Fatalf("Seeding ledger failed: %v", err)
	}

	result, err := runner.Run(context.Background(), []models.Recipient{rcpt("a@x.com", "cat1")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Skipped != 1 || result.Sent != 0 || result.Previewed != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(tr.sent) != 0 {
		t.Errorf("Expected no deliveries, got %+v", tr.sent)
	}
}

func TestRunUnwritableLedgerAbortsRun(t *testing.T) {
	// A path inside a missing directory: Load sees an empty ledger, but
	// Record cannot create the file
	ledgerPath := filepath.Join(t.TempDir(), "missing", "sent_emails.log")

	tr := newFakeTransport()
	runner := NewRunner(tr, NewLedger(ledgerPath), NewComposer(nil, "entry_level_searches"), Options{}, nil)
	runner.SetSleep(silentSleep(new([]time.Duration)))

	recipients := []models.Recipient{rcpt("a@x.com", "cat1"), rcpt("b@x.com", "cat1")}
	_, err := runner.Run(context.Background(), recipients)
	if err == nil {
		t.Fatal("Expected the run to abort when the ledger cannot be written")
	}
	if len(tr.sent) != 1 {
		t.Errorf("Expected the run to stop after the unrecordable send, got %d", len(tr.sent))
	}
}
