package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "feedreach/pkg/errors"
	"feedreach/pkg/logger"
	"feedreach/pkg/models"
	"feedreach/pkg/retry"
	"feedreach/pkg/transport"
)

// Options controls a campaign run
type Options struct {
	Sender     string
	Attachment string
	Delay      time.Duration
	Limit      int // 0 means unlimited
	DryRun     bool
	MaxRetries int
	RetryDelay time.Duration
}

// Result summarizes a completed run
type Result struct {
	Total     int // recipients resolved from the roster
	Skipped   int // already in the ledger
	Sent      int
	Failed    int
	Previewed int
}

// Runner executes a campaign against a recipient roster. Every successful
// send is recorded in the ledger before the next one starts, so an
// interrupted run resumes without double-sending.
type Runner struct {
	transport transport.Transport
	ledger    *Ledger
	composer  *Composer
	opts      Options
	sleep     retry.SleepFunc
	log       logger.Logger
}

func NewRunner(t transport.Transport, ledger *Ledger, composer *Composer, opts Options, log logger.Logger) *Runner {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		transport: t,
		ledger:    ledger,
		composer:  composer,
		opts:      opts,
		sleep:     retry.Wait,
		log:       log,
	}
}

// SetSleep overrides the delay function, for tests
func (r *Runner) SetSleep(fn retry.SleepFunc) {
	r.sleep = fn
}

// Run sends to every recipient not already in the ledger. Recipients are
// processed in roster order; Limit caps how many are attempted this run.
func (r *Runner) Run(ctx context.Context, recipients []models.Recipient) (Result, error) {
	result := Result{Total: len(recipients)}

	sent, err := r.ledger.Load()
	if err != nil {
		return result, err
	}

	remaining := make([]models.Recipient, 0, len(recipients))
	for _, rcpt := range recipients {
		if sent[rcpt.Email] {
			result.Skipped++
			continue
		}
		remaining = append(remaining, rcpt)
	}

	if len(remaining) == 0 {
		r.log.Info("no new recipients to contact")
		return result, nil
	}

	if r.opts.Limit > 0 && len(remaining) > r.opts.Limit {
		remaining = remaining[:r.opts.Limit]
	}

	if r.opts.DryRun {
		return r.preview(remaining, result)
	}

	for i, rcpt := range remaining {
		log := r.log.WithFields(map[string]interface{}{
			"email":    rcpt.Email,
			"category": rcpt.Category,
		})

		if err := r.sendOne(ctx, rcpt); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			log.ErrorWithFields("failed to send", map[string]interface{}{"error": err.Error()})
		} else {
			if err := r.ledger.Record(rcpt.Email); err != nil {
				// An unwritable ledger means resumes would double-send,
				// so stop here rather than continue blind.
				return result, fmt.Errorf("failed to record sent email: %w", err)
			}
			result.Sent++
			log.Info("sent")
		}

		if i < len(remaining)-1 && r.opts.Delay > 0 {
			if err := r.sleep(ctx, r.opts.Delay); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// preview renders each remaining message without touching the transport
// or the ledger
func (r *Runner) preview(remaining []models.Recipient, result Result) (Result, error) {
	for _, rcpt := range remaining {
		subject, body := r.composer.Render(rcpt)
		fmt.Printf("--- [dry run] to: %s (category: %s)\nsubject: %s\n%s\n", rcpt.Email, rcpt.Category, subject, body)
		result.Previewed++
	}
	r.log.InfoWithFields("dry run complete", map[string]interface{}{
		"previewed": result.Previewed,
		"skipped":   result.Skipped,
	})
	return result, nil
}

func (r *Runner) sendOne(ctx context.Context, rcpt models.Recipient) error {
	subject, body := r.composer.Render(rcpt)
	msg := transport.Message{
		From:           r.opts.Sender,
		To:             rcpt.Email,
		Subject:        subject,
		Body:           body,
		AttachmentPath: r.opts.Attachment,
	}

	return retry.Do(func() error {
		return r.transport.Send(ctx, msg)
	}, &retry.Config{
		MaxAttempts: r.opts.MaxRetries,
		Backoff:     &retry.LinearBackoff{BaseDelay: r.opts.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Sleep:       r.sleep,
		Logger:      r.log,
	})
}

// IsPermanentFailure reports whether a send error was a permanent
// rejection rather than an exhausted retry budget
func IsPermanentFailure(err error) bool {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return !errs.IsRetryable(typed.Type)
	}
	return false
}
