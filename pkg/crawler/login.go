package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "feedreach/pkg/errors"
	"feedreach/pkg/logger"
	"feedreach/pkg/retry"
)

// LoginState is the state of the login machine
type LoginState int

const (
	LoginIdle LoginState = iota
	LoginAttempting
	LoginRetrying
	LoginSuccess
	LoginFailed
)

func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "idle"
	case LoginAttempting:
		return "attempting"
	case LoginRetrying:
		return "retrying"
	case LoginSuccess:
		return "success"
	case LoginFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionLogin drives authentication with bounded retries and linear
// backoff: attempt N sleeps N × BaseBackoff before the next try. Any
// unexpected error during an attempt is treated like a timeout, except a
// missing-credential condition, which is immediately fatal.
type SessionLogin struct {
	session     Session
	maxRetries  int
	baseBackoff time.Duration
	waitTimeout time.Duration
	sleep       retry.SleepFunc
	log         logger.Logger

	state LoginState
}

// NewSessionLogin creates a login machine over the given browser session
func NewSessionLogin(session Session, maxRetries int, baseBackoff, waitTimeout time.Duration, log logger.Logger) *SessionLogin {
	if log == nil {
		log = logger.GetLogger()
	}
	return &SessionLogin{
		session:     session,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		waitTimeout: waitTimeout,
		sleep:       retry.Wait,
		log:         log,
		state:       LoginIdle,
	}
}

// SetSleep replaces the inter-attempt wait, used by tests to avoid timers
func (l *SessionLogin) SetSleep(sleep retry.SleepFunc) {
	l.sleep = sleep
}

// State returns the current state of the machine
func (l *SessionLogin) State() LoginState {
	return l.state
}

// Attempt logs in with the given credentials. Success is terminal:
// calling Attempt again after a success returns nil without touching the
// session.
func (l *SessionLogin) Attempt(ctx context.Context, email, password string) error {
	if l.state == LoginSuccess {
		return nil
	}

	for attempt := 1; ; attempt++ {
		l.state = LoginAttempting
		l.log.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"max_retries": l.maxRetries,
		}).Info("attempting login")

		err := l.attemptOnce(ctx, email, password)
		if err == nil {
			l.state = LoginSuccess
			l.log.Info("logged in successfully")
			return nil
		}

		// A missing credential artifact can never be fixed by retrying
		var typed *errs.Error
		if errors.As(err, &typed) && errs.IsFatal(typed.Type) {
			l.state = LoginFailed
			return err
		}
		if ctx.Err() != nil {
			l.state = LoginFailed
			return ctx.Err()
		}

		if attempt >= l.maxRetries {
			l.state = LoginFailed
			return errs.Wrap(errs.ErrorTypeAuth,
				fmt.Sprintf("login failed after %d attempts", attempt), err)
		}

		l.state = LoginRetrying
		delay := time.Duration(attempt) * l.baseBackoff
		l.log.WithFields(map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		}).Warn("login attempt failed, retrying")

		if err := l.sleep(ctx, delay); err != nil {
			l.state = LoginFailed
			return err
		}
	}
}

func (l *SessionLogin) attemptOnce(ctx context.Context, email, password string) error {
	if err := l.session.SubmitLogin(ctx, email, password); err != nil {
		return err
	}
	return l.session.WaitLoggedIn(ctx, l.waitTimeout)
}
