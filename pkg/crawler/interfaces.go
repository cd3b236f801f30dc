package crawler

import (
	"context"
	"time"

	"feedreach/pkg/models"
)

// Session is the browser collaborator. The crawl loop owns the control
// flow (bounded scrolling, saturation stop, delays); the session owns the
// automation backend.
type Session interface {
	Navigate(ctx context.Context, url string) error
	SubmitLogin(ctx context.Context, email, password string) error
	WaitLoggedIn(ctx context.Context, timeout time.Duration) error

	// LoadMore extends the loaded content and reports whether it grew
	LoadMore(ctx context.Context) (bool, error)

	// ExpandPosts un-truncates visible posts; best effort only
	ExpandPosts(ctx context.Context) error

	// Snapshot returns the current page HTML
	Snapshot(ctx context.Context) (string, error)

	Close() error
}

// ContactExtractor turns a page snapshot into tagged contact rows
type ContactExtractor func(html, category, query string) ([]models.ExtractedContact, error)
