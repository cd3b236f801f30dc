// Package crawler drives the crawl phase: log in once, then walk every
// catalog query in order, scrolling the result feed, extracting tagged
// contacts, and flushing aggregated rows to the contact CSV after each
// query so a crash loses at most one query's worth of work.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feedreach/pkg/catalog"
	"feedreach/pkg/logger"
	"feedreach/pkg/retry"
)

// Options configures the crawl loop
type Options struct {
	// SearchURL is the content-search URL template containing "{query}"
	SearchURL string

	// MaxScrolls bounds the scroll loop per query
	MaxScrolls int

	// SettleDelay is the wait after navigation before scrolling starts
	SettleDelay time.Duration

	// QueryDelay is the pause between queries within a category
	QueryDelay time.Duration

	// CategoryDelay is the (larger) pause between categories
	CategoryDelay time.Duration
}

// Result summarizes a crawl run
type Result struct {
	// Found is the total number of email observations across all queries
	Found int
	// Saved is the number of aggregated rows written to the output
	Saved int
	// FailedQueries counts queries that errored and contributed nothing
	FailedQueries int
}

// Orchestrator runs the crawl loop. It exclusively owns the browser
// session for the duration of a run.
type Orchestrator struct {
	session Session
	login   *SessionLogin
	extract ContactExtractor
	sink    *Sink
	opts    Options
	sleep   retry.SleepFunc
	log     logger.Logger
}

// New creates a crawl orchestrator
func New(session Session, login *SessionLogin, extractor ContactExtractor, sink *Sink, opts Options, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		session: session,
		login:   login,
		extract: extractor,
		sink:    sink,
		opts:    opts,
		sleep:   retry.Wait,
		log:     log,
	}
}

// SetSleep replaces the delay function, used by tests to avoid timers
func (o *Orchestrator) SetSleep(sleep retry.SleepFunc) {
	o.sleep = sleep
}

// Run logs in and crawls every query of the catalog in order. The output
// file is truncated at the start: the crawl phase is not resumable
// mid-run; resumability lives in the campaign ledger.
func (o *Orchestrator) Run(ctx context.Context, email, password string, cat *catalog.Catalog) (Result, error) {
	var result Result

	if err := o.login.Attempt(ctx, email, password); err != nil {
		return result, fmt.Errorf("login failed: %w", err)
	}

	if err := o.sink.Truncate(); err != nil {
		return result, err
	}

	categories := cat.Categories()
	for ci, category := range categories {
		o.log.WithFields(map[string]interface{}{
			"category": category.Name,
			"queries":  len(category.Queries),
		}).Info("crawling category")

		for qi, query := range category.Queries {
			found, saved, err := o.runQuery(ctx, category.Name, query)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				// One bad query never aborts the crawl
				result.FailedQueries++
				o.log.WithError(err).WithFields(map[string]interface{}{
					"category": category.Name,
					"query":    query,
				}).Error("query failed, continuing with zero contacts")
			} else {
				result.Found += found
				result.Saved += saved
			}

			if qi < len(category.Queries)-1 {
				if err := o.sleep(ctx, o.opts.QueryDelay); err != nil {
					return result, err
				}
			}
		}

		if ci < len(categories)-1 {
			if err := o.sleep(ctx, o.opts.CategoryDelay); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// runQuery crawls a single query pass: navigate, scroll until saturation
// or the scroll bound, snapshot, extract, aggregate, flush.
func (o *Orchestrator) runQuery(ctx context.Context, category, query string) (found, saved int, err error) {
	target := o.buildSearchURL(query)

	o.log.WithFields(map[string]interface{}{
		"category": category,
		"query":    query,
		"url":      target,
	}).Debug("navigating to search")

	if err := o.session.Navigate(ctx, target); err != nil {
		return 0, 0, err
	}
	if err := o.sleep(ctx, o.opts.SettleDelay); err != nil {
		return 0, 0, err
	}

	for i := 0; i < o.opts.MaxScrolls; i++ {
		// Expansion is an optimization, never required for correctness
		if err := o.session.ExpandPosts(ctx); err != nil {
			o.log.WithError(err).Debug("post expansion failed, ignoring")
		}

		grew, err := o.session.LoadMore(ctx)
		if err != nil {
			return 0, 0, err
		}
		if !grew {
			o.log.WithField("scrolls", i+1).Debug("feed saturated")
			break
		}
	}

	html, err := o.session.Snapshot(ctx)
	if err != nil {
		return 0, 0, err
	}

	contacts, err := o.extract(html, category, query)
	if err != nil {
		return 0, 0, err
	}

	records := Aggregate(contacts)
	if err := o.sink.Append(records); err != nil {
		return 0, 0, err
	}

	o.log.WithFields(map[string]interface{}{
		"category": category,
		"query":    query,
		"found":    len(contacts),
		"saved":    len(records),
	}).Info("query complete")

	return len(contacts), len(records), nil
}

// buildSearchURL substitutes the escaped query text into the template
func (o *Orchestrator) buildSearchURL(query string) string {
	return strings.Replace(o.opts.SearchURL, "{query}", url.QueryEscape(query), 1)
}
