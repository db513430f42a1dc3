// Package checker runs one update-check cycle for a watched application:
// fetch the appcast, parse it, compare the winning release against the
// installed version and decide whether the user should be told about it.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/akarpov/castwatch/app/appcast"
	"github.com/akarpov/castwatch/app/version"
)

// Settings supplies the persisted state of one watched application. The
// workflow only ever reads the skip preference; writing it is the API's job.
type Settings interface {
	FeedURL() string
	AppVersion() string
	SkippedVersion() (string, bool, error)
	WriteLastCheckTime(t time.Time) error
}

// Fetcher retrieves the raw appcast document. bypassCache forces a fresh
// copy from the origin, skipping any intermediate caches.
type Fetcher interface {
	Fetch(ctx context.Context, url string, bypassCache bool) ([]byte, error)
}

// Notifier receives the outcome of a check cycle. It is called exactly once
// per run, before the outcome is returned to the caller, and must not mutate
// the entry it is handed.
type Notifier interface {
	NoUpdate()
	UpdateAvailable(entry *appcast.Appcast)
	CheckError(err error)
}

// Policy selects the two points where automatic and manual checks differ:
// whether retrieval may serve a cached document, and whether a persisted
// "skip this version" preference suppresses the notification.
type Policy struct {
	BypassCache bool
	ShouldSkip  func(entry *appcast.Appcast) (bool, error)
}

// AutomaticPolicy honors the skip preference and allows cached documents.
// Used for scheduled background checks.
func AutomaticPolicy(settings Settings) Policy {
	return Policy{
		BypassCache: false,
		ShouldSkip: func(entry *appcast.Appcast) (bool, error) {
			skipped, ok, err := settings.SkippedVersion()
			if err != nil {
				return false, fmt.Errorf("failed to read skip preference: %w", err)
			}
			return ok && skipped == entry.Version, nil
		},
	}
}

// ManualPolicy bypasses caches and never skips. A check the user asked for
// explicitly must surface an available update even if that exact version was
// skipped during an automatic check; this follows Sparkle's semantics.
func ManualPolicy() Policy {
	return Policy{
		BypassCache: true,
		ShouldSkip: func(*appcast.Appcast) (bool, error) {
			return false, nil
		},
	}
}

type Checker struct {
	settings Settings
	fetcher  Fetcher
	notifier Notifier
	policy   Policy
	now      func() time.Time
}

func New(settings Settings, fetcher Fetcher, notifier Notifier, policy Policy) *Checker {
	return &Checker{
		settings: settings,
		fetcher:  fetcher,
		notifier: notifier,
		policy:   policy,
		now:      time.Now,
	}
}

// Run executes one full check cycle and classifies the result. The notifier
// is always informed before Run returns; a failure is reported to it and then
// returned to the caller, so the owning execution context can still log or
// escalate it.
func (c *Checker) Run(ctx context.Context) (Outcome, error) {
	outcome, err := c.check(ctx)
	if err != nil {
		c.notifier.CheckError(err)
		return Outcome{Kind: OutcomeError, Err: err}, err
	}

	switch outcome.Kind {
	case OutcomeUpdateAvailable:
		c.notifier.UpdateAvailable(outcome.Entry)
	default:
		c.notifier.NoUpdate()
	}
	return outcome, nil
}

func (c *Checker) check(ctx context.Context) (Outcome, error) {
	url := c.settings.FeedURL()
	if url == "" {
		return Outcome{}, &ConfigError{Reason: "appcast feed URL not specified"}
	}

	data, err := c.fetcher.Fetch(ctx, url, c.policy.BypassCache)
	if err != nil {
		return Outcome{}, &TransportError{URL: url, Err: err}
	}

	doc, err := appcast.Parse(data)
	if err != nil {
		return Outcome{}, err
	}

	// The document was retrieved and understood, so the check counts even
	// when nothing new is found. Schedulers derive the next check time
	// from this timestamp.
	if err := c.settings.WriteLastCheckTime(c.now()); err != nil {
		return Outcome{}, fmt.Errorf("failed to persist last check time: %w", err)
	}

	// The same or a newer version is already installed. A document without
	// any qualifying release lands here too: an empty version never
	// compares higher than the installed one.
	if version.Compare(c.settings.AppVersion(), doc.Version) >= 0 {
		return Outcome{Kind: OutcomeNoUpdate}, nil
	}

	skip, err := c.policy.ShouldSkip(doc)
	if err != nil {
		return Outcome{}, err
	}
	if skip {
		return Outcome{Kind: OutcomeNoUpdate}, nil
	}

	return Outcome{Kind: OutcomeUpdateAvailable, Entry: doc}, nil
}
