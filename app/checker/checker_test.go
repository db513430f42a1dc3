package checker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akarpov/castwatch/app/appcast"
)

type fakeSettings struct {
	feedURL        string
	appVersion     string
	skipped        string
	hasSkipped     bool
	skippedErr     error
	lastCheckTimes []time.Time
	writeErr       error
}

func (s *fakeSettings) FeedURL() string    { return s.feedURL }
func (s *fakeSettings) AppVersion() string { return s.appVersion }

func (s *fakeSettings) SkippedVersion() (string, bool, error) {
	return s.skipped, s.hasSkipped, s.skippedErr
}

func (s *fakeSettings) WriteLastCheckTime(t time.Time) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.lastCheckTimes = append(s.lastCheckTimes, t)
	return nil
}

type fakeFetcher struct {
	data        []byte
	err         error
	calls       int
	bypassCache bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, bypassCache bool) ([]byte, error) {
	f.calls++
	f.bypassCache = bypassCache
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeNotifier struct {
	noUpdates int
	updates   []*appcast.Appcast
	errs      []error
}

func (n *fakeNotifier) NoUpdate()                              { n.noUpdates++ }
func (n *fakeNotifier) UpdateAvailable(entry *appcast.Appcast) { n.updates = append(n.updates, entry) }
func (n *fakeNotifier) CheckError(err error)                   { n.errs = append(n.errs, err) }

func appcastXML(version string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0" xmlns:sparkle="http://www.andymatuschak.org/xml-namespaces/sparkle">
  <channel>
    <item>
      <title>Version %s</title>
      <enclosure url="https://example.com/app-%s.exe" sparkle:version="%s"/>
    </item>
  </channel>
</rss>`, version, version, version))
}

func TestRunNoUpdateWhenSameVersion(t *testing.T) {
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{data: appcastXML("1.0")}
	notifier := &fakeNotifier{}

	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeNoUpdate {
		t.Errorf("Expected outcome %q, got: %q", OutcomeNoUpdate, outcome.Kind)
	}
	if notifier.noUpdates != 1 || len(notifier.updates) != 0 {
		t.Errorf("Expected exactly one no-update notification, got: %+v", notifier)
	}
	if len(settings.lastCheckTimes) != 1 {
		t.Errorf("Expected last check time to be written once, got %d writes", len(settings.lastCheckTimes))
	}
}

func TestRunUpdateAvailable(t *testing.T) {
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{data: appcastXML("2.0")}
	notifier := &fakeNotifier{}

	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeUpdateAvailable {
		t.Fatalf("Expected outcome %q, got: %q", OutcomeUpdateAvailable, outcome.Kind)
	}
	if outcome.Entry.Version != "2.0" {
		t.Errorf("Expected entry version '2.0', got: %s", outcome.Entry.Version)
	}
	if outcome.Entry.DownloadURL != "https://example.com/app-2.0.exe" {
		t.Errorf("Expected entry download URL intact, got: %s", outcome.Entry.DownloadURL)
	}
	if len(notifier.updates) != 1 || notifier.noUpdates != 0 {
		t.Errorf("Expected exactly one update notification, got: %+v", notifier)
	}
	if fetcher.bypassCache {
		t.Error("Expected automatic check to allow cached documents")
	}
}

func TestRunSkippedVersion(t *testing.T) {
	settings := &fakeSettings{
		feedURL:    "https://example.com/appcast.xml",
		appVersion: "1.0",
		skipped:    "2.0",
		hasSkipped: true,
	}
	fetcher := &fakeFetcher{data: appcastXML("2.0")}

	// Automatic check honors the skip preference.
	notifier := &fakeNotifier{}
	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeNoUpdate {
		t.Errorf("Expected automatic check outcome %q, got: %q", OutcomeNoUpdate, outcome.Kind)
	}

	// A manual check on the same state still shows the update, and bypasses
	// the cache.
	notifier = &fakeNotifier{}
	outcome, err = New(settings, fetcher, notifier, ManualPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeUpdateAvailable {
		t.Errorf("Expected manual check outcome %q, got: %q", OutcomeUpdateAvailable, outcome.Kind)
	}
	if !fetcher.bypassCache {
		t.Error("Expected manual check to bypass caches")
	}
}

func TestRunSkipOnlySuppressesExactVersion(t *testing.T) {
	settings := &fakeSettings{
		feedURL:    "https://example.com/appcast.xml",
		appVersion: "1.0",
		skipped:    "1.5",
		hasSkipped: true,
	}
	fetcher := &fakeFetcher{data: appcastXML("2.0")}
	notifier := &fakeNotifier{}

	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeUpdateAvailable {
		t.Errorf("Expected outcome %q, got: %q", OutcomeUpdateAvailable, outcome.Kind)
	}
}

func TestRunMissingFeedURL(t *testing.T) {
	settings := &fakeSettings{appVersion: "1.0"}
	fetcher := &fakeFetcher{}
	notifier := &fakeNotifier{}

	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error, got none")
	}

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Expected *ConfigError, got: %T", err)
	}
	if outcome.Kind != OutcomeError {
		t.Errorf("Expected outcome %q, got: %q", OutcomeError, outcome.Kind)
	}
	if len(notifier.errs) != 1 {
		t.Errorf("Expected exactly one error notification, got %d", len(notifier.errs))
	}
	if fetcher.calls != 0 {
		t.Error("Expected no fetch attempt without a feed URL")
	}
}

func TestRunTransportFailure(t *testing.T) {
	cause := errors.New("connection refused")
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{err: cause}
	notifier := &fakeNotifier{}

	_, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error, got none")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got: %T", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected transport error to wrap the underlying cause")
	}
	if len(settings.lastCheckTimes) != 0 {
		t.Error("Expected no last-check-time write after a failed fetch")
	}
}

func TestRunParseFailure(t *testing.T) {
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{data: []byte("<rss><channel><item></rss>")}
	notifier := &fakeNotifier{}

	_, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error, got none")
	}

	var parseErr *appcast.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *appcast.ParseError, got: %T", err)
	}
	if len(settings.lastCheckTimes) != 0 {
		t.Error("Expected no last-check-time write after a parse failure")
	}
	if len(notifier.errs) != 1 {
		t.Errorf("Expected exactly one error notification, got %d", len(notifier.errs))
	}
}

func TestRunNoQualifyingEntry(t *testing.T) {
	// An appcast whose only enclosure lacks a version attribute retains no
	// release; the check completes as a no-update, not an error.
	data := []byte(`<?xml version="1.0"?>
<rss version="2.0" xmlns:sparkle="http://www.andymatuschak.org/xml-namespaces/sparkle">
  <channel>
    <item>
      <enclosure url="https://example.com/app.exe"/>
    </item>
  </channel>
</rss>`)
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{data: data}
	notifier := &fakeNotifier{}

	outcome, err := New(settings, fetcher, notifier, AutomaticPolicy(settings)).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Kind != OutcomeNoUpdate {
		t.Errorf("Expected outcome %q, got: %q", OutcomeNoUpdate, outcome.Kind)
	}
	if len(settings.lastCheckTimes) != 1 {
		t.Errorf("Expected last check time written once, got %d writes", len(settings.lastCheckTimes))
	}
}

func TestRunIdempotent(t *testing.T) {
	settings := &fakeSettings{feedURL: "https://example.com/appcast.xml", appVersion: "1.0"}
	fetcher := &fakeFetcher{data: appcastXML("2.0")}
	notifier := &fakeNotifier{}

	c := New(settings, fetcher, notifier, AutomaticPolicy(settings))

	first, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if first.Kind != second.Kind {
		t.Errorf("Expected identical outcome kinds, got %q then %q", first.Kind, second.Kind)
	}
	if len(settings.lastCheckTimes) != 2 {
		t.Errorf("Expected two last-check-time writes, got %d", len(settings.lastCheckTimes))
	}
}
