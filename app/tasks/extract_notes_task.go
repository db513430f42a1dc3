package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/akarpov/castwatch/app/checker"
	"github.com/akarpov/castwatch/app/database"
	"github.com/akarpov/castwatch/app/notes"
)

// ExtractNotesTask downloads the release-notes page advertised by the latest
// appcast entry and stores its readable text alongside the app record.
type ExtractNotesTask struct {
	Task

	appRepo   database.AppRepository
	fetcher   checker.Fetcher
	extractor *notes.Extractor
}

func NewExtractNotesTask(appName string, appRepo database.AppRepository, fetcher checker.Fetcher, extractor *notes.Extractor) *ExtractNotesTask {
	return &ExtractNotesTask{
		Task:      NewTask(TaskTypeExtractNotes, appName),
		appRepo:   appRepo,
		fetcher:   fetcher,
		extractor: extractor,
	}
}

func (t *ExtractNotesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	app, err := t.appRepo.GetApp(t.AppName)
	if err != nil {
		return fmt.Errorf("failed to load app %s: %w", t.AppName, err)
	}
	if app == nil {
		return fmt.Errorf("app %s not found in database", t.AppName)
	}

	if app.ReleaseNotesURL == "" {
		slog.Debug("No release notes URL, skipping extraction", "app", t.AppName)
		return nil
	}

	pageURL, err := url.Parse(app.ReleaseNotesURL)
	if err != nil {
		return fmt.Errorf("invalid release notes URL for app %s: %w", t.AppName, err)
	}

	data, err := t.fetcher.Fetch(ctx, app.ReleaseNotesURL, false)
	if err != nil {
		return fmt.Errorf("failed to fetch release notes for app %s: %w", t.AppName, err)
	}

	content, err := t.extractor.Run(data, pageURL)
	if err != nil {
		return fmt.Errorf("failed to extract release notes for app %s: %w", t.AppName, err)
	}

	if err := t.appRepo.UpdateReleaseNotes(t.AppName, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store release notes for app %s: %w", t.AppName, err)
	}

	slog.Info("Task completed", "type", t.Type, "app", t.AppName, "duration", t.GetDuration())
	return nil
}
