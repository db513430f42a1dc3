package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akarpov/castwatch/app/appcast"
	"github.com/akarpov/castwatch/app/checker"
	"github.com/akarpov/castwatch/app/config"
	"github.com/akarpov/castwatch/app/database"
)

// appSettings bridges the static app config file and the persistent per-app
// state in the database into the checker's Settings view.
type appSettings struct {
	appConfig *config.Config
	appRepo   database.AppRepository
}

func (s *appSettings) FeedURL() string {
	return s.appConfig.URL
}

func (s *appSettings) AppVersion() string {
	return s.appConfig.Version
}

func (s *appSettings) SkippedVersion() (string, bool, error) {
	return s.appRepo.GetSkippedVersion(s.appConfig.Name)
}

func (s *appSettings) WriteLastCheckTime(checkedAt time.Time) error {
	return s.appRepo.WriteLastCheckTime(s.appConfig.Name, checkedAt)
}

// outcomeRecorder persists each check result so the API can report it later.
type outcomeRecorder struct {
	appName string
	appRepo database.AppRepository
}

func (n *outcomeRecorder) NoUpdate() {
	slog.Debug("No update available", "app", n.appName)

	if err := n.appRepo.RecordOutcome(n.appName, string(checker.OutcomeNoUpdate), nil, ""); err != nil {
		slog.Error("Failed to record check outcome", "app", n.appName, "error", err)
	}
}

func (n *outcomeRecorder) UpdateAvailable(entry *appcast.Appcast) {
	slog.Info("Update available", "app", n.appName, "version", entry.DisplayVersion())

	release := &database.Release{
		Version:            entry.Version,
		ShortVersionString: entry.ShortVersionString,
		DownloadURL:        entry.DownloadURL,
		Title:              entry.Title,
		Description:        entry.Description,
		ReleaseNotesURL:    entry.ReleaseNotesURL,
	}

	if err := n.appRepo.RecordOutcome(n.appName, string(checker.OutcomeUpdateAvailable), release, ""); err != nil {
		slog.Error("Failed to record check outcome", "app", n.appName, "error", err)
	}
}

func (n *outcomeRecorder) CheckError(checkErr error) {
	slog.Error("Update check failed", "app", n.appName, "error", checkErr)

	if err := n.appRepo.RecordOutcome(n.appName, string(checker.OutcomeError), nil, checkErr.Error()); err != nil {
		slog.Error("Failed to record check outcome", "app", n.appName, "error", err)
	}
}

type CheckUpdateTask struct {
	Task
	Manual bool

	appConfig *config.Config
	appRepo   database.AppRepository
	fetcher   checker.Fetcher

	startedOnce sync.Once
	started     chan struct{}
}

func NewCheckUpdateTask(appConfig *config.Config, appRepo database.AppRepository, fetcher checker.Fetcher, manual bool) *CheckUpdateTask {
	return &CheckUpdateTask{
		Task:      NewTask(TaskTypeCheckUpdate, appConfig.Name),
		Manual:    manual,
		appConfig: appConfig,
		appRepo:   appRepo,
		fetcher:   fetcher,
		started:   make(chan struct{}),
	}
}

// Started is closed once a worker has picked the task up, before any network
// activity. Callers waiting to report "check in progress" select on it.
func (t *CheckUpdateTask) Started() <-chan struct{} {
	return t.started
}

func (t *CheckUpdateTask) signalStarted() {
	t.startedOnce.Do(func() {
		close(t.started)
	})
}

func (t *CheckUpdateTask) Execute(ctx context.Context) error {
	t.signalStarted()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	settings := &appSettings{appConfig: t.appConfig, appRepo: t.appRepo}
	notifier := &outcomeRecorder{appName: t.appConfig.Name, appRepo: t.appRepo}

	policy := checker.AutomaticPolicy(settings)
	if t.Manual {
		policy = checker.ManualPolicy()
	}

	c := checker.New(settings, t.fetcher, notifier, policy)
	outcome, runErr := c.Run(ctx)

	// Schedule the next cycle even after a failed check, otherwise a broken
	// feed would never be retried.
	interval := time.Duration(t.appConfig.Settings.CheckInterval) * time.Second
	nextCheckAt := time.Now().UTC().Add(interval)
	if err := t.appRepo.SetNextCheckTime(t.appConfig.Name, nextCheckAt); err != nil {
		slog.Error("Failed to schedule next check", "app", t.appConfig.Name, "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("update check for app %s failed: %w", t.appConfig.Name, runErr)
	}

	slog.Info("Task completed", "type", t.Type, "app", t.AppName, "outcome", outcome.Kind, "duration", t.GetDuration())
	return nil
}
