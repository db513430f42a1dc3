package database

import (
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLiteAppRepository {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewAppRepository(db)
}

func TestUpsertAppPreservesState(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.0"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := repo.SetSkippedVersion("myapp", "2.0"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Re-registration with a newer installed version keeps the skip
	// preference.
	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.1"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	app, err := repo.GetApp("myapp")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if app == nil {
		t.Fatal("Expected app, got nil")
	}
	if app.AppVersion != "1.1" {
		t.Errorf("Expected app version '1.1', got: %s", app.AppVersion)
	}
	if app.SkippedVersion == nil || *app.SkippedVersion != "2.0" {
		t.Errorf("Expected skipped version '2.0' to survive re-registration, got: %v", app.SkippedVersion)
	}

	count, err := repo.GetAppCount()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 app, got %d", count)
	}
}

func TestGetAppNotFound(t *testing.T) {
	repo := newTestRepo(t)

	app, err := repo.GetApp("missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if app != nil {
		t.Errorf("Expected nil for a missing app, got: %+v", app)
	}
}

func TestSkippedVersionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.0"); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := repo.GetSkippedVersion("myapp"); err != nil || ok {
		t.Errorf("Expected no skip preference initially, got ok=%v err=%v", ok, err)
	}

	if err := repo.SetSkippedVersion("myapp", "2.0"); err != nil {
		t.Fatal(err)
	}
	skipped, ok, err := repo.GetSkippedVersion("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || skipped != "2.0" {
		t.Errorf("Expected skipped version '2.0', got %q ok=%v", skipped, ok)
	}

	if err := repo.ClearSkippedVersion("myapp"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.GetSkippedVersion("myapp"); ok {
		t.Error("Expected skip preference to be cleared")
	}
}

func TestCheckTimesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.0"); err != nil {
		t.Fatal(err)
	}

	checkedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	nextAt := checkedAt.Add(time.Hour)

	if err := repo.WriteLastCheckTime("myapp", checkedAt); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetNextCheckTime("myapp", nextAt); err != nil {
		t.Fatal(err)
	}

	app, err := repo.GetApp("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if app.LastCheckAt == nil || !app.LastCheckAt.Equal(checkedAt) {
		t.Errorf("Expected last check time %v, got: %v", checkedAt, app.LastCheckAt)
	}
	if app.NextCheckAt == nil || !app.NextCheckAt.Equal(nextAt) {
		t.Errorf("Expected next check time %v, got: %v", nextAt, app.NextCheckAt)
	}
}

func TestRecordOutcome(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.0"); err != nil {
		t.Fatal(err)
	}

	release := &Release{
		Version:            "2.0",
		ShortVersionString: "2.0 Beta",
		DownloadURL:        "https://example.com/app-2.0.exe",
		Title:              "Version 2.0",
		Description:        "Big release",
		ReleaseNotesURL:    "https://example.com/notes/2.0.html",
	}
	if err := repo.RecordOutcome("myapp", "update_available", release, ""); err != nil {
		t.Fatal(err)
	}

	app, err := repo.GetApp("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if app.LastOutcome != "update_available" {
		t.Errorf("Expected outcome 'update_available', got: %s", app.LastOutcome)
	}
	if app.LatestVersion != "2.0" || app.DownloadURL != "https://example.com/app-2.0.exe" {
		t.Errorf("Expected release fields persisted, got: %+v", app)
	}

	// A later failed check keeps the recorded release.
	if err := repo.RecordOutcome("myapp", "error", nil, "connection refused"); err != nil {
		t.Fatal(err)
	}

	app, err = repo.GetApp("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if app.LastOutcome != "error" || app.LastError != "connection refused" {
		t.Errorf("Expected error outcome recorded, got: %s / %s", app.LastOutcome, app.LastError)
	}
	if app.LatestVersion != "2.0" {
		t.Errorf("Expected previous release to remain, got: %s", app.LatestVersion)
	}
}

func TestUpdateReleaseNotes(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.UpsertApp("myapp", "https://example.com/appcast.xml", "1.0"); err != nil {
		t.Fatal(err)
	}

	extractedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateReleaseNotes("myapp", "<p>Notes</p>", extractedAt); err != nil {
		t.Fatal(err)
	}

	app, err := repo.GetApp("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if app.ReleaseNotes != "<p>Notes</p>" {
		t.Errorf("Expected release notes persisted, got: %s", app.ReleaseNotes)
	}
	if app.NotesExtractedAt == nil || !app.NotesExtractedAt.Equal(extractedAt) {
		t.Errorf("Expected extraction time %v, got: %v", extractedAt, app.NotesExtractedAt)
	}
}

func TestUpdateMissingApp(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.SetSkippedVersion("missing", "1.0"); err == nil {
		t.Error("Expected an error updating a missing app, got none")
	}
}
