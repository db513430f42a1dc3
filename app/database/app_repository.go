package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLiteAppRepository handles database operations for watched applications.
// Timestamps are stored as RFC3339 strings.
type SQLiteAppRepository struct {
	db *DB
}

var _ AppRepository = (*SQLiteAppRepository)(nil)

func NewAppRepository(db *DB) *SQLiteAppRepository {
	return &SQLiteAppRepository{db: db}
}

// UpsertApp registers an application from configuration, updating the feed
// URL and installed version on subsequent starts. Check state (skip
// preference, timestamps, last outcome) is preserved across restarts.
func (r *SQLiteAppRepository) UpsertApp(name, feedURL, appVersion string) error {
	_, err := r.db.Exec(`
		INSERT INTO apps (name, feed_url, app_version)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE
		SET feed_url = excluded.feed_url,
		    app_version = excluded.app_version,
		    updated_at = CURRENT_TIMESTAMP
	`, name, feedURL, appVersion)
	if err != nil {
		return fmt.Errorf("failed to upsert app: %w", err)
	}
	return nil
}

func (r *SQLiteAppRepository) GetApp(name string) (*App, error) {
	row := r.db.QueryRow(`
		SELECT id, name, feed_url, app_version, skipped_version,
		       last_check_at, next_check_at, last_outcome, last_error,
		       latest_version, latest_short_version, download_url,
		       release_title, release_description, release_notes_url,
		       release_notes, notes_extracted_at, created_at, updated_at
		FROM apps
		WHERE name = ?
	`, name)

	app, err := scanApp(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return app, nil
}

func (r *SQLiteAppRepository) GetApps() ([]App, error) {
	rows, err := r.db.Query(`
		SELECT id, name, feed_url, app_version, skipped_version,
		       last_check_at, next_check_at, last_outcome, last_error,
		       latest_version, latest_short_version, download_url,
		       release_title, release_description, release_notes_url,
		       release_notes, notes_extracted_at, created_at, updated_at
		FROM apps
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func (r *SQLiteAppRepository) GetAppCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM apps").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count apps: %w", err)
	}
	return count, nil
}

func (r *SQLiteAppRepository) WriteLastCheckTime(name string, checkedAt time.Time) error {
	return r.update(name, `
		UPDATE apps
		SET last_check_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, checkedAt.UTC().Format(time.RFC3339), name)
}

func (r *SQLiteAppRepository) SetNextCheckTime(name string, nextCheckAt time.Time) error {
	return r.update(name, `
		UPDATE apps
		SET next_check_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, nextCheckAt.UTC().Format(time.RFC3339), name)
}

func (r *SQLiteAppRepository) GetSkippedVersion(name string) (string, bool, error) {
	var skipped sql.NullString
	err := r.db.QueryRow("SELECT skipped_version FROM apps WHERE name = ?", name).Scan(&skipped)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read skip preference: %w", err)
	}
	return skipped.String, skipped.Valid, nil
}

func (r *SQLiteAppRepository) SetSkippedVersion(name, version string) error {
	return r.update(name, `
		UPDATE apps
		SET skipped_version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, version, name)
}

func (r *SQLiteAppRepository) ClearSkippedVersion(name string) error {
	return r.update(name, `
		UPDATE apps
		SET skipped_version = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, name)
}

// RecordOutcome stores the classified result of one check cycle. The release
// fields are overwritten only when the check found an update; a no-update or
// failed check keeps the previously recorded release visible.
func (r *SQLiteAppRepository) RecordOutcome(name string, outcome string, release *Release, checkErr string) error {
	if release == nil {
		return r.update(name, `
			UPDATE apps
			SET last_outcome = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
			WHERE name = ?
		`, outcome, checkErr, name)
	}

	// A new release version invalidates notes extracted for the previous one.
	return r.update(name, `
		UPDATE apps
		SET last_outcome = ?, last_error = ?,
		    release_notes = CASE WHEN latest_version = ? THEN release_notes ELSE '' END,
		    notes_extracted_at = CASE WHEN latest_version = ? THEN notes_extracted_at ELSE NULL END,
		    latest_version = ?, latest_short_version = ?, download_url = ?,
		    release_title = ?, release_description = ?, release_notes_url = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, outcome, checkErr,
		release.Version, release.Version,
		release.Version, release.ShortVersionString, release.DownloadURL,
		release.Title, release.Description, release.ReleaseNotesURL,
		name)
}

func (r *SQLiteAppRepository) UpdateReleaseNotes(name string, content string, extractedAt time.Time) error {
	return r.update(name, `
		UPDATE apps
		SET release_notes = ?, notes_extracted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, content, extractedAt.UTC().Format(time.RFC3339), name)
}

func (r *SQLiteAppRepository) update(name, query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update app %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of app %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("app %s not found", name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApp(row rowScanner) (*App, error) {
	var app App
	var skipped sql.NullString
	var lastCheckAt, nextCheckAt, notesExtractedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&app.ID, &app.Name, &app.FeedURL, &app.AppVersion, &skipped,
		&lastCheckAt, &nextCheckAt, &app.LastOutcome, &app.LastError,
		&app.LatestVersion, &app.LatestShortVersion, &app.DownloadURL,
		&app.ReleaseTitle, &app.ReleaseDescription, &app.ReleaseNotesURL,
		&app.ReleaseNotes, &notesExtractedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if skipped.Valid {
		app.SkippedVersion = &skipped.String
	}

	var parseErr error
	if app.LastCheckAt, parseErr = parseNullableTime(lastCheckAt); parseErr != nil {
		return nil, parseErr
	}
	if app.NextCheckAt, parseErr = parseNullableTime(nextCheckAt); parseErr != nil {
		return nil, parseErr
	}
	if app.NotesExtractedAt, parseErr = parseNullableTime(notesExtractedAt); parseErr != nil {
		return nil, parseErr
	}
	if app.CreatedAt, parseErr = parseSQLiteTime(createdAt); parseErr != nil {
		return nil, parseErr
	}
	if app.UpdatedAt, parseErr = parseSQLiteTime(updatedAt); parseErr != nil {
		return nil, parseErr
	}

	return &app, nil
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseSQLiteTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseSQLiteTime accepts both our RFC3339 writes and the "YYYY-MM-DD
// HH:MM:SS" form produced by CURRENT_TIMESTAMP defaults.
func parseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
