package database

import (
	"time"
)

// App is the persisted check state of one watched application.
type App struct {
	ID             int64
	Name           string // Configuration identifier derived from filename
	FeedURL        string // Appcast URL from configuration
	AppVersion     string // Installed version from configuration
	SkippedVersion *string
	LastCheckAt    *time.Time
	NextCheckAt    *time.Time
	LastOutcome    string // no_update, update_available, error or '' before the first check
	LastError      string

	// Winning release of the last successful check
	LatestVersion      string
	LatestShortVersion string
	DownloadURL        string
	ReleaseTitle       string
	ReleaseDescription string
	ReleaseNotesURL    string
	ReleaseNotes       string // extracted release-notes page content
	NotesExtractedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Release is the subset of the winning entry the repository persists after a
// check that found an update.
type Release struct {
	Version            string
	ShortVersionString string
	DownloadURL        string
	Title              string
	Description        string
	ReleaseNotesURL    string
}
