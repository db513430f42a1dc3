package database

import (
	"time"
)

type AppRepository interface {
	GetApp(name string) (*App, error)
	GetApps() ([]App, error)
	GetAppCount() (int, error)

	UpsertApp(name, feedURL, appVersion string) error

	WriteLastCheckTime(name string, checkedAt time.Time) error
	SetNextCheckTime(name string, nextCheckAt time.Time) error

	GetSkippedVersion(name string) (string, bool, error)
	SetSkippedVersion(name, version string) error
	ClearSkippedVersion(name string) error

	RecordOutcome(name string, outcome string, release *Release, checkErr string) error
	UpdateReleaseNotes(name string, content string, extractedAt time.Time) error
}
