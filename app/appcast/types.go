// Package appcast parses Sparkle-style appcast documents: RSS feeds whose
// items carry release metadata in a sparkle-namespaced enclosure element.
package appcast

// Appcast holds the result of parsing one appcast document: the
// highest-versioned release found plus the document-level descriptive text.
// It is built up during a parse session and must not be mutated afterwards.
type Appcast struct {
	DownloadURL        string
	Version            string
	ShortVersionString string
	Title              string
	Description        string
	ReleaseNotesURL    string
}

// HasEntry reports whether the document contained at least one enclosure
// with a version attribute. Items without one never qualify as releases.
func (a *Appcast) HasEntry() bool {
	return a.Version != ""
}

// DisplayVersion returns the human-facing version string, preferring the
// short version over the internal build version.
func (a *Appcast) DisplayVersion() string {
	if a.ShortVersionString != "" {
		return a.ShortVersionString
	}
	return a.Version
}
