package config

// Config describes one watched application, loaded from
// <apps-dir>/<name>.yml.
type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`     // appcast feed URL
	Version  string         `yaml:"version"` // installed application version
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled       bool `yaml:"enabled"`
	CheckInterval int  `yaml:"check_interval"` // seconds
	Timeout       int  `yaml:"timeout"`        // seconds
	ExtractNotes  bool `yaml:"extract_notes"`  // fetch and extract the release-notes page
}
