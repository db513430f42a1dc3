package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	AppsDir           string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
