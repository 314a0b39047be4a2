package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	ProvidersDir      string
	Port              string
	SchedulerInterval int
	APIAccessKey      string
	RedisAddr         string

	// One-shot import mode
	ImportProvider string
	ImportDate     string
	ImportNumbers  []int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// OneShot reports whether the process should run a single import batch and
// exit instead of starting the server.
func (c *Cfg) OneShot() bool {
	return c.ImportDate != ""
}
