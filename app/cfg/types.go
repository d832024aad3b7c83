package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Outbound fetching
	UserAgent string
	FetchRate float64

	// Response cache lifetime for GET /feeds/:name
	CacheTTL time.Duration

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
