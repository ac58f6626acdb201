package waitlist

import "time"

// Duplicate check failure modes
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

// Rate limit window stores
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the main config
type Config struct {
	DB struct {
		Type string // "bolt" or "sqlite"
		Path string
	}

	HTTP struct {
		Addr           string
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}

	Admin struct {
		Password string
	}

	Guard struct {
		MinFillDuration time.Duration `mapstructure:"min_fill_duration"`
		RateLimit       struct {
			Limit     int
			Window    time.Duration
			PerClient bool `mapstructure:"per_client"`
			Store     string
			Janitor   string
		} `mapstructure:"rate_limit"`
	}

	Signup struct {
		DuplicateCheckFailureMode string        `mapstructure:"duplicate_check_failure_mode"`
		StorageTimeout            time.Duration `mapstructure:"storage_timeout"`
	}

	Validation struct {
		DisposableDomains  []string `mapstructure:"disposable_domains"`
		SuspiciousPatterns []string `mapstructure:"suspicious_patterns"`
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	AMQP struct {
		URL   string
		Topic string
	}

	Sentry struct {
		DSN string
	}
}
