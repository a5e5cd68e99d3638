// Package config loads service configuration from defaults, an optional YAML
// file and DEVSKILL_* environment variables.
package config

import "time"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// MaxAdminEmails bounds the administrator allow-list.
const MaxAdminEmails = 10

// Config contains process configuration.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string `koanf:"http_addr"`

	// LogLevel is one of debug, info, warn, error. LogFormat is json or text.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// StorageDriver selects sqlite or memory.
	StorageDriver string `koanf:"storage_driver"`
	SQLiteDSN     string `koanf:"sqlite_dsn"`

	SessionTTL           time.Duration `koanf:"session_ttl"`
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`

	// AdminEmails is the allow-list of administrators. Comma separated in the environment.
	AdminEmails []string `koanf:"admin_emails"`

	// AtomicCreate makes registration use a single create-if-absent write.
	AtomicCreate bool `koanf:"atomic_create"`

	// NATSURL enables event publishing when set.
	NATSURL           string `koanf:"nats_url"`
	NATSSubjectPrefix string `koanf:"nats_subject_prefix"`

	MetricsEnabled bool `koanf:"metrics_enabled"`
	CookieSecure   bool `koanf:"cookie_secure"`

	// File is the YAML file the values were read from, if any.
	File string `koanf:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPAddr:             ":8080",
		LogLevel:             "info",
		LogFormat:            "json",
		StorageDriver:        DriverSQLite,
		SQLiteDSN:            "devskilltracker.db",
		SessionTTL:           24 * time.Hour,
		SessionSweepInterval: time.Minute,
		NATSSubjectPrefix:    "devskilltracker",
		MetricsEnabled:       true,
	}
}
