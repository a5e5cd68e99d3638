package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/johanWP/DevSkillTracker/internal/logging"
)

const (
	envPrefix  = "DEVSKILL_"
	envConfig  = "DEVSKILL_CONFIG"
	keyDivider = "."
)

var listKeys = map[string]struct{}{
	"admin_emails": {},
}

// Load layers defaults, the YAML file at path (or $DEVSKILL_CONFIG when path is
// empty) and DEVSKILL_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(envConfig))
	}

	k := koanf.New(keyDivider)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// DEVSKILL_SQLITE_DSN -> sqlite_dsn; list keys are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, keyDivider, func(name, value string) (string, interface{}) {
		key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	emails := make([]string, 0, len(c.AdminEmails))
	for _, email := range c.AdminEmails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	c.AdminEmails = emails
}

// Validate reports every missing and invalid key at once.
func (c Config) Validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if strings.TrimSpace(c.HTTPAddr) == "" {
		missing = append(missing, "http_addr")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		invalid = append(invalid, "log_level")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		invalid = append(invalid, "log_format")
	}
	switch c.StorageDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			missing = append(missing, "sqlite_dsn")
		}
	case DriverMemory:
	default:
		invalid = append(invalid, "storage_driver")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "session_ttl")
	}
	if c.SessionSweepInterval <= 0 {
		invalid = append(invalid, "session_sweep_interval")
	}
	if len(c.AdminEmails) > MaxAdminEmails {
		invalid = append(invalid, "admin_emails")
	} else {
		for _, email := range c.AdminEmails {
			if !strings.Contains(email, "@") {
				invalid = append(invalid, "admin_emails")
				break
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
