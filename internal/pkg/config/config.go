// Package config loads the api-gateway configuration from defaults, an
// optional YAML file and TTT_* environment variables, in increasing order of
// precedence. Nested keys map to variables with "." replaced by "_", e.g.
// saga.compensation_order is TTT_SAGA_COMPENSATION_ORDER.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TTT"

type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	GRPC        GRPCConfig        `mapstructure:"grpc"`
	Log         LogConfig         `mapstructure:"log"`
	Store       StoreConfig       `mapstructure:"store"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
	Collections CollectionsConfig `mapstructure:"collections"`
	Saga        SagaConfig        `mapstructure:"saga"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig configures the health endpoint. An empty Addr disables it.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the identity and document store: "memory" or "sqlite".
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	Path       string `mapstructure:"path"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// SessionsConfig selects the session store: "memory" or "redis".
type SessionsConfig struct {
	Driver       string        `mapstructure:"driver"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// CollectionsConfig names the document collections and the permissions
// granted on each collection as a whole.
type CollectionsConfig struct {
	UsersPublicData string              `mapstructure:"users_public_data"`
	Games           string              `mapstructure:"games"`
	Permissions     map[string][]string `mapstructure:"permissions"`
}

type SagaConfig struct {
	// CompensationOrder is "reverse" or "forward".
	CompensationOrder string `mapstructure:"compensation_order"`
	// IncidentLog is the sqlite file failures are appended to. Empty keeps
	// them in memory.
	IncidentLog string `mapstructure:"incident_log"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Environment string `mapstructure:"environment"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	Idle    time.Duration `mapstructure:"idle"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("grpc.addr", ":9090")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "tictactoe.db")
	v.SetDefault("store.bcrypt_cost", 0)

	v.SetDefault("sessions.driver", "memory")
	v.SetDefault("sessions.redis_addr", "localhost:6379")
	v.SetDefault("sessions.ttl", 24*time.Hour)
	v.SetDefault("sessions.cookie_name", "session")
	v.SetDefault("sessions.cookie_secure", true)

	v.SetDefault("collections.users_public_data", "users_public_data")
	v.SetDefault("collections.games", "games")
	v.SetDefault("collections.permissions", map[string][]string{
		"users_public_data": {`read("users")`, `create("users")`},
		"games":             {`create("users")`},
	})

	v.SetDefault("saga.compensation_order", "reverse")
	v.SetDefault("saga.incident_log", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "api-gateway")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.environment", "development")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.idle", 5*time.Minute)

	v.SetDefault("metrics.enabled", true)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and options.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	switch c.Sessions.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("sessions.driver: unknown driver %q", c.Sessions.Driver))
	}
	switch c.Saga.CompensationOrder {
	case "reverse", "forward":
	default:
		errs = append(errs, fmt.Errorf("saga.compensation_order: unknown order %q", c.Saga.CompensationOrder))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("sessions.ttl must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	return errors.Join(errs...)
}
