package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// Role selects which process the configuration is loaded for.
type Role string

const (
	RoleApp Role = "app"
	RoleWeb Role = "web"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	TracingProtocolGRPC = "grpc"
	TracingProtocolHTTP = "http/protobuf"
)

// DefaultAppServerURL is where the Web Server looks for the App Server when
// upstream.url is not configured.
const DefaultAppServerURL = "http://127.0.0.1:5000"

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Protocol string `mapstructure:"protocol"`
}

type BreakerConfig struct {
	Threshold    int    `mapstructure:"threshold"`
	ResetTimeout string `mapstructure:"reset_timeout"`
}

type UpstreamConfig struct {
	URL            string        `mapstructure:"url"`
	Timeout        string        `mapstructure:"timeout"`
	HealthInterval string        `mapstructure:"health_interval"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

type Config struct {
	Role     Role           `mapstructure:"-"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
}

// Load reads <role>.yaml from ./config or the working directory, overlays
// environment variables prefixed with the upper-cased role (WEB_UPSTREAM_URL)
// and validates the result.
func Load(role Role) (*Config, error) {
	v := viper.New()
	setDefaults(v, role)

	v.SetConfigName(string(role))
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(string(role))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables",
			slog.String("role", string(role)))
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	cfg := Config{Role: role}
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, role Role) {
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.protocol", TracingProtocolGRPC)

	switch role {
	case RoleApp:
		v.SetDefault("server.address", "0.0.0.0:5000")
		v.SetDefault("logging.file", "/var/log/app.log")
	case RoleWeb:
		v.SetDefault("server.address", "0.0.0.0:80")
		v.SetDefault("logging.file", "/var/log/web.log")
		v.SetDefault("upstream.url", DefaultAppServerURL)
		v.SetDefault("upstream.timeout", "10s")
		v.SetDefault("upstream.health_interval", "0s")
		v.SetDefault("upstream.breaker.threshold", 0)
		v.SetDefault("upstream.breaker.reset_timeout", "30s")
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Role,
			validation.Required,
			validation.In(RoleApp, RoleWeb),
		),
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Tracing,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TracingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TracingConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.Protocol,
						validation.Required.When(tc.Enabled),
						validation.In(TracingProtocolGRPC, TracingProtocolHTTP),
					),
				)
			}),
		),
		validation.Field(&c.Upstream,
			validation.When(c.Role == RoleWeb, validation.Required, validation.By(validateUpstreamConfig)),
		),
	)
}

func validateUpstreamConfig(value interface{}) error {
	uc, ok := value.(UpstreamConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an UpstreamConfig")
	}

	return validation.ValidateStruct(&uc,
		validation.Field(&uc.URL,
			validation.Required,
			validation.By(validateServerURL),
		),
		validation.Field(&uc.Timeout,
			validation.Required,
			validation.By(validatePositiveDuration),
		),
		validation.Field(&uc.HealthInterval,
			validation.By(validateDuration),
		),
		validation.Field(&uc.Breaker,
			validation.By(func(value interface{}) error {
				bc, ok := value.(BreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
				}
				return validation.ValidateStruct(&bc,
					validation.Field(&bc.Threshold,
						validation.Min(0),
					),
					validation.Field(&bc.ResetTimeout,
						validation.Required.When(bc.Threshold > 0),
						validation.By(validateDuration),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}

	d, _ := time.ParseDuration(value.(string))
	if d == 0 {
		return validation.NewError("validation_zero_duration", "must be greater than zero")
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "server URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// UpstreamTimeout is the parsed upstream.timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return mustDuration(c.Upstream.Timeout)
}

// HealthInterval is the parsed upstream.health_interval; zero disables probing.
func (c *Config) HealthInterval() time.Duration {
	return mustDuration(c.Upstream.HealthInterval)
}

// BreakerResetTimeout is the parsed upstream.breaker.reset_timeout.
func (c *Config) BreakerResetTimeout() time.Duration {
	return mustDuration(c.Upstream.Breaker.ResetTimeout)
}

// mustDuration is only used on validated values; unparsable input yields zero.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

