package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
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

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type PropertiesConfig struct {
	Name   string `mapstructure:"name"`
	Status string `mapstructure:"status"`
	Link   string `mapstructure:"link"`
}

type NotionConfig struct {
	APIToken   string           `mapstructure:"api_token"`
	DatabaseID string           `mapstructure:"database_id"`
	BaseURL    string           `mapstructure:"base_url"`
	Version    string           `mapstructure:"version"`
	Properties PropertiesConfig `mapstructure:"properties"`
	DumpFile   string           `mapstructure:"dump_file"`
}

type DiscordConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	ReportUsername string `mapstructure:"report_username"`
	AlertUsername  string `mapstructure:"alert_username"`
}

type ProbeConfig struct {
	Attempts  int    `mapstructure:"attempts"`
	Delay     string `mapstructure:"delay"`
	Timeout   string `mapstructure:"timeout"`
	UserAgent string `mapstructure:"user_agent"`
}

type ReportConfig struct {
	UTCOffset string `mapstructure:"utc_offset"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Config is loaded once at startup and treated as read-only afterwards.
type Config struct {
	Environment string        `mapstructure:"environment"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Notion      NotionConfig  `mapstructure:"notion"`
	Discord     DiscordConfig `mapstructure:"discord"`
	Probe       ProbeConfig   `mapstructure:"probe"`
	Report      ReportConfig  `mapstructure:"report"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment variables from .env file")
	}

	v := viper.New()

	v.SetDefault("environment", EnvDev)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.file", "deployment-tracker.log")
	v.SetDefault("notion.base_url", "https://api.notion.com/v1")
	v.SetDefault("notion.version", "2022-02-22")
	v.SetDefault("notion.properties.name", "Project Name")
	v.SetDefault("notion.properties.status", "Label")
	v.SetDefault("notion.properties.link", "Link")
	v.SetDefault("notion.dump_file", "")
	v.SetDefault("discord.report_username", "Deployments Tracker")
	v.SetDefault("discord.alert_username", "Deployment Monitoring Alert")
	v.SetDefault("probe.attempts", 3)
	v.SetDefault("probe.delay", "2s")
	v.SetDefault("probe.timeout", "30s")
	v.SetDefault("probe.user_agent", "deploy-tracker/1.0")
	v.SetDefault("report.utc_offset", "5h30m")
	v.SetDefault("metrics.textfile", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Secrets have no default, so AutomaticEnv alone would not surface them
	// during Unmarshal.
	_ = v.BindEnv("notion.api_token", "NOTION_API_TOKEN")
	_ = v.BindEnv("notion.database_id", "NOTION_DATABASE_ID", "DEPLOYMENT_DB_ID")
	_ = v.BindEnv("discord.webhook_url", "DISCORD_WEBHOOK_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
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

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
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
		validation.Field(&c.Notion,
			validation.Required,
			validation.By(func(value interface{}) error {
				nc, ok := value.(NotionConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a NotionConfig")
				}
				return validation.ValidateStruct(&nc,
					validation.Field(&nc.DatabaseID, is.PrintableASCII),
					validation.Field(&nc.BaseURL,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&nc.Version, validation.Required),
					validation.Field(&nc.Properties,
						validation.By(func(value interface{}) error {
							pc, ok := value.(PropertiesConfig)
							if !ok {
								return validation.NewError("validation_invalid_type", "must be a PropertiesConfig")
							}
							return validation.ValidateStruct(&pc,
								validation.Field(&pc.Name, validation.Required),
								validation.Field(&pc.Status, validation.Required),
								validation.Field(&pc.Link, validation.Required),
							)
						}),
					),
				)
			}),
		),
		validation.Field(&c.Discord,
			validation.Required,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DiscordConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DiscordConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.WebhookURL,
						validation.Required,
						validation.By(validateServerURL),
					),
					validation.Field(&dc.ReportUsername, validation.Required),
					validation.Field(&dc.AlertUsername, validation.Required),
				)
			}),
		),
		validation.Field(&c.Probe,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Attempts,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&pc.Delay,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Report,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(ReportConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ReportConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.UTCOffset,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
	)
}

// ProbeDelay returns the pause between two probe attempts.
func (c *Config) ProbeDelay() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Delay)
	return d
}

// ProbeTimeout returns the per-request timeout of a probe.
func (c *Config) ProbeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Timeout)
	return d
}

// Location returns the fixed zone used for report timestamps.
func (c *Config) Location() *time.Location {
	offset, _ := time.ParseDuration(c.Report.UTCOffset)
	return time.FixedZone("", int(offset/time.Second))
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
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
