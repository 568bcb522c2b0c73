package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tejusbharadwaj/renugrid/internal/api"
	"github.com/tejusbharadwaj/renugrid/internal/database"
	"github.com/tejusbharadwaj/renugrid/internal/sink"
)

// EnvPrefix prefixes environment overrides, e.g. RENUGRID_FEED_CHANNEL_ID.
const EnvPrefix = "RENUGRID"

// ThingSpeak never returns more than this many entries per request.
const maxResults = 8000

// Config holds all configuration for the monitor
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Sinks   SinksConfig   `mapstructure:"sinks" yaml:"sinks"`
}

type FeedConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	ChannelID int64         `mapstructure:"channel_id" yaml:"channel_id"`
	Results   int           `mapstructure:"results" yaml:"results"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type ServerConfig struct {
	Host           string  `mapstructure:"host" yaml:"host"`
	HTTPPort       int     `mapstructure:"http_port" yaml:"http_port"`
	GRPCPort       int     `mapstructure:"grpc_port" yaml:"grpc_port"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	CacheSize      int     `mapstructure:"cache_size" yaml:"cache_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

type SinksConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Influx   InfluxConfig   `mapstructure:"influx" yaml:"influx"`
	MQTT     MQTTConfig     `mapstructure:"mqtt" yaml:"mqtt"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	Name           string `mapstructure:"name" yaml:"name"`
	User           string `mapstructure:"user" yaml:"user"`
	Password       string `mapstructure:"password" yaml:"password"`
	SSLMode        string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
}

type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Token   string `mapstructure:"token" yaml:"token"`
	Org     string `mapstructure:"org" yaml:"org"`
	Bucket  string `mapstructure:"bucket" yaml:"bucket"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	QoS      int    `mapstructure:"qos" yaml:"qos"`
}

// Load reads configuration from file and environment variables. A missing
// file is not an error; defaults and the environment still apply. Values of
// the form $VAR or ${VAR} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			expanded, err := expand(data)
			if err != nil {
				return nil, err
			}
			if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expand validates the YAML, normalises it and substitutes environment
// variables.
func expand(data []byte) ([]byte, error) {
	// First unmarshal into a map to reject malformed files early
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw config: %w", err)
	}

	return []byte(os.ExpandEnv(string(data))), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.base_url", api.DefaultBaseURL)
	v.SetDefault("feed.channel_id", api.DefaultChannelID)
	v.SetDefault("feed.results", api.DefaultResults)
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.timeout", api.DefaultTimeout)

	v.SetDefault("poll.interval", 15*time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("server.cache_size", 128)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("sinks.postgres.enabled", false)
	v.SetDefault("sinks.postgres.host", "localhost")
	v.SetDefault("sinks.postgres.port", 5432)
	v.SetDefault("sinks.postgres.name", "renugrid")
	v.SetDefault("sinks.postgres.user", "renugrid")
	v.SetDefault("sinks.postgres.password", "")
	v.SetDefault("sinks.postgres.ssl_mode", "disable")
	v.SetDefault("sinks.postgres.max_connections", 10)

	v.SetDefault("sinks.influx.enabled", false)
	v.SetDefault("sinks.influx.url", "http://localhost:8086")
	v.SetDefault("sinks.influx.token", "")
	v.SetDefault("sinks.influx.org", "my-org")
	v.SetDefault("sinks.influx.bucket", "renugrid")

	v.SetDefault("sinks.mqtt.enabled", false)
	v.SetDefault("sinks.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("sinks.mqtt.client_id", "renugrid")
	v.SetDefault("sinks.mqtt.topic", "renugrid/telemetry")
	v.SetDefault("sinks.mqtt.username", "")
	v.SetDefault("sinks.mqtt.password", "")
	v.SetDefault("sinks.mqtt.qos", 0)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Feed.BaseURL == "":
		return errors.New("feed.base_url is required")
	case c.Feed.ChannelID <= 0:
		return fmt.Errorf("feed.channel_id must be positive, got %d", c.Feed.ChannelID)
	case c.Feed.Results <= 0 || c.Feed.Results > maxResults:
		return fmt.Errorf("feed.results must be between 1 and %d, got %d", maxResults, c.Feed.Results)
	case c.Feed.Timeout <= 0:
		return fmt.Errorf("feed.timeout must be positive, got %s", c.Feed.Timeout)
	case c.Poll.Interval <= 0:
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	case c.Poll.Interval%time.Second != 0:
		// the cron schedule only has whole-second resolution
		return fmt.Errorf("poll.interval must be a whole number of seconds, got %s", c.Poll.Interval)
	case c.Sinks.MQTT.QoS < 0 || c.Sinks.MQTT.QoS > 2:
		return fmt.Errorf("sinks.mqtt.qos must be 0, 1 or 2, got %d", c.Sinks.MQTT.QoS)
	}
	return nil
}

// Dump renders the effective configuration as YAML. Durations are written
// in their string form so the output can be fed back to Load.
func (c *Config) Dump() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}

	var tree map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	tree["feed"]["timeout"] = c.Feed.Timeout.String()
	tree["poll"]["interval"] = c.Poll.Interval.String()

	return yaml.Marshal(tree)
}

// Client returns the feed client settings.
func (c *Config) Client() api.ClientConfig {
	return api.ClientConfig{
		BaseURL:   c.Feed.BaseURL,
		ChannelID: c.Feed.ChannelID,
		Results:   c.Feed.Results,
		APIKey:    c.Feed.APIKey,
		Timeout:   c.Feed.Timeout,
	}
}

func (c PostgresConfig) Database() database.PostgresConfig {
	return database.PostgresConfig{
		Host:           c.Host,
		Port:           c.Port,
		Name:           c.Name,
		User:           c.User,
		Password:       c.Password,
		SSLMode:        c.SSLMode,
		MaxConnections: c.MaxConnections,
	}
}

func (c *Config) Influx() sink.InfluxConfig {
	return sink.InfluxConfig{
		URL:       c.Sinks.Influx.URL,
		Token:     c.Sinks.Influx.Token,
		Org:       c.Sinks.Influx.Org,
		Bucket:    c.Sinks.Influx.Bucket,
		ChannelID: c.Feed.ChannelID,
	}
}

func (c *Config) MQTT() sink.MQTTConfig {
	return sink.MQTTConfig{
		Broker:   c.Sinks.MQTT.Broker,
		ClientID: c.Sinks.MQTT.ClientID,
		Topic:    c.Sinks.MQTT.Topic,
		Username: c.Sinks.MQTT.Username,
		Password: c.Sinks.MQTT.Password,
		QoS:      byte(c.Sinks.MQTT.QoS),
	}
}
