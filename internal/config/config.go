// Package config loads service settings from configs/config.yml and IFMEM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "IFMEM"

// maxIntervalUnit keeps models.MaxInterval units inside time.Duration.
const maxIntervalUnit = 2 * time.Hour

// Config is the resolved service configuration.
type Config struct {
	Port   string
	DBPath string
	Log    LogConfig
	Engine EngineConfig
	MQTT   MQTTConfig
	WS     WSConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type EngineConfig struct {
	IntervalUnit   time.Duration
	ResolveTimeout time.Duration
	CommitTimeout  time.Duration
	// StaleAfter marks point samples older than this unavailable; 0 disables the check.
	StaleAfter time.Duration
	SeedFile   string
}

type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	TopicPrefix string
}

type WSConfig struct {
	DefaultInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("engine.interval_unit", "1s")
	v.SetDefault("engine.resolve_timeout", "500ms")
	v.SetDefault("engine.commit_timeout", "500ms")
	v.SetDefault("engine.stale_after", "0s")
	v.SetDefault("engine.seed_file", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "memory-console")
	v.SetDefault("mqtt.topic_prefix", "points")
	v.SetDefault("ws.default_interval", "1s")
}

// Load reads the config file at path, or configs/config.yml when path is
// empty. A missing default file is not an error; defaults and env apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:   v.GetString("port"),
		DBPath: v.GetString("db.path"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Engine: EngineConfig{
			IntervalUnit:   v.GetDuration("engine.interval_unit"),
			ResolveTimeout: v.GetDuration("engine.resolve_timeout"),
			CommitTimeout:  v.GetDuration("engine.commit_timeout"),
			StaleAfter:     v.GetDuration("engine.stale_after"),
			SeedFile:       v.GetString("engine.seed_file"),
		},
		MQTT: MQTTConfig{
			Enabled:     v.GetBool("mqtt.enabled"),
			Broker:      v.GetString("mqtt.broker"),
			ClientID:    v.GetString("mqtt.client_id"),
			TopicPrefix: strings.Trim(v.GetString("mqtt.topic_prefix"), "/"),
		},
		WS: WSConfig{
			DefaultInterval: v.GetDuration("ws.default_interval"),
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Engine.IntervalUnit <= 0 || c.Engine.IntervalUnit > maxIntervalUnit:
		return fmt.Errorf("engine.interval_unit must be in (0, %s], got %s", maxIntervalUnit, c.Engine.IntervalUnit)
	case c.Engine.ResolveTimeout <= 0:
		return fmt.Errorf("engine.resolve_timeout must be > 0, got %s", c.Engine.ResolveTimeout)
	case c.Engine.CommitTimeout <= 0:
		return fmt.Errorf("engine.commit_timeout must be > 0, got %s", c.Engine.CommitTimeout)
	case c.Engine.StaleAfter < 0:
		return fmt.Errorf("engine.stale_after must be >= 0, got %s", c.Engine.StaleAfter)
	case c.MQTT.Enabled && c.MQTT.Broker == "":
		return fmt.Errorf("mqtt.broker is required when mqtt.enabled is set")
	}
	return nil
}
