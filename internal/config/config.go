package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Sources SourcesConfig
	Monitor MonitorConfig
	Notify  NotifyConfig
	Drafter DrafterConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	RateRPS   int
	RateBurst int
}

type SourcesConfig struct {
	WeatherEnabled    bool
	WeatherURL        string
	SeismicEnabled    bool
	SeismicURL        string
	AirQualityEnabled bool
	AirQualityURL     string
	AirNowAPIKey      string
	OutageEnabled     bool
	SyntheticOutages  bool
	FetchTimeout      time.Duration
}

type MonitorConfig struct {
	HomeRegion   string
	PollInterval time.Duration
	AutoEscalate bool
}

type NotifyConfig struct {
	ResendAPIKey    string
	EmailFrom       string
	TwilioSID       string
	TwilioAuthToken string
	SMSFrom         string
}

type DrafterConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateRPS:   getEnvInt("RATE_LIMIT_RPS", 10),
			RateBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Sources: SourcesConfig{
			WeatherEnabled:    getEnvBool("WEATHER_ENABLED", true),
			WeatherURL:        getEnv("WEATHER_URL", ""),
			SeismicEnabled:    getEnvBool("SEISMIC_ENABLED", true),
			SeismicURL:        getEnv("SEISMIC_URL", ""),
			AirQualityEnabled: getEnvBool("AIRQUALITY_ENABLED", true),
			AirQualityURL:     getEnv("AIRQUALITY_URL", ""),
			AirNowAPIKey:      getEnv("AIRNOW_API_KEY", ""),
			OutageEnabled:     getEnvBool("OUTAGE_ENABLED", true),
			SyntheticOutages:  getEnvBool("SYNTHETIC_OUTAGES", false),
			FetchTimeout:      getEnvDuration("SOURCE_FETCH_TIMEOUT", 10*time.Second),
		},
		Monitor: MonitorConfig{
			HomeRegion:   getEnv("HOME_REGION", "CA"),
			PollInterval: getEnvDuration("POLL_INTERVAL", 5*time.Minute),
			AutoEscalate: getEnvBool("AUTO_ESCALATE", true),
		},
		Notify: NotifyConfig{
			ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
			EmailFrom:       getEnv("EMAIL_FROM", "alerts@threat-monitor.local"),
			TwilioSID:       getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken: getEnv("TWILIO_AUTH_TOKEN", ""),
			SMSFrom:         getEnv("SMS_FROM", ""),
		},
		Drafter: DrafterConfig{
			Endpoint: getEnv("DRAFTER_ENDPOINT", ""),
			APIKey:   getEnv("DRAFTER_API_KEY", ""),
			Timeout:  getEnvDuration("DRAFTER_TIMEOUT", 15*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/threat-monitor.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Monitor.HomeRegion == "" {
		return fmt.Errorf("home region must be set")
	}
	if c.Monitor.PollInterval < time.Minute {
		return fmt.Errorf("poll interval must be at least 1 minute")
	}
	if c.Sources.FetchTimeout < time.Second {
		return fmt.Errorf("source fetch timeout must be at least 1 second")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
