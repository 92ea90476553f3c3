package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines alerting configuration.
type Config struct {
	CheckInterval  time.Duration
	NotifyTimeout  time.Duration
	WebhookURL     string
	NotifyTemplate string
}

type fileConfig struct {
	CheckInterval  string `yaml:"check_interval"`
	NotifyTimeout  string `yaml:"notify_timeout"`
	WebhookURL     string `yaml:"webhook_url"`
	NotifyTemplate string `yaml:"notify_template"`
}

// LoadConfig loads alerting config from yaml or env. File values win
// over defaults, env values win over the file.
func LoadConfig() (Config, error) {
	cfg := Config{
		CheckInterval: DefaultCheckInterval,
		NotifyTimeout: 5 * time.Second,
	}

	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if file.CheckInterval != "" {
			interval, err := time.ParseDuration(file.CheckInterval)
			if err != nil {
				return cfg, fmt.Errorf("alerts config: check_interval: %w", err)
			}
			cfg.CheckInterval = interval
		}
		if file.NotifyTimeout != "" {
			timeout, err := time.ParseDuration(file.NotifyTimeout)
			if err != nil {
				return cfg, fmt.Errorf("alerts config: notify_timeout: %w", err)
			}
			cfg.NotifyTimeout = timeout
		}
		cfg.WebhookURL = file.WebhookURL
		cfg.NotifyTemplate = file.NotifyTemplate
	}

	cfg.CheckInterval = getenvDuration("ALERT_CHECK_INTERVAL", cfg.CheckInterval)
	cfg.NotifyTimeout = getenvDuration("ALERT_NOTIFY_TIMEOUT", cfg.NotifyTimeout)
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		cfg.WebhookURL = url
	}
	if tpl := os.Getenv("ALERT_NOTIFY_TEMPLATE"); tpl != "" {
		cfg.NotifyTemplate = tpl
	}

	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	return cfg, nil
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
