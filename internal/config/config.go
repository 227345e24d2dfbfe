package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvRedisURL overrides redis_url from the environment when set.
const EnvRedisURL = "NUDGE_REDIS_URL"

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// NudgeConfig represents the top-level nudge.yml configuration
type NudgeConfig struct {
	Version         string             `yaml:"version"`
	Namespace       string             `yaml:"namespace"`
	RedisURL        string             `yaml:"redis_url,omitempty"`        // overridden by NUDGE_REDIS_URL
	Timezone        string             `yaml:"timezone,omitempty"`         // IANA zone, default UTC
	DeliveryChannel string             `yaml:"delivery_channel,omitempty"` // chat channel reminders fire on
	OpsChannel      string             `yaml:"ops_channel,omitempty"`      // chat channel for failure alerts
	Collections     *CollectionsConfig `yaml:"collections,omitempty"`
	Scheduler       *SchedulerConfig   `yaml:"scheduler,omitempty"`
	Quota           *QuotaConfig       `yaml:"quota,omitempty"`
	Commands        *CommandsConfig    `yaml:"commands,omitempty"`
}

// CollectionsConfig names the three store collections
type CollectionsConfig struct {
	Future   string `yaml:"future,omitempty"`
	Past     string `yaml:"past,omitempty"`
	Profiles string `yaml:"profiles,omitempty"`
}

// SchedulerConfig specifies delivery loop behavior
type SchedulerConfig struct {
	PollInterval Duration `yaml:"poll_interval,omitempty"` // default 10s
	HealthAddr   string   `yaml:"health_addr,omitempty"`   // default :8080
}

// QuotaConfig specifies per-user creation limits
type QuotaConfig struct {
	MaxActive *int64         `yaml:"max_active,omitempty"` // default 999
	Windows   []WindowConfig `yaml:"windows,omitempty"`
}

// WindowConfig allows at most Limit creations within the trailing Every span
type WindowConfig struct {
	Limit int64    `yaml:"limit"`
	Every Duration `yaml:"every"`
}

// CommandsConfig specifies command handling limits
type CommandsConfig struct {
	MaxInputLength int `yaml:"max_input_length,omitempty"` // default 900
	ListLimit      int `yaml:"list_limit,omitempty"`       // default 8
}

// Validate performs strict validation and fills in defaults
func (c *NudgeConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: namespace, which becomes a Redis key segment
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if strings.ContainsAny(c.Namespace, ": \t") {
		return fmt.Errorf("invalid namespace %q: colons and whitespace are not allowed", c.Namespace)
	}

	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.DeliveryChannel == "" {
		c.DeliveryChannel = "reminders"
	}
	if c.OpsChannel == "" {
		c.OpsChannel = "ops"
	}

	if c.Collections == nil {
		c.Collections = &CollectionsConfig{}
	}
	if c.Collections.Future == "" {
		c.Collections.Future = "future"
	}
	if c.Collections.Past == "" {
		c.Collections.Past = "past"
	}
	if c.Collections.Profiles == "" {
		c.Collections.Profiles = "profiles"
	}

	if c.Scheduler == nil {
		c.Scheduler = &SchedulerConfig{}
	}
	if c.Scheduler.PollInterval == 0 {
		c.Scheduler.PollInterval = Duration(10 * time.Second)
	}
	if c.Scheduler.PollInterval.Std() < time.Second {
		return fmt.Errorf("scheduler.poll_interval must be >= 1s, got %s", c.Scheduler.PollInterval.Std())
	}
	if c.Scheduler.HealthAddr == "" {
		c.Scheduler.HealthAddr = ":8080"
	}

	if c.Quota == nil {
		c.Quota = &QuotaConfig{}
	}
	if c.Quota.MaxActive == nil {
		defaultMax := int64(999)
		c.Quota.MaxActive = &defaultMax
	}
	if *c.Quota.MaxActive < 1 {
		return fmt.Errorf("quota.max_active must be >= 1, got %d", *c.Quota.MaxActive)
	}
	if c.Quota.Windows == nil {
		c.Quota.Windows = []WindowConfig{
			{Limit: 30, Every: Duration(20 * time.Minute)},
			{Limit: 1200, Every: Duration(30 * 24 * time.Hour)},
		}
	}
	for i, w := range c.Quota.Windows {
		if w.Limit < 1 {
			return fmt.Errorf("quota.windows[%d].limit must be >= 1, got %d", i, w.Limit)
		}
		if w.Every.Std() <= 0 {
			return fmt.Errorf("quota.windows[%d].every must be positive", i)
		}
	}

	if c.Commands == nil {
		c.Commands = &CommandsConfig{}
	}
	if c.Commands.MaxInputLength == 0 {
		c.Commands.MaxInputLength = 900
	}
	if c.Commands.MaxInputLength < 1 {
		return fmt.Errorf("commands.max_input_length must be >= 1, got %d", c.Commands.MaxInputLength)
	}
	if c.Commands.ListLimit == 0 {
		c.Commands.ListLimit = 8
	}
	if c.Commands.ListLimit < 1 {
		return fmt.Errorf("commands.list_limit must be >= 1, got %d", c.Commands.ListLimit)
	}

	return nil
}

// Location returns the parsed timezone. Call after Validate.
func (c *NudgeConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads and validates nudge.yml from the specified path.
// NUDGE_REDIS_URL, when set, overrides the file's redis_url.
func Load(path string) (*NudgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config NudgeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if url := os.Getenv(EnvRedisURL); url != "" {
		config.RedisURL = url
	}
	if config.RedisURL == "" {
		config.RedisURL = "redis://localhost:6379"
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
