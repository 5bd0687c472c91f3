package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort  string `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"NODE_ENV" default:"development"`

	MarketAPIURL     string        `envconfig:"MARKET_API_URL" default:"http://lsoksk04gw8coogskks4coco.188.245.217.56.sslip.io/api/market-band"`
	MarketAPITimeout time.Duration `envconfig:"MARKET_API_TIMEOUT" default:"10s"`

	Timezone       string `envconfig:"TIMEZONE" default:"Asia/Kolkata"`
	CronExpression string `envconfig:"CRON_EXPRESSION" default:"* * * * *"`

	TwitterAPIBaseURL   string        `envconfig:"TWITTER_API_BASE_URL" default:"https://api.twitter.com"`
	TwitterAppKey       string        `envconfig:"TWITTER_APP_KEY"`
	TwitterAppSecret    string        `envconfig:"TWITTER_APP_SECRET"`
	TwitterAccessToken  string        `envconfig:"TWITTER_ACCESS_TOKEN"`
	TwitterAccessSecret string        `envconfig:"TWITTER_ACCESS_SECRET"`
	PublishTimeout      time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"30s"`

	// Market-hours cadence used before the bot went 24/7: */20 9-15 * * 1-5
	EnforceMarketHours   bool `envconfig:"ENFORCE_MARKET_HOURS" default:"false"`
	RequireMarketOpen    bool `envconfig:"REQUIRE_MARKET_OPEN" default:"false"`
	AllowOverlappingRuns bool `envconfig:"ALLOW_OVERLAPPING_RUNS" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	location *time.Location
}

// LoadConfig reads .env (when present) and the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if env, ok := os.LookupEnv("APP_ENV"); ok && env != "" {
		cfg.Environment = env
	}

	cfg.ValidateAndApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be repaired with a default
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	if _, err := cron.ParseStandard(c.CronExpression); err != nil {
		return fmt.Errorf("invalid CRON_EXPRESSION %q: %w", c.CronExpression, err)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Location returns the target time zone; UTC until Validate has succeeded
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// MissingCredentials lists the posting credentials that are not set
func (c *Config) MissingCredentials() []string {
	var missing []string
	for name, value := range map[string]string{
		"TWITTER_APP_KEY":       c.TwitterAppKey,
		"TWITTER_APP_SECRET":    c.TwitterAppSecret,
		"TWITTER_ACCESS_TOKEN":  c.TwitterAccessToken,
		"TWITTER_ACCESS_SECRET": c.TwitterAccessSecret,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// ConfigureLogging applies level and output format to the standard logrus logger
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	logrus.SetOutput(os.Stdout)
}
