package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultServerPort       = "3000"
	DefaultMarketAPITimeout = 10 * time.Second
	DefaultPublishTimeout   = 30 * time.Second
	DefaultTimezone         = "Asia/Kolkata"
	DefaultCronExpression   = "* * * * *"
	DefaultTwitterBaseURL   = "https://api.twitter.com"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// ValidateAndApplyDefaults replaces empty or non-positive values with defaults
func (c *Config) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "Config")

	if c.ServerPort == "" {
		c.ServerPort = DefaultServerPort
		logger.Debug("Applied default ServerPort")
	}

	if c.MarketAPITimeout <= 0 {
		c.MarketAPITimeout = DefaultMarketAPITimeout
		logger.Debug("Applied default MarketAPITimeout")
	}

	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
		logger.Debug("Applied default PublishTimeout")
	}

	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
		logger.Debug("Applied default Timezone")
	}

	if c.CronExpression == "" {
		c.CronExpression = DefaultCronExpression
		logger.Debug("Applied default CronExpression")
	}

	if c.TwitterAPIBaseURL == "" {
		c.TwitterAPIBaseURL = DefaultTwitterBaseURL
		logger.Debug("Applied default TwitterAPIBaseURL")
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
		logger.Debug("Applied default LogLevel")
	}

	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
		logger.Debug("Applied default LogFormat")
	}
}
