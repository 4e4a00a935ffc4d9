package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBotToken     string        `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	OwnerIDs             []int64       `envconfig:"OWNER_IDS"          required:"true"`
	ChannelIDs           []int64       `envconfig:"CHANNEL_IDS"        required:"true"`
	TimeZone             string        `envconfig:"TIME_ZONE"          default:"Africa/Cairo"`
	DatabasePath         string        `envconfig:"DATABASE_PATH"      default:"mints.db"`
	DatabaseURL          string        `envconfig:"DATABASE_URL"`
	DefaultLanguage      string        `envconfig:"DEFAULT_LANGUAGE"   default:"en"`
	AlertLanguages       []string      `envconfig:"ALERT_LANGUAGES"    default:"ar,en"`
	CheckInterval        time.Duration `envconfig:"CHECK_INTERVAL"     default:"60s"`
	FirstCheckDelay      time.Duration `envconfig:"FIRST_CHECK_DELAY"  default:"10s"`
	DigestTime           string        `envconfig:"DIGEST_TIME"        default:"00:00"`
	MaxStages            int           `envconfig:"MAX_STAGES"         default:"20"`
	MaxConcurrentUpdates int64         `envconfig:"MAX_CONCURRENT_UPDATES" default:"4"`
	ReportDeliveryErrors bool          `envconfig:"REPORT_DELIVERY_ERRORS" default:"true"`
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.OwnerIDs) == 0 {
		return fmt.Errorf("OWNER_IDS must list at least one user id")
	}
	if len(c.ChannelIDs) == 0 {
		return fmt.Errorf("CHANNEL_IDS must list at least one chat id")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.DigestClock(); err != nil {
		return err
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL must be positive, got %s", c.CheckInterval)
	}
	if c.MaxStages <= 0 {
		return fmt.Errorf("MAX_STAGES must be positive, got %d", c.MaxStages)
	}
	if c.MaxConcurrentUpdates <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_UPDATES must be positive, got %d", c.MaxConcurrentUpdates)
	}
	if len(c.AlertLanguages) == 0 {
		c.AlertLanguages = []string{c.DefaultLanguage}
	}
	return nil
}

// Location is the single zone every stage time is entered and compared in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// DigestClock splits DIGEST_TIME ("HH:MM") into hour and minute.
func (c *Config) DigestClock() (hour, minute uint, err error) {
	t, err := time.Parse("15:04", c.DigestTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid DIGEST_TIME %q, expected HH:MM: %w", c.DigestTime, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

func (c *Config) IsOwner(userID int64) bool {
	for _, id := range c.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
