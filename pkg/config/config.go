package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/messages"
	"github.com/korjavin/mensaplan/pkg/scheduler"
)

// Delivery backends
const (
	DeliveryZulip    = "zulip"
	DeliveryTelegram = "telegram"
	DeliveryConsole  = "console"
)

// Config holds all configuration for the application
type Config struct {
	// Delivery configuration
	Delivery string
	Channel  string
	Zulip    ZulipConfig
	BotToken string

	// Schedule configuration
	Location      *time.Location
	PostTime      scheduler.TimeOfDay
	WaitThreshold time.Duration

	// Menu source configuration
	CanteenID    string
	OpenMensaAPI string
	HTTPTimeout  time.Duration
	DataDir      string

	LogLevel logger.Level
	Layout   messages.Config
}

// ZulipConfig holds the credentials of the Zulip bot account
type ZulipConfig struct {
	Site   string
	Email  string
	APIKey string
}

// Overrides replace environment values for a single run
type Overrides struct {
	// Delivery replaces DELIVERY when set
	Delivery string
}

// LoadFromEnv loads configuration from environment variables. envFile is
// loaded first when given; otherwise a .env in the working directory is
// loaded if it exists.
func LoadFromEnv(envFile string) (*Config, error) {
	return Load(envFile, Overrides{})
}

// Load is LoadFromEnv with command-line overrides applied before validation
func Load(envFile string, overrides Overrides) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", envFile)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Global.Debug("No .env file loaded: %v", err)
	}

	cfg := &Config{
		Delivery:     strings.ToLower(getEnvWithDefault("DELIVERY", DeliveryZulip)),
		Channel:      os.Getenv("CHANNEL"),
		BotToken:     os.Getenv("BOT_TOKEN"),
		CanteenID:    getEnvWithDefault("CANTEEN_ID", "187"),
		OpenMensaAPI: strings.TrimRight(getEnvWithDefault("OPENMENSA_API", "https://openmensa.org/api/v2"), "/"),
		DataDir:      getEnvWithDefault("DATA_DIR", "./data"),
		Zulip: ZulipConfig{
			Site:   strings.TrimRight(os.Getenv("ZULIP_SITE"), "/"),
			Email:  os.Getenv("ZULIP_EMAIL"),
			APIKey: os.Getenv("ZULIP_API_KEY"),
		},
	}
	if overrides.Delivery != "" {
		cfg.Delivery = strings.ToLower(overrides.Delivery)
	}
	if v, ok := os.LookupEnv("DATA_DIR"); ok && v == "" {
		cfg.DataDir = ""
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getEnvWithDefault("TIMEZONE", "Europe/Berlin")); err != nil {
		return nil, errors.Wrap(err, "TIMEZONE")
	}
	if cfg.PostTime, err = scheduler.ParseTimeOfDay(getEnvWithDefault("POST_TIME", "11:25:00")); err != nil {
		return nil, errors.Wrap(err, "POST_TIME")
	}
	if cfg.WaitThreshold, err = time.ParseDuration(getEnvWithDefault("WAIT_THRESHOLD", scheduler.DefaultThreshold.String())); err != nil {
		return nil, errors.Wrap(err, "WAIT_THRESHOLD")
	}
	if cfg.HTTPTimeout, err = time.ParseDuration(getEnvWithDefault("HTTP_TIMEOUT", "30s")); err != nil {
		return nil, errors.Wrap(err, "HTTP_TIMEOUT")
	}
	if cfg.LogLevel, err = logger.ParseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}

	cfg.Layout = messages.DefaultConfig()
	if path := os.Getenv("MENU_LAYOUT"); path != "" {
		if cfg.Layout, err = LoadLayout(path, cfg.Layout); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	logger.Global.Info("Configuration loaded: %s", cfg.Redacted())
	return cfg, nil
}

// Validate checks that the selected delivery backend is fully configured
func (c *Config) Validate() error {
	switch c.Delivery {
	case DeliveryZulip:
		if c.Zulip.Site == "" || c.Zulip.Email == "" || c.Zulip.APIKey == "" {
			return fmt.Errorf("ZULIP_SITE, ZULIP_EMAIL and ZULIP_API_KEY are required for zulip delivery")
		}
	case DeliveryTelegram:
		if c.BotToken == "" {
			return fmt.Errorf("BOT_TOKEN environment variable is required for telegram delivery")
		}
	case DeliveryConsole:
	default:
		return fmt.Errorf("unknown DELIVERY %q (must be zulip, telegram, or console)", c.Delivery)
	}

	if c.Delivery != DeliveryConsole && c.Channel == "" {
		return fmt.Errorf("CHANNEL environment variable is required")
	}
	if c.CanteenID == "" {
		return fmt.Errorf("CANTEEN_ID must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.WaitThreshold <= 0 {
		return fmt.Errorf("WAIT_THRESHOLD must be positive")
	}
	return ValidateLayout(c.Layout)
}

// Redacted returns a printable summary with secrets shortened
func (c *Config) Redacted() string {
	return fmt.Sprintf("delivery=%s channel=%q zulip_site=%q zulip_email=%q zulip_key=%s bot_token=%s "+
		"timezone=%s post_time=%s wait_threshold=%s canteen=%s openmensa=%s data_dir=%q log_level=%s",
		c.Delivery, c.Channel, c.Zulip.Site, c.Zulip.Email, redact(c.Zulip.APIKey), redact(c.BotToken),
		c.Location, c.PostTime, c.WaitThreshold, c.CanteenID, c.OpenMensaAPI, c.DataDir, c.LogLevel)
}

func redact(secret string) string {
	if len(secret) > 8 {
		return secret[:8] + "...REDACTED..."
	}
	if secret == "" {
		return `""`
	}
	return "...REDACTED..."
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
