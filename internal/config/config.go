// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramEnabled          = "TELEGRAM_ENABLED"
	KeyTelegramToken            = "TELEGRAM_BOT_TOKEN"
	KeyTelegramRecipients       = "TELEGRAM_RECIPIENTS"
	KeyWhatsAppEnabled          = "WHATSAPP_ENABLED"
	KeyWhatsAppAccessToken      = "WHATSAPP_ACCESS_TOKEN"
	KeyWhatsAppPhoneNumberID    = "WHATSAPP_PHONE_NUMBER_ID"
	KeyWhatsAppDeployRecipients = "WHATSAPP_DEPLOY_RECIPIENTS"
	KeyMongoURI                 = "MONGO_URI"
	KeyMongoDB                  = "MONGO_DB"
	KeyRedisAddr                = "REDIS_ADDR"
	KeyRedisPassword            = "REDIS_PASSWORD"
	KeyAppEnv                   = "APP_ENV"
	KeyLogLevel                 = "LOG_LEVEL"
	KeyHTTPPort                 = "HTTP_PORT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv    = EnvProduction
	DefaultLogLevel  = "info"
	DefaultHTTPPort  = 8080
	DefaultRedisAddr = "localhost:6379"

	// Recommended database names by environment.
	DefaultMongoDBProd = "autoshop_bot"
	DefaultMongoDBDev  = "autoshop_bot_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramEnabled,
		Example:     "true",
		Default:     "false",
		Description: "Feature flag for the Telegram notification channel.",
	},
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Description: "Telegram Bot Token issued by BotFather.",
		Notes:       "Required when " + KeyTelegramEnabled + "=true.",
	},
	{
		Key:         KeyTelegramRecipients,
		Example:     "123456789,987654321",
		Description: "Comma-separated Telegram chat IDs for broadcast notifications.",
	},
	{
		Key:         KeyWhatsAppEnabled,
		Example:     "true",
		Default:     "false",
		Description: "Feature flag for the WhatsApp notification channel.",
	},
	{
		Key:         KeyWhatsAppAccessToken,
		Example:     "EAAG...",
		Description: "Meta Graph API access token.",
		Notes:       "Required when " + KeyWhatsAppEnabled + "=true.",
	},
	{
		Key:         KeyWhatsAppPhoneNumberID,
		Example:     "109876543210",
		Description: "Graph API phone number ID used as the sender.",
		Notes:       "Required when " + KeyWhatsAppEnabled + "=true.",
	},
	{
		Key:         KeyWhatsAppDeployRecipients,
		Example:     "+5511999990000,+5511888880000",
		Description: "Comma-separated WhatsApp numbers for deploy alerts.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string for dashboard aggregates.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeyRedisAddr,
		Example:     DefaultRedisAddr,
		Default:     DefaultRedisAddr,
		Description: "Redis address for update deduplication.",
	},
	{
		Key:         KeyRedisPassword,
		Example:     "s3cret",
		Description: "Redis password; leave empty for unauthenticated instances.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP webhook/health port.",
	},
}

// TelegramConfig carries the Telegram channel settings.
type TelegramConfig struct {
	Enabled    bool
	BotToken   string
	Recipients []int64
}

// WhatsAppConfig carries the WhatsApp (Graph API) channel settings.
type WhatsAppConfig struct {
	Enabled          bool
	AccessToken      string
	PhoneNumberID    string
	DeployRecipients []string
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	Telegram      TelegramConfig
	WhatsApp      WhatsAppConfig
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string
	AppEnv        string
	LogLevel      string
	HTTPPort      int
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:        firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		MongoURI:      strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:       strings.TrimSpace(os.Getenv(KeyMongoDB)),
		RedisAddr:     firstNonEmpty(strings.TrimSpace(os.Getenv(KeyRedisAddr)), DefaultRedisAddr),
		RedisPassword: strings.TrimSpace(os.Getenv(KeyRedisPassword)),
		LogLevel:      firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:      DefaultHTTPPort,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	telegram, err := loadTelegram()
	if err != nil {
		return Config{}, err
	}
	cfg.Telegram = telegram

	whatsapp, err := loadWhatsApp()
	if err != nil {
		return Config{}, err
	}
	cfg.WhatsApp = whatsapp

	missing := make([]string, 0)

	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}

	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if err := validateMongoURI(cfg.MongoURI); err != nil {
		return Config{}, err
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

func loadTelegram() (TelegramConfig, error) {
	enabled, err := parseBoolKey(KeyTelegramEnabled)
	if err != nil {
		return TelegramConfig{}, err
	}

	tg := TelegramConfig{
		Enabled:  enabled,
		BotToken: strings.TrimSpace(os.Getenv(KeyTelegramToken)),
	}

	recipientsRaw := strings.TrimSpace(os.Getenv(KeyTelegramRecipients))
	if recipientsRaw != "" {
		for _, part := range strings.Split(recipientsRaw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chatID, parseErr := strconv.ParseInt(part, 10, 64)
			if parseErr != nil {
				return TelegramConfig{}, fmt.Errorf("invalid %s entry %q: %w", KeyTelegramRecipients, part, parseErr)
			}
			tg.Recipients = append(tg.Recipients, chatID)
		}
	}

	if tg.Enabled && tg.BotToken == "" {
		return TelegramConfig{}, fmt.Errorf("%s is required when %s=true", KeyTelegramToken, KeyTelegramEnabled)
	}

	return tg, nil
}

func loadWhatsApp() (WhatsAppConfig, error) {
	enabled, err := parseBoolKey(KeyWhatsAppEnabled)
	if err != nil {
		return WhatsAppConfig{}, err
	}

	wa := WhatsAppConfig{
		Enabled:       enabled,
		AccessToken:   strings.TrimSpace(os.Getenv(KeyWhatsAppAccessToken)),
		PhoneNumberID: strings.TrimSpace(os.Getenv(KeyWhatsAppPhoneNumberID)),
	}

	recipientsRaw := strings.TrimSpace(os.Getenv(KeyWhatsAppDeployRecipients))
	if recipientsRaw != "" {
		for _, part := range strings.Split(recipientsRaw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			wa.DeployRecipients = append(wa.DeployRecipients, part)
		}
	}

	if wa.Enabled {
		missing := make([]string, 0, 2)
		if wa.AccessToken == "" {
			missing = append(missing, KeyWhatsAppAccessToken)
		}
		if wa.PhoneNumberID == "" {
			missing = append(missing, KeyWhatsAppPhoneNumberID)
		}
		if len(missing) > 0 {
			return WhatsAppConfig{}, fmt.Errorf("%s required when %s=true", strings.Join(missing, ", "), KeyWhatsAppEnabled)
		}
	}

	return wa, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// FormatRedacted renders a human-readable configuration summary with secrets
// masked, suitable for --config-only output and startup logs.
func FormatRedacted(cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "app_env: %s\n", cfg.AppEnv)
	fmt.Fprintf(&b, "log_level: %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "http_port: %d\n", cfg.HTTPPort)
	fmt.Fprintf(&b, "mongo_uri: %s\n", redactURI(cfg.MongoURI))
	fmt.Fprintf(&b, "mongo_db: %s\n", cfg.MongoDB)
	fmt.Fprintf(&b, "redis_addr: %s\n", cfg.RedisAddr)
	fmt.Fprintf(&b, "telegram_enabled: %t\n", cfg.Telegram.Enabled)
	fmt.Fprintf(&b, "telegram_bot_token: %s\n", redactSecret(cfg.Telegram.BotToken))
	fmt.Fprintf(&b, "telegram_recipients: %d configured\n", len(cfg.Telegram.Recipients))
	fmt.Fprintf(&b, "whatsapp_enabled: %t\n", cfg.WhatsApp.Enabled)
	fmt.Fprintf(&b, "whatsapp_access_token: %s\n", redactSecret(cfg.WhatsApp.AccessToken))
	fmt.Fprintf(&b, "whatsapp_phone_number_id: %s\n", cfg.WhatsApp.PhoneNumberID)
	fmt.Fprintf(&b, "whatsapp_deploy_recipients: %d configured\n", len(cfg.WhatsApp.DeployRecipients))

	return b.String()
}

func redactSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 4 {
		return "...redacted"
	}
	return secret[:4] + "...redacted"
}

func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}

	parsed.User = nil
	return parsed.String()
}

func validateMongoURI(raw string) error {
	if !strings.HasPrefix(raw, "mongodb://") && !strings.HasPrefix(raw, "mongodb+srv://") {
		return fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
	}
	return nil
}

func parseBoolKey(key string) (bool, error) {
	raw := normalizeEnv(os.Getenv(key))
	if raw == "" {
		return false, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
