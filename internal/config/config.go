// Package config loads process configuration from the environment. The two
// secrets (bot token, mailbox password) can alternatively come from AWS SSM
// Parameter Store when PARAM_PREFIX is set.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env var names for the required settings.
const (
	envTelegramToken = "TELEGRAM_TOKEN"
	envEmailAddress  = "EMAIL_ADDRESS"
	envEmailPassword = "EMAIL_PASSWORD"
	envIntakeEmail   = "INTAKE_EMAIL"
	envAdminChatID   = "ADMIN_CHAT_ID"
)

// Config is the resolved process configuration.
type Config struct {
	TelegramToken string
	SenderAddress string
	SenderSecret  string
	IntakeAddress string
	AdminChatID   int64

	SMTPHost string
	SMTPPort int

	LedgerBackend string // "jsonfile" or "sqlite"
	LedgerPath    string

	SessionBackend string // "memory" or "dynamodb"
	SessionTable   string

	MessagesPath string
	StagingDir   string
	ReplyGap     time.Duration

	// ParamPrefix, when non-empty, means the secrets above are still
	// unresolved and must be filled in via ResolveSecrets.
	ParamPrefix string
}

// Load reads the environment and fails fast with every missing required key
// named, so a misconfigured deployment reports all gaps at once.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  os.Getenv(envTelegramToken),
		SenderAddress:  os.Getenv(envEmailAddress),
		SenderSecret:   os.Getenv(envEmailPassword),
		IntakeAddress:  os.Getenv(envIntakeEmail),
		SMTPHost:       getenv("SMTP_HOST", "smtp.gmail.com"),
		LedgerBackend:  getenv("LEDGER_BACKEND", "jsonfile"),
		LedgerPath:     getenv("LEDGER_PATH", "email_usage_log.json"),
		SessionBackend: getenv("SESSION_BACKEND", "memory"),
		SessionTable:   os.Getenv("SESSION_TABLE"),
		MessagesPath:   os.Getenv("MESSAGES_PATH"),
		StagingDir:     getenv("STAGING_DIR", "uploads"),
		ParamPrefix:    strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
	}

	var missing []string
	if cfg.TelegramToken == "" && cfg.ParamPrefix == "" {
		missing = append(missing, envTelegramToken)
	}
	if cfg.SenderAddress == "" {
		missing = append(missing, envEmailAddress)
	}
	if cfg.SenderSecret == "" && cfg.ParamPrefix == "" {
		missing = append(missing, envEmailPassword)
	}
	if cfg.IntakeAddress == "" {
		missing = append(missing, envIntakeEmail)
	}

	adminChat := os.Getenv(envAdminChatID)
	if adminChat == "" {
		missing = append(missing, envAdminChatID)
	} else {
		id, err := strconv.ParseInt(adminChat, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s must be a chat ID, got %q", envAdminChatID, adminChat)
		}
		cfg.AdminChatID = id
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, fmt.Errorf("config: SMTP_PORT must be a number: %w", err)
	}
	cfg.SMTPPort = port

	gapMs, err := strconv.Atoi(getenv("REPLY_GAP_MS", "1000"))
	if err != nil {
		return Config{}, fmt.Errorf("config: REPLY_GAP_MS must be a number: %w", err)
	}
	cfg.ReplyGap = time.Duration(gapMs) * time.Millisecond

	switch cfg.LedgerBackend {
	case "jsonfile", "sqlite":
	default:
		return Config{}, fmt.Errorf("config: unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	switch cfg.SessionBackend {
	case "memory":
	case "dynamodb":
		if cfg.SessionTable == "" {
			return Config{}, fmt.Errorf("config: SESSION_TABLE is required with SESSION_BACKEND=dynamodb")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

// SecretGetter fetches one named secret. Satisfied by SSMGetter.
type SecretGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveSecrets fills the bot token and mailbox password from the parameter
// store under ParamPrefix. Values already present in the environment win.
func (c *Config) ResolveSecrets(ctx context.Context, getter SecretGetter) error {
	if c.ParamPrefix == "" {
		return nil
	}
	if c.TelegramToken == "" {
		token, err := getter.GetParameter(ctx, c.ParamPrefix+"/telegram_token")
		if err != nil {
			return fmt.Errorf("config: load telegram token: %w", err)
		}
		c.TelegramToken = token
	}
	if c.SenderSecret == "" {
		secret, err := getter.GetParameter(ctx, c.ParamPrefix+"/email_password")
		if err != nil {
			return fmt.Errorf("config: load email password: %w", err)
		}
		c.SenderSecret = secret
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
