package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"intake-agent/internal/config"
	"intake-agent/internal/domain"
	"intake-agent/internal/engine"
	"intake-agent/internal/integrations/mailer"
	"intake-agent/internal/integrations/telegram"
	"intake-agent/internal/ledger"
	"intake-agent/internal/messages"
	"intake-agent/internal/notify"
	"intake-agent/internal/outbox"
	"intake-agent/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration (read only here; missing keys are fatal) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "err", err)
		os.Exit(1)
	}

	var awsCfg aws.Config
	if cfg.ParamPrefix != "" || cfg.SessionBackend == "dynamodb" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
	}

	if cfg.ParamPrefix != "" {
		getter, err := config.NewSSMGetter(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM getter", "err", err)
			os.Exit(1)
		}
		if err := cfg.ResolveSecrets(ctx, getter); err != nil {
			slog.Error("failed to resolve secrets", "err", err)
			os.Exit(1)
		}
	}

	// ---- Message catalog ----
	catalog, err := messages.Load(cfg.MessagesPath)
	if err != nil {
		slog.Error("failed to load message catalog", "err", err)
		os.Exit(1)
	}

	// ---- Stores ----
	var intake ledger.Store
	switch cfg.LedgerBackend {
	case "sqlite":
		store, err := ledger.OpenSQLStore(cfg.LedgerPath)
		if err != nil {
			slog.Error("failed to open ledger database", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		intake = store
	default:
		store, err := ledger.NewFileStore(cfg.LedgerPath)
		if err != nil {
			slog.Error("failed to create ledger file store", "err", err)
			os.Exit(1)
		}
		intake = store
	}

	var sessions session.Store
	if cfg.SessionBackend == "dynamodb" {
		store, err := session.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.SessionTable)
		if err != nil {
			slog.Error("failed to create session store", "err", err)
			os.Exit(1)
		}
		sessions = store
	} else {
		sessions = session.NewMemoryStore()
	}

	// ---- Transports ----
	bot, err := telegram.New(cfg.TelegramToken, cfg.AdminChatID, cfg.StagingDir)
	if err != nil {
		slog.Error("failed to create telegram bot", "err", err)
		os.Exit(1)
	}

	smtp, err := mailer.New(mailer.Options{
		Host:                cfg.SMTPHost,
		Port:                cfg.SMTPPort,
		SenderAddress:       cfg.SenderAddress,
		SenderSecret:        cfg.SenderSecret,
		IntakeAddress:       cfg.IntakeAddress,
		ConfirmationSubject: catalog.ConfirmationSubject,
		ConfirmationBody:    catalog.ConfirmationBody,
	})
	if err != nil {
		slog.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// ---- Engine ----
	dispatcher, err := notify.NewDispatcher(smtp, bot)
	if err != nil {
		slog.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}

	sequencer, err := outbox.NewSequencer(bot, cfg.ReplyGap)
	if err != nil {
		slog.Error("failed to create sequencer", "err", err)
		os.Exit(1)
	}
	defer sequencer.Close()

	eng, err := engine.New(sessions, intake, dispatcher, bot, sequencer, catalog)
	if err != nil {
		slog.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	slog.Info("intake agent starting", "ledger", cfg.LedgerBackend, "sessions", cfg.SessionBackend)
	err = bot.Run(ctx, func(ctx context.Context, ev domain.Event) {
		if err := eng.HandleEvent(ctx, ev); err != nil {
			slog.Error("event handling failed", "conversationId", ev.ConversationID, "kind", ev.Kind, "err", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("intake agent stopped")
}
