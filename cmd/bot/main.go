package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoshop_telegram_bot/internal/channel"
	"autoshop_telegram_bot/internal/command"
	"autoshop_telegram_bot/internal/config"
	"autoshop_telegram_bot/internal/dedup"
	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/feature/chat"
	"autoshop_telegram_bot/internal/logging"
	"autoshop_telegram_bot/internal/metrics"
	"autoshop_telegram_bot/internal/report"
	"autoshop_telegram_bot/internal/store"
	"autoshop_telegram_bot/internal/webhook"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	notifyTimeout          = 30 * time.Second
	httpShutdownTimeout    = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	notifyDeploy := flag.String("notify-deploy", "", "send a deploy notification (success|failed|started) and exit")
	deployProject := flag.String("deploy-project", "", "project name for the deploy notification")
	deployBranch := flag.String("deploy-branch", "", "branch for the deploy notification")
	deployCommit := flag.String("deploy-commit", "", "commit hash for the deploy notification")
	deployAuthor := flag.String("deploy-author", "", "author for the deploy notification")
	deployDuration := flag.String("deploy-duration", "", "duration for the deploy notification")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	telegramChannel, err := channel.NewTelegramChannel(cfg.Telegram, logger)
	if err != nil {
		logger.WithError(err).Error("telegram channel setup error")
		fmt.Fprintf(os.Stderr, "telegram channel setup error: %v\n", err)
		os.Exit(1)
	}
	whatsappChannel := channel.NewWhatsAppChannel(cfg.WhatsApp, logger)

	if *notifyDeploy != "" {
		notification := domain.DeployNotification{
			Status:   *notifyDeploy,
			Project:  *deployProject,
			Branch:   *deployBranch,
			Commit:   *deployCommit,
			Author:   *deployAuthor,
			Duration: *deployDuration,
		}

		notifier := channel.NewNotifier(logger, telegramChannel, whatsappChannel)

		notifyCtx, cancelNotify := context.WithTimeout(context.Background(), notifyTimeout)
		results := notifier.NotifyDeploy(notifyCtx, notification)
		cancelNotify()

		delivered := false
		for name, result := range results {
			fmt.Printf("%s: success=%t sent_to=%d\n", name, result.Success, result.SentTo)
			if result.Success {
				delivered = true
			}
		}
		if !delivered {
			os.Exit(1)
		}
		return
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	redisClient := dedup.NewClient(cfg)
	deduper := dedup.NewDeduper(redisClient, logger)

	chatRegistrar := chat.NewRegistrar(mongoManager.Chats(), logger)
	serviceMetrics := metrics.NewServiceService(mongoManager.ServiceOrders())
	productMetrics := metrics.NewProductService(mongoManager.Products())

	manager := command.NewManager(logger)
	manager.Register(
		command.NewStartHandler(),
		command.NewMenuHandler(),
		command.NewReportHandler(logger,
			report.NewGeneralGenerator(serviceMetrics, productMetrics, logger),
			report.NewServicesGenerator(serviceMetrics, logger),
			report.NewProductsGenerator(productMetrics, logger),
		),
		command.NewStatusHandler(cfg.AppEnv, telegramChannel, whatsappChannel),
		command.NewVoiceHandler(logger, telegramChannel, whatsappChannel),
	)

	server, err := webhook.NewServer(cfg.HTTPPort, webhook.Deps{
		Dispatcher: manager,
		Responder:  telegramChannel,
		Deduper:    deduper,
		Registrar:  chatRegistrar,
		Mongo:      mongoManager,
		Redis:      deduper,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("webhook server setup error")
		fmt.Fprintf(os.Stderr, "webhook server setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "webhook_ready").Info("webhook server initialized")

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping http server")
	case err := <-serveErr:
		if err != nil {
			logger.WithError(err).Error("http server error")
		} else {
			logger.WithField("event", "http_stopped_early").Warn("http server stopped before shutdown signal")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown error")
	}
	cancelShutdown()

	if err := redisClient.Close(); err != nil {
		logger.WithError(err).Error("redis close error")
	}

	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(disconnectCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelDisconnect()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
