package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/vacationgenius/dealwatch/internal/analyzer"
	"github.com/vacationgenius/dealwatch/internal/backend"
	"github.com/vacationgenius/dealwatch/internal/bus"
	"github.com/vacationgenius/dealwatch/internal/config"
	"github.com/vacationgenius/dealwatch/internal/dispatch"
	"github.com/vacationgenius/dealwatch/internal/logger"
	"github.com/vacationgenius/dealwatch/internal/personalizer"
	"github.com/vacationgenius/dealwatch/internal/pipeline"
	"github.com/vacationgenius/dealwatch/internal/storage"
	"github.com/vacationgenius/dealwatch/internal/telegram"
	"github.com/vacationgenius/dealwatch/internal/tripadvisor"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	producer, err := newProducer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize event producer: %v", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close event producer: %v", err)
		}
	}()

	fetcher := tripadvisor.NewClient(
		cfg.Scraper.APIURL,
		cfg.Scraper.APIToken,
		cfg.Scraper.Actor,
		cfg.Scraper.MaxItems,
		cfg.Scraper.Currency,
		cfg.Scraper.Timeout,
		cfg.Scraper.RequestsPerMinute,
	)

	backendClient := backend.NewClient(
		cfg.Backend.APIURL,
		cfg.Backend.AgentSecret,
		cfg.Backend.Timeout,
		cfg.Backend.MaxRetries,
	)

	dispatcher := dispatch.NewClient(
		cfg.Dispatch.APIURL,
		cfg.Dispatch.AgentSecret,
		cfg.Dispatch.Timeout,
		cfg.Dispatch.MaxRetries,
		cfg.Dispatch.RetryDelayBase,
	)

	engine := analyzer.New(store, analyzer.Config{
		WindowDays:      cfg.Analyzer.WindowDays,
		MinScore:        cfg.Analyzer.MinDealScore,
		ConfidenceDepth: cfg.Analyzer.ConfidenceDepth,
	})
	matcher := personalizer.New(personalizer.Config{
		MinScore: cfg.Matcher.MinMatchScore,
	})

	coordinator, err := pipeline.New(engine, matcher, fetcher, backendClient, producer, dispatcher, pipeline.Config{
		DestinationDelay: cfg.Pipeline.DestinationDelay,
	})
	if err != nil {
		logger.Fatal("Failed to initialize pipeline: %v", err)
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram ops notifications enabled")
	} else {
		logger.Debug("Telegram ops notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	logger.Info("Starting deal pipeline (interval: %v, window: %d days, deal threshold: %d, match threshold: %d)",
		cfg.Pipeline.CycleInterval,
		cfg.Analyzer.WindowDays,
		cfg.Analyzer.MinDealScore,
		cfg.Matcher.MinMatchScore,
	)

	ticker := time.NewTicker(cfg.Pipeline.CycleInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	runCycle := func() {
		stats, err := coordinator.RunCycle(ctx)
		if err != nil {
			consecutiveFailures++
			logger.Error("Pipeline cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification: %v", sendErr)
				}
			}
			return
		}
		if consecutiveFailures > 0 && telegramClient != nil {
			if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
				logger.Warn("Failed to send recovery notification: %v", sendErr)
			}
		}
		consecutiveFailures = 0
		if telegramClient != nil {
			if sendErr := telegramClient.SendCycleSummary(stats.Destinations, stats.HotelsScraped, stats.DealsFound, stats.AlertsDispatched); sendErr != nil {
				logger.Warn("Failed to send cycle summary: %v", sendErr)
			}
		}
		if cfg.Storage.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Storage.RetentionDays)
			if n, err := store.Prune(cutoff); err != nil {
				logger.Warn("Failed to prune price history: %v", err)
			} else if n > 0 {
				logger.Debug("Pruned %d price points older than %d days", n, cfg.Storage.RetentionDays)
			}
		}
	}

	logger.Debug("Running initial pipeline cycle")
	runCycle()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled pipeline cycle")
			runCycle()
		}
	}
}

// newProducer builds the bus producer: NATS when enabled, an in-process
// channel publisher otherwise so telemetry events stay observable in dev.
func newProducer(cfg *config.Config) (*bus.Producer, error) {
	if cfg.Bus.Enabled {
		pub, err := bus.NewNATSPublisher(cfg.Bus.URL, cfg.Bus.Timeout)
		if err != nil {
			return nil, err
		}
		return bus.NewProducer(pub), nil
	}
	logger.Debug("Event bus disabled, using in-process publisher")
	return bus.NewProducer(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})), nil
}
