package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/floodcast/internal/api"
	"github.com/abelzeko/floodcast/internal/config"
	"github.com/abelzeko/floodcast/internal/integration/openai"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/repository"
	"github.com/abelzeko/floodcast/internal/usecases"
)

func main() {
	if err := log.Init(false); err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.LogDebug {
		if err := log.Init(true); err != nil {
			log.Fatalf("Failed to initialize debug logger: %v", err)
		}
	}
	log.Info("Starting flood warning bot...")

	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	waterStore, err := repository.OpenWaterLevelStore(cfg.StoreBackend, cfg.WaterLevelCSV, cfg.WaterLevelDB)
	if err != nil {
		log.Fatalf("Failed to initialize water level store: %v", err)
	}
	defer waterStore.Close()

	// Free-text questions need OpenAI; commands work without it
	var agent openai.OpenAIService
	if cfg.OpenAIAPIKey != "" {
		agent, err = openai.NewOpenAIService(cfg.OpenAIAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI service: %v", err)
		}
	} else {
		log.Warnf("OPENAI_API_KEY is not set, free-text questions are disabled")
	}

	dashboard := usecases.NewDashboardUseCase(
		waterStore,
		repository.NewRainfallHistory(cfg.MonthlyRainfallCSV),
		repository.NewLatestRainfallStore(cfg.LatestRainfallCSV),
		agent,
		clockwork.NewRealClock(),
		cfg.CacheTTL,
	)

	telegramBot, err := api.NewTelegramBot(cfg.TelegramBotToken, api.NewResponder(dashboard, cfg.ThresholdPercent))
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Bot is now running. Press CTRL-C to exit.")
	telegramBot.Start(ctx)
}
