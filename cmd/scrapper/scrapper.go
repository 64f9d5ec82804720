package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/abelzeko/floodcast/internal/config"
	"github.com/abelzeko/floodcast/internal/integration"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/observability"
	"github.com/abelzeko/floodcast/internal/repository"
	"github.com/abelzeko/floodcast/internal/usecases"
)

func main() {
	once := flag.Bool("once", false, "refresh all datasets once and exit")
	flag.Parse()

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
	log.Info("Starting flood data scraper...")

	waterStore, err := repository.OpenWaterLevelStore(cfg.StoreBackend, cfg.WaterLevelCSV, cfg.WaterLevelDB)
	if err != nil {
		log.Fatalf("Failed to initialize water level store: %v", err)
	}
	defer waterStore.Close()

	useCase := usecases.NewIngestUseCase(
		waterStore,
		repository.NewLatestRainfallStore(cfg.LatestRainfallCSV),
		integration.NewTableScraper(cfg.FetchTimeout),
		usecases.Sources{WaterLevelURL: cfg.WaterLevelURL, RainfallURL: cfg.RainfallURL},
		clockwork.NewRealClock(),
		observability.NewMetrics(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := useCase.RefreshAll(ctx); err != nil {
			log.Errorf("Data refresh failed: %v", err)
			os.Exit(1)
		}
		return
	}

	var server *observability.Server
	if cfg.MetricsAddr != "" {
		server = observability.NewServer(cfg.MetricsAddr)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server stopped: %v", err)
			}
		}()
		log.Infof("Serving metrics on %s", cfg.MetricsAddr)
	}

	// Run use case immediately on startup
	if err := useCase.RefreshAll(ctx); err != nil {
		log.Errorf("Initial data refresh failed: %v", err)
	}

	// A run still in progress when the next tick fires is skipped, never overlapped
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(log.CronLogger())))
	_, err = c.AddFunc(cfg.ScrapeSchedule, func() {
		if err := useCase.RefreshAll(ctx); err != nil {
			log.Errorf("Scheduled data refresh failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Infof("Scraper has been scheduled with %q", cfg.ScrapeSchedule)
	c.Start()

	<-ctx.Done()
	log.Info("Shutting down scraper...")
	<-c.Stop().Done()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Metrics server shutdown failed: %v", err)
		}
	}
}
