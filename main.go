package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fenilmodi00/market-snapshot-bot/config"
	"github.com/fenilmodi00/market-snapshot-bot/handlers"
	"github.com/fenilmodi00/market-snapshot-bot/jobs"
	"github.com/fenilmodi00/market-snapshot-bot/services"
	"github.com/fenilmodi00/market-snapshot-bot/shared"
	"github.com/fenilmodi00/market-snapshot-bot/version"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogging()

	logrus.WithField("version", version.String()).Info("Initializing Market Snapshot Bot...")
	startTime := time.Now()

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		shared.NewStartupError("missing Twitter credentials: "+strings.Join(missing, ", "), nil).LogError()
		os.Exit(1)
	}

	clientFactory := shared.NewHTTPClientFactory(cfg.MarketAPITimeout)
	defer clientFactory.CleanupAllClients()

	fetcher := services.NewMarketFetcher(cfg.MarketAPIURL, clientFactory.Client(cfg.MarketAPITimeout))
	formatter := services.NewTweetFormatter(cfg.Location())
	twitterClient := services.NewTwitterClient(
		cfg.TwitterAPIBaseURL,
		services.TwitterCredentials{
			AppKey:       cfg.TwitterAppKey,
			AppSecret:    cfg.TwitterAppSecret,
			AccessToken:  cfg.TwitterAccessToken,
			AccessSecret: cfg.TwitterAccessSecret,
		},
		clientFactory.Client(cfg.PublishTimeout),
	)

	// Credentials gate: nothing is scheduled unless the posting account answers
	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), cfg.PublishTimeout)
	credentialsValid := twitterClient.VerifyCredentials(verifyCtx)
	cancelVerify()
	if !credentialsValid {
		shared.NewStartupError("Twitter credentials verification failed", nil).LogError()
		os.Exit(1)
	}
	logrus.Info("Twitter credentials verified successfully")

	jobConfig := jobs.MarketSnapshotJobConfig{
		ShouldRun:    jobs.AlwaysRun,
		ShouldPost:   jobs.AlwaysPost,
		AllowOverlap: cfg.AllowOverlappingRuns,
	}
	if cfg.EnforceMarketHours {
		jobConfig.ShouldRun = jobs.MarketHours(cfg.Location())
	}
	if cfg.RequireMarketOpen {
		jobConfig.ShouldPost = jobs.MarketOpen
	}

	status := jobs.NewStatusTracker(cfg.Location())
	snapshotJob := jobs.NewMarketSnapshotJob(fetcher, formatter, twitterClient, status, jobConfig)

	scheduler, err := jobs.NewScheduler(cfg.CronExpression, cfg.Location(), snapshotJob, status)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"enforce_market_hours":   cfg.EnforceMarketHours,
		"require_market_open":    cfg.RequireMarketOpen,
		"allow_overlapping_runs": cfg.AllowOverlappingRuns,
		"timezone":               cfg.Timezone,
	}).Info("Services initialized successfully")

	scheduler.Start()

	app := handlers.NewApp(
		handlers.NewHealthHandler(status, startTime, version.Version),
		handlers.NewTriggerHandler(scheduler),
		handlers.NewMetricsHandler(snapshotJob.Metrics(), fetcher.Metrics(), twitterClient.Metrics()),
	)

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.ServerPort,
			"environment": cfg.Environment,
		}).Info("Market Snapshot Bot started successfully")
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logrus.WithField("signal", sig.String()).Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Warn("HTTP server did not stop cleanly")
	}
	snapshotJob.Metrics().LogSummary()
}
