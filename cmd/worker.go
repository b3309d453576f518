package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/database"
	"github.com/shahanursiam/sampletrack/internal/messaging"
	"github.com/shahanursiam/sampletrack/internal/metrics"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/search"
	"github.com/shahanursiam/sampletrack/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that publishes movement events to Azure Service Bus`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connection
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	store := repositories.NewGormStore(db)

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize Azure Service Bus client
	bus, err := messaging.NewServiceBusClient(cfg.Azure)
	if err != nil {
		return err
	}
	defer bus.Close()

	publisher := services.NewMovementPublisher(store, bus, metricsCollector, cfg.Worker.BatchSize)

	// Initialize Elasticsearch for the repair pass; without it the worker
	// still publishes events.
	var indexer *services.SampleIndexer
	if elastic, err := search.NewElasticClient(cfg.Elastic); err != nil {
		log.Warn().Err(err).Msg("Elasticsearch unavailable, sample reindexing disabled")
	} else {
		indexer = services.NewSampleIndexer(store, elastic, cfg.Worker.BatchSize)
	}

	// Run the publish loop on a schedule; each run drains one batch of
	// unpublished movement log entries.
	g.Go(func() error {
		log.Info().
			Dur("interval", cfg.Worker.ReconcileInterval).
			Str("queue", cfg.Azure.QueueName).
			Msg("Starting movement event publisher")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.ReconcileInterval),
			gocron.NewTask(func() {
				if err := publisher.PublishPending(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to publish pending movement events")
				}
			}),
		)
		if err != nil {
			return err
		}

		if indexer != nil {
			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.Worker.ReconcileInterval),
				gocron.NewTask(func() {
					if err := indexer.ReindexAll(ctx); err != nil {
						log.Error().Err(err).Msg("Failed to reindex samples")
					}
				}),
			)
			if err != nil {
				return err
			}
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		// Shutdown the scheduler
		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
