package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/api"
	"github.com/shahanursiam/sampletrack/internal/cache"
	"github.com/shahanursiam/sampletrack/internal/database"
	"github.com/shahanursiam/sampletrack/internal/metrics"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/search"
	"github.com/shahanursiam/sampletrack/internal/services"
	"github.com/shahanursiam/sampletrack/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for sample tracking`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	// Initialize database connection
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	store := repositories.NewGormStore(db)

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)
	metricsCollector.SetHealth("redis", redisCache.Enabled())
	metricsCollector.SetHealth("elasticsearch", elasticClient != nil)

	// Initialize services
	svc := api.Services{
		Samples:    services.NewSampleService(store, redisCache, elasticClient, cfg),
		Invoices:   services.NewInvoiceService(store),
		Containers: services.NewContainerService(store),
		Approvals:  services.NewApprovalService(store),
		Settings:   services.NewSettingService(store, redisCache, cfg),
		Locations:  services.NewLocationService(store),
	}

	// Initialize and start the server
	server := api.NewServer(cfg, svc, metricsCollector, tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
