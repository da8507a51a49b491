package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/logging"
	"github.com/kendall-kelly/repair-shop-api/monitoring"
	"github.com/kendall-kelly/repair-shop-api/repository"
	"github.com/kendall-kelly/repair-shop-api/services"
	"github.com/kendall-kelly/repair-shop-api/utils"
	"go.opentelemetry.io/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	logging.SetLogger(logger)
	logger.Info("Starting Repair Shop API server", "env", cfg.GoEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tracerProvider := monitoring.NewTracerProvider(logger.WithName("tracing"))
		otel.SetTracerProvider(tracerProvider)
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error(err, "Failed to flush traces")
			}
		}()
		logger.Info("Exporting traces to the log")
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		fatal(logger, err, "Failed to connect to database")
	}

	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		fatal(logger, err, "Failed to migrate database")
	}
	logger.Info("Database migration completed successfully")

	seeded, err := config.SeedDeviceTypes(db)
	if err != nil {
		fatal(logger, err, "Failed to seed device types")
	}
	if seeded > 0 {
		logger.Info("Seeded device types", "count", seeded)
	}

	events, err := initServices(ctx, cfg, repository.NewStore(db), logger)
	if err != nil {
		fatal(logger, err, "Failed to initialize services")
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error(err, "Failed to close event publisher")
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "Server shutdown failed")
		}
	}()

	logger.Info("Server is running", "address", "http://localhost:"+cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(logger, err, "Failed to start server")
	}
	logger.Info("Server stopped")
}

// initServices wires the global service instances to their collaborators.
// Kafka, SQS and S3 are used when configured; otherwise events are logged,
// notifications dropped and photos kept on local disk.
func initServices(ctx context.Context, cfg *config.Config, repo repository.Repository, logger logr.Logger) (services.EventPublisher, error) {
	var events services.EventPublisher
	if cfg.UsesKafka() {
		events = services.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("Publishing lifecycle events to Kafka", "topic", cfg.KafkaTopic)
	} else {
		events = services.NewLogEventPublisher(logger)
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.SQSQueueURL != "" {
		sqsNotifier, err := services.InitSQSNotifier(ctx)
		if err != nil {
			return nil, err
		}
		notifier = sqsNotifier
		logger.Info("Sending customer notifications to SQS")
	}

	var storage services.S3Interface
	if cfg.UsesS3() {
		s3Service, err := services.InitS3Service(ctx)
		if err != nil {
			return nil, err
		}
		storage = s3Service
		logger.Info("Storing device photos in S3", "bucket", cfg.AWSS3Bucket)
	} else {
		utils.UploadDir = cfg.UploadDir
		storage = services.NewLocalStorageService(cfg.UploadDir)
		logger.Info("Storing device photos on local disk", "dir", cfg.UploadDir)
	}
	images := services.InitImageService(storage)

	services.InitProfileService(repo)
	services.InitLifecycleService(repo, events, notifier, logger)
	services.InitChatService(repo, services.NewChatHub(0, logger), events, logger)
	services.InitReviewService(repo)
	services.InitRepairImageService(repo, images)

	return events, nil
}

func fatal(logger logr.Logger, err error, msg string) {
	logger.Error(err, msg)
	os.Exit(1)
}
