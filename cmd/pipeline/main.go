package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/forecast-service/internal/client"
	"github.com/yourorg/forecast-service/internal/config"
	"github.com/yourorg/forecast-service/internal/kafka"
	"github.com/yourorg/forecast-service/internal/repository"
	"github.com/yourorg/forecast-service/internal/service"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	symbolsPath := flag.String("symbols", "config/symbols.yaml", "path to symbols file")
	once := flag.Bool("once", false, "run one cycle and exit, ignoring any configured schedule")
	flag.Parse()

	// Local development convenience; containers inject real env vars
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	universe, err := config.LoadSymbols(*symbolsPath)
	if err != nil {
		log.Fatalf("Failed to load symbols: %v", err)
	}

	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	forecasterClient, err := client.NewForecasterClient(cfg.Forecaster, logger)
	if err != nil {
		logger.Fatal("Failed to create forecaster client", zap.Error(err))
	}

	predictionRepo := repository.NewPredictionRepository(db, logger)
	performanceRepo := repository.NewPerformanceRepository(db, logger)
	marketDataRepo := repository.NewMarketDataRepository(db, logger)
	macroRepo := repository.NewMacroRepository(db, logger)

	newsClient := client.NewNewsClient(cfg.NewsCorpus, logger)
	featureService := service.NewFeatureService(
		marketDataRepo, macroRepo, newsClient,
		cfg.Pipeline.HistoryDays, cfg.Pipeline.NewsLimit, logger)
	forecastService := service.NewForecastService(
		featureService, forecasterClient, predictionRepo, performanceRepo, logger)

	var publisher service.ForecastPublisher
	var lifecyclePublisher service.LifecyclePublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		publisher = producer
		lifecyclePublisher = producer
	}

	evaluationService := service.NewEvaluationService(
		predictionRepo, marketDataRepo, performanceRepo, universe, lifecyclePublisher, logger)

	pipeline := service.NewPipelineService(
		forecastService, evaluationService, universe, publisher, cfg.Pipeline.Pace, logger)

	if *once || cfg.Pipeline.Schedule == "" {
		runOnce(pipeline, logger)
		return
	}

	runScheduled(pipeline, cfg.Pipeline.Schedule, logger)
}

func runOnce(pipeline *service.PipelineService, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx, time.Now()); err != nil {
		logger.Fatal("Pipeline run failed", zap.Error(err))
	}
}

func runScheduled(pipeline *service.PipelineService, schedule string, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := pipeline.Run(ctx, time.Now()); err != nil {
			logger.Error("Scheduled pipeline run failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid pipeline schedule", zap.String("schedule", schedule), zap.Error(err))
	}

	logger.Info("Pipeline scheduler started", zap.String("schedule", schedule))
	c.Start()

	<-ctx.Done()
	logger.Info("Shutting down pipeline scheduler...")

	// Let an in-flight run finish before exiting.
	<-c.Stop().Done()
	logger.Info("Pipeline scheduler exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}
