package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/forecast-service/internal/client"
	"github.com/yourorg/forecast-service/internal/config"
	"github.com/yourorg/forecast-service/internal/handler"
	"github.com/yourorg/forecast-service/internal/kafka"
	"github.com/yourorg/forecast-service/internal/middleware"
	"github.com/yourorg/forecast-service/internal/repository"
	"github.com/yourorg/forecast-service/internal/service"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience; containers inject real env vars
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	universe, err := config.LoadSymbols("config/symbols.yaml")
	if err != nil {
		log.Fatalf("Failed to load symbols: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	predictionRepo := repository.NewPredictionRepository(db, logger)
	performanceRepo := repository.NewPerformanceRepository(db, logger)
	marketDataRepo := repository.NewMarketDataRepository(db, logger)
	macroRepo := repository.NewMacroRepository(db, logger)

	// Initialize handlers
	predictionHandler := handler.NewPredictionHandler(predictionRepo, logger)
	performanceHandler := handler.NewPerformanceHandler(performanceRepo, logger)
	symbolHandler := handler.NewSymbolHandler(universe, logger)

	// The pipeline trigger needs the forecaster; without an API key the
	// server still serves the read endpoints.
	var pipelineHandler *handler.PipelineHandler
	if cfg.Forecaster.APIKey != "" {
		forecasterClient, err := client.NewForecasterClient(cfg.Forecaster, logger)
		if err != nil {
			logger.Fatal("Failed to create forecaster client", zap.Error(err))
		}

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

		pipelineService := service.NewPipelineService(
			forecastService, evaluationService, universe, publisher, cfg.Pipeline.Pace, logger)
		pipelineHandler = handler.NewPipelineHandler(pipelineService, logger)
	} else {
		logger.Warn("Forecaster API key not set; pipeline trigger endpoint disabled")
	}

	// Set up HTTP server with Gin
	router := setupRouter(
		predictionHandler,
		performanceHandler,
		symbolHandler,
		pipelineHandler,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
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

	// Create logger config
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

func setupRouter(
	predictionHandler *handler.PredictionHandler,
	performanceHandler *handler.PerformanceHandler,
	symbolHandler *handler.SymbolHandler,
	pipelineHandler *handler.PipelineHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/symbols", symbolHandler.ListSymbols)

		predictions := v1.Group("/predictions")
		{
			predictions.GET("", predictionHandler.ListPredictions)
			predictions.GET("/latest", predictionHandler.GetLatest)
			predictions.GET("/period/:key", predictionHandler.GetByPeriod)
		}

		v1.GET("/performance/:symbol", performanceHandler.GetPerformance)

		// Service-to-service routes
		if pipelineHandler != nil {
			serviceRoutes := v1.Group("/service")
			serviceRoutes.Use(middleware.ServiceAuthMiddleware(cfg.ServiceKey, logger))
			serviceRoutes.POST("/pipeline/run", pipelineHandler.TriggerRun)
		}
	}

	return router
}
