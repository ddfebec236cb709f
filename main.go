package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	contactrepo "github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/internal/repositories/scanrun"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/detection"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/merging"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/processor"
	contactroutes "github.com/Ramsey-B/fern/pkg/routes/contact"
	duplicateroutes "github.com/Ramsey-B/fern/pkg/routes/duplicate"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	mergeroutes "github.com/Ramsey-B/fern/pkg/routes/merge"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, tracing.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingInsecure,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	db, err := database.Connect(ctx, database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	driver, err := postgres.WithInstance(db.Unsafe().DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	if err := migrationService.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	scanCache, err := cache.NewClient(cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.ScanCacheTTL,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer scanCache.Close()

	var graphService *graph.ContactService
	if cfg.GraphDBEnabled {
		graphClient, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect graph database: %w", err)
		}
		defer graphClient.Close(ctx)
		graphService = graph.NewContactService(graphClient, logger)
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)

	contactRepository := contactrepo.NewRepository(db, logger)
	runRepository := scanrun.NewRepository(db, logger)

	detector := detection.New(detection.DefaultConfig())
	detectionService := detection.NewService(logger, detector, contactRepository, runRepository, scanCache, graphService, emitter, cfg.ScanQueueSize)
	detectionService.Start(ctx)
	defer detectionService.Stop()

	mergeService := merging.NewService(logger, contactRepository, emitter, detectionService)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		changeProcessor := processor.NewProcessor(logger, contactRepository, detectionService)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaChangeTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, changeProcessor.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("start change-feed consumer: %w", err)
		}
		defer consumer.Stop()
	}

	if err := registerDependencies(logger, db, contactRepository, runRepository, detectionService, mergeService, graphService); err != nil {
		return fmt.Errorf("register dependencies: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	healthChecker := health.NewChecker(db, scanCache, version)
	healthChecker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	contactroutes.Register(api.Group("/contacts"))
	duplicateroutes.Register(api.Group("/duplicates"))
	mergeroutes.Register(api.Group("/merge"))

	healthChecker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	healthChecker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

func registerDependencies(
	logger ectologger.Logger,
	db database.DB,
	contactRepository *contactrepo.Repository,
	runRepository *scanrun.Repository,
	detectionService *detection.Service,
	mergeService *merging.Service,
	graphService *graph.ContactService,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*contactrepo.Repository](container, contactRepository); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*scanrun.Repository](container, runRepository); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*detection.Service](container, detectionService); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*merging.Service](container, mergeService); err != nil {
		return err
	}
	if graphService != nil {
		if err := ectoinject.RegisterInstance[*graph.ContactService](container, graphService); err != nil {
			return err
		}
	}

	return nil
}
