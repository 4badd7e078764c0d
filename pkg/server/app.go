package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SalesCast/internal/usecase"
	"SalesCast/pkg/cache"
	pkgch "SalesCast/pkg/clickhouse"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	pkgkafka "SalesCast/pkg/kafka"
	applogger "SalesCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	consumer   *pkgkafka.Consumer
	runHandler *usecase.RunTriggerHandler
	opsHandler xhttp.Handler
	chClient   *pkgch.Client
	redis      *cache.RedisStore
	producer   *pkgkafka.Producer
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	consumer *pkgkafka.Consumer,
	runHandler *usecase.RunTriggerHandler,
	opsHandler xhttp.Handler,
	chClient *pkgch.Client,
	redis *cache.RedisStore,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		consumer:   consumer,
		runHandler: runHandler,
		opsHandler: opsHandler,
		chClient:   chClient,
		redis:      redis,
		producer:   producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	// Ship aggregated log batches to the ops topic when configured.
	if a.cfg.Kafka.OpsLogTopic != "" {
		a.log.AddCollector(&applogger.CollectorConfig{
			FlushInterval:  30 * time.Second,
			CountThreshold: 50,
			Topic:          a.cfg.Kafka.OpsLogTopic,
			Publisher:      a.producer,
		})
	}

	a.httpServer = xhttp.NewServer(a.opsHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.consumer.RegisterHandler(a.runHandler)
	go func() {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		}
	}()
	a.log.Info("run trigger consumer started", applogger.String("topic", a.cfg.Kafka.RunTopic))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("ops server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop consuming first so no new runs start mid-shutdown.
	if err := a.consumer.Stop(ctx); err != nil {
		a.log.Warn("kafka consumer stop error", applogger.Error(err))
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Detach the collector before closing the producer it publishes through.
	a.log.RemoveCollector()

	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka producer close error", applogger.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("redis close error", applogger.Error(err))
	}
	if err := a.chClient.Close(); err != nil {
		a.log.Warn("clickhouse close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
