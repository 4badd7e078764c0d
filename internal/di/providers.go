package di

import (
	"context"
	"fmt"
	"time"

	domrepo "SalesCast/internal/domain/repository"
	"SalesCast/internal/handler/api"
	internalrepo "SalesCast/internal/repository"
	"SalesCast/internal/usecase"
	"SalesCast/pkg/cache"
	pkgch "SalesCast/pkg/clickhouse"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	pkgkafka "SalesCast/pkg/kafka"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/metrics"
	"SalesCast/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates the ClickHouse client and runs schema DDL.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(pkgch.Config{
		Host:         cfg.ClickHouse.Host,
		Port:         cfg.ClickHouse.Port,
		Database:     cfg.ClickHouse.Database,
		User:         cfg.ClickHouse.User,
		Password:     cfg.ClickHouse.Password,
		UseHTTP:      cfg.ClickHouse.UseHTTP,
		AsyncInsert:  cfg.ClickHouse.AsyncInsert,
		WaitForAsync: cfg.ClickHouse.WaitForAsync,
		DialTimeout:  cfg.ClickHouse.DialTimeout,
		ReadTimeout:  cfg.ClickHouse.ReadTimeout,
		MaxExecTime:  cfg.ClickHouse.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.Schema(cfg.ClickHouse.Database)...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates the shared Kafka producer for notifications
// and ops log batches.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the run-trigger consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisStore creates the Redis-backed cache used for run locks and
// settings memoization.
func ProvideRedisStore(cfg *config.Config) (*cache.RedisStore, error) {
	store, err := cache.NewRedisStore(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return store, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideSalesReader creates the read-only sales source repository.
func ProvideSalesReader(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.SalesReader {
	r := internalrepo.NewCHSalesReader(ch, cfg.ClickHouse.Database+"."+cfg.ClickHouse.SalesTable)
	r.SetLogger(l)
	return r
}

// ProvideFeatureCache creates the daily-features sink repository.
func ProvideFeatureCache(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.FeatureCache {
	c := internalrepo.NewCHFeatureCache(ch, cfg.ClickHouse.Database)
	c.SetLogger(l)
	return c
}

// ProvidePredictionStore creates the predictions sink repository.
func ProvidePredictionStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.PredictionStore {
	s := internalrepo.NewCHPredictionStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideModelStore creates the trained-models repository.
func ProvideModelStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.ModelStore {
	s := internalrepo.NewCHModelStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideTenantSettings creates the tenant override reader. Parsed overrides
// are memoized through a layered cache: a small in-process L1 in front of a
// prefixed Redis copy shared by peer instances.
func ProvideTenantSettings(redis *cache.RedisStore, cfg *config.Config, l *applogger.Logger) domrepo.TenantSettings {
	memo := cache.NewLayeredStore(redis, cache.WithMemoryMaxSize(512))
	s := internalrepo.NewRedisTenantSettings(redis.Client(), memo, cfg.Redis.SettingsTTL)
	s.SetLogger(l)
	return s
}

// ProvideNotifier creates the drift-alert publisher.
func ProvideNotifier(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Notifier {
	return internalrepo.NewKafkaNotifier(producer, cfg.Kafka.NotifyTopic)
}

// ProvidePipeline wires the orchestrator.
func ProvidePipeline(
	cfg *config.Config,
	sales domrepo.SalesReader,
	features domrepo.FeatureCache,
	preds domrepo.PredictionStore,
	store domrepo.ModelStore,
	settings domrepo.TenantSettings,
	notifier domrepo.Notifier,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(cfg.ML, sales, features, preds, store, settings, notifier, m, l)
}

// ProvideRunHandler registers the run-trigger topic handler. Run locks live
// in Redis so one tenant has at most one run in flight across instances.
func ProvideRunHandler(cfg *config.Config, pipeline *usecase.Pipeline, redis *cache.RedisStore, l *applogger.Logger) *usecase.RunTriggerHandler {
	return usecase.NewRunTriggerHandler(cfg.Kafka.RunTopic, pipeline, redis, l)
}

// ProvideOpsHandler creates the ops HTTP surface.
func ProvideOpsHandler(l *applogger.Logger, pipeline *usecase.Pipeline, store domrepo.ModelStore, ch *pkgch.Client) xhttp.Handler {
	return api.NewOpsHandler(l, pipeline, store, ch)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	rh *usecase.RunTriggerHandler,
	ops xhttp.Handler,
	ch *pkgch.Client,
	redis *cache.RedisStore,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, consumer, rh, ops, ch, redis, producer)
}
