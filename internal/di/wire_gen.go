// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"SalesCast/pkg/config"
	"SalesCast/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	salesReader := ProvideSalesReader(client, cfg, logger)
	featureCache := ProvideFeatureCache(client, cfg, logger)
	predictionStore := ProvidePredictionStore(client, cfg, logger)
	modelStore := ProvideModelStore(client, cfg, logger)
	redisStore, err := ProvideRedisStore(cfg)
	if err != nil {
		return nil, err
	}
	tenantSettings := ProvideTenantSettings(redisStore, cfg, logger)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	notifier := ProvideNotifier(producer, cfg)
	metrics := ProvideMetrics()
	pipeline := ProvidePipeline(cfg, salesReader, featureCache, predictionStore, modelStore, tenantSettings, notifier, metrics, logger)
	runTriggerHandler := ProvideRunHandler(cfg, pipeline, redisStore, logger)
	handler := ProvideOpsHandler(logger, pipeline, modelStore, client)
	app := ProvideApp(cfg, logger, consumer, runTriggerHandler, handler, client, redisStore, producer)
	return app, nil
}
