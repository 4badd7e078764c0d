package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/cache"
	pkgkafka "SalesCast/pkg/kafka"
	applogger "SalesCast/pkg/logger"
)

// runLockTTL bounds how long a tenant's run lock can outlive a crashed
// worker.
const runLockTTL = 15 * time.Minute

// RunTriggerHandler consumes scheduler run-trigger messages and executes the
// pipeline. Handler errors are returned so the consumer's retry/DLQ policy
// applies to malformed triggers, but a completed run that failed internally
// is not retried: the structural RunResult already recorded it.
type RunTriggerHandler struct {
	topic    string
	pipeline *Pipeline
	locks    cache.Store
	log      *applogger.Logger
}

func NewRunTriggerHandler(topic string, pipeline *Pipeline, locks cache.Store, log *applogger.Logger) *RunTriggerHandler {
	return &RunTriggerHandler{topic: topic, pipeline: pipeline, locks: locks, log: log}
}

func (h *RunTriggerHandler) Topic() string { return h.topic }

// incoming message schema mirrors models.RunParams
func (h *RunTriggerHandler) Handle(ctx context.Context, b []byte) error {
	var params models.RunParams
	if err := json.Unmarshal(b, &params); err != nil {
		h.log.Error("run trigger unmarshal failed", applogger.Error(err))
		return err
	}

	// one in-flight run per tenant; a duplicate trigger is dropped, not
	// queued, because the run it duplicates will write the same rows
	if h.locks != nil && params.TenantID != "" {
		key := "run:" + params.TenantID
		ok, err := h.locks.TryLock(ctx, key, runLockTTL)
		if err != nil {
			h.log.Warn("run lock unavailable, proceeding without it",
				applogger.String("tenant_id", params.TenantID), applogger.Error(err))
		} else if !ok {
			h.log.Info("run trigger dropped: tenant run already in flight",
				applogger.String("tenant_id", params.TenantID))
			return nil
		} else {
			defer func() { _ = h.locks.Unlock(context.Background(), key) }()
		}
	}

	res := h.pipeline.Run(ctx, params)
	if res.Error != "" {
		h.log.Error("run finished with error",
			applogger.String("tenant_id", params.TenantID),
			applogger.String("run_error", res.Error))
		return nil
	}
	h.log.Info("run trigger processed",
		applogger.String("tenant_id", params.TenantID),
		applogger.Bool("trained", res.Trained),
		applogger.String("reason", res.Reason))
	return nil
}

var _ pkgkafka.MessageHandler = (*RunTriggerHandler)(nil)
