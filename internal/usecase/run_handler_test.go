package usecase

import (
	"context"
	"testing"
	"time"

	"SalesCast/pkg/cache"
)

func TestRunTriggerHandlerTopic(t *testing.T) {
	fx := newFixture(t, baseConfig())
	h := NewRunTriggerHandler("salescast.run.requests", fx.pipeline, nil, testLogger(t))
	if h.Topic() != "salescast.run.requests" {
		t.Fatalf("topic = %q", h.Topic())
	}
}

func TestRunTriggerHandlerMalformedPayload(t *testing.T) {
	fx := newFixture(t, baseConfig())
	h := NewRunTriggerHandler("salescast.run.requests", fx.pipeline, nil, testLogger(t))
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if fx.metrics.runs["failed"]+fx.metrics.runs["success"] != 0 {
		t.Fatalf("pipeline ran on malformed payload: %v", fx.metrics.runs)
	}
}

func TestRunTriggerHandlerExecutesRun(t *testing.T) {
	fx := newFixture(t, baseConfig())
	fx.seedSales("t1", 60, func(i int) float64 { return 100 })
	locks := cache.NewMemoryStore()
	h := NewRunTriggerHandler("salescast.run.requests", fx.pipeline, locks, testLogger(t))

	if err := h.Handle(context.Background(), []byte(`{"tenant_id":"t1"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if fx.metrics.runs["success"] != 1 {
		t.Fatalf("run not executed: %v", fx.metrics.runs)
	}

	// the lock is released when the run finishes
	ok, err := locks.TryLock(context.Background(), "run:t1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("lock not released after run: ok=%v err=%v", ok, err)
	}
}

func TestRunTriggerHandlerDropsDuplicate(t *testing.T) {
	fx := newFixture(t, baseConfig())
	fx.seedSales("t1", 60, func(i int) float64 { return 100 })
	locks := cache.NewMemoryStore()
	h := NewRunTriggerHandler("salescast.run.requests", fx.pipeline, locks, testLogger(t))

	// a run for t1 is already in flight elsewhere
	if ok, err := locks.TryLock(context.Background(), "run:t1", time.Minute); err != nil || !ok {
		t.Fatalf("seed lock: ok=%v err=%v", ok, err)
	}

	if err := h.Handle(context.Background(), []byte(`{"tenant_id":"t1"}`)); err != nil {
		t.Fatalf("duplicate trigger must be dropped cleanly: %v", err)
	}
	if total := fx.metrics.runs["success"] + fx.metrics.runs["failed"] + fx.metrics.runs["insufficient_data"]; total != 0 {
		t.Fatalf("pipeline ran despite held lock: %v", fx.metrics.runs)
	}

	// other tenants are unaffected
	fx.seedSales("t2", 60, func(i int) float64 { return 200 })
	if err := h.Handle(context.Background(), []byte(`{"tenant_id":"t2"}`)); err != nil {
		t.Fatalf("handle t2: %v", err)
	}
	if fx.metrics.runs["success"] != 1 {
		t.Fatalf("t2 run blocked by t1 lock: %v", fx.metrics.runs)
	}
}

func TestRunTriggerHandlerInternalErrorNotRetried(t *testing.T) {
	fx := newFixture(t, baseConfig())
	fx.seedSales("t1", 60, func(i int) float64 { return 100 })
	fx.store.saveErr = context.DeadlineExceeded
	h := NewRunTriggerHandler("salescast.run.requests", fx.pipeline, cache.NewMemoryStore(), testLogger(t))

	// the run records its own failure; returning nil keeps the message from
	// looping through retry and the DLQ
	if err := h.Handle(context.Background(), []byte(`{"tenant_id":"t1"}`)); err != nil {
		t.Fatalf("internal run failure must not bubble: %v", err)
	}
	if fx.metrics.runs["failed"] != 1 {
		t.Fatalf("failure outcome not recorded: %v", fx.metrics.runs)
	}
}
