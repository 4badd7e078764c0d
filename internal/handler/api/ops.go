package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	"SalesCast/internal/service/ratelimit"
	"SalesCast/internal/services/forecast"
	"SalesCast/internal/usecase"
	pkgch "SalesCast/pkg/clickhouse"
	xhttp "SalesCast/pkg/http"
	applogger "SalesCast/pkg/logger"
)

// Manual trigger budget per tenant: a burst of 3, refilling one run per 20s.
const (
	triggerBurst  = 3.0
	triggerRefill = 0.05
)

// OpsHandler is the operational HTTP surface: health, manual run triggers,
// and active-model inspection. The tenant-facing API lives in another
// service; this surface exists for operators and the scheduler.
type OpsHandler struct {
	log      *applogger.Logger
	pipeline *usecase.Pipeline
	store    domrepo.ModelStore
	ch       *pkgch.Client
	limiter  *ratelimit.Limiter
}

func NewOpsHandler(log *applogger.Logger, pipeline *usecase.Pipeline, store domrepo.ModelStore, ch *pkgch.Client) *OpsHandler {
	return &OpsHandler{
		log:      log,
		pipeline: pipeline,
		store:    store,
		ch:       ch,
		limiter:  ratelimit.New(),
	}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/ops")
	g.POST("/runs", h.TriggerRun)
	g.GET("/models/:tenant_id/active", h.ActiveModel)
}

func (h *OpsHandler) Health(c echo.Context) error {
	if h.ch != nil {
		if err := h.ch.Health(c.Request().Context()); err != nil {
			h.log.Error("health check failed", applogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("clickhouse: %v", err))
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// TriggerRun executes a pipeline run synchronously and returns its
// structural result. Internal run failures are carried in the result body,
// not as HTTP errors.
func (h *OpsHandler) TriggerRun(c echo.Context) error {
	req := &models.RunParams{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.limiter.Allow(req.TenantID, triggerBurst, triggerRefill) {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_RATE_LIMITED",
			Field:   "tenant_id",
			Message: "too many manual runs for this tenant, retry later",
		}})
	}

	start := time.Now()
	res := h.pipeline.Run(c.Request().Context(), *req)
	h.log.Info("manual run finished",
		applogger.String("tenant_id", req.TenantID),
		applogger.Bool("trained", res.Trained),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return xhttp.SuccessResponse(c, res)
}

// ActiveModel returns metadata for the tenant's active forecasting model.
// The blob is decoded to prove it round-trips, but only metadata is exposed.
func (h *OpsHandler) ActiveModel(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if tenantID == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "tenant_id", Message: "tenant_id is required",
		}})
	}

	m, err := h.store.LoadActive(c.Request().Context(), tenantID, models.ModelTypeSalesForecast)
	if err != nil {
		h.log.Error("load active model failed",
			applogger.String("tenant_id", tenantID), applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("load active model failed").WithError(err))
	}
	if m == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no active model for tenant %s", tenantID))
	}

	decoded, err := forecast.Decode(m.Blob)
	if err != nil {
		h.log.Error("stored model blob is unreadable",
			applogger.String("tenant_id", tenantID),
			applogger.String("model_id", m.ModelID),
			applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("stored model blob is unreadable").WithError(err))
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tenant_id":        m.TenantID,
		"model_id":         m.ModelID,
		"model_type":       m.ModelType,
		"model_version":    m.ModelVersion,
		"candidate":        decoded.Type(),
		"accuracy":         m.Accuracy,
		"hyperparameters":  m.Hyperparameters,
		"training_metrics": m.TrainingMetrics,
		"created_at":       m.CreatedAt,
	})
}

var _ xhttp.Handler = (*OpsHandler)(nil)
