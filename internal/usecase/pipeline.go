package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	"SalesCast/internal/domain/service"
	"SalesCast/internal/services/anomaly"
	"SalesCast/internal/services/features"
	"SalesCast/internal/services/forecast"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/util"
)

const (
	// maxHistoryDays caps the training lookback regardless of config.
	maxHistoryDays = 730
	// maxHorizonDays caps the forecast horizon regardless of config.
	maxHorizonDays = 90
	// maxCVFolds caps how many validation folds a run may request.
	maxCVFolds = 10
	// minFoldTrainDays is the shortest training prefix a validation fold
	// may use.
	minFoldTrainDays = features.MinSeriesDays
	// anomalyKeepDays limits persisted anomalies to the most recent flagged
	// days.
	anomalyKeepDays = 30

	confidenceEps  = 1e-8
	notifyTimeout  = 2 * time.Second
	versionLayout  = "20060102T150405"
	runOutcomeOK   = "success"
	runOutcomeSkip = "insufficient_data"
	runOutcomeFail = "failed"
)

// Pipeline stage names used in logs and metrics.
const (
	StageExtracting  = "extracting"
	StageValidating  = "validating"
	StageSelecting   = "selecting"
	StageRetraining  = "retraining"
	StageModelSave   = "persisting_model"
	StageForecasting = "forecasting"
	StagePredSave    = "persisting_predictions"
	StageAnomalies   = "detecting_anomalies"
	StageDrift       = "drift_check"
)

// Pipeline runs the full per-tenant batch: extract, backtest, select,
// retrain, persist, forecast, detect, notify. One Run is single-threaded;
// runs for different tenants are safe in parallel because every write is
// tenant-scoped and upsert-keyed.
type Pipeline struct {
	defaults models.MLConfig
	sales    domrepo.SalesReader
	cache    domrepo.FeatureCache
	preds    domrepo.PredictionStore
	store    domrepo.ModelStore
	settings domrepo.TenantSettings
	notifier domrepo.Notifier
	metrics  domrepo.Metrics
	log      *applogger.Logger
	now      func() time.Time
}

func NewPipeline(
	defaults models.MLConfig,
	sales domrepo.SalesReader,
	cache domrepo.FeatureCache,
	preds domrepo.PredictionStore,
	store domrepo.ModelStore,
	settings domrepo.TenantSettings,
	notifier domrepo.Notifier,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *Pipeline {
	return &Pipeline{
		defaults: defaults,
		sales:    sales,
		cache:    cache,
		preds:    preds,
		store:    store,
		settings: settings,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Run executes one pipeline invocation. It always returns a structural
// result; data-shape problems land in RunResult, never as panics or errors
// to the caller.
func (p *Pipeline) Run(ctx context.Context, params models.RunParams) (res models.RunResult) {
	res = models.RunResult{TenantID: params.TenantID, Timestamp: p.now().UTC()}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("panic: %v", r)
			p.log.Error("run panicked",
				applogger.String("tenant_id", params.TenantID),
				applogger.Any("panic", r))
			p.metrics.RecordRun(runOutcomeFail)
		}
	}()
	if params.TenantID == "" {
		res.Error = "tenant_id is required"
		p.metrics.RecordRun(runOutcomeFail)
		return res
	}

	cfg := p.resolveConfig(ctx, params)

	// --- extracting ---
	series, err := p.extract(ctx, params.TenantID, cfg)
	if err != nil {
		res.Error = fmt.Sprintf("extract: %v", err)
		p.metrics.RecordRun(runOutcomeFail)
		return res
	}
	if series.Len() < features.MinSeriesDays {
		res.Trained = false
		res.Reason = models.ReasonInsufficientData
		p.log.Info("run stopped: insufficient data",
			applogger.String("tenant_id", params.TenantID),
			applogger.Int("series_days", series.Len()))
		p.metrics.RecordRun(runOutcomeSkip)
		return res
	}

	// --- validating ---
	stop := p.stage(StageValidating, params.TenantID)
	scores := crossValidate(series, cfg, p.log)
	stop(len(scores))
	summary := make(map[string]float64, len(scores))
	for _, s := range scores {
		summary[s.Name] = s.Avg
		p.metrics.RecordCandidateScore(s.Name, s.Avg)
	}
	res.MetricsSummary = summary

	// --- selecting + retraining ---
	stop = p.stage(StageRetraining, params.TenantID)
	model, selected, err := p.retrain(series, scores, cfg)
	stop(0)
	if err != nil {
		res.Error = fmt.Sprintf("retrain: %v", err)
		p.metrics.RecordRun(runOutcomeFail)
		return res
	}
	res.SelectedModel = selected

	selectedAvg, hasScore := summary[selected]
	accuracy := 0.0
	if hasScore {
		accuracy = clamp01(1 - selectedAvg)
	}
	res.Accuracy = accuracy

	// --- persisting_model ---
	stop = p.stage(StageModelSave, params.TenantID)
	trained, err := p.persistModel(ctx, params.TenantID, model, selected, cfg, scores, accuracy)
	stop(1)
	if err != nil {
		// a model row is the anchor for prediction rows; without it the
		// downstream persists are aborted
		res.Error = fmt.Sprintf("persist model: %v", err)
		p.metrics.RecordRun(runOutcomeFail)
		return res
	}
	res.Trained = true
	res.ModelID = trained.ModelID

	// --- forecasting + persisting_predictions ---
	stop = p.stage(StageForecasting, params.TenantID)
	inserted, err := p.forecastAndPersist(ctx, trained, model, cfg)
	stop(inserted)
	if err != nil {
		res.Error = fmt.Sprintf("forecast: %v", err)
		p.metrics.RecordRun(runOutcomeFail)
		return res
	}
	res.ForecastsInserted = inserted

	// --- detecting_anomalies (optional, never fails the run) ---
	if cfg.IncludeAnomaly {
		stop = p.stage(StageAnomalies, params.TenantID)
		count, aerr := p.detectAndPersist(ctx, trained, model, series, cfg)
		stop(count)
		if aerr != nil {
			res.AnomalyError = aerr.Error()
			p.log.Warn("anomaly stage failed",
				applogger.String("tenant_id", params.TenantID), applogger.Error(aerr))
		} else {
			res.Anomalies = count
		}
	}

	// --- drift_check (fire-and-forget) ---
	if hasScore && selectedAvg > cfg.DriftThreshold {
		p.dispatchDrift(params.TenantID, selected, selectedAvg, cfg)
	}

	p.metrics.RecordRun(runOutcomeOK)
	p.log.Info("run complete",
		applogger.String("tenant_id", params.TenantID),
		applogger.String("selected_model", selected),
		applogger.Int("forecasts", res.ForecastsInserted),
		applogger.Int("anomalies", res.Anomalies))
	return res
}

// resolveConfig layers tenant settings and call parameters over the global
// defaults, once per run.
func (p *Pipeline) resolveConfig(ctx context.Context, params models.RunParams) models.MLConfig {
	cfg := p.defaults
	cfg.Candidates = append([]string(nil), p.defaults.Candidates...)

	override, err := p.settings.MLOverride(ctx, params.TenantID)
	if err != nil {
		p.log.Warn("tenant settings unavailable, using defaults",
			applogger.String("tenant_id", params.TenantID), applogger.Error(err))
	}
	override.Apply(&cfg)

	if params.HorizonDays > 0 {
		cfg.HorizonDays = params.HorizonDays
	}
	if params.HistoryDays > 0 {
		cfg.HistoryDays = params.HistoryDays
	}
	if len(params.Candidates) > 0 {
		cfg.Candidates = append([]string(nil), params.Candidates...)
	}
	if params.CVFolds > 0 {
		cfg.CVFolds = params.CVFolds
	}
	if params.IncludeAnomaly != nil {
		cfg.IncludeAnomaly = *params.IncludeAnomaly
	}
	// override values come from an external store; anything the pipeline
	// cannot execute falls back to the global defaults
	if cfg.HorizonDays < 1 || cfg.HorizonDays > maxHorizonDays {
		p.log.Warn("resolved horizon_days out of range, using default",
			applogger.String("tenant_id", params.TenantID),
			applogger.Int("horizon_days", cfg.HorizonDays))
		cfg.HorizonDays = clampInt(p.defaults.HorizonDays, 1, maxHorizonDays)
	}
	if cfg.CVFolds < 1 || cfg.CVFolds > maxCVFolds {
		p.log.Warn("resolved cv_folds out of range, using default",
			applogger.String("tenant_id", params.TenantID),
			applogger.Int("cv_folds", cfg.CVFolds))
		cfg.CVFolds = clampInt(p.defaults.CVFolds, 1, maxCVFolds)
	}
	if cfg.HistoryDays < features.MinSeriesDays {
		p.log.Warn("resolved history_days out of range, using default",
			applogger.String("tenant_id", params.TenantID),
			applogger.Int("history_days", cfg.HistoryDays))
		cfg.HistoryDays = clampInt(p.defaults.HistoryDays, features.MinSeriesDays, maxHistoryDays)
	}
	if cfg.HistoryDays > maxHistoryDays {
		cfg.HistoryDays = maxHistoryDays
	}
	return cfg
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (p *Pipeline) extract(ctx context.Context, tenantID string, cfg models.MLConfig) (models.DailySeries, error) {
	stop := p.stage(StageExtracting, tenantID)
	to := util.Day(p.now())
	from := to.AddDate(0, 0, -(cfg.HistoryDays - 1))
	rows, err := p.sales.ReadSales(ctx, tenantID, from, to)
	if err != nil {
		stop(0)
		return models.DailySeries{}, err
	}
	series := features.BuildDailySeries(tenantID, rows)
	if series.Len() > maxHistoryDays {
		series = series.Window(series.Len()-maxHistoryDays, series.Len())
	}
	stop(series.Len())

	// feature cache is analytics-only; a failed push never blocks the run
	if series.Len() > 0 {
		if err := p.cache.UpsertSnapshots(ctx, tenantID, features.RollingSnapshot(series)); err != nil {
			p.log.Warn("feature cache push failed",
				applogger.String("tenant_id", tenantID), applogger.Error(err))
		} else {
			p.metrics.RecordRowsWritten("daily_features", series.Len())
		}
	}
	return series, nil
}

// retrain fits the winning candidate on the full capped history, walking the
// ranking on failure. Naive closes the chain as the dependency-free resort.
func (p *Pipeline) retrain(series models.DailySeries, scores []CandidateScore, cfg models.MLConfig) (service.Model, string, error) {
	ranking := rankCandidates(scores, cfg)
	if !contains(ranking, forecast.CandidateNaive) {
		ranking = append(ranking, forecast.CandidateNaive)
	}

	var lastErr error
	for _, name := range ranking {
		trainer, err := forecast.NewTrainer(name, cfg)
		if err != nil {
			lastErr = err
			continue
		}
		model, err := trainer.Train(series)
		if err != nil {
			p.log.Info("retrain fallback: candidate failed on full history",
				applogger.String("candidate", name), applogger.Error(err))
			lastErr = err
			continue
		}
		return model, name, nil
	}
	return nil, "", fmt.Errorf("no candidate could be trained: %w", lastErr)
}

func (p *Pipeline) persistModel(
	ctx context.Context,
	tenantID string,
	model service.Model,
	selected string,
	cfg models.MLConfig,
	scores []CandidateScore,
	accuracy float64,
) (*models.TrainedModel, error) {
	blob, err := forecast.Encode(model)
	if err != nil {
		return nil, err
	}

	foldDiag := make(map[string]any, len(scores))
	for _, s := range scores {
		foldDiag[s.Name] = map[string]any{"avg": s.Avg, "folds": s.Folds, "scores": s.FoldScores}
	}

	trained := &models.TrainedModel{
		TenantID:     tenantID,
		ModelID:      uuid.NewString(),
		ModelType:    models.ModelTypeSalesForecast,
		ModelVersion: p.now().UTC().Format(versionLayout),
		Blob:         blob,
		Hyperparameters: map[string]any{
			"selected_model": selected,
			"config":         cfg,
		},
		TrainingMetrics: map[string]any{
			"primary_metric": cfg.PrimaryMetric,
			"cv_folds":       cfg.CVFolds,
			"candidates":     foldDiag,
		},
		Accuracy:  accuracy,
		IsActive:  true,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.Save(ctx, trained); err != nil {
		return nil, err
	}
	p.metrics.RecordRowsWritten("trained_models", 1)
	return trained, nil
}

func (p *Pipeline) forecastAndPersist(ctx context.Context, trained *models.TrainedModel, model service.Model, cfg models.MLConfig) (int, error) {
	points, err := model.Forecast(cfg.HorizonDays)
	if err != nil {
		return 0, err
	}
	rows := make([]models.Prediction, 0, len(points))
	for _, pt := range points {
		width := pt.Upper - pt.Lower
		conf := 1 / (1 + width/math.Max(math.Abs(pt.Point), confidenceEps))
		rows = append(rows, models.Prediction{
			TenantID:       trained.TenantID,
			ModelID:        trained.ModelID,
			PredictionDate: pt.Date,
			PredictionType: models.PredictionTypeForecast,
			PredictedValues: map[string]any{
				"yhat":       pt.Point,
				"yhat_lower": pt.Lower,
				"yhat_upper": pt.Upper,
			},
			ConfidenceScore: clamp01(conf),
		})
	}
	n, err := p.preds.UpsertPredictions(ctx, rows)
	if err != nil {
		return 0, err
	}
	p.metrics.RecordRowsWritten("predictions", n)
	return n, nil
}

func (p *Pipeline) detectAndPersist(ctx context.Context, trained *models.TrainedModel, model service.Model, series models.DailySeries, cfg models.MLConfig) (int, error) {
	detector := anomaly.Select(cfg, model)
	points, err := detector.Detect(series)
	if err != nil {
		return 0, err
	}

	flagged := points[:0:0]
	for _, pt := range points {
		if pt.IsAnomaly {
			flagged = append(flagged, pt)
		}
	}
	sort.Slice(flagged, func(i, j int) bool { return flagged[i].Date.After(flagged[j].Date) })
	if len(flagged) > anomalyKeepDays {
		flagged = flagged[:anomalyKeepDays]
	}

	rows := make([]models.Prediction, 0, len(flagged))
	for _, pt := range flagged {
		rows = append(rows, models.Prediction{
			TenantID:       trained.TenantID,
			ModelID:        trained.ModelID,
			PredictionDate: pt.Date,
			PredictionType: models.PredictionTypeAnomaly,
			PredictedValues: map[string]any{
				"y":          pt.Value,
				"score":      pt.Score,
				"is_anomaly": true,
			},
			ConfidenceScore: logisticSquash(pt.Score),
		})
	}
	n, err := p.preds.UpsertPredictions(ctx, rows)
	if err != nil {
		return 0, err
	}
	p.metrics.RecordRowsWritten("predictions", n)
	p.log.Info("anomaly scan complete",
		applogger.String("tenant_id", trained.TenantID),
		applogger.String("detector", detector.Name()),
		applogger.Int("flagged", n))
	return n, nil
}

// dispatchDrift publishes the alert inside a non-propagating boundary: a
// bounded timeout, errors logged, nothing returned to the run.
func (p *Pipeline) dispatchDrift(tenantID, selected string, metric float64, cfg models.MLConfig) {
	stop := p.stage(StageDrift, tenantID)
	defer stop(1)

	alert := models.DriftAlert{
		TenantID:         tenantID,
		NotificationType: models.NotificationTypeDrift,
		Data: map[string]any{
			"model":           selected,
			"metric":          cfg.PrimaryMetric,
			"value":           metric,
			"threshold":       cfg.DriftThreshold,
			"horizon_days":    cfg.HorizonDays,
			"detected_at_utc": p.now().UTC().Format(time.RFC3339),
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := p.notifier.PublishDrift(ctx, alert); err != nil {
		p.log.Warn("drift alert publish failed",
			applogger.String("tenant_id", tenantID), applogger.Error(err))
		return
	}
	p.metrics.RecordDriftAlert(tenantID)
	p.log.Info("drift alert dispatched",
		applogger.String("tenant_id", tenantID),
		applogger.Any("metric_value", metric))
}

// stage returns a closure that records duration and row count when the
// stage finishes.
func (p *Pipeline) stage(name, tenantID string) func(rows int) {
	start := p.now()
	return func(rows int) {
		elapsed := time.Since(start)
		p.metrics.RecordStage(name, elapsed.Seconds())
		p.log.Info("stage complete",
			applogger.String("stage", name),
			applogger.String("tenant_id", tenantID),
			applogger.Int("rows", rows),
			applogger.Duration("duration_ms", elapsed))
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// logisticSquash maps an unbounded anomaly score into (0,1). It is a
// relative trust signal, not a calibrated probability.
func logisticSquash(score float64) float64 {
	return 1 / (1 + math.Exp(-score))
}
