package models

// MLConfig is the fully resolved configuration one pipeline run executes
// with. It is produced once per run by layering the tenant override on top
// of the global defaults; nothing downstream reads ambient config.
type MLConfig struct {
	Candidates       []string `json:"candidates" yaml:"candidates" default:"[\"naive\",\"seasonal_naive\",\"decomposition\",\"sarima\",\"boosted_trees\"]"`
	CVFolds          int      `json:"cv_folds" yaml:"cv_folds" default:"3" validate:"min=1,max=10"`
	HorizonDays      int      `json:"horizon_days" yaml:"horizon_days" default:"14" validate:"min=1,max=90"`
	HistoryDays      int      `json:"history_days" yaml:"history_days" default:"365" validate:"min=7,max=730"`
	SelectBest       bool     `json:"select_best" yaml:"select_best" default:"true"`
	SeasonLength     int      `json:"season_length" yaml:"season_length" default:"7" validate:"min=2"`
	SeasonalityMode  string   `json:"seasonality_mode" yaml:"seasonality_mode" default:"additive" validate:"oneof=additive multiplicative"`
	HolidayCountry   string   `json:"holiday_country" yaml:"holiday_country" default:"US"`
	IncludeAnomaly   bool     `json:"include_anomaly" yaml:"include_anomaly" default:"true"`
	AnomalyMethod    string   `json:"anomaly_method" yaml:"anomaly_method" default:"auto" validate:"oneof=auto isolation_forest residual"`
	Contamination    float64  `json:"contamination" yaml:"contamination" default:"0.05" validate:"gt=0,lt=0.5"`
	DecompPeriod     int      `json:"decomposition_period" yaml:"decomposition_period" default:"7" validate:"min=2"`
	AnomalyThreshold float64  `json:"anomaly_threshold" yaml:"anomaly_threshold" default:"3.0" validate:"gt=0"`
	PrimaryMetric    string   `json:"primary_metric" yaml:"primary_metric" default:"mape" validate:"oneof=mape mae rmse"`
	DriftThreshold   float64  `json:"drift_threshold" yaml:"drift_threshold" default:"0.5" validate:"gt=0"`

	SARIMA SARIMAOrder `json:"sarima" yaml:"sarima"`
}

// SARIMAOrder is the (p,d,q)(P,D,Q,s) specification for the seasonal ARIMA
// candidate.
type SARIMAOrder struct {
	P  int `json:"p" yaml:"p" default:"1" validate:"min=0,max=5"`
	D  int `json:"d" yaml:"d" default:"1" validate:"min=0,max=2"`
	Q  int `json:"q" yaml:"q" default:"1" validate:"min=0,max=5"`
	SP int `json:"sp" yaml:"sp" default:"1" validate:"min=0,max=2"`
	SD int `json:"sd" yaml:"sd" default:"0" validate:"min=0,max=1"`
	SQ int `json:"sq" yaml:"sq" default:"0" validate:"min=0,max=2"`
	S  int `json:"s" yaml:"s" default:"7" validate:"min=2"`
}

// MLOverride is the optional per-tenant settings document read from the
// tenant-settings store. Every field is a pointer so that "absent" and
// "explicitly zero" stay distinguishable when merging.
type MLOverride struct {
	Candidates       *[]string    `json:"candidates,omitempty"`
	CVFolds          *int         `json:"cv_folds,omitempty"`
	HorizonDays      *int         `json:"horizon_days,omitempty"`
	HistoryDays      *int         `json:"history_days,omitempty"`
	SelectBest       *bool        `json:"select_best,omitempty"`
	SeasonLength     *int         `json:"season_length,omitempty"`
	SeasonalityMode  *string      `json:"seasonality_mode,omitempty"`
	HolidayCountry   *string      `json:"holiday_country,omitempty"`
	IncludeAnomaly   *bool        `json:"include_anomaly,omitempty"`
	AnomalyMethod    *string      `json:"anomaly_method,omitempty"`
	Contamination    *float64     `json:"contamination,omitempty"`
	DecompPeriod     *int         `json:"decomposition_period,omitempty"`
	AnomalyThreshold *float64     `json:"anomaly_threshold,omitempty"`
	PrimaryMetric    *string      `json:"primary_metric,omitempty"`
	DriftThreshold   *float64     `json:"drift_threshold,omitempty"`
	SARIMA           *SARIMAOrder `json:"sarima,omitempty"`
}

// Apply layers the override onto cfg. Nil fields leave cfg untouched.
func (o *MLOverride) Apply(cfg *MLConfig) {
	if o == nil {
		return
	}
	if o.Candidates != nil && len(*o.Candidates) > 0 {
		cfg.Candidates = append([]string(nil), *o.Candidates...)
	}
	if o.CVFolds != nil {
		cfg.CVFolds = *o.CVFolds
	}
	if o.HorizonDays != nil {
		cfg.HorizonDays = *o.HorizonDays
	}
	if o.HistoryDays != nil {
		cfg.HistoryDays = *o.HistoryDays
	}
	if o.SelectBest != nil {
		cfg.SelectBest = *o.SelectBest
	}
	if o.SeasonLength != nil {
		cfg.SeasonLength = *o.SeasonLength
	}
	if o.SeasonalityMode != nil {
		cfg.SeasonalityMode = *o.SeasonalityMode
	}
	if o.HolidayCountry != nil {
		cfg.HolidayCountry = *o.HolidayCountry
	}
	if o.IncludeAnomaly != nil {
		cfg.IncludeAnomaly = *o.IncludeAnomaly
	}
	if o.AnomalyMethod != nil {
		cfg.AnomalyMethod = *o.AnomalyMethod
	}
	if o.Contamination != nil {
		cfg.Contamination = *o.Contamination
	}
	if o.DecompPeriod != nil {
		cfg.DecompPeriod = *o.DecompPeriod
	}
	if o.AnomalyThreshold != nil {
		cfg.AnomalyThreshold = *o.AnomalyThreshold
	}
	if o.PrimaryMetric != nil {
		cfg.PrimaryMetric = *o.PrimaryMetric
	}
	if o.DriftThreshold != nil {
		cfg.DriftThreshold = *o.DriftThreshold
	}
	if o.SARIMA != nil {
		cfg.SARIMA = *o.SARIMA
	}
}
