// Package config holds the environment-driven configuration options:
// os.Getenv-per-field with explicit defaults, no viper.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of tunables loaded from the environment.
// app.New passes the feedback poll, batch and drift settings,
// ForecastShadowMode and EnableAutoRetrain to the components.
// IncrementalRetrainEnabled, HealthCheckSchedule, RetrainCooldownHours,
// AlertThresholdCritical and AlertThresholdWarning are loaded but not
// read by any component: the Auditor uses its own fixed 60/75 score
// cutoffs and 24h retrain cooldown, and the scheduler takes its cadence
// from its own job table.
type Config struct {
	FeedbackPollInterval time.Duration
	FeedbackBatchSize    int
	FeedbackDriftThreshold float64 // fraction, e.g. 0.15 for 15%

	IncrementalRetrainEnabled bool
	ForecastShadowMode        bool

	HealthCheckSchedule string // cron expression
	EnableAutoRetrain   bool
	RetrainCooldownHours int

	AlertThresholdCritical int
	AlertThresholdWarning  int
}

// Default returns this core's standard configuration defaults.
func Default() Config {
	return Config{
		FeedbackPollInterval:     5 * time.Second,
		FeedbackBatchSize:        100,
		FeedbackDriftThreshold:   0.15,
		IncrementalRetrainEnabled: true,
		ForecastShadowMode:        true,
		HealthCheckSchedule:       "0 */6 * * *",
		EnableAutoRetrain:         false,
		RetrainCooldownHours:      24,
		AlertThresholdCritical:    60,
		AlertThresholdWarning:     75,
	}
}

// FromEnv returns Default() overridden by any of the named environment
// variables that are set.
func FromEnv() Config {
	c := Default()

	if v := os.Getenv("FEEDBACK_POLL_INTERVAL"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.FeedbackPollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEEDBACK_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FeedbackBatchSize = n
		}
	}
	if v := os.Getenv("FEEDBACK_DRIFT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FeedbackDriftThreshold = f
		}
	}
	if v := os.Getenv("INCREMENTAL_RETRAIN_ENABLED"); v != "" {
		c.IncrementalRetrainEnabled = parseBool(v, c.IncrementalRetrainEnabled)
	}
	if v := os.Getenv("FORECAST_SHADOW_MODE"); v != "" {
		c.ForecastShadowMode = parseBool(v, c.ForecastShadowMode)
	}
	if v := os.Getenv("HEALTH_CHECK_SCHEDULE"); v != "" {
		c.HealthCheckSchedule = v
	}
	if v := os.Getenv("ENABLE_AUTO_RETRAIN"); v != "" {
		c.EnableAutoRetrain = parseBool(v, c.EnableAutoRetrain)
	}
	if v := os.Getenv("RETRAIN_COOLDOWN_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetrainCooldownHours = n
		}
	}
	if v := os.Getenv("ALERT_THRESHOLD_CRITICAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AlertThresholdCritical = n
		}
	}
	if v := os.Getenv("ALERT_THRESHOLD_WARNING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AlertThresholdWarning = n
		}
	}

	return c
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
