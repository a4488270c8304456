package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job is one scheduled unit of work, keyed by one of this core's four
// job kinds.
type Job struct {
	Name        string `yaml:"name"`
	Schedule    string `yaml:"schedule"` // standard 5-field cron expression
	Kind        string `yaml:"kind"`     // "forecast.daily", "stream.poll", "health.audit", "feedback.apply"
	Description string `yaml:"description"`
	Enabled     bool   `yaml:"enabled"`
	Config      JobConfig `yaml:"config"`
}

// JobConfig holds job-kind-specific knobs.
type JobConfig struct {
	Tenant      string `yaml:"tenant"`
	Location    string `yaml:"location"`
	HorizonDays int    `yaml:"horizon_days"`
	BatchLimit  int    `yaml:"batch_limit"`
}

// GlobalConfig holds scheduler-wide settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
	Timezone string `yaml:"timezone"`
}

// SchedulerConfig is the top-level YAML document this core's scheduler
// loads.
type SchedulerConfig struct {
	Jobs   []Job        `yaml:"jobs"`
	Global GlobalConfig `yaml:"global"`
}

// LoadConfig reads and parses a scheduler YAML file, applying defaults.
func LoadConfig(path string) (SchedulerConfig, error) {
	var config SchedulerConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read scheduler config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse scheduler config: %w", err)
	}

	if config.Global.LogLevel == "" {
		config.Global.LogLevel = "info"
	}
	if config.Global.Timezone == "" {
		config.Global.Timezone = "UTC"
	}

	return config, nil
}

// DefaultConfig returns the four standard jobs at their standard
// cadences, for embedding applications that prefer code-defined
// defaults over a YAML file.
func DefaultConfig() SchedulerConfig {
	return SchedulerConfig{
		Jobs: []Job{
			{Name: "daily-forecast", Schedule: "0 2 * * *", Kind: KindForecastDaily, Enabled: true, Config: JobConfig{HorizonDays: 7}},
			{Name: "feedback-poll", Schedule: "*/1 * * * *", Kind: KindStreamPoll, Enabled: true},
			{Name: "health-audit", Schedule: "0 */6 * * *", Kind: KindHealthAudit, Enabled: true},
			{Name: "apply-pending-feedback", Schedule: "*/15 * * * *", Kind: KindFeedbackApply, Enabled: true, Config: JobConfig{BatchLimit: 100}},
		},
		Global: GlobalConfig{LogLevel: "info", Timezone: "UTC"},
	}
}
