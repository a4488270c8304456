// Package scheduler drives this core's four recurring jobs (daily
// forecast generation, feedback-stream polling, periodic health
// audits, pending-feedback application) from a YAML job table, using
// standard 5-field cron expressions dispatched via robfig/cron/v3.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job kinds this scheduler understands.
const (
	KindForecastDaily = "forecast.daily"
	KindStreamPoll    = "stream.poll"
	KindHealthAudit   = "health.audit"
	KindFeedbackApply = "feedback.apply"
)

// JobFunc is the work a registered job kind performs when its schedule
// fires or it is run on demand.
type JobFunc func(ctx context.Context, job Job) error

// Status reports the scheduler's current operating state.
type Status struct {
	Running      bool
	EnabledJobs  int
	DisabledJobs int
	Uptime       time.Duration
}

// JobResult is the outcome of one job execution.
type JobResult struct {
	JobName   string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Success   bool
	Error     string
}

// Scheduler dispatches configured jobs to registered handlers on a
// cron cadence, and supports running any job on demand.
type Scheduler struct {
	config   SchedulerConfig
	cron     *cron.Cron
	handlers map[string]JobFunc

	mu          sync.Mutex
	startTime   time.Time
	running     bool
	lastResults map[string]JobResult
}

// New constructs a Scheduler from a loaded SchedulerConfig.
func New(config SchedulerConfig) *Scheduler {
	return &Scheduler{
		config:      config,
		cron:        cron.New(),
		handlers:    make(map[string]JobFunc),
		lastResults: make(map[string]JobResult),
	}
}

// RegisterHandler wires a job kind to the function that executes it.
// Jobs of a kind with no registered handler are skipped at Start.
func (s *Scheduler) RegisterHandler(kind string, fn JobFunc) {
	s.handlers[kind] = fn
}

// Start schedules every enabled job that has a registered handler and
// begins the cron dispatch loop. Non-blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.config.Jobs {
		if !job.Enabled {
			continue
		}
		handler, ok := s.handlers[job.Kind]
		if !ok {
			log.Warn().Str("job", job.Name).Str("kind", job.Kind).Msg("no handler registered for job kind, skipping")
			continue
		}
		j := job
		h := handler
		if _, err := s.cron.AddFunc(j.Schedule, func() { s.dispatch(ctx, j, h) }); err != nil {
			return fmt.Errorf("failed to schedule job %q: %w", j.Name, err)
		}
	}

	s.cron.Start()
	s.startTime = time.Now()
	s.running = true
	log.Info().Int("jobs", len(s.config.Jobs)).Msg("scheduler started")
	return nil
}

// Stop halts the cron dispatch loop and waits for any in-flight job to
// finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunJob executes the named job immediately, bypassing its schedule.
func (s *Scheduler) RunJob(ctx context.Context, jobName string) (*JobResult, error) {
	var job *Job
	for i := range s.config.Jobs {
		if s.config.Jobs[i].Name == jobName {
			job = &s.config.Jobs[i]
			break
		}
	}
	if job == nil {
		return nil, fmt.Errorf("job not found: %s", jobName)
	}
	handler, ok := s.handlers[job.Kind]
	if !ok {
		return nil, fmt.Errorf("no handler registered for job kind: %s", job.Kind)
	}
	result := s.dispatch(ctx, *job, handler)
	return &result, nil
}

func (s *Scheduler) dispatch(ctx context.Context, job Job, handler JobFunc) JobResult {
	start := time.Now()
	result := JobResult{JobName: job.Name, StartTime: start, Success: true}

	log.Info().Str("job", job.Name).Str("kind", job.Kind).Msg("running scheduled job")
	if err := handler(ctx, job); err != nil {
		result.Success = false
		result.Error = err.Error()
		log.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)

	s.mu.Lock()
	s.lastResults[job.Name] = result
	s.mu.Unlock()

	return result
}

// GetStatus reports the scheduler's current operating state.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled, disabled := 0, 0
	for _, job := range s.config.Jobs {
		if job.Enabled {
			enabled++
		} else {
			disabled++
		}
	}
	var uptime time.Duration
	if s.running {
		uptime = time.Since(s.startTime)
	}
	return Status{Running: s.running, EnabledJobs: enabled, DisabledJobs: disabled, Uptime: uptime}
}

// LastResult returns the most recent execution result for jobName, if any.
func (s *Scheduler) LastResult(jobName string) (JobResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.lastResults[jobName]
	return result, ok
}
