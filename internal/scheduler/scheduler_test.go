package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Jobs: []Job{
			{Name: "daily-forecast", Schedule: "0 2 * * *", Kind: KindForecastDaily, Enabled: true},
			{Name: "unhandled", Schedule: "0 3 * * *", Kind: "no.such.kind", Enabled: true},
			{Name: "disabled-job", Schedule: "0 4 * * *", Kind: KindHealthAudit, Enabled: false},
		},
	}
}

func TestRunJob_ExecutesRegisteredHandler(t *testing.T) {
	s := New(testConfig())
	var invoked bool
	s.RegisterHandler(KindForecastDaily, func(ctx context.Context, job Job) error {
		invoked = true
		return nil
	})

	result, err := s.RunJob(context.Background(), "daily-forecast")
	require.NoError(t, err)
	assert.True(t, invoked)
	assert.True(t, result.Success)
}

func TestRunJob_CapturesHandlerError(t *testing.T) {
	s := New(testConfig())
	s.RegisterHandler(KindForecastDaily, func(ctx context.Context, job Job) error {
		return errors.New("boom")
	})

	result, err := s.RunJob(context.Background(), "daily-forecast")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
}

func TestRunJob_UnknownJobNameErrors(t *testing.T) {
	s := New(testConfig())
	_, err := s.RunJob(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestGetStatus_CountsEnabledAndDisabled(t *testing.T) {
	s := New(testConfig())
	status := s.GetStatus()
	assert.Equal(t, 2, status.EnabledJobs)
	assert.Equal(t, 1, status.DisabledJobs)
}

func TestStartStop_SkipsJobsWithNoHandler(t *testing.T) {
	s := New(testConfig())
	s.RegisterHandler(KindForecastDaily, func(ctx context.Context, job Job) error { return nil })

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.GetStatus().Running)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.GetStatus().Running)
}

func TestLastResult_RecordsMostRecentRun(t *testing.T) {
	s := New(testConfig())
	s.RegisterHandler(KindForecastDaily, func(ctx context.Context, job Job) error { return nil })

	_, ok := s.LastResult("daily-forecast")
	assert.False(t, ok)

	_, err := s.RunJob(context.Background(), "daily-forecast")
	require.NoError(t, err)

	result, ok := s.LastResult("daily-forecast")
	assert.True(t, ok)
	assert.Equal(t, "daily-forecast", result.JobName)
}

func TestDefaultConfig_HasFourJobKinds(t *testing.T) {
	cfg := DefaultConfig()
	kinds := map[string]bool{}
	for _, job := range cfg.Jobs {
		kinds[job.Kind] = true
	}
	assert.True(t, kinds[KindForecastDaily])
	assert.True(t, kinds[KindStreamPoll])
	assert.True(t, kinds[KindHealthAudit])
	assert.True(t, kinds[KindFeedbackApply])
}
