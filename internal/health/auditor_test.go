package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/domain"
)

type fakeProcedure struct {
	reports []domain.HealthReport
	errs    []error
	call    int
}

func (f *fakeProcedure) Run(ctx context.Context) (domain.HealthReport, error) {
	i := f.call
	f.call++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var report domain.HealthReport
	if i < len(f.reports) {
		report = f.reports[i]
	}
	return report, err
}

func TestRunAudit_CriticalScoreRaisesAlert(t *testing.T) {
	proc := &fakeProcedure{reports: []domain.HealthReport{{Score: 40}}}
	a := NewAuditor(proc, nil, false)

	report, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Alerts[0], "critical")
}

func TestRunAudit_StockoutRiskAboveThresholdRaisesAlert(t *testing.T) {
	proc := &fakeProcedure{reports: []domain.HealthReport{{Score: 90, StockoutRiskCount: 11}}}
	a := NewAuditor(proc, nil, false)

	report, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.Alerts)
}

func TestRunAudit_SharpDropFromPreviousRaisesAlert(t *testing.T) {
	proc := &fakeProcedure{reports: []domain.HealthReport{{Score: 95}, {Score: 70}}}
	a := NewAuditor(proc, nil, false)

	_, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	report, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	found := false
	for _, alert := range report.Alerts {
		if alert == "warning: health score dropped sharply since last audit" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunAudit_AutoRetrainGatedByConfigFlag(t *testing.T) {
	proc := &fakeProcedure{reports: []domain.HealthReport{{Score: 90, ShouldRetrain: true}}}
	a := NewAuditor(proc, nil, false)

	report, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	assert.False(t, report.ShouldRetrain)
}

func TestRunAudit_AutoRetrainAllowedWhenEnabled(t *testing.T) {
	proc := &fakeProcedure{reports: []domain.HealthReport{{Score: 90, ShouldRetrain: true}}}
	a := NewAuditor(proc, nil, true)

	report, err := a.RunAudit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.ShouldRetrain)
}

func TestRunAudit_BoundsHistoryAt100(t *testing.T) {
	reports := make([]domain.HealthReport, 150)
	for i := range reports {
		reports[i] = domain.HealthReport{Score: 90}
	}
	proc := &fakeProcedure{reports: reports}
	a := NewAuditor(proc, nil, false)

	for i := 0; i < 150; i++ {
		_, err := a.RunAudit(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, a.History(), maxHistory)
}

func TestRunAudit_ProcedureErrorPropagates(t *testing.T) {
	proc := &fakeProcedure{errs: []error{errors.New("boom")}}
	a := NewAuditor(proc, nil, false)

	_, err := a.RunAudit(context.Background())
	require.Error(t, err)
}

func TestRunAudit_SingleFlightRejectsConcurrentCalls(t *testing.T) {
	block := make(chan struct{})
	proc := &blockingProcedure{block: block}
	a := NewAuditor(proc, nil, false)

	go func() {
		_, _ = a.RunAudit(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	_, err := a.RunAudit(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidRunState, domain.KindOf(err))
	close(block)
}

type blockingProcedure struct {
	block chan struct{}
}

func (b *blockingProcedure) Run(ctx context.Context) (domain.HealthReport, error) {
	<-b.block
	return domain.HealthReport{Score: 90}, nil
}
