package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// immediateDriver fires the job once, synchronously, on Start.
type immediateDriver struct {
	started bool
	stopped bool
}

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	d.started = true
	job(start)
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsWorkflowOnTrigger(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	driver := &immediateDriver{}
	s := NewScheduler(driver, f.orchestrator(), "AI news please", nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.True(t, driver.started)
	assert.True(t, driver.stopped)
	assert.Equal(t, 1, f.store.SystemState().SuccessfulRuns)
	assert.Len(t, f.mail.sent, 1)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, "", nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
