package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/configs"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
)

type stubJobs struct{}

func (stubJobs) ExpirySweep(context.Context) (subscriptionService.SweepResult, error) {
	return subscriptionService.SweepResult{}, nil
}

func (stubJobs) AutoRenew(context.Context) (subscriptionService.RenewResult, error) {
	return subscriptionService.RenewResult{}, nil
}

func (stubJobs) ReconcileStale(context.Context, time.Duration) (int, error) { return 0, nil }

func TestStartRegistersEnabledJobs(t *testing.T) {
	c, err := Start(configs.CronConfig{
		ExpirySweep:    "0 8 * * *",
		AutoRenew:      "0 6 * * *",
		ReconcileStale: "off",
	}, time.UTC, stubJobs{}, stubJobs{})
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 2)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, err := Start(configs.CronConfig{ExpirySweep: "every day"}, time.UTC, stubJobs{}, stubJobs{})
	assert.Error(t, err)
}
