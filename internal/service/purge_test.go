package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/position"
)

type purgingStore struct {
	position.Store
	calls   int
	removed int64
	err     error
}

func (p *purgingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	p.calls++
	return p.removed, p.err
}

type plainStore struct {
	position.Store
}

func TestPurgeService_ScheduleAndReschedule(t *testing.T) {
	cronEngine := cron.New()
	svc := NewPurgeService(&purgingStore{}, cronEngine, "0 4 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, svc.Schedule(ctx))
	require.Len(t, cronEngine.Entries(), 1)

	require.NoError(t, svc.ApplyRuntimeSettings(ctx, config.RuntimeSettings{PurgeCron: "*/10 * * * *"}))
	assert.Equal(t, "*/10 * * * *", svc.cronExpr)
	require.Len(t, cronEngine.Entries(), 1)

	err := svc.ApplyRuntimeSettings(ctx, config.RuntimeSettings{PurgeCron: "bad"})
	require.Error(t, err)
	assert.Equal(t, "*/10 * * * *", svc.cronExpr)
	require.Len(t, cronEngine.Entries(), 1)
}

func TestPurgeService_RunOnce(t *testing.T) {
	store := &purgingStore{removed: 3}
	svc := NewPurgeService(store, cron.New(), "0 4 * * *")
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	n, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 1, store.calls)

	st := svc.Status()
	assert.True(t, st.Enabled)
	assert.Equal(t, fixed, st.LastRun)
	assert.Equal(t, int64(3), st.LastRemoved)
	require.NotNil(t, st.Schedule)
	assert.Equal(t, time.Date(2026, 5, 2, 4, 0, 0, 0, time.UTC), st.Schedule.Next)

	store.err = errors.New("disk gone")
	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, "disk gone", svc.Status().LastError)
}

func TestPurgeService_DisabledForSelfExpiringStores(t *testing.T) {
	cronEngine := cron.New()
	svc := NewPurgeService(plainStore{}, cronEngine, "0 4 * * *")

	require.NoError(t, svc.Schedule(context.Background()))
	assert.Empty(t, cronEngine.Entries())

	n, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, svc.Status().Enabled)
}
