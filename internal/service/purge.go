package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/pkg/icron"
	"github.com/MimeLyc/subview/pkg/log"
)

// PurgeStatus is reported by /api/status.
type PurgeStatus struct {
	Enabled     bool               `json:"enabled"`
	Schedule    *icron.TriggerInfo `json:"schedule,omitempty"`
	LastRun     time.Time          `json:"last_run,omitempty"`
	LastRemoved int64              `json:"last_removed"`
	LastError   string             `json:"last_error,omitempty"`
}

// PurgeService deletes expired playback positions on a cron schedule.
// Stores that expire keys on their own (redis) are not Purgers and leave the
// service disabled.
type PurgeService struct {
	purger position.Purger
	cron   *cron.Cron
	now    func() time.Time
	group  singleflight.Group

	mu          sync.Mutex
	cronExpr    string
	entryID     cron.EntryID
	scheduled   bool
	lastRun     time.Time
	lastRemoved int64
	lastErr     error
}

func NewPurgeService(store position.Store, c *cron.Cron, cronExpr string) *PurgeService {
	s := &PurgeService{
		cron:     c,
		cronExpr: cronExpr,
		now:      time.Now,
	}
	if p, ok := store.(position.Purger); ok {
		s.purger = p
	}
	return s
}

func (s *PurgeService) Enabled() bool {
	return s.purger != nil
}

func (s *PurgeService) Schedule(ctx context.Context) error {
	if !s.Enabled() {
		log.Info("Position store expires keys itself, purge job disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(ctx, s.cronExpr)
}

func (s *PurgeService) scheduleLocked(ctx context.Context, expr string) error {
	if _, err := icron.Parse(expr); err != nil {
		return err
	}
	id, err := s.cron.AddFunc(expr, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error("Failed to purge expired positions: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	if s.scheduled {
		s.cron.Remove(s.entryID)
	}
	s.entryID = id
	s.scheduled = true
	s.cronExpr = expr
	log.Info("Scheduled position purge with %q", expr)
	return nil
}

// ApplyRuntimeSettings reschedules the purge when the expression changed.
func (s *PurgeService) ApplyRuntimeSettings(ctx context.Context, rs config.RuntimeSettings) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs.PurgeCron == "" || (rs.PurgeCron == s.cronExpr && s.scheduled) {
		return nil
	}
	return s.scheduleLocked(ctx, rs.PurgeCron)
}

// RunOnce purges now. Concurrent calls share one run.
func (s *PurgeService) RunOnce(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	v, err, _ := s.group.Do("purge", func() (any, error) {
		now := s.now()
		n, err := s.purger.DeleteExpired(ctx, now)

		s.mu.Lock()
		s.lastRun = now
		s.lastRemoved = n
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			return int64(0), err
		}
		if n > 0 {
			log.Info("Purged %d expired positions", n)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (s *PurgeService) Status() PurgeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := PurgeStatus{
		Enabled:     s.Enabled(),
		LastRun:     s.lastRun,
		LastRemoved: s.lastRemoved,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if st.Enabled {
		if info, err := icron.GetTriggerInfo(s.cronExpr, s.now()); err == nil {
			st.Schedule = info
		}
	}
	return st
}
