package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
	"github.com/smallbiznis/billrun/internal/clock"
	obsmetrics "github.com/smallbiznis/billrun/internal/observability/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// checkRetryInterval bounds how long the scheduler waits after a failed or
// inconclusive schedule check before looking again.
const checkRetryInterval = time.Minute

// Scheduler owns the billing timetable. Every entry into CheckSchedule
// re-derives the current cycle from the store, so the process can restart at
// any point and pick up where it left off. A mutex keeps the timer loop and
// external triggers from processing the same cycle twice.
type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	cycleRepo cycledomain.Repository
	runner    *Runner
	advance   AdvanceFunc

	mu sync.Mutex
}

func NewScheduler(
	db *gorm.DB,
	log *zap.Logger,
	clk clock.Clock,
	genID *snowflake.Node,
	cycleRepo cycledomain.Repository,
	runner *Runner,
	advance AdvanceFunc,
) *Scheduler {
	if advance == nil {
		advance = FirstOfNextMonth
	}
	return &Scheduler{
		db:        db,
		log:       log.Named("billing.scheduler"),
		clock:     clk,
		genID:     genID,
		cycleRepo: cycleRepo,
		runner:    runner,
		advance:   advance,
	}
}

// CheckSchedule is the idempotent top-level entry point, safe to call from
// the timer loop or externally. If a cycle is due and unfulfilled it runs
// it, then makes sure a next cycle exists. It returns the time the caller
// should wake up again.
func (s *Scheduler) CheckSchedule(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obsmetrics.Billing().IncScheduleCheck()
	s.log.Info("checking schedule")

	now := s.clock.Now()
	cycle, err := s.cycleRepo.FetchCurrent(ctx, s.db, now)
	if err != nil {
		return now.Add(checkRetryInterval), err
	}

	if cycle != nil && cycle.Due(now) && !cycle.Fulfilled() {
		if _, err := s.runner.RunCycle(ctx, *cycle); err != nil {
			// The cycle stays unfulfilled; retry shortly instead of
			// waiting for the next scheduled date.
			s.log.Warn("cycle run failed", zap.Error(err))
			return s.clock.Now().Add(checkRetryInterval), err
		}
	}

	return s.scheduleNext(ctx)
}

// scheduleNext guarantees an unfulfilled future cycle exists and returns its
// due time. Creation is idempotent: the scheduled_for unique index makes a
// concurrent duplicate insert collapse into the existing row.
func (s *Scheduler) scheduleNext(ctx context.Context) (time.Time, error) {
	now := s.clock.Now()

	current, err := s.cycleRepo.FetchCurrent(ctx, s.db, now)
	if err != nil {
		return now.Add(checkRetryInterval), err
	}
	if current != nil {
		if current.Due(now) {
			// Still an overdue unfulfilled cycle (a run just failed, or
			// one slipped in); come back soon rather than spinning.
			return now.Add(checkRetryInterval), nil
		}
		return current.ScheduledFor, nil
	}

	last, err := s.cycleRepo.FetchLatest(ctx, s.db)
	if err != nil {
		return now.Add(checkRetryInterval), err
	}
	lastScheduledFor := time.Time{}
	if last != nil {
		lastScheduledFor = last.ScheduledFor
	}

	next := s.advance(now, lastScheduledFor)
	cycle := &cycledomain.BillingCycle{
		ID:           s.genID.Generate(),
		ScheduledOn:  now,
		ScheduledFor: next,
	}
	if err := s.cycleRepo.Insert(ctx, s.db, cycle); err != nil {
		if errors.Is(err, cycledomain.ErrCycleExists) {
			s.log.Debug("next cycle already scheduled", zap.Time("scheduled_for", next))
			return next, nil
		}
		return now.Add(checkRetryInterval), err
	}

	obsmetrics.Billing().IncCycleScheduled()
	s.log.Info("scheduled next billing", zap.Time("scheduled_for", next))
	return next, nil
}

// Run drives the schedule with a one-shot timer re-armed from each check's
// returned wake time. It exits only when ctx is canceled, which shutdown
// awaits.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next, err := s.CheckSchedule(ctx)
		if err != nil {
			s.log.Warn("schedule check failed", zap.Error(err))
		}

		wait := next.Sub(s.clock.Now())
		if wait < time.Second {
			wait = time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
