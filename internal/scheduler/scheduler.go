package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	bundledomain "github.com/smallbiznis/pamdes/internal/bundle/domain"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/lock"
	obsmetrics "github.com/smallbiznis/pamdes/internal/observability/metrics"
	"github.com/smallbiznis/pamdes/internal/scheduler/guard"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Locker   lock.Locker
	Bills    billdomain.Service
	Bundles  bundledomain.Service
	Villages villagedomain.Service
	Periods  perioddomain.Service
	Config   Config `optional:"true"`
}

// Scheduler runs the periodic billing maintenance jobs.
type Scheduler struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	locker   lock.Locker
	bills    billdomain.Service
	bundles  bundledomain.Service
	villages villagedomain.Service
	periods  perioddomain.Service
	cfg      Config
}

type job struct {
	name    string
	timeout time.Duration
	fn      func(context.Context) error
}

func New(p Params) (*Scheduler, error) {
	if p.Bills == nil || p.Bundles == nil || p.Villages == nil || p.Periods == nil {
		return nil, errors.New("scheduler: billing services are required")
	}
	if p.Locker == nil {
		return nil, errors.New("scheduler: locker is required")
	}
	if p.Clock == nil {
		p.Clock = clock.SystemClock{}
	}

	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		genID:    p.GenID,
		clock:    p.Clock,
		locker:   p.Locker,
		bills:    p.Bills,
		bundles:  p.Bundles,
		villages: p.Villages,
		periods:  p.Periods,
		cfg:      p.Config.withDefaults(),
	}, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobOverdueSweep, timeout: s.cfg.JobTimeout, fn: s.OverdueSweepJob},
		{name: JobBundleExpiry, timeout: s.cfg.JobTimeout, fn: s.BundleExpiryJob},
		{name: JobAutoGenerateBills, timeout: s.cfg.GenerateTimeout, fn: s.AutoGenerateBillsJob},
	}
}

// RunOnce executes every enabled job once and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		if err := s.runJob(ctx, j.name, j.timeout, j.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.RunInterval))

	lastRun := time.Now()
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run finished with errors", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case tick := <-ticker.C:
			if lag := tick.Sub(lastRun) - s.cfg.RunInterval; lag > 0 {
				obsmetrics.Scheduler().ObserveRunLoopLag(lag)
			}
			lastRun = tick
		}
	}
}

func (s *Scheduler) isJobEnabled(name string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if enabled == name {
			return true
		}
	}
	return false
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}

	ctx := parent
	cancel := func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	}
	defer cancel()

	// Another instance running the same job is not an error; skip this tick.
	lockCtx, lockCancel := context.WithTimeout(ctx, s.cfg.LockWait)
	release, err := s.locker.Lock(lockCtx, jobLockKey(name), s.lockTTL(timeout))
	lockCancel()
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
			s.log.Debug("scheduler.job.skipped", zap.String("job", name), zap.String("reason", "locked"))
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	defer release()

	ctx, span := otel.Tracer("pamdes/scheduler").Start(ctx, "scheduler."+name)
	defer span.End()

	ctx, run := s.startRun(ctx, name)
	defer s.finishRun(ctx, run)

	metrics := obsmetrics.Scheduler()
	metrics.IncJobRun(name)
	start := time.Now()
	err = fn(ctx)
	metrics.ObserveJobDuration(name, time.Since(start))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.IncJobTimeout(name)
			metrics.IncJobError(name, context.DeadlineExceeded)
			s.log.Warn("scheduler.job.timeout", zap.String("job", name), zap.Duration("timeout", timeout))
			return nil
		}
		metrics.IncJobError(name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		run.addFailed(1)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) lockTTL(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return lock.DefaultTTL
	}
	return timeout + 5*time.Second
}

func jobLockKey(name string) string { return "pamdes:scheduler:" + name }

// OverdueSweepJob marks unpaid bills whose due date has passed.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	updated, err := s.bills.UpdateOverdueBills(ctx)
	if err != nil {
		return err
	}
	s.recordProcessed(ctx, JobOverdueSweep, "bill", int(updated))
	return nil
}

// BundleExpiryJob expires pending bundles past their expiry time.
func (s *Scheduler) BundleExpiryJob(ctx context.Context) error {
	expired, err := s.bundles.ExpireStale(ctx)
	if err != nil {
		return err
	}
	s.recordProcessed(ctx, JobBundleExpiry, "bundle", int(expired))
	return nil
}

// AutoGenerateBillsJob generates bills for active periods of villages that opted in,
// once the reading window of the period has closed.
func (s *Scheduler) AutoGenerateBillsJob(ctx context.Context) error {
	villages, err := s.villages.ListAutoGenerate(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	run := runFromContext(ctx)
	var errs []error
	for _, v := range villages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := guard.EnsureVillageAutoGenerates(*v); err != nil {
			continue
		}
		run.touchVillage()

		periods, err := s.periods.ActivePeriods(ctx, v.ID)
		if err != nil {
			s.logVillageError(ctx, "scheduler.periods.list_failed", v.ID.String(), err)
			errs = append(errs, err)
			continue
		}
		for _, period := range periods {
			if err := guard.EnsurePeriodCanAutoGenerate(period.Status, period.ReadingEnd, now); err != nil {
				continue
			}
			result, err := s.bills.GenerateBillsForPeriod(ctx, period.ID, nil, nil)
			if err != nil {
				s.logVillageError(ctx, "scheduler.bills.generate_failed", v.ID.String(), err,
					zap.String("period_id", period.ID.String()))
				errs = append(errs, err)
				continue
			}
			s.logBatchGenerated(ctx, period, result)
			s.recordProcessed(ctx, JobAutoGenerateBills, "bill", len(result.Created))
		}
	}
	return errors.Join(errs...)
}

