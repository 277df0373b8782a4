package scheduler

import (
	"context"
	"time"

	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	obslogger "github.com/smallbiznis/pamdes/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pamdes/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun tallies one execution of a job. It travels on the context so job
// bodies can report progress without knowing about logging.
type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	processed int
	failed    int
	villages  int
}

type jobRunKey struct{}

func (r *jobRun) addProcessed(n int) {
	if r != nil && n > 0 {
		r.processed += n
	}
}

func (r *jobRun) addFailed(n int) {
	if r != nil && n > 0 {
		r.failed += n
	}
}

func (r *jobRun) touchVillage() {
	if r != nil {
		r.villages++
	}
}

func (r *jobRun) fields() []zap.Field {
	return []zap.Field{
		zap.String("job", r.job),
		zap.String("run_id", r.runID),
	}
}

func (s *Scheduler) startRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{job: job, startedAt: s.clock.Now()}
	if s.genID != nil {
		run.runID = s.genID.Generate().String()
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	s.logger(ctx).Debug("scheduler.job.start", run.fields()...)
	return ctx, run
}

func (s *Scheduler) finishRun(ctx context.Context, run *jobRun) {
	fields := append(run.fields(),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("processed", run.processed),
		zap.Int("failed", run.failed),
	)
	if run.villages > 0 {
		fields = append(fields, zap.Int("villages", run.villages))
	}

	log := s.logger(ctx)
	switch {
	case run.failed > 0:
		log.Warn("scheduler.job.finish", fields...)
	case run.processed == 0:
		log.Debug("scheduler.job.finish", fields...)
	default:
		log.Info("scheduler.job.finish", fields...)
	}
}

func runFromContext(ctx context.Context) *jobRun {
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

// logger carries request-style correlation (trace and span ids) into job logs.
func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logVillageError(ctx context.Context, msg string, villageID string, err error, fields ...zap.Field) {
	run := runFromContext(ctx)
	run.addFailed(1)
	base := []zap.Field{
		zap.String("village_id", villageID),
		zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Error(err),
	}
	if run != nil {
		base = append(run.fields(), base...)
	}
	s.logger(ctx).Error(msg, append(base, fields...)...)
}

// logBatchGenerated reports one period's batch. Per-reading failures were
// already logged by the bill service; this line carries the tally.
func (s *Scheduler) logBatchGenerated(ctx context.Context, period *perioddomain.BillingPeriod, result *billdomain.BatchResult) {
	fields := []zap.Field{
		zap.String("village_id", period.VillageID.String()),
		zap.String("period_id", period.ID.String()),
		zap.String("period", period.Label()),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped),
	}
	runFromContext(ctx).addFailed(len(result.Failed))

	log := s.logger(ctx)
	switch {
	case len(result.Failed) > 0:
		log.Warn("bills.generated", fields...)
	case len(result.Created) == 0:
		log.Debug("bills.generated", fields...)
	default:
		log.Info("bills.generated", fields...)
	}
}

func (s *Scheduler) recordProcessed(ctx context.Context, job, resource string, count int) {
	if count <= 0 {
		return
	}
	obsmetrics.Scheduler().AddBatchProcessed(job, resource, count)
	runFromContext(ctx).addProcessed(count)
}
