/*
scheduler.go - Background jobs

PURPOSE:
  Runs periodic jobs on a cron schedule. The only job today is the
  allocation audit: it checks every fixed cost and employee of the current
  period, logs the ones whose allocation does not cover the pool exactly
  and publishes the count as a gauge.

  Incomplete allocations are a warning state, never an error: the audit
  reports, it does not fix or block anything.

CONFIGURATION:
  - AUDIT_ENABLED:  Whether the scheduler starts (default: true)
  - AUDIT_SCHEDULE: Cron expression or descriptor (default: @hourly)

USAGE:
  scheduler := api.NewScheduler(logger)
  audit := api.NewAllocationAudit(handler)
  scheduler.AddJob(cfg.AuditSchedule, audit)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - metrics.go: unit_finance_incomplete_allocations gauge
  - handlers_dashboard.go: Same check on demand
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/report"
)

// =============================================================================
// SCHEDULER
// =============================================================================

// Job is a unit of background work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler creates a scheduler using standard five-field cron
// expressions and descriptors such as "@hourly" or "@every 30m".
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		} else {
			s.log.Debug().Str("job", job.Name()).Msg("Job completed")
		}
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule).
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// =============================================================================
// ALLOCATION AUDIT
// =============================================================================

const auditTimeout = 30 * time.Second

// AuditResult is the outcome of one audit run.
type AuditResult struct {
	Period    allocation.Period
	CheckedAt time.Time
	Warnings  []report.AllocationWarning
}

// AllocationAudit flags incomplete allocation sets of the current period.
type AllocationAudit struct {
	Handler *Handler
	Now     func() time.Time

	mu   sync.Mutex
	last AuditResult
}

func NewAllocationAudit(h *Handler) *AllocationAudit {
	return &AllocationAudit{Handler: h, Now: time.Now}
}

func (a *AllocationAudit) Name() string { return "allocation_audit" }

// Run checks the period containing Now.
func (a *AllocationAudit) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	now := a.Now()
	period := allocation.PeriodOf(now)
	warnings, err := a.Handler.incompleteAllocations(ctx, period)
	if err != nil {
		return err
	}

	counts := make(map[allocation.OwnerKind]int)
	for _, w := range warnings {
		counts[w.Owner.Kind]++
		a.Handler.Log.Warn().
			Str("period", period.String()).
			Str("owner", w.Owner.String()).
			Str("name", w.Name).
			Str("status", string(w.Completeness.Status)).
			Str("covered", w.Completeness.CoveredFraction.String()).
			Str("variance", w.Completeness.Variance.String()).
			Msg("incomplete allocation")
	}
	a.Handler.Metrics.SetIncomplete(counts)

	a.mu.Lock()
	a.last = AuditResult{Period: period, CheckedAt: now, Warnings: warnings}
	a.mu.Unlock()

	a.Handler.Log.Info().
		Str("period", period.String()).
		Int("incomplete", len(warnings)).
		Msg("allocation audit finished")
	return nil
}

// Last returns the result of the most recent run.
func (a *AllocationAudit) Last() AuditResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
