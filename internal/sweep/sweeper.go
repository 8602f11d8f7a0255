// Package sweep runs the periodic maintenance checks: due and overdue alert
// generation, warranty expiry warnings, and the weekly/monthly digests.
package sweep

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"av-maintenance-backend/config"
	"av-maintenance-backend/internal/store"
)

// Clock abstracts time.Now so trigger logic is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// job couples a named trigger with the work it fires.
type job struct {
	name string
	// due reports whether the job should fire at now given its last run.
	due func(now, lastRun time.Time) bool
	run func(ctx context.Context, now time.Time) error
}

// Sweeper owns the background tick loop. All state lives on the struct; two
// sweepers against the same store stay independent.
type Sweeper struct {
	store  store.Store
	cfg    *config.SweeperConfig
	clock  Clock
	logger *log.Logger
	loc    *time.Location

	jobs []job

	// lastMu guards lastRun. If Stop times out the old loop goroutine may
	// still be finishing a tick while a restarted loop begins its own.
	lastMu  sync.Mutex
	lastRun map[string]time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a sweeper from config. A nil clock defaults to the wall clock.
func New(s store.Store, cfg *config.SweeperConfig, clock Clock, logger *log.Logger) (*Sweeper, error) {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sweeper timezone %q: %w", cfg.Timezone, err)
	}

	sw := &Sweeper{
		store:   s,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		loc:     loc,
		lastRun: make(map[string]time.Time),
	}

	weekday, err := parseWeekday(cfg.WeeklySummaryDay)
	if err != nil {
		return nil, err
	}
	sw.jobs = []job{
		{
			name: "daily-due-check",
			due:  sw.dailyAt(cfg.DailyCheckTime),
			run:  sw.runDailyDueCheck,
		},
		{
			name: "overdue-check",
			due:  every(time.Duration(cfg.OverdueIntervalHrs) * time.Hour),
			run:  sw.runOverdueCheck,
		},
		{
			name: "weekly-summary",
			due:  sw.weeklyAt(weekday, cfg.WeeklySummaryTime),
			run:  sw.runWeeklySummary,
		},
		{
			// Fires daily; the job itself checks for the first of the month.
			name: "monthly-report",
			due:  sw.dailyAt(cfg.MonthlyReportTime),
			run:  sw.runMonthlyReport,
		},
	}
	return sw, nil
}

// Start launches the tick loop. Calling Start on a running sweeper is a
// logged no-op.
func (sw *Sweeper) Start(ctx context.Context) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		sw.logger.Println("sweeper already running, ignoring Start")
		return
	}
	sw.running = true

	ctx, sw.cancel = context.WithCancel(ctx)
	sw.done = make(chan struct{})
	go sw.loop(ctx)
	sw.logger.Printf("sweeper started (tick %s, timezone %s)", sw.cfg.Tick, sw.cfg.Timezone)
}

// Stop cancels the loop and waits up to five seconds for the current tick to
// finish. The sweeper counts as stopped either way.
func (sw *Sweeper) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.running {
		return
	}
	sw.cancel()
	select {
	case <-sw.done:
	case <-time.After(5 * time.Second):
		sw.logger.Println("sweeper stop timed out waiting for current tick")
	}
	sw.running = false
	sw.logger.Println("sweeper stopped")
}

func (sw *Sweeper) loop(ctx context.Context) {
	defer close(sw.done)

	ticker := time.NewTicker(sw.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.Tick(ctx)
		}
	}
}

// Tick evaluates every trigger once and runs the jobs that are due. Exported
// so tests can drive the sweeper without waiting on the ticker.
func (sw *Sweeper) Tick(ctx context.Context) {
	now := sw.clock.Now().In(sw.loc)
	for i := range sw.jobs {
		j := &sw.jobs[i]
		// Check and claim under the lock so concurrent ticks cannot both
		// decide the same job is due.
		sw.lastMu.Lock()
		due := j.due(now, sw.lastRun[j.name])
		if due {
			sw.lastRun[j.name] = now
		}
		sw.lastMu.Unlock()
		if !due {
			continue
		}
		sw.runJob(ctx, j, now)
	}
}

// runJob executes one job with panic recovery and a bounded deadline. Job
// failures are logged, never fatal.
func (sw *Sweeper) runJob(ctx context.Context, j *job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			sw.logger.Printf("sweep job %s panicked: %v", j.name, r)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(sw.cfg.JobTimeoutSeconds)*time.Second)
	defer cancel()

	if err := j.run(jobCtx, now); err != nil {
		sw.logger.Printf("sweep job %s failed: %v", j.name, err)
	}
}

// dailyAt fires once per day, at the first tick at or after the given HH:MM.
func (sw *Sweeper) dailyAt(hhmm string) func(now, lastRun time.Time) bool {
	hour, minute := mustParseHHMM(hhmm)
	return func(now, lastRun time.Time) bool {
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		return !now.Before(fireAt) && lastRun.Before(fireAt)
	}
}

// weeklyAt fires once per week on the given weekday at HH:MM.
func (sw *Sweeper) weeklyAt(day time.Weekday, hhmm string) func(now, lastRun time.Time) bool {
	daily := sw.dailyAt(hhmm)
	return func(now, lastRun time.Time) bool {
		return now.Weekday() == day && daily(now, lastRun)
	}
}

// every fires on a fixed interval, including on the first tick.
func every(interval time.Duration) func(now, lastRun time.Time) bool {
	return func(now, lastRun time.Time) bool {
		return lastRun.IsZero() || now.Sub(lastRun) >= interval
	}
}

func mustParseHHMM(s string) (hour, minute int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		// Config defaults guarantee a valid value; a hand-edited bad value
		// falls back to midnight rather than crashing the loop.
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}
