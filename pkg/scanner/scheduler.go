package scanner

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/anujk/carrydash/pkg/models"
)

// CycleListener receives each fresh cycle result, e.g. to push it to
// dashboard clients.
type CycleListener func(models.CycleResult)

// Scheduler re-runs the scan on a cron cadence and fans each result out to
// registered listeners. Scans also run outside market hours; the result's
// MarketOpen flag lets the presentation layer mark the data as stale.
type Scheduler struct {
	scanner  *Scanner
	symbols  []string
	schedule string
	cron     *cron.Cron
	logger   *logrus.Logger

	mu        sync.RWMutex
	listeners []CycleListener
}

// NewScheduler builds a Scheduler. schedule is a cron spec, e.g. "@every 60s".
func NewScheduler(s *Scanner, symbols []string, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		scanner:  s,
		symbols:  symbols,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Subscribe registers a listener for future cycle results.
func (sc *Scheduler) Subscribe(fn CycleListener) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.listeners = append(sc.listeners, fn)
}

// Start runs one immediate scan and then begins the periodic schedule.
func (sc *Scheduler) Start(ctx context.Context) error {
	sc.Refresh(ctx)

	_, err := sc.cron.AddFunc(sc.schedule, func() {
		sc.Refresh(ctx)
	})
	if err != nil {
		return err
	}
	sc.cron.Start()
	sc.logger.WithField("schedule", sc.schedule).Info("Scan scheduler started")
	return nil
}

// Stop halts the periodic schedule. In-flight scans run to completion.
func (sc *Scheduler) Stop() {
	<-sc.cron.Stop().Done()
	sc.logger.Info("Scan scheduler stopped")
}

// Refresh runs a scan now and notifies listeners. Safe to call from the API
// layer for manual refreshes.
func (sc *Scheduler) Refresh(ctx context.Context) models.CycleResult {
	result := sc.scanner.Scan(ctx, sc.symbols)

	sc.mu.RLock()
	listeners := make([]CycleListener, len(sc.listeners))
	copy(listeners, sc.listeners)
	sc.mu.RUnlock()

	for _, fn := range listeners {
		fn(result)
	}
	return result
}
