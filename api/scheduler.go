/*
scheduler.go - Remote tariff refresher

PURPOSE:
  Periodically pulls tariff overrides from the remote pricing source and
  installs the merged snapshot. The pull is fail-soft end to end: a failed
  request leaves the last-known-good tariff installed, and bad keys inside
  a good payload are skipped one by one.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Pulls once immediately on Start
  - A payload that changes nothing installs nothing (no new version)
  - Records every pull as a refresh run for audit and UI display
  - No retry beyond the next tick

CONFIGURATION:
  - CheckInterval: How often to pull (PRICING_REFRESH_INTERVAL, default 15m)
  - Enabled: Whether the refresher is active (PRICING_URL set)

USAGE:
  refresher := NewTariffRefresher(handler, src, log)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: TriggerRefresh endpoint (manual pull)
  - source/http.go: HTTPSource
  - pricing/tariff.go: TariffBook.Merge
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/petguardian/quote-engine/logger"
	"github.com/petguardian/quote-engine/pricing"
	"github.com/petguardian/quote-engine/source"
	"github.com/petguardian/quote-engine/store/sqlite"
	"github.com/sirupsen/logrus"
)

// Refresh run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunUnchanged = "unchanged"
	RunFailed    = "failed"
)

// TariffRefresher keeps the installed tariff in step with the remote source.
type TariffRefresher struct {
	Handler       *Handler
	Source        source.PricingSource
	CheckInterval time.Duration
	Enabled       bool

	log        *logrus.Entry
	ticker     *time.Ticker
	stop       chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	runMu      sync.Mutex
	statusMu   sync.Mutex
	lastStatus string
}

// NewTariffRefresher creates a refresher; it does not start it.
func NewTariffRefresher(handler *Handler, src source.PricingSource, log *logger.Logger) *TariffRefresher {
	return &TariffRefresher{
		Handler:       handler,
		Source:        src,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
		log:           log.Component("tariff-refresher"),
		lastStatus:    "pending",
	}
}

// Start begins the refresher.
func (tr *TariffRefresher) Start() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if !tr.Enabled {
		tr.log.Info("Disabled, not starting")
		return
	}
	if tr.ticker != nil {
		return
	}

	tr.ticker = time.NewTicker(tr.CheckInterval)
	tr.stop = make(chan struct{})
	tr.wg.Add(1)

	go tr.run()

	tr.log.WithField("interval", tr.CheckInterval.String()).WithField("url", tr.Source.URL()).Info("Started")
}

// Stop stops the refresher and waits for an in-flight pull.
func (tr *TariffRefresher) Stop() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.ticker != nil {
		tr.ticker.Stop()
		close(tr.stop)
		tr.wg.Wait()
		tr.ticker = nil
		tr.log.Info("Stopped")
	}
}

func (tr *TariffRefresher) run() {
	defer tr.wg.Done()

	stop, ticks := tr.stop, tr.ticker.C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Pull immediately on start
	tr.RunNow(ctx)

	for {
		select {
		case <-ticks:
			tr.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow performs one pull and returns its run record. Pulls never overlap.
func (tr *TariffRefresher) RunNow(ctx context.Context) sqlite.RefreshRun {
	tr.runMu.Lock()
	defer tr.runMu.Unlock()

	run := sqlite.RefreshRun{
		ID:        uuid.NewString(),
		SourceURL: tr.Source.URL(),
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	tr.saveRun(ctx, run)

	log := tr.log.WithField("run_id", run.ID)

	payload, err := tr.Source.FetchOverrides(ctx)
	if err != nil {
		log.WithError(err).Warn("Pricing pull failed, keeping installed tariff")
		return tr.finish(ctx, run, RunFailed, err.Error())
	}

	// Merge swaps against the snapshot it read, so a manual edit landing
	// mid-pull is merged into rather than overwritten.
	next, report, changed := tr.Handler.Book.Merge(payload, pricing.SourceRemote)
	run.Applied = len(report.Applied)
	run.Ignored = len(report.Ignored)
	run.Version = next.Version()
	for _, ig := range report.Ignored {
		log.WithField("key", ig.Key).WithField("reason", ig.Reason).Warn("Pricing key ignored")
	}

	if !changed {
		log.Debug("Pricing unchanged")
		return tr.finish(ctx, run, RunUnchanged, "")
	}

	tr.Handler.recordTariff(context.WithoutCancel(ctx), next)
	log.WithFields(logrus.Fields{
		"version": next.Version(),
		"applied": run.Applied,
		"ignored": run.Ignored,
	}).Info("Remote pricing installed")

	return tr.finish(ctx, run, RunCompleted, "")
}

// LastStatus is the status of the most recent pull.
func (tr *TariffRefresher) LastStatus() string {
	tr.statusMu.Lock()
	defer tr.statusMu.Unlock()
	return tr.lastStatus
}

func (tr *TariffRefresher) finish(ctx context.Context, run sqlite.RefreshRun, status, errText string) sqlite.RefreshRun {
	completed := time.Now().UTC()
	run.Status = status
	run.Error = errText
	run.CompletedAt = &completed
	tr.saveRun(ctx, run)

	tr.statusMu.Lock()
	tr.lastStatus = status
	tr.statusMu.Unlock()
	return run
}

func (tr *TariffRefresher) saveRun(ctx context.Context, run sqlite.RefreshRun) {
	// The audit row must survive a cancelled pull.
	if err := tr.Handler.Store.SaveRefreshRun(context.WithoutCancel(ctx), run); err != nil {
		tr.log.WithError(err).WithField("run_id", run.ID).Error("Failed to record refresh run")
	}
}
