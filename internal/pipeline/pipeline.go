// Package pipeline drives a batch run end to end: resolve scrape targets,
// acquire raw batches, verify, persist, and update the order queue.
//
// The run is linear with no back-edges. Cancellation is honored at stage
// boundaries only, so verification stays a single atomic transformation.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadmart/leadgen-cli/internal/config"
	"github.com/leadmart/leadgen-cli/internal/leadio"
	"github.com/leadmart/leadgen-cli/internal/model"
	"github.com/leadmart/leadgen-cli/internal/queue"
	"github.com/leadmart/leadgen-cli/internal/resilience"
	"github.com/leadmart/leadgen-cli/internal/scrape"
	"github.com/leadmart/leadgen-cli/internal/store"
	"github.com/leadmart/leadgen-cli/internal/verify"
)

// acquireConcurrency bounds parallel target acquisition. Batches are still
// combined in target order, so the keep-first dedup winner is reproducible.
const acquireConcurrency = 4

// Pipeline orchestrates the stages. The store is optional; a nil store
// skips run-history recording.
type Pipeline struct {
	cfg    *config.Config
	source scrape.Source
	queue  queue.Queue
	store  store.Store
	retry  resilience.RetryConfig
}

// New assembles a pipeline from its stages.
func New(cfg *config.Config, source scrape.Source, q queue.Queue, st store.Store) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		source: source,
		queue:  q,
		store:  st,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// ScrapeResult summarizes the acquisition half of a run.
type ScrapeResult struct {
	Targets   int      `json:"targets"`
	Raw       int      `json:"raw"`
	Completed []string `json:"completed,omitempty"`
}

// RunResult summarizes a full run.
type RunResult struct {
	RunID     string       `json:"run_id,omitempty"`
	Targets   int          `json:"targets"`
	Stats     verify.Stats `json:"stats"`
	Completed []string     `json:"completed,omitempty"`
}

// ResolveTargets builds the run's target list: the configured maintenance
// target first, then one target per pending order in queue order. A queue
// read failure degrades to the maintenance target alone.
func (p *Pipeline) ResolveTargets(ctx context.Context) []model.ScrapeTarget {
	targets := []model.ScrapeTarget{{
		Niche:    p.cfg.Scraping.PrimaryNiche,
		City:     p.cfg.Scraping.PrimaryCity,
		MaxCount: p.cfg.Scraping.DefaultMaxLeads,
	}}

	orders, err := p.queue.ListPending(ctx)
	if err != nil {
		zap.L().Warn("pipeline: order queue unreadable, running maintenance target only",
			zap.Error(err))
		return targets
	}

	for _, order := range orders {
		max := order.MaxCount
		if max <= 0 {
			max = p.cfg.Scraping.DefaultMaxLeads
		}
		targets = append(targets, model.ScrapeTarget{
			Niche:    order.Niche,
			City:     order.Location,
			MaxCount: max,
			OrderID:  order.ID,
		})
	}
	return targets
}

// Scrape runs acquisition only: resolve targets, acquire, write the raw
// batch file, then mark contributing orders complete.
func (p *Pipeline) Scrape(ctx context.Context) (*ScrapeResult, error) {
	targets := p.ResolveTargets(ctx)

	raw, contributing, err := p.acquireAll(ctx, targets)
	if err != nil {
		return nil, err
	}

	if err := leadio.WriteRaw(p.cfg.Paths.Raw, raw); err != nil {
		return nil, err
	}

	completed := p.markComplete(ctx, contributing)
	zap.L().Info("pipeline: scrape complete",
		zap.Int("targets", len(targets)),
		zap.Int("raw", len(raw)),
		zap.Int("orders_completed", len(completed)),
	)
	return &ScrapeResult{Targets: len(targets), Raw: len(raw), Completed: completed}, nil
}

// Verify runs verification only, reading the raw batch file written by a
// prior scrape. A missing raw file is fatal: there is nothing to verify.
// The verified file is always written, header included, even when nothing
// survives.
func (p *Pipeline) Verify(ctx context.Context) (verify.Stats, error) {
	if err := ctx.Err(); err != nil {
		return verify.Stats{}, eris.Wrap(err, "pipeline: cancelled")
	}

	raw, err := leadio.ReadRaw(p.cfg.Paths.Raw)
	if err != nil {
		if leadio.IsMissing(err) {
			return verify.Stats{}, eris.Wrap(err, "pipeline: no raw batch to verify, run scrape first")
		}
		return verify.Stats{}, err
	}

	v, err := verify.New(p.cfg)
	if err != nil {
		return verify.Stats{}, err
	}
	leads, stats := v.Verify(raw)

	if err := leadio.WriteVerified(p.cfg.Paths.Verified, leads); err != nil {
		return stats, err
	}

	zap.L().Info("pipeline: verification complete",
		zap.Int("input", stats.Input),
		zap.Int("after_dedup", stats.AfterDedup),
		zap.Int("after_email", stats.AfterEmail),
		zap.Int("after_phone", stats.AfterPhone),
		zap.Int("verified", stats.Verified),
	)
	return stats, nil
}

// Run executes the full pipeline under the run lock. At most one run may be
// in flight against the same paths; a second invocation fails immediately
// instead of corrupting the output.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	lockPath := p.cfg.Paths.Lock
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create lock dir for %s", lockPath)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: acquire run lock %s", lockPath)
	}
	if !locked {
		return nil, eris.Errorf("pipeline: another run holds the lock %s", lockPath)
	}
	defer lock.Unlock()

	rec := p.beginRun(ctx)
	res, runErr := p.run(ctx)
	if rec != nil && res != nil {
		res.RunID = rec.ID
	}
	p.finishRun(ctx, rec, res, runErr)
	return res, runErr
}

func (p *Pipeline) run(ctx context.Context) (*RunResult, error) {
	targets := p.ResolveTargets(ctx)
	res := &RunResult{Targets: len(targets)}

	raw, contributing, err := p.acquireAll(ctx, targets)
	if err != nil {
		return res, err
	}

	if err := leadio.WriteRaw(p.cfg.Paths.Raw, raw); err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "pipeline: cancelled before verify")
	}

	v, err := verify.New(p.cfg)
	if err != nil {
		return res, err
	}
	leads, stats := v.Verify(raw)
	res.Stats = stats

	if err := leadio.WriteVerified(p.cfg.Paths.Verified, leads); err != nil {
		return res, err
	}

	// Queue statuses flip only after the verified set is durably persisted,
	// and only for targets that actually contributed.
	res.Completed = p.markComplete(ctx, contributing)

	zap.L().Info("pipeline: run complete",
		zap.Int("targets", res.Targets),
		zap.Int("raw", stats.Input),
		zap.Int("after_dedup", stats.AfterDedup),
		zap.Int("verified", stats.Verified),
		zap.Int("orders_completed", len(res.Completed)),
	)
	return res, nil
}

// acquireAll fans acquisition out across targets and concatenates the
// batches in target order. A failed target contributes nothing and its
// order stays pending; the run fails only when every target failed.
func (p *Pipeline) acquireAll(ctx context.Context, targets []model.ScrapeTarget) ([]model.RawLead, []string, error) {
	batches := make([][]model.RawLead, len(targets))
	// A succeeded target may still have an empty batch, so success is
	// tracked explicitly rather than inferred from batch contents.
	succeeded := make([]bool, len(targets))
	var mu sync.Mutex
	var failures int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(acquireConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			leads, err := p.source.Acquire(gctx, target)
			if err != nil {
				zap.L().Warn("pipeline: target acquisition failed, order stays pending",
					zap.String("niche", target.Niche),
					zap.String("city", target.City),
					zap.String("order_id", target.OrderID),
					zap.Error(err),
				)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			batches[i] = leads
			succeeded[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if len(targets) > 0 && failures == len(targets) {
		return nil, nil, eris.New("pipeline: every target failed acquisition")
	}

	var raw []model.RawLead
	var contributing []string
	for i, target := range targets {
		if !succeeded[i] {
			continue
		}
		raw = append(raw, batches[i]...)
		if target.OrderID != "" {
			contributing = append(contributing, target.OrderID)
		}
	}
	return raw, contributing, nil
}

// markComplete flips contributing orders to SCRAPE_COMPLETE, retrying on
// failure. A final failure is non-fatal: stuck orders are reprocessed next
// run and dedup absorbs the repeated batch.
func (p *Pipeline) markComplete(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	cfg := p.retry
	cfg.OnRetry = resilience.RetryLogger("queue mark complete")
	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return p.queue.MarkComplete(ctx, ids)
	})
	if err != nil {
		zap.L().Warn("pipeline: queue status update failed, orders stay pending",
			zap.Strings("order_ids", ids),
			zap.Error(err),
		)
		return nil
	}
	return ids
}

// beginRun opens a run-history record. Run history is best-effort and never
// blocks the pipeline.
func (p *Pipeline) beginRun(ctx context.Context) *model.RunRecord {
	if p.store == nil {
		return nil
	}
	rec, err := p.store.CreateRun(ctx)
	if err != nil {
		zap.L().Warn("pipeline: run history unavailable", zap.Error(err))
		return nil
	}
	return rec
}

func (p *Pipeline) finishRun(ctx context.Context, rec *model.RunRecord, res *RunResult, runErr error) {
	if rec == nil {
		return
	}

	rec.Status = model.RunStatusComplete
	if runErr != nil {
		rec.Status = model.RunStatusFailed
		rec.Error = runErr.Error()
	}
	if res != nil {
		rec.Targets = res.Targets
		rec.RawCount = res.Stats.Input
		rec.AfterDedup = res.Stats.AfterDedup
		rec.Verified = res.Stats.Verified
	}

	cfg := p.retry
	cfg.OnRetry = resilience.RetryLogger("record run history")
	if err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return p.store.FinishRun(ctx, rec)
	}); err != nil {
		zap.L().Warn("pipeline: recording run history failed", zap.Error(err))
	}
}
