package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadmart/leadgen-cli/internal/pipeline"
	"github.com/leadmart/leadgen-cli/internal/queue"
	"github.com/leadmart/leadgen-cli/internal/scrape"
	"github.com/leadmart/leadgen-cli/internal/store"
)

func initQueue(ctx context.Context) (queue.Queue, error) {
	return queue.Open(ctx, cfg.Queue)
}

func initStore(ctx context.Context) (store.Store, error) {
	dir := filepath.Dir(cfg.Store.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create store dir %s", dir)
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// pipelineEnv bundles a wired pipeline with the resources it owns.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	queue    queue.Queue
	store    store.Store
}

func (e *pipelineEnv) Close() {
	if e.queue != nil {
		e.queue.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}

// initPipeline wires the pipeline from configuration. Run history is
// best-effort: an unavailable store is logged, not fatal.
func initPipeline(ctx context.Context, withHistory bool) (*pipelineEnv, error) {
	q, err := initQueue(ctx)
	if err != nil {
		return nil, err
	}

	src, err := scrape.NewDirectorySource(cfg.Scraping)
	if err != nil {
		q.Close()
		return nil, err
	}

	var st store.Store
	if withHistory {
		st, err = initStore(ctx)
		if err != nil {
			zap.L().Warn("run history store unavailable", zap.Error(err))
			st = nil
		}
	}

	return &pipelineEnv{
		Pipeline: pipeline.New(cfg, src, q, st),
		queue:    q,
		store:    st,
	}, nil
}
