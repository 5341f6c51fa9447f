// Package store persists pipeline run history so operators can see what
// each run produced without trawling logs.
package store

import (
	"context"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// Store is the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context) (*model.RunRecord, error)
	FinishRun(ctx context.Context, rec *model.RunRecord) error
	GetRun(ctx context.Context, runID string) (*model.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
