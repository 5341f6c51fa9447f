// Package queue implements the durable order queue: the append-only list of
// customer lead-sourcing requests and their fulfillment status.
//
// Three backends exist: a local CSV file (single-writer), an XLSX
// spreadsheet (shared with an external submission UI), and Postgres (hosted
// form submissions). All of them identify orders by their stable ID, never
// by row position, so an external writer appending a new order between the
// pipeline's read and write cannot be corrupted.
package queue

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadmart/leadgen-cli/internal/config"
	"github.com/leadmart/leadgen-cli/internal/model"
)

// Queue is the order queue contract used by the pipeline and the
// submission server.
type Queue interface {
	// ListPending returns all orders still awaiting a scrape. A missing
	// resource yields an empty list, not an error.
	ListPending(ctx context.Context) ([]model.LeadOrder, error)

	// MarkComplete flips the given orders to SCRAPE_COMPLETE by ID.
	// Unknown IDs are ignored; other rows are left untouched.
	MarkComplete(ctx context.Context, ids []string) error

	// Append adds a new order to the queue.
	Append(ctx context.Context, order model.LeadOrder) error

	Close() error
}

// Open constructs the queue backend selected by configuration.
func Open(ctx context.Context, cfg config.QueueConfig) (Queue, error) {
	switch cfg.Backend {
	case "csv":
		return NewCSV(cfg.Path), nil
	case "xlsx":
		return NewXLSX(cfg.Path, cfg.SheetName), nil
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("queue: unknown backend %q", cfg.Backend)
	}
}
