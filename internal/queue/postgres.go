package queue

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the queue uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresQueue is a database-backed order queue for hosted deployments
// where the submission form inserts rows directly.
type PostgresQueue struct {
	pool Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lead_orders (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	niche      TEXT NOT NULL,
	location   TEXT NOT NULL,
	max_count  INTEGER NOT NULL,
	requester  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'PENDING_SCRAPE'
);

CREATE INDEX IF NOT EXISTS idx_lead_orders_status ON lead_orders(status);
`

// NewPostgres connects to the order database and ensures the schema exists.
func NewPostgres(ctx context.Context, connString string) (*PostgresQueue, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "queue: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "queue: ping")
	}
	q := &PostgresQueue{pool: pool}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "queue: migrate")
	}
	return q, nil
}

func (q *PostgresQueue) ListPending(ctx context.Context) ([]model.LeadOrder, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT id, created_at, niche, location, max_count, requester, status
		 FROM lead_orders WHERE status = $1 ORDER BY created_at`,
		string(model.OrderStatusPending),
	)
	if err != nil {
		return nil, eris.Wrap(err, "queue: list pending")
	}
	defer rows.Close()

	var orders []model.LeadOrder
	for rows.Next() {
		var o model.LeadOrder
		var status string
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.Niche, &o.Location, &o.MaxCount, &o.Requester, &status); err != nil {
			return nil, eris.Wrap(err, "queue: scan order")
		}
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "queue: iterate orders")
	}
	return orders, nil
}

func (q *PostgresQueue) MarkComplete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.pool.Exec(ctx,
		`UPDATE lead_orders SET status = $1 WHERE id = ANY($2)`,
		string(model.OrderStatusComplete), ids,
	)
	return eris.Wrap(err, "queue: mark complete")
}

func (q *PostgresQueue) Append(ctx context.Context, order model.LeadOrder) error {
	_, err := q.pool.Exec(ctx,
		`INSERT INTO lead_orders (id, created_at, niche, location, max_count, requester, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.CreatedAt, order.Niche, order.Location, order.MaxCount, order.Requester, string(order.Status),
	)
	return eris.Wrap(err, "queue: append order")
}

func (q *PostgresQueue) Close() error {
	q.pool.Close()
	return nil
}
