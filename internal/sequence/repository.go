// Package sequence numbers emitted events per partition so consumers can
// detect gaps and reordering.
package sequence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

var ErrEmptyPartition = errors.New("partition key is empty")

// Querier is a pool or a transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Counter keeps one monotonically increasing counter per partition key in
// the event_sequence table.
type Counter struct {
	q Querier
}

func NewCounter(q Querier) *Counter {
	return &Counter{q: q}
}

// Next bumps the partition's counter and returns the new value; an unseen
// partition starts at 1. Concurrent callers serialize on the partition row.
func (c *Counter) Next(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, ErrEmptyPartition
	}
	var n int64
	err := c.q.QueryRow(ctx, `
		INSERT INTO event_sequence AS s (partition_key, last_sequence)
		VALUES ($1, 1)
		ON CONFLICT (partition_key) DO UPDATE
		SET last_sequence = s.last_sequence + 1, updated_at = NOW()
		RETURNING s.last_sequence
	`, partitionKey).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, "next sequence for %s", partitionKey)
	}
	return n, nil
}
