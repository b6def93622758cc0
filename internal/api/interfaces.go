package api

import (
	"context"

	"github.com/neexbeast/budgettrip/internal/destination"
)

// DestinationPipeline defines the aggregation the destinations handler needs.
type DestinationPipeline interface {
	Run(ctx context.Context, q destination.BudgetQuery) ([]destination.Record, error)
}

// pinger is satisfied by both cache backends.
type pinger interface {
	Ping(ctx context.Context) error
}
