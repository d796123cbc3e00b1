package source

import (
	"context"

	"GraphQueryAPI/internal/filter"
)

// Order describes one ordering of a sequence.
type Order struct {
	By   string
	Desc bool
}

// Source is the data source abstraction consumed by the connection builder.
// Filter, Order, Offset and Limit are lazy and composable: each returns a
// refined Source without touching storage. Count and Materialize are the
// terminal operations and may block on I/O; both honor ctx cancellation.
type Source interface {
	Filter(preds []filter.Predicate) Source
	Order(ord Order) Source
	Offset(n uint64) Source
	Limit(n uint64) Source
	Count(ctx context.Context) (uint64, error)
	Materialize(ctx context.Context) ([]map[string]any, error)
}
