package persistence

import (
	"context"
	"errors"

	"github.com/hxuan190/route-executor/internal/domain"
)

var ErrExecutionNotFound = errors.New("execution not found")

// Journal keeps the latest report per order id.
type Journal interface {
	Record(ctx context.Context, report *domain.Report) error
	Get(ctx context.Context, orderID uint64) (*domain.Report, error)
}

// FailedOrderLister is implemented by journals that can list the order ids
// whose latest report is a failure.
type FailedOrderLister interface {
	FailedOrders(ctx context.Context) ([]uint64, error)
}
