package aggregator

import (
	"sync"

	"github.com/hxuan190/route-executor/internal/domain"
)

// inflightOrder is the live state of one Execute call.
type inflightOrder struct {
	state domain.ExecutionState
}

// inflightOrders tracks executions that have not produced a report yet. When
// the same order id is submitted twice concurrently the latest call is shown.
type inflightOrders struct {
	mu     sync.Mutex
	orders map[uint64]*inflightOrder
}

func newInflightOrders() *inflightOrders {
	return &inflightOrders{orders: make(map[uint64]*inflightOrder)}
}

func (o *inflightOrders) begin(orderID uint64) *inflightOrder {
	order := &inflightOrder{state: domain.StatePending}
	o.mu.Lock()
	o.orders[orderID] = order
	o.mu.Unlock()
	return order
}

func (o *inflightOrders) set(order *inflightOrder, state domain.ExecutionState) {
	o.mu.Lock()
	order.state = state
	o.mu.Unlock()
}

// end drops order unless a later call for the same id replaced it.
func (o *inflightOrders) end(orderID uint64, order *inflightOrder) {
	o.mu.Lock()
	if o.orders[orderID] == order {
		delete(o.orders, orderID)
	}
	o.mu.Unlock()
}

func (o *inflightOrders) get(orderID uint64) (domain.ExecutionState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[orderID]
	if !ok {
		return 0, false
	}
	return order.state, true
}
