package aggregator

import (
	"container/list"
	"sync"

	"github.com/hxuan190/route-executor/internal/domain"
)

const defaultOrderCacheSize = 10000

// reportCache is a bounded LRU of the latest report per order id. It sits in
// front of the journal so duplicate checks on recent orders stay in memory.
type reportCache struct {
	mu      sync.Mutex
	entries map[uint64]*list.Element
	lru     *list.List
	maxSize int
}

func newReportCache(maxSize int) *reportCache {
	if maxSize <= 0 {
		maxSize = defaultOrderCacheSize
	}
	return &reportCache{
		entries: make(map[uint64]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

func (c *reportCache) Get(orderID uint64) (*domain.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[orderID]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*domain.Report), true
}

func (c *reportCache) Set(report *domain.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[report.OrderID]; ok {
		elem.Value = report
		c.lru.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.lru.Remove(back)
		delete(c.entries, back.Value.(*domain.Report).OrderID)
	}
	c.entries[report.OrderID] = c.lru.PushFront(report)
}

func (c *reportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
