package memory

import (
	"context"
	"sync"

	"github.com/xenking/florist-storefront/internal/domain/order"
)

var _ order.Repository = (*Orders)(nil)

// Orders keeps confirmed orders in memory, keyed by id.
type Orders struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrders returns an empty Orders.
func NewOrders() *Orders {
	return &Orders{orders: make(map[string]order.Order)}
}

func (r *Orders) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	r.orders[o.ID] = *o
	r.mu.Unlock()
	return nil
}

// Get returns the order with id.
func (r *Orders) Get(id string) (order.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	return o, ok
}
