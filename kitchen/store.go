package kitchen

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OrderStore is the canonical active-order collection, newest known order
// first, at most one entry per order id.
//
// Snapshot hydration and streamed mutations are not ordered relative to each
// other. Once any stream mutation has been observed, `Hydrate` switches from
// wholesale replace to fill-if-absent, and removed ids are tombstoned, so a
// late snapshot can neither drop a streamed order nor resurrect a removed one.
type OrderStore struct {
	stateLock sync.Mutex

	orders     []Order
	orderIndex map[string]int

	// ids removed after stream activity started
	removedIds map[string]bool
	streamed   bool

	update *Monitor
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:     []Order{},
		orderIndex: map[string]int{},
		removedIds: map[string]bool{},
		update:     NewMonitor(),
	}
}

// Hydrate applies the full snapshot, preserving the snapshot's own order.
func (self *OrderStore) Hydrate(orders []Order) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if !self.streamed {
		self.orders = self.orders[:0]
		maps.Clear(self.orderIndex)
		for _, order := range orders {
			if _, ok := self.orderIndex[order.Id]; ok {
				// duplicate id in the snapshot, first wins
				continue
			}
			self.orderIndex[order.Id] = len(self.orders)
			self.orders = append(self.orders, order)
		}
		self.update.NotifyAll()
		return
	}

	// fill-if-absent: streamed entries and their order are kept
	changed := false
	for _, order := range orders {
		if self.removedIds[order.Id] {
			continue
		}
		if _, ok := self.orderIndex[order.Id]; ok {
			continue
		}
		self.orderIndex[order.Id] = len(self.orders)
		self.orders = append(self.orders, order)
		changed = true
	}
	if changed {
		self.update.NotifyAll()
	}
}

// Upsert inserts an unseen order at the head. If the id is already present
// the incoming payload is discarded and the existing entry kept as is.
func (self *OrderStore) Upsert(order Order) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.streamed = true
	delete(self.removedIds, order.Id)

	if _, ok := self.orderIndex[order.Id]; ok {
		return
	}

	self.orders = slices.Insert(self.orders, 0, order)
	for id, i := range self.orderIndex {
		self.orderIndex[id] = i + 1
	}
	self.orderIndex[order.Id] = 0
	self.update.NotifyAll()
}

// Update replaces an existing order in place, preserving its position.
// Updating an absent id is a no-op.
func (self *OrderStore) Update(order Order) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.streamed = true

	i, ok := self.orderIndex[order.Id]
	if !ok {
		return
	}
	self.orders[i] = order
	self.update.NotifyAll()
}

// Remove deletes the order with that id. Removing an absent id is a no-op.
func (self *OrderStore) Remove(orderId string) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.streamed = true
	self.removedIds[orderId] = true

	i, ok := self.orderIndex[orderId]
	if !ok {
		return
	}
	self.orders = slices.Delete(self.orders, i, i+1)
	delete(self.orderIndex, orderId)
	for id, j := range self.orderIndex {
		if i < j {
			self.orderIndex[id] = j - 1
		}
	}
	self.update.NotifyAll()
}

func (self *OrderStore) Get(orderId string) (Order, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	i, ok := self.orderIndex[orderId]
	if !ok {
		return Order{}, false
	}
	return self.orders[i], true
}

func (self *OrderStore) Orders() []Order {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return slices.Clone(self.orders)
}

func (self *OrderStore) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.orders)
}

func (self *OrderStore) UpdateMonitor() *Monitor {
	return self.update
}
