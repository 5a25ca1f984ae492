package kitchen

import (
	"strings"

	"golang.org/x/text/cases"
)

// FilterOrders returns the subsequence of orders whose customer name
// contains the query, compared under Unicode case folding (customer names
// may be in non-Latin scripts). An empty or whitespace-only query returns
// the collection unchanged.
func FilterOrders(orders []Order, query string) []Order {
	query = strings.TrimSpace(query)
	if query == "" {
		return orders
	}

	// a Caser cannot be shared across goroutines
	folder := cases.Fold()
	foldedQuery := folder.String(query)

	filtered := []Order{}
	for _, order := range orders {
		if strings.Contains(folder.String(order.CustomerName), foldedQuery) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

// SearchIndex filters the store's current collection by customer name.
// the filter is instant and local, recomputed on demand from the snapshot
// the store already holds. No network round trip, no debounce.
type SearchIndex struct {
	store *OrderStore
}

func NewSearchIndex(store *OrderStore) *SearchIndex {
	return &SearchIndex{
		store: store,
	}
}

func (self *SearchIndex) Filter(query string) []Order {
	return FilterOrders(self.store.Orders(), query)
}
