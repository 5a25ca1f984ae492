package kitchen

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func testOrder(id string, customerName string) Order {
	return Order{
		Id:            id,
		CustomerName:  customerName,
		CustomerPhoto: "photos/" + id + ".jpg",
		Items: []OrderItem{
			{Id: 1, Name: "суп"},
			{Id: 2, Name: "плов"},
		},
		Side: "макароны, рис",
	}
}

func orderIds(orders []Order) []string {
	ids := []string{}
	for _, order := range orders {
		ids = append(ids, order.Id)
	}
	return ids
}

func TestOrderStoreUpsert(t *testing.T) {
	store := NewOrderStore()

	store.Upsert(testOrder("001", "Bekzod Toshpulatov"))
	assert.Equal(t, 1, store.Len())

	// duplicate id is a no-op, the existing entry is kept as is
	duplicate := testOrder("001", "Someone Else")
	store.Upsert(duplicate)
	assert.Equal(t, 1, store.Len())
	order, ok := store.Get("001")
	assert.Equal(t, true, ok)
	assert.Equal(t, "Bekzod Toshpulatov", order.CustomerName)

	// an unseen id becomes the head
	store.Upsert(testOrder("002", "Temur Aliyev"))
	assert.Equal(t, []string{"002", "001"}, orderIds(store.Orders()))
}

func TestOrderStoreUpdate(t *testing.T) {
	store := NewOrderStore()
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
	})

	// replaced in place, position preserved
	updated := testOrder("002", "Temur Aliyev")
	updated.Side = "гречка"
	store.Update(updated)
	assert.Equal(t, []string{"001", "002"}, orderIds(store.Orders()))
	order, ok := store.Get("002")
	assert.Equal(t, true, ok)
	assert.Equal(t, "гречка", order.Side)

	// unknown id is a no-op
	store.Update(testOrder("404", "Nobody"))
	assert.Equal(t, 2, store.Len())
}

func TestOrderStoreRemove(t *testing.T) {
	store := NewOrderStore()
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
	})

	store.Remove("001")
	assert.Equal(t, []string{"002"}, orderIds(store.Orders()))

	// removing an absent id is a no-op
	store.Remove("001")
	store.Remove("404")
	assert.Equal(t, []string{"002"}, orderIds(store.Orders()))
}

func TestOrderStoreHydrateReplacesBeforeStream(t *testing.T) {
	store := NewOrderStore()
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
	})
	store.Hydrate([]Order{
		testOrder("002", "Temur Aliyev"),
		testOrder("003", "Aziza Karimova"),
	})
	assert.Equal(t, []string{"002", "003"}, orderIds(store.Orders()))
}

func TestOrderStoreHydrateDoesNotResurrectRemoved(t *testing.T) {
	store := NewOrderStore()
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
	})

	store.Remove("001")

	// a late snapshot still listing the removed id cannot undo the remove
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
	})
	assert.Equal(t, []string{"002"}, orderIds(store.Orders()))

	// but a fresh stream insert for the same id is a new order
	store.Upsert(testOrder("001", "Bekzod Toshpulatov"))
	assert.Equal(t, []string{"001", "002"}, orderIds(store.Orders()))
}

func TestOrderStoreHydrateFillsAfterStream(t *testing.T) {
	store := NewOrderStore()
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
	})

	store.Upsert(testOrder("003", "Aziza Karimova"))

	// after stream activity the snapshot only fills in what is missing,
	// keeping streamed entries and their order
	store.Hydrate([]Order{
		testOrder("001", "Bekzod Toshpulatov"),
		testOrder("002", "Temur Aliyev"),
		testOrder("004", "Jasur Rashidov"),
	})
	assert.Equal(t, []string{"003", "001", "002", "004"}, orderIds(store.Orders()))
}

func TestOrderStoreMonitor(t *testing.T) {
	store := NewOrderStore()

	notify := store.UpdateMonitor().NotifyChannel()
	store.Upsert(testOrder("001", "Bekzod Toshpulatov"))

	select {
	case <-notify:
	default:
		t.Fatal("expected update notification")
	}
}
