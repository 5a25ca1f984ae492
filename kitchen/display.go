package kitchen

// Logging convention for the kitchen package:
// Info:
//     essential events for abnormal behavior. Silent on normal operation
//     apart from infrequent initialization data.
//     - connectivity errors, dropped sends, parse failures, device faults
// V(1):
//     status transitions and other coarse lifecycle events
// V(2):
//     per-message send/receive traces

import (
	"context"
	"time"

	"github.com/golang/glog"
)

const runQueueSize = 32

// Display is the synchronization core behind a kitchen display: the order
// store fed by a one-shot snapshot and the incremental stream, the alert
// queue, the swipe-to-serve recognizer, and the connection manager.
//
// all mutations of the store, the queue, and the statuses are marshaled onto
// a single run loop goroutine, so callbacks never execute concurrently with
// one another. Reads return copies and are safe from any goroutine.
type Display struct {
	ctx    context.Context
	cancel context.CancelFunc

	api     *KitchenApi
	manager *ConnectionManager

	store         *OrderStore
	notifications *NotificationQueue
	gestures      *GestureRecognizer
	search        *SearchIndex

	runQueue chan func()
}

func NewDisplayWithDefaults(ctx context.Context, apiUrl string, wsUrl string, auth *OperatorAuth) *Display {
	return NewDisplay(ctx, apiUrl, wsUrl, auth, DefaultConnectionManagerSettings())
}

func NewDisplay(
	ctx context.Context,
	apiUrl string,
	wsUrl string,
	auth *OperatorAuth,
	settings *ConnectionManagerSettings,
) *Display {
	cancelCtx, cancel := context.WithCancel(ctx)

	display := &Display{
		ctx:           cancelCtx,
		cancel:        cancel,
		api:           NewKitchenApiWithContext(cancelCtx, apiUrl),
		manager:       NewConnectionManager(cancelCtx, wsUrl, auth, settings),
		store:         NewOrderStore(),
		notifications: NewNotificationQueue(),
		runQueue:      make(chan func(), runQueueSize),
	}
	display.search = NewSearchIndex(display.store)
	display.gestures = NewGestureRecognizer(display.serveFromGesture)

	if auth != nil && auth.ByJwt != "" {
		display.api.SetByJwt(auth.ByJwt)
	}

	display.manager.AddReceiveCallback(display.receive)

	go display.run()

	display.manager.Connect()
	display.Refresh()

	return display
}

func (self *Display) run() {
	for {
		select {
		case <-self.ctx.Done():
			return
		case f := <-self.runQueue:
			f()
		}
	}
}

// post marshals a mutation onto the run loop
func (self *Display) post(f func()) {
	select {
	case <-self.ctx.Done():
	case self.runQueue <- f:
	}
}

// Refresh re-fetches the authoritative snapshot. On failure the current
// collection is left untouched.
func (self *Display) Refresh() {
	self.api.ActiveOrders(NewApiCallback(func(orders []Order, err error) {
		if err != nil {
			glog.Infof("[kd]snapshot error = %s\n", err)
			return
		}
		self.post(func() {
			self.store.Hydrate(orders)
			glog.V(1).Infof("[kd]hydrate %d orders\n", len(orders))
		})
	}))
}

func (self *Display) receive(event any) {
	self.post(func() {
		switch v := event.(type) {
		case *NewOrderEvent:
			self.store.Upsert(v.Order)
		case *UpdateOrderEvent:
			self.store.Update(v.Order)
		case *RemoveOrderEvent:
			self.store.Remove(v.OrderId)
		case *AlertEvent:
			self.notifications.Push(v.Kind, v.Subject.EmpNo, v.Subject)
		}
		// device events are already folded into the manager's device status
	})
}

// Serve marks an order served: removed locally, confirmed to the backend
// when the connection is open. A confirmation during a connection gap is
// dropped by the manager (no outbound queue).
func (self *Display) Serve(orderId string) {
	self.post(func() {
		self.serve(orderId)
	})
}

func (self *Display) serveFromGesture(orderId string) {
	self.post(func() {
		self.serve(orderId)
	})
}

func (self *Display) serve(orderId string) {
	self.store.Remove(orderId)
	message := NewOrderServedMessage(orderId, time.Now().UTC().Format(time.RFC3339))
	self.manager.Send(message)
}

// Dismiss acknowledges one alert.
func (self *Display) Dismiss(notificationId Id) {
	self.post(func() {
		self.notifications.Dismiss(notificationId)
	})
}

func (self *Display) Orders() []Order {
	return self.store.Orders()
}

// Filter returns the active orders whose customer name matches the query
func (self *Display) Filter(query string) []Order {
	return self.search.Filter(query)
}

func (self *Display) Notifications() []Notification {
	return self.notifications.Notifications()
}

func (self *Display) Status() ConnectionStatus {
	return self.manager.Status()
}

func (self *Display) DeviceStatus() DeviceStatus {
	return self.manager.DeviceStatus()
}

func (self *Display) Gestures() *GestureRecognizer {
	return self.gestures
}

func (self *Display) Store() *OrderStore {
	return self.store
}

func (self *Display) NotificationQueue() *NotificationQueue {
	return self.notifications
}

func (self *Display) AddStatusCallback(callback StatusFunction) func() {
	return self.manager.AddStatusCallback(callback)
}

func (self *Display) AddDeviceStatusCallback(callback DeviceStatusFunction) func() {
	return self.manager.AddDeviceStatusCallback(callback)
}

// AddDeviceFaultCallback surfaces a device failure that happened while the
// stream stayed open. Distinct from the dismissible notification queue.
func (self *Display) AddDeviceFaultCallback(callback DeviceFaultFunction) func() {
	return self.manager.AddDeviceFaultCallback(callback)
}

func (self *Display) Close() {
	self.cancel()
	self.manager.Close()
	self.api.Close()
}
