package kitchen

import (
	"time"
)

// a kitchen ticket awaiting fulfillment. Orders are immutable once present in
// the store; an `update_order` stream event replaces the whole value.
type Order struct {
	Id            string      `json:"id"`
	CustomerName  string      `json:"customerName"`
	CustomerPhoto string      `json:"customerPhoto"`
	Items         []OrderItem `json:"items"`
	Side          string      `json:"side"`
	Timestamp     time.Time   `json:"timestamp"`
}

// item sequence order is display order
type OrderItem struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type ConnectionStatus string

const (
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusConnecting   ConnectionStatus = "connecting"
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusError        ConnectionStatus = "error"
)

// status of the face-recognition input device, reported over the stream.
// forced to disconnected whenever the transport itself closes.
type DeviceStatus string

const (
	DeviceStatusConnected    DeviceStatus = "connected"
	DeviceStatusDisconnected DeviceStatus = "disconnected"
)

type DeviceInfo struct {
	DeviceId string `json:"device_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message,omitempty"`
}

type NotificationKind string

const (
	NotificationKindOrderNotFound     NotificationKind = "order_not_found"
	NotificationKindUserNotFound      NotificationKind = "user_not_found"
	NotificationKindOrderMenuNotFound NotificationKind = "order_menu_not_found"
)

// the unrecognized employee/user an alert concerns
type NotificationPayload struct {
	EmpNo         string `json:"emp_no"`
	EmpName       string `json:"emp_name"`
	CustomerPhoto string `json:"customerPhoto"`
}

type Notification struct {
	Id         Id
	Kind       NotificationKind
	SubjectKey string
	Payload    NotificationPayload
	CreatedAt  time.Time
}
