package kitchen

import (
	"encoding/json"
	"fmt"
)

// inbound stream messages are JSON objects discriminated by `type`
const (
	messageTypeNewOrder          = "new_order"
	messageTypeUpdateOrder       = "update_order"
	messageTypeRemoveOrder       = "remove_order"
	messageTypeDeviceConnected   = "device_connected"
	messageTypeDeviceError       = "device_error"
	messageTypeOrderServed       = "order_served"
	messageTypeOrderNotFound     = string(NotificationKindOrderNotFound)
	messageTypeUserNotFound      = string(NotificationKindUserNotFound)
	messageTypeOrderMenuNotFound = string(NotificationKindOrderMenuNotFound)
)

type streamMessage struct {
	Type    string          `json:"type"`
	Order   json.RawMessage `json:"order,omitempty"`
	OrderId string          `json:"orderId,omitempty"`
	Device  *DeviceInfo     `json:"device,omitempty"`
}

type NewOrderEvent struct {
	Order Order
}

type UpdateOrderEvent struct {
	Order Order
}

type RemoveOrderEvent struct {
	OrderId string
}

type DeviceConnectedEvent struct {
	Device DeviceInfo
}

type DeviceErrorEvent struct {
	Device DeviceInfo
}

// an unrecognized order/user alert. The `order` field of these messages
// carries the subject employee, not an Order.
type AlertEvent struct {
	Kind    NotificationKind
	Subject NotificationPayload
}

// decodeStreamMessage parses one inbound message into a typed event.
// a decode error discards only this message, never the session.
func decodeStreamMessage(messageBytes []byte) (any, error) {
	var message streamMessage
	if err := json.Unmarshal(messageBytes, &message); err != nil {
		return nil, err
	}

	switch message.Type {
	case messageTypeNewOrder:
		var order Order
		if err := json.Unmarshal(message.Order, &order); err != nil {
			return nil, err
		}
		return &NewOrderEvent{Order: order}, nil
	case messageTypeUpdateOrder:
		var order Order
		if err := json.Unmarshal(message.Order, &order); err != nil {
			return nil, err
		}
		return &UpdateOrderEvent{Order: order}, nil
	case messageTypeRemoveOrder:
		if message.OrderId == "" {
			return nil, fmt.Errorf("remove_order missing orderId")
		}
		return &RemoveOrderEvent{OrderId: message.OrderId}, nil
	case messageTypeDeviceConnected:
		event := &DeviceConnectedEvent{}
		if message.Device != nil {
			event.Device = *message.Device
		}
		return event, nil
	case messageTypeDeviceError:
		event := &DeviceErrorEvent{}
		if message.Device != nil {
			event.Device = *message.Device
		}
		return event, nil
	case messageTypeOrderNotFound, messageTypeUserNotFound, messageTypeOrderMenuNotFound:
		var subject NotificationPayload
		if err := json.Unmarshal(message.Order, &subject); err != nil {
			return nil, err
		}
		return &AlertEvent{
			Kind:    NotificationKind(message.Type),
			Subject: subject,
		}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", message.Type)
	}
}

// outbound confirmation that an order left the board
type OrderServedMessage struct {
	Type      string `json:"type"`
	OrderId   string `json:"orderId"`
	Timestamp string `json:"timestamp"`
}

func NewOrderServedMessage(orderId string, timestamp string) *OrderServedMessage {
	return &OrderServedMessage{
		Type:      messageTypeOrderServed,
		OrderId:   orderId,
		Timestamp: timestamp,
	}
}
