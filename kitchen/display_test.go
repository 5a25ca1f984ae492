package kitchen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"
)

// a backend serving both the snapshot endpoint and the stream
func newBackend(t *testing.T) (*httptest.Server, string, string, chan *websocket.Conn) {
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 4)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders/active", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		w.Write([]byte(`[
			{"id": "001", "customerName": "Bekzod Toshpulatov", "timestamp": "2025-11-03T08:30:00Z"},
			{"id": "002", "customerName": "Temur Aliyev", "timestamp": "2025-11-03T08:27:00Z"}
		]`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- ws
	})

	server := httptest.NewServer(mux)
	wsUrl := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return server, server.URL, wsUrl, serverConns
}

func TestDisplayEndToEnd(t *testing.T) {
	server, apiUrl, wsUrl, serverConns := newBackend(t)
	defer server.Close()

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display := NewDisplay(cancelCtx, apiUrl, wsUrl, nil, testSettings())
	defer display.Close()

	ws := waitConn(t, serverConns)
	defer ws.Close()

	// snapshot hydrates the store
	waitFor(t, "snapshot", func() bool {
		return display.Store().Len() == 2
	})
	assert.Equal(t, []string{"001", "002"}, orderIds(display.Orders()))
	waitFor(t, "connected", func() bool {
		return display.Status() == ConnectionStatusConnected
	})

	// a streamed order becomes the head
	ws.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "new_order",
		"order": {"id": "003", "customerName": "Aziza Karimova", "timestamp": "2025-11-03T08:31:00Z"}
	}`))
	waitFor(t, "new order", func() bool {
		return display.Store().Len() == 3
	})
	assert.Equal(t, []string{"003", "001", "002"}, orderIds(display.Orders()))

	// serving removes locally and confirms over the open connection
	display.Serve("001")
	ws.SetReadDeadline(time.Now().Add(testTimeout))
	_, messageBytes, err := ws.ReadMessage()
	assert.Equal(t, nil, err)
	served := map[string]any{}
	assert.Equal(t, nil, json.Unmarshal(messageBytes, &served))
	assert.Equal(t, "order_served", served["type"])
	assert.Equal(t, "001", served["orderId"])

	waitFor(t, "order served", func() bool {
		return display.Store().Len() == 2
	})
	assert.Equal(t, []string{"003", "002"}, orderIds(display.Orders()))

	// search filters the current collection by customer name
	assert.Equal(t, []string{"002"}, orderIds(display.Filter("temur")))
	assert.Equal(t, []string{"003", "002"}, orderIds(display.Filter("")))
}

func TestDisplayGestureServe(t *testing.T) {
	server, apiUrl, wsUrl, serverConns := newBackend(t)
	defer server.Close()

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display := NewDisplay(cancelCtx, apiUrl, wsUrl, nil, testSettings())
	defer display.Close()

	ws := waitConn(t, serverConns)
	defer ws.Close()
	waitFor(t, "snapshot", func() bool {
		return display.Store().Len() == 2
	})

	// a swipe past the threshold serves the order
	gestures := display.Gestures()
	gestures.Begin("002", 10)
	gestures.Move("002", 220)
	gestures.End("002")

	waitFor(t, "gesture serve", func() bool {
		return display.Store().Len() == 1
	})
	assert.Equal(t, []string{"001"}, orderIds(display.Orders()))

	ws.SetReadDeadline(time.Now().Add(testTimeout))
	_, messageBytes, err := ws.ReadMessage()
	assert.Equal(t, nil, err)
	served := map[string]any{}
	assert.Equal(t, nil, json.Unmarshal(messageBytes, &served))
	assert.Equal(t, "002", served["orderId"])
}

func TestDisplayAlerts(t *testing.T) {
	server, apiUrl, wsUrl, serverConns := newBackend(t)
	defer server.Close()

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display := NewDisplay(cancelCtx, apiUrl, wsUrl, nil, testSettings())
	defer display.Close()

	ws := waitConn(t, serverConns)
	defer ws.Close()
	waitFor(t, "connected", func() bool {
		return display.Status() == ConnectionStatusConnected
	})

	// repeated alerts for the same employee collapse to one entry
	ws.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "order_not_found",
		"order": {"emp_no": "E42", "emp_name": "Temur Aliyev", "customerPhoto": "photos/e42.jpg"}
	}`))
	ws.WriteMessage(websocket.TextMessage, []byte(`{
		"type": "user_not_found",
		"order": {"emp_no": "E42", "emp_name": "Temur Aliyev", "customerPhoto": "photos/e42.jpg"}
	}`))

	waitFor(t, "alert collapse", func() bool {
		notifications := display.Notifications()
		return len(notifications) == 1 && notifications[0].Kind == NotificationKindUserNotFound
	})

	notifications := display.Notifications()
	assert.Equal(t, "E42", notifications[0].SubjectKey)

	// dismissal is explicit and exact
	display.Dismiss(notifications[0].Id)
	waitFor(t, "dismissed", func() bool {
		return display.NotificationQueue().Len() == 0
	})
}
