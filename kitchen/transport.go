package kitchen

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

type StatusFunction func(status ConnectionStatus)
type DeviceStatusFunction func(status DeviceStatus)
type DeviceFaultFunction func(device DeviceInfo)

// called with one decoded stream event: *NewOrderEvent, *UpdateOrderEvent,
// *RemoveOrderEvent, *DeviceConnectedEvent, *DeviceErrorEvent, *AlertEvent
type ReceiveFunction func(event any)

type ConnectionManagerSettings struct {
	WsHandshakeTimeout time.Duration
	ReconnectTimeout   time.Duration
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
	ReadTimeout        time.Duration
	SendBufferSize     int
}

func DefaultConnectionManagerSettings() *ConnectionManagerSettings {
	return &ConnectionManagerSettings{
		WsHandshakeTimeout: 2 * time.Second,
		// fixed delay, unbounded attempts. The stream source lives on an
		// always-reachable local network.
		ReconnectTimeout: 3 * time.Second,
		PingTimeout:      20 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      60 * time.Second,
		SendBufferSize:   8,
	}
}

// ConnectionManager owns the persistent stream connection: reconnect policy,
// connection and device status, typed inbound dispatch, and outbound sends.
//
// sends are only transmitted while the connection is open. A send during a
// connection gap is dropped, not queued. The drop count is observable so the
// gap is at least visible.
type ConnectionManager struct {
	ctx    context.Context
	cancel context.CancelFunc

	wsUrl string
	auth  *OperatorAuth

	settings *ConnectionManagerSettings

	stateLock    sync.Mutex
	running      bool
	status       ConnectionStatus
	deviceStatus DeviceStatus
	// per-connection outbound channel, nil while disconnected
	send         chan []byte
	droppedSends int

	statusCallbacks       *CallbackList[StatusFunction]
	deviceStatusCallbacks *CallbackList[DeviceStatusFunction]
	deviceFaultCallbacks  *CallbackList[DeviceFaultFunction]
	receiveCallbacks      *CallbackList[ReceiveFunction]
}

func NewConnectionManagerWithDefaults(ctx context.Context, wsUrl string, auth *OperatorAuth) *ConnectionManager {
	return NewConnectionManager(ctx, wsUrl, auth, DefaultConnectionManagerSettings())
}

func NewConnectionManager(
	ctx context.Context,
	wsUrl string,
	auth *OperatorAuth,
	settings *ConnectionManagerSettings,
) *ConnectionManager {
	cancelCtx, cancel := context.WithCancel(ctx)
	return &ConnectionManager{
		ctx:                   cancelCtx,
		cancel:                cancel,
		wsUrl:                 wsUrl,
		auth:                  auth,
		settings:              settings,
		status:                ConnectionStatusDisconnected,
		deviceStatus:          DeviceStatusDisconnected,
		statusCallbacks:       NewCallbackList[StatusFunction](),
		deviceStatusCallbacks: NewCallbackList[DeviceStatusFunction](),
		deviceFaultCallbacks:  NewCallbackList[DeviceFaultFunction](),
		receiveCallbacks:      NewCallbackList[ReceiveFunction](),
	}
}

// Connect starts the connection loop. Safe to call more than once.
func (self *ConnectionManager) Connect() {
	self.stateLock.Lock()
	if self.running {
		self.stateLock.Unlock()
		return
	}
	self.running = true
	self.stateLock.Unlock()

	go self.run()
}

func (self *ConnectionManager) run() {
	defer self.cancel()

	for {
		select {
		case <-self.ctx.Done():
			return
		default:
		}

		// created before the attempt so time spent dialing counts
		// against the delay
		reconnect := newReconnect(self.settings.ReconnectTimeout)

		self.setStatus(ConnectionStatusConnecting)

		dialer := &websocket.Dialer{
			HandshakeTimeout: self.settings.WsHandshakeTimeout,
		}
		var header http.Header
		if self.auth != nil && self.auth.ByJwt != "" {
			header = http.Header{}
			header.Set("Authorization", "Bearer "+self.auth.ByJwt)
		}

		ws, response, err := dialer.DialContext(self.ctx, self.wsUrl, header)
		if response != nil && response.Body != nil {
			response.Body.Close()
		}
		if err != nil {
			glog.Infof("[t]dial error = %s\n", err)
			self.setStatus(ConnectionStatusError)
			self.setStatus(ConnectionStatusDisconnected)
			select {
			case <-self.ctx.Done():
				return
			case <-reconnect.After():
				continue
			}
		}

		self.runConnection(ws)

		// any close, clean or erroring, drives the same schedule.
		// the device cannot be reporting once the transport is down.
		self.setStatus(ConnectionStatusDisconnected)
		self.setDeviceStatus(DeviceStatusDisconnected, DeviceInfo{})

		select {
		case <-self.ctx.Done():
			return
		case <-reconnect.After():
		}
	}
}

func (self *ConnectionManager) runConnection(ws *websocket.Conn) {
	defer ws.Close()

	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	send := make(chan []byte, self.settings.SendBufferSize)

	self.stateLock.Lock()
	self.send = send
	self.stateLock.Unlock()
	defer func() {
		self.stateLock.Lock()
		self.send = nil
		self.stateLock.Unlock()
	}()

	self.setStatus(ConnectionStatusConnected)
	// optimistic default until an explicit device event says otherwise
	self.setDeviceStatus(DeviceStatusConnected, DeviceInfo{})

	if 0 < self.settings.ReadTimeout {
		ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		})
	}

	go func() {
		defer handleCancel()

		for {
			var ping <-chan time.Time
			if 0 < self.settings.PingTimeout {
				ping = time.After(self.settings.PingTimeout)
			}
			select {
			case <-handleCtx.Done():
				return
			case message, ok := <-send:
				if !ok {
					return
				}
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
					// a websocket deadline timeout cannot be recovered
					glog.Infof("[ts]-> error = %s\n", err)
					return
				}
				glog.V(2).Infof("[ts]->\n")
			case <-ping:
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		defer handleCancel()

		for {
			select {
			case <-handleCtx.Done():
				return
			default:
			}

			_, messageBytes, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					self.setStatus(ConnectionStatusError)
				}
				glog.Infof("[tr]<- error = %s\n", err)
				return
			}
			glog.V(2).Infof("[tr]<-\n")
			self.dispatch(messageBytes)
		}
	}()

	select {
	case <-handleCtx.Done():
	}
}

// dispatch decodes one inbound message and fans it out. A malformed message
// is logged and discarded, it never ends the session.
func (self *ConnectionManager) dispatch(messageBytes []byte) {
	event, err := decodeStreamMessage(messageBytes)
	if err != nil {
		glog.Infof("[tr]message parse error = %s\n", err)
		return
	}

	switch v := event.(type) {
	case *DeviceConnectedEvent:
		self.setDeviceStatus(DeviceStatusConnected, v.Device)
	case *DeviceErrorEvent:
		self.setDeviceStatus(DeviceStatusDisconnected, v.Device)
	}

	for _, receive := range self.receiveCallbacks.Get() {
		receive(event)
	}
}

// Send transmits the message only when the connection is currently open.
// otherwise the message is dropped.
func (self *ConnectionManager) Send(message any) bool {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		glog.Infof("[ts]encode error = %s\n", err)
		return false
	}

	self.stateLock.Lock()
	status := self.status
	send := self.send
	self.stateLock.Unlock()

	if status != ConnectionStatusConnected || send == nil {
		self.countDroppedSend()
		glog.Infof("[ts]drop while %s\n", status)
		return false
	}

	select {
	case <-self.ctx.Done():
		return false
	case send <- messageBytes:
		return true
	default:
		self.countDroppedSend()
		glog.Infof("[ts]drop send buffer full\n")
		return false
	}
}

func (self *ConnectionManager) countDroppedSend() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.droppedSends += 1
}

// DroppedSendCount is the number of outbound messages lost to connection
// gaps or backpressure since start.
func (self *ConnectionManager) DroppedSendCount() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.droppedSends
}

func (self *ConnectionManager) setStatus(status ConnectionStatus) {
	self.stateLock.Lock()
	if self.status == status {
		self.stateLock.Unlock()
		return
	}
	self.status = status
	self.stateLock.Unlock()

	glog.V(1).Infof("[t]status %s\n", status)
	for _, callback := range self.statusCallbacks.Get() {
		callback(status)
	}
}

func (self *ConnectionManager) setDeviceStatus(deviceStatus DeviceStatus, device DeviceInfo) {
	self.stateLock.Lock()
	previous := self.deviceStatus
	transportOpen := self.status == ConnectionStatusConnected
	if previous == deviceStatus {
		self.stateLock.Unlock()
		return
	}
	self.deviceStatus = deviceStatus
	self.stateLock.Unlock()

	for _, callback := range self.deviceStatusCallbacks.Get() {
		callback(deviceStatus)
	}

	if previous == DeviceStatusConnected && deviceStatus == DeviceStatusDisconnected && transportOpen {
		// the device failed while the stream stayed healthy. This is a
		// hardware fault that needs an operator, not a data issue.
		glog.Infof("[t]device fault %s %s\n", device.Name, device.Message)
		for _, callback := range self.deviceFaultCallbacks.Get() {
			callback(device)
		}
	}
}

func (self *ConnectionManager) Status() ConnectionStatus {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.status
}

func (self *ConnectionManager) DeviceStatus() DeviceStatus {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.deviceStatus
}

func (self *ConnectionManager) AddStatusCallback(callback StatusFunction) func() {
	return self.statusCallbacks.Add(callback)
}

func (self *ConnectionManager) AddDeviceStatusCallback(callback DeviceStatusFunction) func() {
	return self.deviceStatusCallbacks.Add(callback)
}

func (self *ConnectionManager) AddDeviceFaultCallback(callback DeviceFaultFunction) func() {
	return self.deviceFaultCallbacks.Add(callback)
}

func (self *ConnectionManager) AddReceiveCallback(callback ReceiveFunction) func() {
	return self.receiveCallbacks.Add(callback)
}

func (self *ConnectionManager) Close() {
	self.cancel()
}
