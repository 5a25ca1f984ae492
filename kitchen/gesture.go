package kitchen

import (
	"math"
	"sync"
)

// swipe distance that confirms a serve, in px-equivalent units
const ServeThreshold = float64(150)

// called with the order id when a swipe crosses the serve threshold
type GestureCompleteFunction func(orderId string)

type gestureState struct {
	originX  float64
	progress float64
}

// GestureRecognizer converts continuous drag motion on an order card into a
// discrete serve confirmation. One tracked state per order id.
//
// progress is a one-directional ratchet: dragging back left does not reduce
// previously accumulated forward progress. This matches the swipe-to-confirm
// idiom where releasing anywhere past the threshold serves.
type GestureRecognizer struct {
	stateLock sync.Mutex

	// order id -> tracked gesture. Absent means idle.
	states map[string]*gestureState

	complete GestureCompleteFunction
}

func NewGestureRecognizer(complete GestureCompleteFunction) *GestureRecognizer {
	return &GestureRecognizer{
		states:   map[string]*gestureState{},
		complete: complete,
	}
}

// Begin starts tracking a gesture. A new gesture discards any state left
// over from a previous one.
func (self *GestureRecognizer) Begin(orderId string, originX float64) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.states[orderId] = &gestureState{
		originX:  originX,
		progress: 0,
	}
}

// Move advances the gesture. Ignored unless the order is being tracked.
func (self *GestureRecognizer) Move(orderId string, clientX float64) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	state, ok := self.states[orderId]
	if !ok {
		return
	}
	delta := clientX - state.originX
	if 0 < delta {
		state.progress = delta
	}
}

// End finishes the gesture, firing the completion callback exactly once if
// progress crossed the threshold. State always resets to idle.
func (self *GestureRecognizer) End(orderId string) {
	self.stateLock.Lock()
	state, ok := self.states[orderId]
	var progress float64
	if ok {
		progress = state.progress
		delete(self.states, orderId)
	}
	complete := self.complete
	self.stateLock.Unlock()

	if ok && ServeThreshold < progress && complete != nil {
		complete(orderId)
	}
}

// Progress reports accumulated forward progress, 0 when idle.
func (self *GestureRecognizer) Progress(orderId string) float64 {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	state, ok := self.states[orderId]
	if !ok {
		return 0
	}
	return state.progress
}

// SwipeTranslate is the horizontal card offset for the given progress.
// pure, for use by the presentation layer.
func SwipeTranslate(progress float64) float64 {
	if 0 < progress {
		return progress
	}
	return 0
}

// SwipeOpacity fades the card as it travels, never below 0.5.
// pure, for use by the presentation layer.
func SwipeOpacity(progress float64) float64 {
	return math.Max(0.5, 1-progress/400)
}
