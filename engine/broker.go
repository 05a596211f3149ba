package engine

import "time"

type (
	// Broker carries messages between the application and the engine. The
	// application sends the messages in messages.go to ToEngine; the engine
	// drains ToEngine at the start of every rendered block, so graph
	// mutations never interleave with processing. Alerts and instrument
	// change requests flow back on ToApp.
	//
	// Both channels are buffered; use TrySend to send without blocking the
	// audio goroutine.
	Broker struct {
		ToEngine chan any
		ToApp    chan any
	}
)

const brokerCapacity = 1024

func NewBroker() *Broker {
	return &Broker{
		ToEngine: make(chan any, brokerCapacity),
		ToApp:    make(chan any, brokerCapacity),
	}
}

// TrySend sends v to c if c is not full. It never blocks. Returns true if the
// value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from c, or t has elapsed. ok
// is false on timeout or if c is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
