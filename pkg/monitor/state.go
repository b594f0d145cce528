package monitor

// State represents the connection state of a Controller.
type State uint8

const (
	// StateDisconnected indicates no sensor handle is held.
	StateDisconnected State = iota

	// StateConnecting indicates the controller is looking for a sensor or
	// waiting to retry.
	StateConnecting

	// StateConnected indicates an active notification subscription.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}
