package monitor

import "context"

// Handle is an acquired heart rate sensor.
type Handle interface {
	// Name identifies the sensor in logs.
	Name() string

	// Lost is closed when the link to the sensor drops.
	Lost() <-chan struct{}
}

// Gateway is the Bluetooth stack as seen by the Controller.
type Gateway interface {
	// FindSensor locates and connects to a heart rate sensor. It returns an
	// error wrapping ErrSensorNotFound when none is available.
	FindSensor(ctx context.Context) (Handle, error)

	// Subscribe enables Heart Rate Measurement notifications. The callback is
	// invoked once per notification with the raw payload.
	Subscribe(handle Handle, onNotification func(buf []byte)) error

	// Release drops the subscription and the connection. It is safe to call
	// more than once.
	Release(handle Handle) error
}
