package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

const (
	// DefaultScanTimeout bounds a single scan for a heart rate sensor.
	DefaultScanTimeout = 10 * time.Second

	// DefaultIdleTimeout is how long a subscribed sensor may stay silent
	// before its link is considered lost. Sensors notify about once a second.
	DefaultIdleTimeout = 10 * time.Second
)

// Options selects which sensor the Gateway connects to.
type Options struct {
	// Name matches sensors whose advertised local name contains it
	// (case-insensitive).
	Name string

	// Address matches a sensor by its address. On macOS this is the
	// CoreBluetooth UUID rather than a MAC.
	Address string

	// ScanTimeout bounds each scan. Defaults to DefaultScanTimeout.
	ScanTimeout time.Duration

	// IdleTimeout marks a subscribed sensor as lost when no notification
	// arrives for this long. Zero selects DefaultIdleTimeout, a negative
	// value disables the watchdog.
	IdleTimeout time.Duration

	Logger logrus.FieldLogger
}

// Handle is a connected heart rate sensor.
type Handle struct {
	device  bluetooth.Device
	address string
	name    string

	mu                   sync.Mutex
	disableNotifications func() error

	activity    chan struct{}
	lost        chan struct{}
	lostOnce    sync.Once
	releaseOnce sync.Once
}

func newHandle(device bluetooth.Device, address, name string) *Handle {
	return &Handle{
		device:   device,
		address:  address,
		name:     name,
		activity: make(chan struct{}, 1),
		lost:     make(chan struct{}),
	}
}

// Name returns the advertised name and address of the sensor.
func (receiver *Handle) Name() string {
	if receiver.name == "" {
		return receiver.address
	}
	return fmt.Sprintf("%s (%s)", receiver.name, receiver.address)
}

// Lost is closed when the sensor disconnects, falls silent or the handle is
// released.
func (receiver *Handle) Lost() <-chan struct{} {
	return receiver.lost
}

func (receiver *Handle) markLost() {
	receiver.lostOnce.Do(func() { close(receiver.lost) })
}

// touch records notification activity for the watchdog.
func (receiver *Handle) touch() {
	select {
	case receiver.activity <- struct{}{}:
	default:
	}
}

// watch marks the handle lost when no activity is seen for timeout. It
// returns once the handle is lost.
func (receiver *Handle) watch(timeout time.Duration, onIdle func()) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-receiver.lost:
			return
		case <-receiver.activity:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
		case <-timer.C:
			onIdle()
			receiver.markLost()
			return
		}
	}
}

func (receiver *Handle) setDisableNotifications(disable func() error) {
	receiver.mu.Lock()
	defer receiver.mu.Unlock()
	receiver.disableNotifications = disable
}

func (receiver *Handle) takeDisableNotifications() func() error {
	receiver.mu.Lock()
	defer receiver.mu.Unlock()
	disable := receiver.disableNotifications
	receiver.disableNotifications = nil
	return disable
}
