// Package sensor connects to heart rate sensors through the tinygo Bluetooth
// stack. Gateway implements monitor.Gateway.
package sensor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/siiimooon/go-hrm/pkg/monitor"
)

// stopScanRetry is how often StopScan is repeated while a scan goroutine has
// not returned. The adapter rejects StopScan until its scan has started.
const stopScanRetry = 50 * time.Millisecond

// Gateway finds, subscribes to and releases heart rate sensors. It installs
// the adapter's connect handler, so use one Gateway per adapter.
type Gateway struct {
	radio radio
	opts  Options
	log   logrus.FieldLogger

	enableMu sync.Mutex
	enabled  bool

	mu      sync.Mutex
	handles map[string]*Handle
}

// New creates a Gateway on the provided adapter, usually
// bluetooth.DefaultAdapter. The adapter is enabled on first use.
func New(adapter *bluetooth.Adapter, opts Options) *Gateway {
	return newGateway(adapterRadio{adapter: adapter}, opts)
}

func newGateway(r radio, opts Options) *Gateway {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	gateway := &Gateway{
		radio:   r,
		opts:    opts,
		log:     logger,
		handles: make(map[string]*Handle),
	}
	r.SetConnectHandler(gateway.onConnectEvent)
	return gateway
}

// FindSensor scans for a matching heart rate sensor and connects to it.
func (receiver *Gateway) FindSensor(ctx context.Context) (monitor.Handle, error) {
	if err := receiver.enable(); err != nil {
		return nil, fmt.Errorf("failed at enabling bluetooth adapter: %w", err)
	}

	result, err := receiver.scan(ctx)
	if err != nil {
		return nil, err
	}

	log := receiver.log.WithFields(logrus.Fields{"address": result.addressText, "name": result.name, "rssi": result.rssi})
	log.Info("connecting to sensor")

	device, err := receiver.radio.Connect(result.address)
	if err != nil {
		return nil, fmt.Errorf("failed at connecting to %s: %w", result.addressText, err)
	}

	handle := newHandle(device, result.addressText, result.name)
	receiver.mu.Lock()
	receiver.handles[result.addressText] = handle
	receiver.mu.Unlock()

	return handle, nil
}

// Subscribe enables Heart Rate Measurement notifications on the sensor and
// starts the idle watchdog, which marks the handle lost when notifications
// stop arriving.
func (receiver *Gateway) Subscribe(h monitor.Handle, onNotification func(buf []byte)) error {
	handle, ok := h.(*Handle)
	if !ok {
		return fmt.Errorf("unsupported handle type %T", h)
	}

	disable, err := receiver.radio.Subscribe(&handle.device, func(buf []byte) {
		handle.touch()
		onNotification(buf)
	})
	if err != nil {
		return fmt.Errorf("failed at enabling notifications: %w", err)
	}
	handle.setDisableNotifications(disable)

	log := receiver.log.WithField("sensor", handle.Name())
	if timeout := receiver.opts.IdleTimeout; timeout > 0 {
		go handle.watch(timeout, func() {
			log.WithField("idle_timeout", timeout).Warn("no notifications from sensor, treating link as lost")
		})
	}

	log.Debug("heart rate notifications enabled")
	return nil
}

// Release disables notifications and disconnects the sensor. Later calls
// for the same handle do nothing.
func (receiver *Gateway) Release(h monitor.Handle) error {
	handle, ok := h.(*Handle)
	if !ok {
		return fmt.Errorf("unsupported handle type %T", h)
	}

	var err error
	handle.releaseOnce.Do(func() {
		receiver.mu.Lock()
		if receiver.handles[handle.address] == handle {
			delete(receiver.handles, handle.address)
		}
		receiver.mu.Unlock()

		if disable := handle.takeDisableNotifications(); disable != nil {
			// The link may already be gone; disconnecting below is what matters.
			_ = disable()
		}
		if disconnectErr := receiver.radio.Disconnect(&handle.device); disconnectErr != nil {
			err = fmt.Errorf("failed at disconnecting %s: %w", handle.Name(), disconnectErr)
		}
		handle.markLost()
	})
	return err
}

func (receiver *Gateway) enable() error {
	receiver.enableMu.Lock()
	defer receiver.enableMu.Unlock()

	if receiver.enabled {
		return nil
	}
	if err := receiver.radio.Enable(); err != nil {
		return err
	}
	receiver.enabled = true
	return nil
}

// scan runs one scan until a matching sensor shows up, the scan timeout
// passes or ctx is done. It does not return before the scan has stopped.
func (receiver *Gateway) scan(ctx context.Context) (scanResult, error) {
	if err := ctx.Err(); err != nil {
		return scanResult{}, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, receiver.opts.ScanTimeout)
	defer cancel()

	found := make(chan scanResult, 1)
	scanDone := make(chan error, 1)

	receiver.log.Debug("scanning for heart rate sensor")
	go func() {
		scanDone <- receiver.radio.Scan(func(result scanResult) {
			if !matches(receiver.opts, result.name, result.addressText, result.heartRate) {
				return
			}
			select {
			case found <- result:
				receiver.radio.StopScan()
			default:
			}
		})
	}()

	select {
	case result := <-found:
		receiver.stopScan(scanDone)
		return result, nil
	case err := <-scanDone:
		select {
		case result := <-found:
			return result, nil
		default:
		}
		if err != nil {
			return scanResult{}, fmt.Errorf("%w: failed at scanning: %w", monitor.ErrSensorNotFound, err)
		}
		return scanResult{}, monitor.ErrSensorNotFound
	case <-scanCtx.Done():
		receiver.stopScan(scanDone)
		select {
		case result := <-found:
			return result, nil
		default:
		}
		if ctx.Err() != nil {
			return scanResult{}, ctx.Err()
		}
		return scanResult{}, fmt.Errorf("%w: nothing matched within %v", monitor.ErrSensorNotFound, receiver.opts.ScanTimeout)
	}
}

// stopScan calls StopScan until the scan goroutine reports back. A StopScan
// issued before the adapter has started scanning is rejected, so a single
// call could leave the scan running.
func (receiver *Gateway) stopScan(scanDone <-chan error) {
	ticker := time.NewTicker(stopScanRetry)
	defer ticker.Stop()

	for {
		receiver.radio.StopScan()
		select {
		case <-scanDone:
			return
		case <-ticker.C:
		}
	}
}

// onConnectEvent marks the handle of a disconnected sensor as lost.
func (receiver *Gateway) onConnectEvent(address string, connected bool) {
	if connected {
		return
	}

	receiver.mu.Lock()
	handle, ok := receiver.handles[address]
	receiver.mu.Unlock()
	if !ok {
		return
	}

	receiver.log.WithField("sensor", handle.Name()).Info("sensor disconnected")
	handle.markLost()
}
