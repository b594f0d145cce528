package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"

	"github.com/siiimooon/go-hrm/pkg/monitor"
)

var errNotScanning = errors.New("not scanning")

// fakeRadio behaves like an adapter whose scan only accepts StopScan once it
// has actually started.
type fakeRadio struct {
	startDelay time.Duration
	results    []scanResult
	connectErr error

	mu             sync.Mutex
	scanning       bool
	stop           chan struct{}
	scans          int
	disconnects    int
	disables       int
	notify         func([]byte)
	connectHandler func(string, bool)
}

func (f *fakeRadio) Enable() error { return nil }

func (f *fakeRadio) Scan(onResult func(scanResult)) error {
	time.Sleep(f.startDelay)

	f.mu.Lock()
	f.scans++
	f.scanning = true
	stop := make(chan struct{})
	f.stop = stop
	f.mu.Unlock()

	for _, result := range f.results {
		onResult(result)
	}
	<-stop
	return nil
}

func (f *fakeRadio) StopScan() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.scanning {
		return errNotScanning
	}
	f.scanning = false
	close(f.stop)
	return nil
}

func (f *fakeRadio) isScanning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanning
}

func (f *fakeRadio) Connect(bluetooth.Address) (bluetooth.Device, error) {
	return bluetooth.Device{}, f.connectErr
}

func (f *fakeRadio) Subscribe(_ *bluetooth.Device, onNotification func([]byte)) (func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notify = onNotification
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.disables++
		return nil
	}, nil
}

func (f *fakeRadio) Disconnect(*bluetooth.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeRadio) SetConnectHandler(handler func(string, bool)) {
	f.connectHandler = handler
}

func (f *fakeRadio) counts() (scans, disables, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans, f.disables, f.disconnects
}

func (f *fakeRadio) send(buf []byte) {
	f.mu.Lock()
	notify := f.notify
	f.mu.Unlock()
	notify(buf)
}

func polarH10() scanResult {
	return scanResult{addressText: "AA:BB:CC:DD:EE:FF", name: "Polar H10 1234", rssi: -60, heartRate: true}
}

func isLost(handle monitor.Handle) bool {
	select {
	case <-handle.Lost():
		return true
	default:
		return false
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		deviceName   string
		address      string
		hasHeartRate bool
		want         bool
	}{
		{"AnyHeartRateSensor", Options{}, "Polar H10 1234", "AA:BB:CC:DD:EE:FF", true, true},
		{"NoHeartRateService", Options{}, "Speaker", "AA:BB:CC:DD:EE:FF", false, false},
		{"AddressMatch", Options{Address: "aa:bb:cc:dd:ee:ff"}, "", "AA:BB:CC:DD:EE:FF", false, true},
		{"AddressMismatch", Options{Address: "11:22:33:44:55:66"}, "Polar H10", "AA:BB:CC:DD:EE:FF", true, false},
		{"NameSubstring", Options{Name: "polar"}, "Polar H10 1234", "AA:BB:CC:DD:EE:FF", false, true},
		{"NameMismatch", Options{Name: "wahoo"}, "Polar H10 1234", "AA:BB:CC:DD:EE:FF", true, false},
		{"AddressWinsOverName", Options{Name: "polar", Address: "11:22:33:44:55:66"}, "Polar H10", "AA:BB:CC:DD:EE:FF", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(tt.opts, tt.deviceName, tt.address, tt.hasHeartRate))
		})
	}
}

func TestHandle(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		assert.Equal(t, "Polar H10 (AA:BB)", newHandle(bluetooth.Device{}, "AA:BB", "Polar H10").Name())
		assert.Equal(t, "AA:BB", newHandle(bluetooth.Device{}, "AA:BB", "").Name())
	})

	t.Run("LostIsIdempotent", func(t *testing.T) {
		handle := newHandle(bluetooth.Device{}, "AA:BB", "")
		assert.False(t, isLost(handle))

		handle.markLost()
		handle.markLost()

		select {
		case <-handle.Lost():
		case <-time.After(time.Second):
			t.Fatal("handle not marked lost")
		}
	})

	t.Run("WatchMarksSilentHandleLost", func(t *testing.T) {
		handle := newHandle(bluetooth.Device{}, "AA:BB", "")
		idle := make(chan struct{})
		go handle.watch(20*time.Millisecond, func() { close(idle) })

		select {
		case <-handle.Lost():
		case <-time.After(time.Second):
			t.Fatal("silent handle not marked lost")
		}
		<-idle
	})

	t.Run("WatchStopsWhenLost", func(t *testing.T) {
		handle := newHandle(bluetooth.Device{}, "AA:BB", "")
		done := make(chan struct{})
		go func() {
			handle.watch(time.Hour, func() { t.Error("idle reported for a lost handle") })
			close(done)
		}()

		handle.markLost()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("watch did not return")
		}
	})
}

type foreignHandle struct{}

func (foreignHandle) Name() string          { return "foreign" }
func (foreignHandle) Lost() <-chan struct{} { return nil }

func TestGatewayRejectsForeignHandles(t *testing.T) {
	gateway := newGateway(&fakeRadio{}, Options{})
	var _ monitor.Gateway = gateway

	assert.Error(t, gateway.Subscribe(foreignHandle{}, func([]byte) {}))
	assert.Error(t, gateway.Release(foreignHandle{}))
	assert.Equal(t, DefaultScanTimeout, gateway.opts.ScanTimeout)
	assert.Equal(t, DefaultIdleTimeout, gateway.opts.IdleTimeout)
}

func TestGatewayFindSensor(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		radio := &fakeRadio{results: []scanResult{
			{addressText: "11:22:33:44:55:66", name: "Speaker"},
			polarH10(),
		}}
		gateway := newGateway(radio, Options{})

		handle, err := gateway.FindSensor(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Polar H10 1234 (AA:BB:CC:DD:EE:FF)", handle.Name())
		assert.False(t, radio.isScanning())
	})

	t.Run("NothingMatches", func(t *testing.T) {
		radio := &fakeRadio{results: []scanResult{{addressText: "11:22:33:44:55:66", name: "Speaker"}}}
		gateway := newGateway(radio, Options{ScanTimeout: 20 * time.Millisecond})

		_, err := gateway.FindSensor(context.Background())
		assert.ErrorIs(t, err, monitor.ErrSensorNotFound)
		assert.False(t, radio.isScanning())
	})

	t.Run("CancelledBeforeScan", func(t *testing.T) {
		radio := &fakeRadio{results: []scanResult{polarH10()}}
		gateway := newGateway(radio, Options{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := gateway.FindSensor(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		scans, _, _ := radio.counts()
		assert.Zero(t, scans)
	})

	t.Run("TimeoutBeforeScanStarted", func(t *testing.T) {
		radio := &fakeRadio{startDelay: 100 * time.Millisecond}
		gateway := newGateway(radio, Options{ScanTimeout: 10 * time.Millisecond})

		done := make(chan error, 1)
		go func() {
			_, err := gateway.FindSensor(context.Background())
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, monitor.ErrSensorNotFound)
		case <-time.After(2 * time.Second):
			t.Fatal("FindSensor hung on a scan that started late")
		}
		scans, _, _ := radio.counts()
		assert.Equal(t, 1, scans)
		assert.False(t, radio.isScanning())
	})

	t.Run("CancelledWhileScanning", func(t *testing.T) {
		radio := &fakeRadio{}
		gateway := newGateway(radio, Options{})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := gateway.FindSensor(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, radio.isScanning())
	})

	t.Run("ConnectFails", func(t *testing.T) {
		radio := &fakeRadio{results: []scanResult{polarH10()}, connectErr: errors.New("le-connection-abort-by-local")}
		gateway := newGateway(radio, Options{})

		_, err := gateway.FindSensor(context.Background())
		assert.ErrorContains(t, err, "le-connection-abort-by-local")
	})
}

func TestGatewaySubscribeAndRelease(t *testing.T) {
	radio := &fakeRadio{results: []scanResult{polarH10()}}
	gateway := newGateway(radio, Options{IdleTimeout: time.Hour})

	handle, err := gateway.FindSensor(context.Background())
	require.NoError(t, err)

	var got [][]byte
	require.NoError(t, gateway.Subscribe(handle, func(buf []byte) { got = append(got, buf) }))
	radio.send([]byte{0x00, 0x48})
	assert.Equal(t, [][]byte{{0x00, 0x48}}, got)

	require.NoError(t, gateway.Release(handle))
	require.NoError(t, gateway.Release(handle))

	_, disables, disconnects := radio.counts()
	assert.Equal(t, 1, disables)
	assert.Equal(t, 1, disconnects)
	assert.True(t, isLost(handle))
}

func TestGatewayIdleWatchdog(t *testing.T) {
	radio := &fakeRadio{results: []scanResult{polarH10()}}
	gateway := newGateway(radio, Options{IdleTimeout: 50 * time.Millisecond})

	handle, err := gateway.FindSensor(context.Background())
	require.NoError(t, err)
	require.NoError(t, gateway.Subscribe(handle, func([]byte) {}))

	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		radio.send([]byte{0x00, 0x48})
	}
	assert.False(t, isLost(handle), "handle lost while notifications kept arriving")

	select {
	case <-handle.Lost():
	case <-time.After(time.Second):
		t.Fatal("silent sensor not marked lost")
	}
	require.NoError(t, gateway.Release(handle))
}

func TestGatewayWatchdogDisabled(t *testing.T) {
	radio := &fakeRadio{results: []scanResult{polarH10()}}
	gateway := newGateway(radio, Options{IdleTimeout: -1})

	handle, err := gateway.FindSensor(context.Background())
	require.NoError(t, err)
	require.NoError(t, gateway.Subscribe(handle, func([]byte) {}))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, isLost(handle))
	require.NoError(t, gateway.Release(handle))
}

func TestGatewayConnectHandler(t *testing.T) {
	radio := &fakeRadio{results: []scanResult{polarH10()}}
	gateway := newGateway(radio, Options{})

	handle, err := gateway.FindSensor(context.Background())
	require.NoError(t, err)

	radio.connectHandler("11:22:33:44:55:66", false)
	radio.connectHandler("AA:BB:CC:DD:EE:FF", true)
	assert.False(t, isLost(handle))

	radio.connectHandler("AA:BB:CC:DD:EE:FF", false)
	assert.True(t, isLost(handle))
}
