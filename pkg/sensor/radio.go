package sensor

import (
	"tinygo.org/x/bluetooth"
)

// scanResult is the part of an advertisement the Gateway looks at.
type scanResult struct {
	address     bluetooth.Address
	addressText string
	name        string
	rssi        int16
	heartRate   bool
}

// radio is the slice of the Bluetooth stack used by the Gateway.
type radio interface {
	Enable() error
	Scan(onResult func(scanResult)) error
	StopScan() error
	Connect(address bluetooth.Address) (bluetooth.Device, error)
	// Subscribe enables heart rate notifications and returns the function
	// that disables them again.
	Subscribe(device *bluetooth.Device, onNotification func(buf []byte)) (func() error, error)
	Disconnect(device *bluetooth.Device) error
	SetConnectHandler(handler func(address string, connected bool))
}

// adapterRadio is a radio backed by a tinygo bluetooth adapter.
type adapterRadio struct {
	adapter *bluetooth.Adapter
}

func (r adapterRadio) Enable() error {
	return r.adapter.Enable()
}

func (r adapterRadio) Scan(onResult func(scanResult)) error {
	return r.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		onResult(scanResult{
			address:     result.Address,
			addressText: result.Address.String(),
			name:        result.LocalName(),
			rssi:        result.RSSI,
			heartRate:   result.HasServiceUUID(bluetooth.ServiceUUIDHeartRate),
		})
	})
}

func (r adapterRadio) StopScan() error {
	return r.adapter.StopScan()
}

func (r adapterRadio) Connect(address bluetooth.Address) (bluetooth.Device, error) {
	return r.adapter.Connect(address, bluetooth.ConnectionParams{})
}

func (r adapterRadio) Subscribe(device *bluetooth.Device, onNotification func(buf []byte)) (func() error, error) {
	characteristic, err := retrieveDeviceCharacteristic(device,
		bluetooth.ServiceUUIDHeartRate, bluetooth.CharacteristicUUIDHeartRateMeasurement)
	if err != nil {
		return nil, err
	}
	if err := characteristic.EnableNotifications(onNotification); err != nil {
		return nil, err
	}
	return func() error { return characteristic.EnableNotifications(nil) }, nil
}

func (r adapterRadio) Disconnect(device *bluetooth.Device) error {
	return device.Disconnect()
}

// SetConnectHandler installs handler as the adapter connect handler. Only
// some platforms report disconnects through it; the idle watchdog covers
// the others.
func (r adapterRadio) SetConnectHandler(handler func(address string, connected bool)) {
	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		handler(device.Address.String(), connected)
	})
}
