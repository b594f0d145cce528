package sensor

import (
	"fmt"
	"strings"

	"tinygo.org/x/bluetooth"
)

// retrieveDeviceCharacteristic retrieves a device characteristic from a service.
func retrieveDeviceCharacteristic(device *bluetooth.Device, service, characteristic bluetooth.UUID) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{service})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("failed at discovering service %s: %w", service.String(), err)
	}
	for _, service := range services {
		characteristics, err := service.DiscoverCharacteristics([]bluetooth.UUID{characteristic})
		if err != nil {
			return bluetooth.DeviceCharacteristic{}, fmt.Errorf("failed at discovering device characteristic %s: %w", characteristic.String(), err)
		}
		for _, characteristic := range characteristics {
			return characteristic, nil
		}
	}
	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("device characteristic %s not found", characteristic.String())
}

// matches reports whether a scan result is the sensor selected by opts. An
// address filter wins over a name filter. Without filters any device
// advertising the Heart Rate service matches.
func matches(opts Options, name, address string, hasHeartRate bool) bool {
	switch {
	case opts.Address != "":
		return strings.EqualFold(address, opts.Address)
	case opts.Name != "":
		return strings.Contains(strings.ToLower(name), strings.ToLower(opts.Name))
	default:
		return hasHeartRate
	}
}
