// Package monitor manages the connection lifecycle of a heart rate sensor.
//
// A Controller moves through three states:
//
//	DISCONNECTED -> CONNECTING -> CONNECTED -> DISCONNECTED -> CONNECTING ...
//
// While connecting it asks the Gateway for a sensor and subscribes to its
// Heart Rate Measurement notifications. Failures are retried after a fixed
// delay (5 seconds by default) without limit. The delay is cancellable.
//
// While connected, raw notifications are queued and decoded one at a time in
// arrival order. Decoded readings are passed to the OnReading callback. Empty
// payloads are dropped silently. Other decode errors go to the log and the
// OnDecodeError sink and never end the connection.
//
// When the link drops or Disconnect is called, the sensor handle is released
// once and the controller reconnects. A connection that lasted less than the
// reconnect delay is followed by that delay first.
package monitor
