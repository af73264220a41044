package mqtt

import "errors"

// ErrNotConnected is returned when publishing on a disconnected client.
var ErrNotConnected = errors.New("mqtt client not connected")

// ErrPublishTimeout is returned when the broker does not confirm a publish in time.
var ErrPublishTimeout = errors.New("timeout waiting for publish")
