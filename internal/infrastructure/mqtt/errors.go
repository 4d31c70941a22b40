package mqtt

import "errors"

// Broker errors. Failures wrap the paho cause, so check them with errors.Is.
var (
	// ErrNotConnected means the broker link is down; the bridge retries on reconnect.
	ErrNotConnected = errors.New("mqtt: broker link down")

	// ErrConnectionFailed wraps the reason the first connect attempt failed.
	ErrConnectionFailed = errors.New("mqtt: broker connect failed")

	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS rejects a QoS outside 0-2.
	ErrInvalidQoS = errors.New("mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic rejects an empty topic or filter.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
