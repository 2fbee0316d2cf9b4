//go:build !zmq
// +build !zmq

package scoring

import "errors"

// NewZMQSocketFactory reports that ZeroMQ support was not compiled in.
// Build with -tags zmq to enable it.
func NewZMQSocketFactory() (SocketFactory, error) {
	return nil, errors.New("zmq transport not available: build with -tags zmq")
}
