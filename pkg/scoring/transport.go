package scoring

import (
	"errors"
	"io"
	"time"
)

// ErrTimeout is returned by Recv when the receive deadline passes without a
// message.
var ErrTimeout = errors.New("receive timeout")

// Socket is a request/reply messaging socket. The concrete transport is
// NNG (mangos) by default or ZeroMQ when built with the zmq tag.
type Socket interface {
	io.Closer
	Send([]byte) error
	Recv() ([]byte, error)
	SetRecvDeadline(d time.Duration) error
	SetSendDeadline(d time.Duration) error
}

// ListenSocket is a socket that binds to an address.
type ListenSocket interface {
	Socket
	Listen(addr string) error
}

// DialSocket is a socket that connects to an address.
type DialSocket interface {
	Socket
	Dial(addr string) error
}

// SocketFactory creates the two ends of the scoring channel.
type SocketFactory interface {
	NewRepSocket() (ListenSocket, error)
	NewReqSocket() (DialSocket, error)
}

// NewSocketFactory returns the factory for a transport name: "nng" or
// "zmq".
func NewSocketFactory(transport string) (SocketFactory, error) {
	switch transport {
	case "", "nng":
		return NewNNGSocketFactory(), nil
	case "zmq":
		return NewZMQSocketFactory()
	default:
		return nil, errors.New("unknown scoring transport " + transport)
	}
}
