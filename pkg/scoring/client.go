package scoring

import (
	"fmt"
	"time"
)

// Client sends scoring requests over a REQ socket.
type Client struct {
	sock DialSocket
}

// Dial connects a client to a scoring server. timeout bounds each request.
func Dial(factory SocketFactory, addr string, timeout time.Duration) (*Client, error) {
	sock, err := factory.NewReqSocket()
	if err != nil {
		return nil, fmt.Errorf("create request socket: %w", err)
	}
	if err := sock.SetRecvDeadline(timeout); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.SetSendDeadline(timeout); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{sock: sock}, nil
}

// Score asks the server to score feats with policy policyID.
func (c *Client) Score(feats []float64, policyID int) (float64, error) {
	msg, err := EncodeRequest(feats, policyID)
	if err != nil {
		return 0, err
	}
	return c.roundTrip(msg)
}

// Raw sends an arbitrary payload and decodes the reply.
func (c *Client) Raw(msg []byte) (float64, error) {
	return c.roundTrip(msg)
}

func (c *Client) roundTrip(msg []byte) (float64, error) {
	if err := c.sock.Send(msg); err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	reply, err := c.sock.Recv()
	if err != nil {
		return 0, fmt.Errorf("receive reply: %w", err)
	}
	return DecodeReply(reply)
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.sock.Close()
}
