// Package client sends RADIUS requests built with pkg/packet and checks
// the replies.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/vitalvas/radwire/pkg/log"
	"github.com/vitalvas/radwire/pkg/packet"
)

const (
	// DefaultTimeout is how long one attempt waits for a reply
	DefaultTimeout = 3 * time.Second

	// DefaultRetries is the number of UDP retransmissions after the first attempt
	DefaultRetries = 2
)

var (
	// ErrIdentifierMismatch is returned when a reply answers another request
	ErrIdentifierMismatch = errors.New("response identifier mismatch")

	// ErrUnexpectedCode is returned when the reply code does not answer the request code
	ErrUnexpectedCode = errors.New("unexpected response code")
)

// Client exchanges packets with one RADIUS server
type Client struct {
	addr    string
	network string
	secret  []byte
	timeout time.Duration
	retries int
	logger  log.Logger

	useMessageAuth    bool
	verifyMessageAuth bool
}

// Option configures a Client.
type Option func(*Client)

// WithNetwork sets the transport, "udp" (the default) or "tcp" (RFC 6613).
func WithNetwork(network string) Option {
	return func(c *Client) {
		c.network = network
	}
}

// WithTimeout sets the per-attempt timeout for the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how often a UDP request is retransmitted.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUseMessageAuthenticator sets whether to add Message-Authenticator to requests.
func WithUseMessageAuthenticator(b bool) Option {
	return func(c *Client) {
		c.useMessageAuth = b
	}
}

// WithVerifyMessageAuthenticator sets whether replies must carry a Message-Authenticator.
func WithVerifyMessageAuthenticator(b bool) Option {
	return func(c *Client) {
		c.verifyMessageAuth = b
	}
}

// New creates a client for the server at addr
func New(addr string, secret []byte, opts ...Option) *Client {
	c := &Client{
		addr:           addr,
		network:        "udp",
		secret:         secret,
		timeout:        DefaultTimeout,
		retries:        DefaultRetries,
		logger:         log.NewNopLogger(),
		useMessageAuth: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Exchange encodes req, sends it and returns the verified reply. The same
// encoded bytes are retransmitted on UDP timeouts.
func (c *Client) Exchange(ctx context.Context, req *packet.Packet) (*packet.Header, error) {
	data, err := req.Encode(c.secret,
		packet.WithLogger(c.logger),
		packet.WithUseMessageAuthenticator(c.useMessageAuth))
	if err != nil {
		return nil, fmt.Errorf("failed to encode packet: %w", err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, c.network, c.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	attempts := 1
	if c.network == "udp" {
		attempts += c.retries
	}

	var reply []byte
	for i := 0; i < attempts; i++ {
		reply, err = c.attempt(ctx, conn, data)
		if err == nil {
			break
		}

		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debugf("no reply from %s for %s id %d, attempt %d of %d", c.addr, req.Code, req.Identifier, i+1, attempts)
	}
	if err != nil {
		return nil, err
	}

	return c.check(req, reply)
}

func (c *Client) attempt(ctx context.Context, conn net.Conn, data []byte) ([]byte, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write packet: %w", err)
	}

	if c.network != "udp" {
		return readPacket(conn)
	}

	buf := make([]byte, packet.MaxPacketLength)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

// check verifies a reply against the request it answers
func (c *Client) check(req *packet.Packet, data []byte) (*packet.Header, error) {
	h, err := packet.Decode(data)
	if err != nil {
		return nil, err
	}

	// RFC 2865: the identifier matches requests and replies
	if h.Identifier != req.Identifier {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrIdentifierMismatch, req.Identifier, h.Identifier)
	}

	if !slices.Contains(req.Code.ExpectedResponseCode(), h.Code) {
		return nil, fmt.Errorf("%w: %s in reply to %s", ErrUnexpectedCode, h.Code, req.Code)
	}

	request := req.Authenticator
	h, err = packet.Verify(data, c.secret, &request,
		packet.WithRequireMessageAuthenticator(c.verifyMessageAuth))
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("received %s id %d from %s", h.Code, h.Identifier, c.addr)

	return h, nil
}
