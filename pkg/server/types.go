package server

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/packet"
)

// Client is a NAS allowed to send requests, identified by source address
type Client struct {
	Name string `yaml:"name"`

	// Networks holds addresses or CIDR prefixes
	Networks []string `yaml:"networks"`

	Secret string `yaml:"secret"`
}

// matches reports whether ip belongs to one of the client networks
func (c *Client) matches(ip netip.Addr) bool {
	ip = ip.Unmap()

	for _, network := range c.Networks {
		if isIPInNetwork(ip, network) {
			return true
		}
	}

	return false
}

// isIPInNetwork checks if an IP is in the specified network (IP or CIDR)
func isIPInNetwork(ip netip.Addr, network string) bool {
	if strings.Contains(network, "/") {
		prefix, err := netip.ParsePrefix(network)
		return err == nil && prefix.Contains(ip)
	}

	allowed, err := netip.ParseAddr(network)
	return err == nil && allowed.Unmap() == ip
}

// Request is a received request whose authenticator has been verified
type Request struct {
	Context    context.Context
	LocalAddr  net.Addr
	RemoteAddr net.Addr
	Client     *Client
	Header     *packet.Header
	ReceivedAt time.Time
}

// Code returns the packet code
func (r *Request) Code() packet.Code {
	return r.Header.Code
}

// Reply builds a reply to the request with the given code
func (r *Request) Reply(code packet.Code, pairs ...*encoder.Pair) *packet.Packet {
	auth := r.Header.Authenticator

	p := &packet.Packet{
		Code:       code,
		Identifier: r.Header.Identifier,
		Request:    &auth,
	}
	p.Add(pairs...)

	return p
}

// Ack builds the positive reply for the request code: Access-Accept,
// Accounting-Response, Disconnect-ACK or CoA-ACK
func (r *Request) Ack(pairs ...*encoder.Pair) *packet.Packet {
	codes := r.Header.Code.ExpectedResponseCode()
	if len(codes) == 0 {
		return nil
	}
	return r.Reply(codes[0], pairs...)
}

// Handler answers requests. A nil packet drops the request.
type Handler interface {
	ServeRADIUS(r *Request) (*packet.Packet, error)
}

// HandlerFunc is an adapter to allow use of ordinary functions as RADIUS handlers
type HandlerFunc func(*Request) (*packet.Packet, error)

// ServeRADIUS calls f(r)
func (f HandlerFunc) ServeRADIUS(r *Request) (*packet.Packet, error) {
	return f(r)
}

// Statistics counts requests seen by a server
type Statistics struct {
	Requests uint64
	Replies  uint64
	Dropped  uint64
	Errors   uint64
}
