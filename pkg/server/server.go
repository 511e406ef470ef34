// Package server answers RADIUS requests over UDP. Requests are checked
// against the configured clients and their shared secrets before reaching
// the handler; replies are built and signed with the packet encoder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalvas/radwire/pkg/log"
	"github.com/vitalvas/radwire/pkg/packet"
)

// DefaultWorkers is the number of requests processed concurrently
const DefaultWorkers = 16

const attrMessageAuthenticator = 80

var (
	// ErrNoHandler is returned by New without a handler
	ErrNoHandler = errors.New("server needs a handler")

	// ErrUnknownClient is returned for requests from unconfigured addresses
	ErrUnknownClient = errors.New("client not authorized")
)

// Config configures a Server
type Config struct {
	Addr    string
	Clients []Client
	Handler Handler
	Logger  log.Logger

	// Workers bounds concurrent requests; excess requests are dropped
	Workers int

	// RequireMessageAuthenticator drops requests without one
	RequireMessageAuthenticator bool
}

// Server is a RADIUS UDP server
type Server struct {
	addr      string
	clients   []Client
	handler   Handler
	logger    log.Logger
	workers   chan struct{}
	requireMA bool

	mu    sync.RWMutex
	conn  net.PacketConn
	ready chan struct{}
	wg    sync.WaitGroup

	requests atomic.Uint64
	replies  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

// New creates a server from cfg
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, ErrNoHandler
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	s := &Server{
		addr:      cfg.Addr,
		clients:   cfg.Clients,
		handler:   cfg.Handler,
		logger:    logger,
		workers:   make(chan struct{}, workers),
		requireMA: cfg.RequireMessageAuthenticator,
		ready:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		s.workers <- struct{}{}
	}

	return s, nil
}

// ListenAndServe listens on the configured UDP address and serves until
// ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, conn)
}

// Serve processes requests read from conn until ctx is done or the server
// is closed. conn is closed on return.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return errors.New("server already serving")
	}
	s.conn = conn
	close(s.ready)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Infof("UDP listener starting on %s", conn.LocalAddr())

	defer func() {
		s.wg.Wait()
		s.logger.Infof("UDP listener stopped on %s", conn.LocalAddr())
	}()

	buffer := make([]byte, packet.MaxPacketLength)

	for {
		n, clientAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Errorf("Error reading from UDP connection: %v", err)
			continue
		}

		s.requests.Add(1)

		select {
		case <-s.workers:
			s.wg.Add(1)
			go func(data []byte, addr net.Addr, received time.Time) {
				defer s.wg.Done()
				defer func() {
					s.workers <- struct{}{}
				}()

				s.processRequest(ctx, data, addr, received)
			}(append([]byte(nil), buffer[:n]...), clientAddr, time.Now())

		default:
			s.logger.Warnf("No workers available, dropping request from %s", clientAddr)
			s.dropped.Add(1)
		}
	}
}

// Addr blocks until the server is serving and returns its local address
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn.LocalAddr()
}

// Close stops the server
func (s *Server) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Statistics returns a snapshot of the request counters
func (s *Server) Statistics() Statistics {
	return Statistics{
		Requests: s.requests.Load(),
		Replies:  s.replies.Load(),
		Dropped:  s.dropped.Load(),
		Errors:   s.failures.Load(),
	}
}

// processRequest verifies one request, runs the handler and sends the reply
func (s *Server) processRequest(ctx context.Context, data []byte, clientAddr net.Addr, receivedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Panic processing request from %s: %v", clientAddr, r)
			s.failures.Add(1)
		}
	}()

	client, err := s.validateClient(clientAddr)
	if err != nil {
		s.logger.Warnf("Client validation failed for %s: %v", clientAddr, err)
		s.dropped.Add(1)
		return
	}

	secret := []byte(client.Secret)

	h, err := packet.Verify(data, secret, nil, packet.WithRequireMessageAuthenticator(s.requireMA))
	if err != nil {
		s.logger.Warnf("Invalid packet from %s (%s): %v", clientAddr, client.Name, err)
		s.dropped.Add(1)
		return
	}

	if !h.Code.IsRequest() {
		s.logger.Warnf("Ignoring %s from %s", h.Code, clientAddr)
		s.dropped.Add(1)
		return
	}

	req := &Request{
		Context:    ctx,
		LocalAddr:  s.conn.LocalAddr(),
		RemoteAddr: clientAddr,
		Client:     client,
		Header:     h,
		ReceivedAt: receivedAt,
	}

	reply, err := s.handler.ServeRADIUS(req)
	if err != nil {
		s.logger.Errorf("Error handling request from %s: %v", clientAddr, err)
		s.failures.Add(1)
		return
	}
	if reply == nil {
		s.dropped.Add(1)
		return
	}

	if err := s.sendResponse(reply, h, secret, clientAddr); err != nil {
		s.logger.Errorf("Error sending response to %s: %v", clientAddr, err)
		s.failures.Add(1)
		return
	}

	s.replies.Add(1)
	s.logger.Debugf("Processed %s from %s in %v", h.Code, clientAddr, time.Since(receivedAt))
}

// validateClient finds the configured client for a source address
func (s *Server) validateClient(clientAddr net.Addr) (*Client, error) {
	udpAddr, ok := clientAddr.(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unsupported address type: %T", clientAddr)
	}

	ip, ok := netip.AddrFromSlice(udpAddr.IP)
	if !ok {
		return nil, fmt.Errorf("invalid client address %s", udpAddr)
	}

	for i := range s.clients {
		if s.clients[i].matches(ip) {
			return &s.clients[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownClient, ip)
}

// sendResponse encodes reply against the request and writes it
func (s *Server) sendResponse(reply *packet.Packet, req *packet.Header, secret []byte, clientAddr net.Addr) error {
	if reply.Request == nil {
		auth := req.Authenticator
		reply.Request = &auth
	}
	reply.Identifier = req.Identifier

	_, withMA := req.Find(attrMessageAuthenticator)

	data, err := reply.Encode(secret,
		packet.WithLogger(s.logger),
		packet.WithUseMessageAuthenticator(withMA))
	if err != nil {
		return fmt.Errorf("failed to encode response packet: %w", err)
	}

	if _, err := s.conn.WriteTo(data, clientAddr); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}
