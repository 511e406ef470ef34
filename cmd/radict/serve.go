package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/packet"
	"github.com/vitalvas/radwire/pkg/server"
)

const (
	attrUserName       = 1
	attrAcctStatusType = 40
)

func (a *app) cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	listen := fs.String("listen", a.cfg.Server.Listen, "UDP address to listen on")
	reply := fs.String("reply", a.cfg.Server.Reply, "File of reply attributes for Access-Accept")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	a.cfg.Server.Listen = *listen
	a.cfg.Server.Reply = *reply

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := net.ListenPacket("udp", *listen)
	if err != nil {
		return err
	}

	return a.serve(ctx, conn)
}

// serve answers requests on conn until ctx is done
func (a *app) serve(ctx context.Context, conn net.PacketConn) error {
	d, err := a.dictionary()
	if err != nil {
		conn.Close()
		return err
	}

	var pairs []*encoder.Pair
	if a.cfg.Server.Reply != "" {
		f, err := os.Open(a.cfg.Server.Reply)
		if err != nil {
			conn.Close()
			return err
		}
		pairs, err = readPairs(d, f)
		f.Close()
		if err != nil {
			conn.Close()
			return fmt.Errorf("%s: %w", a.cfg.Server.Reply, err)
		}
	}

	clients := a.cfg.Server.Clients
	if len(clients) == 0 {
		clients = []server.Client{{Name: "localhost", Networks: []string{"127.0.0.1", "::1"}, Secret: a.cfg.Secret}}
	}

	s, err := server.New(server.Config{
		Clients: clients,
		Logger:  a.logger,
		Handler: a.responder(d, pairs),
	})
	if err != nil {
		conn.Close()
		return err
	}

	return s.Serve(ctx, conn)
}

// responder accepts every request, adding pairs to Access-Accept
func (a *app) responder(d *dictionary.Dictionary, pairs []*encoder.Pair) server.Handler {
	return server.HandlerFunc(func(r *server.Request) (*packet.Packet, error) {
		switch r.Code() {
		case packet.CodeAccessRequest:
			user := "-"
			if attr, ok := r.Header.Find(attrUserName); ok {
				user = string(attr.Value)
			}
			a.logger.Infof("%s from %s (%s) user %q", r.Code(), r.RemoteAddr, r.Client.Name, user)
			return r.Ack(pairs...), nil

		case packet.CodeAccountingRequest:
			status := "-"
			if attr, ok := r.Header.Find(attrAcctStatusType); ok {
				status = formatAttribute(d, attr)
			}
			a.logger.Infof("%s from %s (%s) %s", r.Code(), r.RemoteAddr, r.Client.Name, status)
			return r.Ack(), nil

		default:
			a.logger.Infof("%s from %s (%s)", r.Code(), r.RemoteAddr, r.Client.Name)
			return r.Ack(), nil
		}
	})
}
