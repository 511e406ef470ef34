package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/vitalvas/radwire/pkg/client"
	"github.com/vitalvas/radwire/pkg/crypto"
	"github.com/vitalvas/radwire/pkg/dictionaries"
	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/log"
	"github.com/vitalvas/radwire/pkg/packet"
	"github.com/vitalvas/radwire/pkg/value"
)

var (
	errUsage    = errors.New("invalid arguments")
	errRejected = errors.New("request rejected")
)

type app struct {
	cfg    *Config
	logger *log.DefaultLogger
	dict   *dictionary.Dictionary

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(cfg *Config, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		cfg:    cfg,
		logger: log.NewLoggerWithOutput(stderr, cfg.LogLevel),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "load":
		return a.cmdLoad()
	case "dump":
		return a.cmdDump(args)
	case "resolve":
		return a.cmdResolve(args)
	case "encode":
		return a.cmdEncode(args)
	case "send":
		return a.cmdSend(args)
	case "snapshot":
		return a.cmdSnapshot(args)
	case "serve":
		return a.cmdServe(args)
	case "shell":
		return a.cmdShell()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// dictionary loads the configured dictionary once
func (a *app) dictionary() (*dictionary.Dictionary, error) {
	if a.dict != nil {
		return a.dict, nil
	}

	opts := []dictionary.Option{dictionary.WithLogger(a.logger)}

	d, err := a.restore(opts)
	if err != nil {
		return nil, err
	}

	if d == nil {
		if a.cfg.Dir != "" {
			a.logger.Infof("loading %s from %s", a.cfg.File, a.cfg.Dir)
			d, err = dictionary.Load(a.cfg.Dir, a.cfg.File, a.cfg.Protocol, opts...)
		} else {
			a.logger.Debugf("loading built-in dictionaries")
			d, err = dictionaries.NewDefault(opts...)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(a.cfg.Definitions) > 0 {
		src := &dictionary.FileSource{Paths: a.cfg.Definitions}
		def, err := src.Load(context.Background())
		if err != nil {
			return nil, err
		}
		if err := d.AddDefinition(def); err != nil {
			return nil, err
		}
		a.logger.Infof("merged %d definition files", len(a.cfg.Definitions))
	}

	a.dict = d

	return d, nil
}

// restore reads the configured snapshot, returning nil when there is none
func (a *app) restore(opts []dictionary.Option) (*dictionary.Dictionary, error) {
	if a.cfg.Snapshot == "" {
		return nil, nil
	}

	f, err := os.Open(a.cfg.Snapshot)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Debugf("snapshot %s does not exist", a.cfg.Snapshot)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := dictionary.ReadSnapshot(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", a.cfg.Snapshot, err)
	}

	a.logger.Infof("restored dictionary %s from %s", d.ID, a.cfg.Snapshot)

	return d, nil
}

func (a *app) cmdLoad() error {
	d, err := a.dictionary()
	if err != nil {
		return err
	}

	a.printSummary(d)

	return nil
}

func (a *app) printSummary(d *dictionary.Dictionary) {
	attrs := 0
	d.Walk(func(*dictionary.Attribute) bool {
		attrs++
		return true
	})

	fmt.Fprintf(a.stdout, "Protocol:   %s\n", d.Root().Name)
	fmt.Fprintf(a.stdout, "ID:         %s\n", d.ID)
	fmt.Fprintf(a.stdout, "Vendors:    %d\n", len(d.Vendors()))
	fmt.Fprintf(a.stdout, "Attributes: %d\n", attrs)
	fmt.Fprintf(a.stdout, "Pending:    %d\n", d.PendingFixups())
}

func (a *app) cmdDump(args []string) error {
	d, err := a.dictionary()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return d.Dump(a.stdout)
	}

	for _, name := range args {
		attr, err := resolve(d, name)
		if err != nil {
			return err
		}
		if err := dictionary.Dump(a.stdout, attr); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) cmdResolve(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: resolve needs an attribute name or OID", errUsage)
	}

	d, err := a.dictionary()
	if err != nil {
		return err
	}

	for _, name := range args {
		attr, err := resolve(d, name)
		if err != nil {
			return err
		}
		a.printAttribute(d, attr)
	}

	return nil
}

// resolve finds an attribute by name or OID, falling back to an unknown
// attribute for Attr-N style names
func resolve(d *dictionary.Dictionary, name string) (*dictionary.Attribute, error) {
	if attr, ok := d.AttrByName(name); ok {
		return attr, nil
	}

	if attr, ok := d.AttrByOID(nil, name); ok {
		return attr, nil
	}

	return d.UnknownFromOID(nil, name)
}

func (a *app) printAttribute(d *dictionary.Dictionary, attr *dictionary.Attribute) {
	fmt.Fprintf(a.stdout, "%s\n", attr.Name)
	fmt.Fprintf(a.stdout, "\tOID:    %s\n", dictionary.PrintOID(nil, attr))
	if attr.Vendor != 0 {
		vendor := strconv.FormatUint(uint64(attr.Vendor), 10)
		if v, ok := d.VendorByNumber(attr.Vendor); ok {
			vendor = fmt.Sprintf("%s (%d)", v.Name, v.Number)
		}
		fmt.Fprintf(a.stdout, "\tVendor: %s\n", vendor)
	}
	fmt.Fprintf(a.stdout, "\tType:   %s\n", attr.Type)
	if flags := attr.Flags.String(); flags != "" {
		fmt.Fprintf(a.stdout, "\tFlags:  %s\n", flags)
	}
	if attr.Parent != nil && !attr.Parent.IsRoot() {
		fmt.Fprintf(a.stdout, "\tParent: %s\n", attr.Parent.Name)
	}
	for _, e := range d.Enums(attr) {
		fmt.Fprintf(a.stdout, "\tVALUE   %s = %d\n", e.Name, e.Value)
	}
}

// readPairs parses "Name = value" lines. Blank lines and # comments are skipped.
func readPairs(d *dictionary.Dictionary, r io.Reader) ([]*encoder.Pair, error) {
	var pairs []*encoder.Pair

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pair, err := parsePair(d, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		pairs = append(pairs, pair)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return pairs, nil
}

// parsePair parses one "Name = value" item; the value may be quoted
func parsePair(d *dictionary.Dictionary, s string) (*encoder.Pair, error) {
	name, text, ok := strings.Cut(s, "=")
	if !ok {
		return nil, fmt.Errorf("%w: %q (expected 'Name = value')", errUsage, strings.TrimSpace(s))
	}

	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)

	var quote byte
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') && text[len(text)-1] == text[0] {
		quote = text[0]
		text = text[1 : len(text)-1]
	}

	return encoder.ParsePair(d, name, text, quote)
}

func (a *app) packetFlags(name string) (*flag.FlagSet, *string, *uint) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	code := fs.String("code", "Access-Request", "Packet code, by name or number")
	id := fs.Uint("id", 0, "Packet identifier")

	return fs, code, id
}

func (a *app) cmdEncode(args []string) error {
	fs, codeName, id := a.packetFlags("encode")
	attrsOnly := fs.Bool("attrs", false, "Print only the encoded attributes")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	code, err := packet.ParseCode(*codeName)
	if err != nil {
		return err
	}

	d, err := a.dictionary()
	if err != nil {
		return err
	}

	pairs, err := readPairs(d, a.stdin)
	if err != nil {
		return err
	}

	p := packet.New(code, uint8(*id))
	p.Add(pairs...)

	if code.IsResponse() {
		// Replies are keyed by a request; encode against an all-zero one
		p.Request = new(crypto.Authenticator)
	}

	data, err := p.Encode([]byte(a.cfg.Secret), packet.WithLogger(a.logger))
	if err != nil {
		return err
	}

	if *attrsOnly {
		data = data[packet.HeaderLength:]
	}

	fmt.Fprintln(a.stdout, hex.EncodeToString(data))

	return nil
}

// defaultPort returns the IANA port for the packet code
func defaultPort(code packet.Code) string {
	switch code {
	case packet.CodeAccountingRequest:
		return "1813"
	case packet.CodeCoARequest, packet.CodeDisconnectRequest:
		return "3799"
	default:
		return "1812"
	}
}

func (a *app) cmdSend(args []string) error {
	fs, codeName, id := a.packetFlags("send")
	server := fs.String("server", a.cfg.Client.Server, "RADIUS server address (host[:port])")
	network := fs.String("network", a.cfg.Client.Network, "Transport: udp or tcp")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if *server == "" {
		return fmt.Errorf("%w: -server is required", errUsage)
	}

	code, err := packet.ParseCode(*codeName)
	if err != nil {
		return err
	}
	if !code.IsRequest() {
		return fmt.Errorf("%w: %s is not a request", errUsage, code)
	}

	addr := *server
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultPort(code))
	}

	d, err := a.dictionary()
	if err != nil {
		return err
	}

	pairs, err := readPairs(d, a.stdin)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no attributes provided", errUsage)
	}

	p := packet.New(code, uint8(*id))
	p.Add(pairs...)

	c := client.New(addr, []byte(a.cfg.Secret),
		client.WithNetwork(*network),
		client.WithTimeout(a.cfg.Client.Timeout),
		client.WithRetries(a.cfg.Client.Retries),
		client.WithLogger(a.logger))

	a.logger.Infof("sending %s id %d to %s", code, p.Identifier, addr)

	h, err := c.Exchange(context.Background(), p)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Received %s\n", h.Code)
	for _, attr := range h.Attributes {
		fmt.Fprintf(a.stdout, "\t%s\n", formatAttribute(d, attr))
	}

	switch h.Code {
	case packet.CodeAccessReject, packet.CodeDisconnectNAK, packet.CodeCoANak:
		return fmt.Errorf("%w: %s", errRejected, h.Code)
	}

	return nil
}

// formatAttribute prints a top-level attribute of a reply
func formatAttribute(d *dictionary.Dictionary, attr packet.Attribute) string {
	da, ok := d.AttrByNumber(0, uint32(attr.Type))
	if !ok || da.Type.IsStructural() {
		name := fmt.Sprintf("Attr-%d", attr.Type)
		if ok {
			name = da.Name
		}
		return fmt.Sprintf("%s = 0x%s", name, hex.EncodeToString(attr.Value))
	}

	data := attr.Value
	if da.Flags.HasTag && len(data) > 0 {
		switch {
		case da.Type == dictionary.TypeInteger:
			// The tag replaces the high octet
			data = append([]byte{0}, data[1:]...)
		case data[0] <= encoder.MaxTag:
			data = data[1:]
		}
	}

	v, err := value.FromWire(da.Type, data)
	if err != nil {
		return fmt.Sprintf("%s = 0x%s", da.Name, hex.EncodeToString(attr.Value))
	}

	return fmt.Sprintf("%s = %s", da.Name, v.Print(value.Enums(d, da), '"'))
}

func (a *app) cmdSnapshot(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: snapshot write|read <file>", errUsage)
	}

	switch args[0] {
	case "write":
		d, err := a.dictionary()
		if err != nil {
			return err
		}

		f, err := os.Create(args[1])
		if err != nil {
			return err
		}

		if err := d.WriteSnapshot(f); err != nil {
			f.Close()
			return err
		}

		if err := f.Close(); err != nil {
			return err
		}

		a.logger.Infof("wrote snapshot of %s to %s", d.ID, args[1])
		return nil

	case "read":
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		d, err := dictionary.ReadSnapshot(f, dictionary.WithLogger(a.logger))
		if err != nil {
			return err
		}

		a.printSummary(d)
		return nil

	default:
		return fmt.Errorf("%w: unknown snapshot action %q", errUsage, args[0])
	}
}
