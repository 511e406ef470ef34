package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vitalvas/radwire/pkg/dictionary"
	"github.com/vitalvas/radwire/pkg/encoder"
	"github.com/vitalvas/radwire/pkg/packet"
)

const shellHelp = `Commands:
  resolve <name|oid>...   show attribute definitions
  encode <Name = value>   encode one attribute to hex
  dump [name|oid]         print the dictionary tree
  vendors                 list vendors
  help                    show this help
  quit                    leave the shell
`

func (a *app) cmdShell() error {
	if _, err := a.dictionary(); err != nil {
		return err
	}

	cfg := &readline.Config{
		Prompt:          "radict> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(a.stdin),
		Stdout:          a.stdout,
		Stderr:          a.stderr,
	}
	if a.stdin != os.Stdin {
		// Piped input: no raw mode, no line editing
		cfg.FuncIsTerminal = func() bool { return false }
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}

		if a.execLine(line) {
			return nil
		}
	}
}

// execLine runs one shell command and reports whether the shell should exit
func (a *app) execLine(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	var err error

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(a.stdout, shellHelp)
	case "resolve", "r":
		err = a.cmdResolve(strings.Fields(rest))
	case "dump":
		err = a.cmdDump(strings.Fields(rest))
	case "encode", "e":
		err = a.encodeOne(rest)
	case "vendors":
		err = a.listVendors()
	default:
		err = fmt.Errorf("%w: unknown command %q (type 'help')", errUsage, cmd)
	}

	if err != nil {
		fmt.Fprintf(a.stdout, "Error: %v\n", err)
	}

	return false
}

// encodeOne encodes a single pair the way it would appear in an Access-Request
func (a *app) encodeOne(s string) error {
	if s == "" {
		return fmt.Errorf("%w: encode needs 'Name = value'", errUsage)
	}

	d, err := a.dictionary()
	if err != nil {
		return err
	}

	pair, err := parsePair(d, s)
	if err != nil {
		return err
	}

	ctx := &encoder.Context{
		Secret: []byte(a.cfg.Secret),
		Code:   uint8(packet.CodeAccessRequest),
		Logger: a.logger,
	}

	out := make([]byte, packet.MaxPacketLength-packet.HeaderLength)
	cur := encoder.NewCursor([]*encoder.Pair{pair})

	var encoded []byte
	for !cur.Done() {
		n, err := encoder.EncodePair(out, cur, ctx)
		if err != nil {
			return err
		}
		encoded = append(encoded, out[:n]...)
	}

	if len(encoded) == 0 {
		fmt.Fprintln(a.stdout, "(not encoded)")
		return nil
	}

	fmt.Fprintln(a.stdout, hex.EncodeToString(encoded))

	return nil
}

func (a *app) listVendors() error {
	d, err := a.dictionary()
	if err != nil {
		return err
	}

	for _, v := range d.Vendors() {
		fmt.Fprintf(a.stdout, "%-12s %6d  format=%d,%d%s\n", v.Name, v.Number, v.TypeSize, v.Length, continuation(v))
	}

	return nil
}

func continuation(v *dictionary.Vendor) string {
	if v.Continuation {
		return ",c"
	}
	return ""
}
