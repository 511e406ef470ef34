// Command radict loads RADIUS dictionaries, inspects them and encodes
// attributes to wire format.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const usageText = `Usage: %s [flags] <command> [args]

Commands:
  load                      load the dictionaries and print a summary
  dump                      print the dictionary tree
  resolve <name|oid>...     show attribute definitions
  encode [-code C] [-id N]  encode "Name = value" lines from stdin to hex
  send [-code C] [-server A] send "Name = value" lines from stdin to a server
  snapshot write|read <f>   write or read a CBOR dictionary image
  serve [-listen A]         answer requests from local clients
  shell                     interactive prompt

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one radict invocation and returns the exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("radict", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Configuration file path (YAML)")
	dir := fs.String("dir", "", "Dictionary directory (default: built-in dictionaries)")
	file := fs.String("file", "", "Root dictionary file in -dir")
	defs := fs.String("definitions", "", "Comma-separated YAML/JSON definition files")
	snapshot := fs.String("snapshot", "", "CBOR snapshot to start from")
	secret := fs.String("secret", "", "Shared secret")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintf(stderr, usageText, "radict")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Flags override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Dir = *dir
		case "file":
			cfg.File = *file
		case "definitions":
			cfg.Definitions = splitList(*defs)
		case "snapshot":
			cfg.Snapshot = *snapshot
		case "secret":
			cfg.Secret = *secret
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	a := newApp(cfg, stdin, stdout, stderr)

	if err := a.dispatch(fs.Arg(0), fs.Args()[1:]); err != nil {
		a.logger.Errorf("%s: %v", fs.Arg(0), err)
		return 1
	}

	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
