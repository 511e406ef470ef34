package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/radwire/pkg/server"
)

// Config holds the radict configuration. Flags override file values.
type Config struct {
	// Dir and File name a FreeRADIUS style dictionary tree. When Dir is
	// empty the built-in dictionaries are used.
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`

	// Protocol names the dictionary root
	Protocol string `yaml:"protocol"`

	// Definitions are YAML or JSON definition files merged after loading
	Definitions []string `yaml:"definitions"`

	// Snapshot is a CBOR dictionary image used instead of loading when it exists
	Snapshot string `yaml:"snapshot"`

	Secret   string `yaml:"secret"`
	LogLevel string `yaml:"log_level"`

	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

// ClientConfig configures the send command
type ClientConfig struct {
	Server  string        `yaml:"server"`
	Network string        `yaml:"network"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// ServerConfig configures the serve command
type ServerConfig struct {
	Listen string `yaml:"listen"`

	// Clients default to the loopback addresses with the top level secret
	Clients []server.Client `yaml:"clients"`

	// Reply names a file of "Name = value" lines sent in every Access-Accept
	Reply string `yaml:"reply"`
}

func defaultConfig() *Config {
	return &Config{
		File:     "dictionary",
		Protocol: "RADIUS",
		Secret:   "testing123",
		LogLevel: "info",
		Client: ClientConfig{
			Network: "udp",
			Timeout: 3 * time.Second,
			Retries: 2,
		},
		Server: ServerConfig{
			Listen: ":1812",
		},
	}
}

// loadConfig reads a YAML config file over the defaults
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}
