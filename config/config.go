// Package config loads the YAML configuration shared by the server, client
// and master binaries.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/automoto/voxelfront/shared/netconfig"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every schema or value validation failure.
var ErrInvalid = errors.New("invalid config")

//go:embed schema.json
var schemaJSON string

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Client   ClientConfig   `yaml:"client"`
	Log      LogConfig      `yaml:"log"`
	Master   MasterConfig   `yaml:"master"`
	EventLog EventLogConfig `yaml:"eventlog"`
	Stats    StatsConfig    `yaml:"stats"`
	Observer ObserverConfig `yaml:"observer"`
}

type ServerConfig struct {
	Name          string        `yaml:"name"`
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ProtocolID    uint64        `yaml:"protocol_id"`
	MaxClients    int           `yaml:"max_clients"`
	TickRate      int           `yaml:"tick_rate"`
	ClientTimeout time.Duration `yaml:"client_timeout"`
	// FireRateTolerance scales the weapon fire rate the server enforces, to
	// absorb jitter between client frames and server ticks.
	FireRateTolerance float64 `yaml:"fire_rate_tolerance"`
}

// Addr is the host:port the server binds.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type ClientConfig struct {
	ServerAddr       string  `yaml:"server_addr"`
	AppName          string  `yaml:"app_name"`
	MouseSensitivity float64 `yaml:"mouse_sensitivity"`
	Weapon           string  `yaml:"weapon"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MasterConfig struct {
	// URL of the master server the game server registers with. Empty
	// disables registration.
	URL        string        `yaml:"url"`
	PublicAddr string        `yaml:"public_addr"`
	Listen     string        `yaml:"listen"`
	TTL        time.Duration `yaml:"ttl"`
}

type EventLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type StatsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ObserverConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	EveryTicks int    `yaml:"every_ticks"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:              "voxelfront",
			Host:              netconfig.DefaultHost,
			Port:              netconfig.DefaultPort,
			ProtocolID:        netconfig.ProtocolID,
			MaxClients:        netconfig.MaxClients,
			TickRate:          netconfig.TickRate,
			ClientTimeout:     netconfig.ClientTimeout,
			FireRateTolerance: 0.75,
		},
		Client: ClientConfig{
			ServerAddr:       net.JoinHostPort(netconfig.DefaultHost, strconv.Itoa(netconfig.DefaultPort)),
			AppName:          "voxelfront",
			MouseSensitivity: netconfig.MouseSensitivity,
			Weapon:           "rifle",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Master: MasterConfig{
			Listen: ":8080",
			TTL:    90 * time.Second,
		},
		EventLog: EventLogConfig{Dir: "data/events"},
		Stats:    StatsConfig{Path: "data/stats.db"},
		Observer: ObserverConfig{Addr: "127.0.0.1:8090", EveryTicks: 6},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Parse(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates b against the embedded schema and decodes it into cfg.
func Parse(b []byte, cfg *Config) error {
	if err := validateSchema(b); err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg.Validate()
}

// Validate checks constraints the schema cannot express.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalid)
	}
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("%w: server.tick_rate must be positive", ErrInvalid)
	}
	if c.Server.ClientTimeout <= 0 {
		return fmt.Errorf("%w: server.client_timeout must be positive", ErrInvalid)
	}
	if c.Observer.Enabled && c.Observer.Addr == "" {
		return fmt.Errorf("%w: observer.addr required when enabled", ErrInvalid)
	}
	if c.Stats.Enabled && c.Stats.Path == "" {
		return fmt.Errorf("%w: stats.path required when enabled", ErrInvalid)
	}
	if c.EventLog.Enabled && c.EventLog.Dir == "" {
		return fmt.Errorf("%w: eventlog.dir required when enabled", ErrInvalid)
	}
	return nil
}

func validateSchema(b []byte) error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees json.Number values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
