package config

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Server is the configuration of the game server process.
type Server struct {
	Addr         string `env:"MARANZA_ADDR" envDefault:":8080"`
	RPCSocket    string `env:"MARANZA_RPC_SOCKET" envDefault:"/tmp/maranzalife.sock"`
	DBDialect    string `env:"MARANZA_DB_DIALECT" envDefault:"sqlite"`
	DBPath       string `env:"MARANZA_DB_PATH" envDefault:"maranzalife.db"`
	DBDSN        string `env:"MARANZA_DB_DSN"`
	DemoEmail    string `env:"MARANZA_DEMO_EMAIL" envDefault:"demo@maranzalife.local"`
	DemoPassword string `env:"MARANZA_DEMO_PASSWORD" envDefault:"demo"`
	AllowGuest   bool   `env:"MARANZA_ALLOW_GUEST" envDefault:"true"`
	Seed         int64  `env:"MARANZA_SEED" envDefault:"0"`
	OTelEndpoint string `env:"MARANZA_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"MARANZA_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the server configuration and checks the dialect settings.
func Load() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c *Server) Validate() error {
	c.DBDialect = strings.ToLower(strings.TrimSpace(c.DBDialect))
	switch c.DBDialect {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("MARANZA_DB_PATH is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("MARANZA_DB_DIALECT=postgres requires MARANZA_DB_DSN")
		}
	default:
		return fmt.Errorf("unsupported MARANZA_DB_DIALECT %q", c.DBDialect)
	}
	return nil
}

// DSN returns the data source for the configured dialect.
func (c Server) DSN() string {
	if c.DBDialect == "postgres" {
		return c.DBDSN
	}
	return c.DBPath
}

// ResolveSeed returns the configured resolver seed, drawing one from
// crypto/rand when it is zero.
func (c Server) ResolveSeed() (int64, error) {
	if c.Seed != 0 {
		return c.Seed, nil
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
