package config

import (
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
}

type ServerConfig struct {
	Port string `env:"PORT,required"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	// CORSOrigins is a regexp matched against the Origin header.
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:".*"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type DatabaseConfig struct {
	URI      string `env:"URI,required"`
	Database string `env:"DATABASE" envDefault:"skillswap"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad parses the environment and panics when a required value is
// missing. Startup is the only caller; a half-configured process must
// not come up.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
