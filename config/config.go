package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	ErrMissingMongoHost   = errors.New("missing MongoDB server in the MONGODB_SERVICE variable")
	ErrMissingPostgresURL = errors.New("missing Postgres connection string in the POSTGRES_URL variable")
	ErrUnknownDriver      = errors.New("unknown store driver")
)

type Config struct {
	Store    StoreConfig    `toml:"store"`
	Mongo    MongoConfig    `toml:"mongo"`
	Postgres PostgresConfig `toml:"postgres"`
	Server   ServerConfig   `toml:"server"`
	Events   EventsConfig   `toml:"events"`
	LogLevel string         `toml:"log_level"`
	SeedFile string         `toml:"seed_file"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
}

type MongoConfig struct {
	Service    string `toml:"service"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	Port       string `toml:"port"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type PostgresConfig struct {
	URL string `toml:"url"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
}

type EventsConfig struct {
	NATSURL     string `toml:"nats_url"`
	NATSSubject string `toml:"nats_subject"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Store:    StoreConfig{Driver: DriverMongo},
		Mongo:    MongoConfig{Database: "songs", Collection: "songs"},
		Server:   ServerConfig{Addr: ":8080", CORSOrigin: "*"},
		Events:   EventsConfig{NATSSubject: "songs"},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional TOML file, a .env file
// and finally the process environment. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Mongo.Service, "MONGODB_SERVICE")
	setString(&c.Mongo.Username, "MONGODB_USERNAME")
	setString(&c.Mongo.Password, "MONGODB_PASSWORD")
	setString(&c.Mongo.Port, "MONGODB_PORT")
	setString(&c.Mongo.Database, "MONGODB_DATABASE")
	setString(&c.Mongo.Collection, "MONGODB_COLLECTION")
	setString(&c.Postgres.URL, "POSTGRES_URL")
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&c.Events.NATSURL, "NATS_URL")
	setString(&c.Events.NATSSubject, "NATS_SUBJECT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.SeedFile, "SEED_FILE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

// Validate reports configuration that makes startup impossible.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.Service == "" {
			return ErrMissingMongoHost
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return ErrMissingPostgresURL
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	return nil
}

// URI assembles the MongoDB connection string. Credentials are only included
// when both username and password are set.
func (m MongoConfig) URI() string {
	host := m.Service
	if m.Port != "" {
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, m.Port)
		}
	}

	u := url.URL{Scheme: "mongodb", Host: host, Path: "/"}
	if m.Username != "" && m.Password != "" {
		u.User = url.UserPassword(m.Username, m.Password)
	}
	return u.String()
}

// Redacted is URI with the password masked, safe for logging.
func (m MongoConfig) Redacted() string {
	if m.Password == "" {
		return m.URI()
	}
	masked := m
	masked.Password = "xxxxx"
	return masked.URI()
}
