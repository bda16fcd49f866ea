package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"votacao/pkg/platform/resilience"
)

// Config is the full process configuration, read from the environment.
// Empty connection strings select the in-memory or disabled variant of the
// corresponding component.
type Config struct {
	Environment string `env:"GO_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server      Server      `envPrefix:"SERVER_"`
	Database    Database    `envPrefix:"DATABASE_"`
	Redis       RedisConfig `envPrefix:"REDIS_"`
	Kafka       Kafka       `envPrefix:"KAFKA_"`
	Eligibility Eligibility `envPrefix:"ELIGIBILITY_"`
	Storage     Storage     `envPrefix:"STORAGE_"`
	RateLimit   RateLimit   `envPrefix:"RATE_LIMIT_"`
	Telemetry   Telemetry   `envPrefix:"OTEL_"`
	Privacy     Privacy     `envPrefix:"PRIVACY_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// ServeMockAuthority mounts the mock eligibility authority on this server.
	ServeMockAuthority bool `env:"MOCK_AUTHORITY" envDefault:"true"`
}

type Database struct {
	URL          string        `env:"URL"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"20"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"votacao.votes"`
}

// Eligibility selects how voter eligibility is decided.
type Eligibility struct {
	// Mode is "lenient" (every well-formed CPF may vote) or "strict".
	Mode string `env:"MODE" envDefault:"lenient"`
	// URL is the authority base; the CPF is appended as the last path segment.
	URL            string        `env:"URL" envDefault:"http://localhost:8080/api/cpf-validation"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	// StrictChecksum makes the mock authority verify CPF check digits.
	StrictChecksum bool   `env:"MOCK_STRICT" envDefault:"false"`
	Resilience     Policy `envPrefix:"RESILIENCE_"`
}

// Storage tunes the resilience pipeline wrapped around durable stores.
type Storage struct {
	Resilience Policy `envPrefix:"RESILIENCE_"`
}

// Policy mirrors resilience.Policy with env bindings.
type Policy struct {
	MaxConcurrent  int           `env:"MAX_CONCURRENT" envDefault:"25"`
	Window         int           `env:"WINDOW" envDefault:"100"`
	MinimumCalls   int           `env:"MINIMUM_CALLS" envDefault:"100"`
	FailureRate    float64       `env:"FAILURE_RATE" envDefault:"50"`
	OpenDuration   time.Duration `env:"OPEN_DURATION" envDefault:"60s"`
	HalfOpenCalls  int           `env:"HALF_OPEN_CALLS" envDefault:"10"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"500ms"`
	MaxBackoff     time.Duration `env:"MAX_BACKOFF" envDefault:"5s"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"1s"`
}

func (p Policy) ToResilience() resilience.Policy {
	return resilience.Policy{
		MaxConcurrent:  p.MaxConcurrent,
		Window:         p.Window,
		MinimumCalls:   p.MinimumCalls,
		FailureRate:    p.FailureRate,
		OpenDuration:   p.OpenDuration,
		HalfOpenCalls:  p.HalfOpenCalls,
		MaxAttempts:    p.MaxAttempts,
		InitialBackoff: p.InitialBackoff,
		MaxBackoff:     p.MaxBackoff,
		Timeout:        p.Timeout,
	}
}

// RateLimit bounds vote submissions per client IP over a sliding window.
type RateLimit struct {
	Disabled bool          `env:"DISABLED" envDefault:"false"`
	Votes    int           `env:"VOTES" envDefault:"50"`
	Window   time.Duration `env:"WINDOW" envDefault:"1s"`
}

type Telemetry struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"votacao"`
}

type Privacy struct {
	// VoterHashKey keys the hash applied to CPFs before they reach logs.
	VoterHashKey string `env:"VOTER_HASH_KEY" envDefault:"dev-voter-hash-key-change-me"`
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// FromEnv loads .env when present, then parses the environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Eligibility.Mode {
	case "lenient", "strict":
	default:
		return fmt.Errorf("invalid ELIGIBILITY_MODE %q: want lenient or strict", c.Eligibility.Mode)
	}
	if c.RateLimit.Votes <= 0 && !c.RateLimit.Disabled {
		return errors.New("RATE_LIMIT_VOTES must be positive")
	}
	return nil
}
