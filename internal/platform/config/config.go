package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "nicgate/pkg/platform/strings"
)

// Server captures process level configuration for nicgate-server.
type Server struct {
	Addr            string
	LogLevel        string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
	NIC      NICConfig
}

// DatabaseConfig configures the validation record store. An empty URL keeps
// records in memory.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// RedisConfig configures the failed-attempt store. An empty URL keeps
// attempts in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit sink. No brokers means audit events stay
// in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type AuditConfig struct {
	// AsyncBuffer is the audit queue size; 0 publishes synchronously.
	AsyncBuffer int
}

type NICConfig struct {
	DateToleranceDays int
	MaxFailedAttempts int
	AttemptWindow     time.Duration
	LockoutDuration   time.Duration
}

// Load reads an optional .env file, then builds the config from the
// environment. Variables already set in the environment win over the file.
func Load(files ...string) (Server, error) {
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	p := &parser{}

	cfg := Server{
		Addr:            p.str("NICGATE_ADDR", ":8080"),
		LogLevel:        p.str("LOG_LEVEL", "info"),
		AllowedOrigins:  p.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxConns:        int32(p.integer("DATABASE_MAX_CONNS", 10)),
			MinConns:        int32(p.integer("DATABASE_MIN_CONNS", 1)),
			MaxConnLifetime: p.duration("DATABASE_MAX_CONN_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    p.list("KAFKA_BROKERS", nil),
			AuditTopic: p.str("KAFKA_AUDIT_TOPIC", "nicgate.audit"),
		},
		Audit: AuditConfig{
			AsyncBuffer: p.integer("AUDIT_ASYNC_BUFFER", 0),
		},
		NIC: NICConfig{
			DateToleranceDays: p.integer("NIC_DATE_TOLERANCE_DAYS", 1),
			MaxFailedAttempts: p.integer("NIC_MAX_FAILED_ATTEMPTS", 5),
			AttemptWindow:     p.duration("NIC_ATTEMPT_WINDOW", 15*time.Minute),
			LockoutDuration:   p.duration("NIC_LOCKOUT_DURATION", 15*time.Minute),
		},
	}
	if p.err != nil {
		return Server{}, p.err
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch {
	case c.NIC.DateToleranceDays < 0:
		return errors.New("NIC_DATE_TOLERANCE_DAYS must not be negative")
	case c.NIC.MaxFailedAttempts < 0:
		return errors.New("NIC_MAX_FAILED_ATTEMPTS must not be negative")
	case c.NIC.AttemptWindow <= 0:
		return errors.New("NIC_ATTEMPT_WINDOW must be positive")
	case c.NIC.LockoutDuration <= 0:
		return errors.New("NIC_LOCKOUT_DURATION must be positive")
	case c.Audit.AsyncBuffer < 0:
		return errors.New("AUDIT_ASYNC_BUFFER must not be negative")
	}
	return nil
}

// parser keeps the first conversion error so FromEnv reads top to bottom.
type parser struct {
	err error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (p *parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) list(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
