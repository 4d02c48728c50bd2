package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	SettingsFile string
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	Backend string
}

// RedisConfig with an empty Addr disables Redis; the app then keeps
// visitor sessions in process memory and runs without cache or limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RateLimitConfig struct {
	Registrations int
	Window        time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	backend := stringEnv("STORAGE_BACKEND", BackendMemory)
	if backend != BackendMemory && backend != BackendPostgres {
		return nil, fmt.Errorf("%s: unknown STORAGE_BACKEND %q", op, backend)
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	postgresCfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
	}

	if backend == BackendPostgres {
		if postgresCfg.User == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
		}
		if postgresCfg.Password == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
		}
		if postgresCfg.Name == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
		}
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	rateLimit, err := intEnv("REGISTRATION_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	rateWindow, err := time.ParseDuration(stringEnv("REGISTRATION_RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid REGISTRATION_RATE_WINDOW: %w", op, err)
	}

	return &Config{
		Server: ServerConfig{
			Host: stringEnv("SERVER_HOST", "localhost"),
			Port: serverPort,
		},
		Storage:  StorageConfig{Backend: backend},
		Postgres: postgresCfg,
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			Registrations: rateLimit,
			Window:        rateWindow,
		},
		SettingsFile: os.Getenv("CONFIG_FILE"),
	}, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
