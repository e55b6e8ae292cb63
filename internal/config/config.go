// Package config loads per-service configuration from the environment with
// sensible local-development defaults.
package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Broker struct {
	Host     string `env:"BROKER_HOST" env-default:"localhost"`
	Port     int    `env:"BROKER_PORT" env-default:"5672"`
	User     string `env:"BROKER_USER" env-default:"guest"`
	Password string `env:"BROKER_PASSWORD" env-default:"guest"`
}

type Postgres struct {
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `env:"POSTGRES_PORT" env-default:"5432"`
	User     string `env:"POSTGRES_USER" env-default:"orders"`
	Password string `env:"POSTGRES_PASSWORD" env-default:"orders123"`
	DBName   string `env:"POSTGRES_DB" env-default:"orders"`
}

type Redis struct {
	Host string        `env:"REDIS_HOST" env-default:"localhost"`
	Port int           `env:"REDIS_PORT" env-default:"6379"`
	TTL  time.Duration `env:"REDIS_TTL" env-default:"5m"`
}

// Consul registration is skipped entirely when Host is left empty.
type Consul struct {
	Host string `env:"CONSUL_HOST" env-default:""`
	Port int    `env:"CONSUL_PORT" env-default:"8500"`
}

type OrderService struct {
	Env      string `env:"ENV" env-default:"local"`
	HTTPPort int    `env:"HTTP_PORT" env-default:"8082"`
	Broker   Broker
	Postgres Postgres
	Redis    Redis
	Consul   Consul
}

type PaymentService struct {
	Env             string        `env:"ENV" env-default:"local"`
	Broker          Broker
	ProcessingDelay time.Duration `env:"PAYMENT_PROCESSING_DELAY" env-default:"3s"`
	ShutdownGrace   time.Duration `env:"SHUTDOWN_GRACE" env-default:"10s"`
}

type InventoryService struct {
	Env              string `env:"ENV" env-default:"local"`
	Broker           Broker
	ReservationDelay time.Duration `env:"INVENTORY_RESERVATION_DELAY" env-default:"1s"`
	ShutdownGrace    time.Duration `env:"SHUTDOWN_GRACE" env-default:"10s"`
}

type NotificationService struct {
	Env           string `env:"ENV" env-default:"local"`
	Broker        Broker
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" env-default:"10s"`
}

// MustLoad reads cfg from the environment and aborts startup on failure.
func MustLoad[T any]() *T {
	var cfg T
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}
	return &cfg
}
