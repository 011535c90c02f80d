package config

import (
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

type Application struct {
	Name        string        `env:"APP_NAME" envDefault:"uc-points"`
	Environment string        `env:"APP_ENVIRONMENT" envDefault:"development"`
	Port        int           `env:"APP_PORT" envDefault:"9000"`
	Timeout     time.Duration `env:"APP_TIMEOUT" envDefault:"10s"`
	Debug       bool          `env:"APP_DEBUG" envDefault:"false"`
	BaseURL     string        `env:"APP_BASE_URL" envDefault:"http://localhost:9000"`
}

type PostgreSQL struct {
	DSN             string `env:"POSTGRESQL_DSN,required"`
	MaxOpenConns    int    `env:"POSTGRESQL_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int    `env:"POSTGRESQL_MAX_IDLE_CONNS" envDefault:"5"`
	MigrationSource string `env:"POSTGRESQL_MIGRATION_SOURCE" envDefault:"file://migrations"`
}

type Redis struct {
	Address  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Kafka struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS" envDefault:"localhost:9092"`
	SASLUsername     string `env:"KAFKA_SASL_USERNAME"`
	SASLPassword     string `env:"KAFKA_SASL_PASSWORD"`
}

type JWT struct {
	PrivateKey []byte `env:"JWT_PRIVATE_KEY"`
	PublicKey  []byte `env:"JWT_PUBLIC_KEY"`
}

type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:","`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:","`
	ExposedHeaders   []string `env:"CORS_EXPOSED_HEADERS" envSeparator:","`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"300"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
}

type GCP struct {
	ProjectID      string `env:"GCP_PROJECT_ID"`
	ServiceAccount []byte `env:"GCP_SERVICE_ACCOUNT"`
}

// Event holds the scheduling defaults of the status engine.
type Event struct {
	DefaultDurationMinutes int `env:"EVENT_DEFAULT_DURATION_MINUTES" envDefault:"120"`
	SoonWindowDays         int `env:"EVENT_SOON_WINDOW_DAYS" envDefault:"7"`
	CheckInGraceMinutes    int `env:"EVENT_CHECK_IN_GRACE_MINUTES" envDefault:"0"`
}

type Config struct {
	Application Application
	PostgreSQL  PostgreSQL
	Redis       Redis
	Kafka       Kafka
	JWT         JWT
	CORS        CORS
	GCP         GCP
	Event       Event
}

var (
	once sync.Once
	c    *Config
)

func Get() *Config {
	once.Do(func() {
		c = &Config{}
		if err := env.Parse(c); err != nil {
			panic(err)
		}
	})

	return c
}
