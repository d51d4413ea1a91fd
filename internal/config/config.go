// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Политики продления подписки.
const (
	RenewalReset  = "reset"
	RenewalExtend = "extend"
)

// Драйверы хранилища и каталога.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Storage         `yaml:"storage"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Mongo           `yaml:"mongo"`
	Catalog         `yaml:"catalog"`
	Ledger          `yaml:"ledger"`
	PayHero         `yaml:"payhero"`
	Alerting        `yaml:"alerting"`
	JWTToken        `yaml:"jwttoken"`
	RateLimit       `yaml:"rate_limit"`
}

// Storage настройки основного хранилища балансов.
type Storage struct {
	Driver                  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой Addr отключает кэш каталога и быструю проверку дублей вебхуков.
type RedisConnection struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
	DedupTTL    time.Duration `yaml:"dedup_ttl" env-default:"72h"`
}

// RabbitMQ настройки очереди уведомлений. Пустой URL: уведомления только в лог.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Mongo настройки альтернативного каталога продуктов.
type Mongo struct {
	MongoURI      string `yaml:"uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"database" env:"MONGO_DATABASE" env-default:"billing"`
}

// Catalog выбор источника каталога и время жизни кэша.
type Catalog struct {
	CatalogDriver string        `yaml:"driver" env:"CATALOG_DRIVER" env-default:"postgres"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// Ledger параметры баланса пользователей.
type Ledger struct {
	StartingBalance     int64  `yaml:"starting_balance" env-default:"20"`
	SubscriptionRenewal string `yaml:"subscription_renewal" env-default:"reset"`
}

// PayHero параметры платёжного шлюза.
type PayHero struct {
	BaseURL         string        `yaml:"base_url" env:"PAYHERO_BASE_URL" env-default:"https://backend.payhero.co.ke/api/v2"`
	BasicAuth       string        `yaml:"basic_auth" env:"PAYHERO_BASIC_AUTH"`
	ChannelID       int           `yaml:"channel_id" env:"PAYHERO_CHANNEL_ID"`
	CallbackURL     string        `yaml:"callback_url" env:"PAYHERO_CALLBACK_URL"`
	WhatsAppSession string        `yaml:"whatsapp_session" env:"PAYHERO_WHATSAPP_SESSION"`
	Provider        string        `yaml:"provider" env-default:"m-pesa"`
	WebhookSecret   string        `yaml:"webhook_secret" env:"PAYHERO_WEBHOOK_SECRET"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env-default:"10s"`
}

// Alerting настройки оповещения оператора. Пустой SMTPHost: только лог.
type Alerting struct {
	SMTPHost      string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort      string `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser      string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass      string `yaml:"smtp_pass" env:"SMTP_PASS"`
	OperatorEmail string `yaml:"operator_email" env:"OPERATOR_EMAIL"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RateLimit ограничение частоты запросов клиентов.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"10"`
	Burst int     `yaml:"burst" env-default:"20"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и проверяет значения.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.StorageConnectionString == "" {
			return fmt.Errorf("storage_connection_string is required for driver %q", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.CatalogDriver {
	case DriverPostgres:
		if c.Storage.Driver != DriverPostgres {
			return fmt.Errorf("catalog driver %q requires postgres storage", DriverPostgres)
		}
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("mongo.uri is required for catalog driver %q", DriverMongo)
		}
	default:
		return fmt.Errorf("unknown catalog driver %q", c.CatalogDriver)
	}

	switch c.SubscriptionRenewal {
	case RenewalReset, RenewalExtend:
	default:
		return fmt.Errorf("unknown subscription_renewal %q", c.SubscriptionRenewal)
	}

	if c.StartingBalance < 0 {
		return fmt.Errorf("starting_balance must not be negative")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  MigrationsPath: %s\n"+
			"Catalog:\n"+
			"  Driver: %s\n"+
			"  CacheTTL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Ledger:\n"+
			"  StartingBalance: %d\n"+
			"  SubscriptionRenewal: %s\n",
		c.Env,
		c.Storage.Driver,
		c.MigrationsPath,
		c.CatalogDriver,
		c.CacheTTL,
		c.Addr,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.StartingBalance,
		c.SubscriptionRenewal,
	)
}
