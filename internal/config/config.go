// Package config загружает настройки сервиса из YAML с подстановкой переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath путь к файлу настроек, если CONFIG_PATH не задан.
const DefaultPath = "configs/config.yaml"

// Драйверы хранилища.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Реализации сервиса приема заявок.
const (
	SubmitterBooking   = "booking"
	SubmitterSimulated = "simulated"
	SubmitterHTTP      = "http"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	HTTP        HTTPConfig        `yaml:"http"`
	Storage     StorageConfig     `yaml:"storage"`
	Redis       RedisConfig       `yaml:"redis"`
	Reservation ReservationConfig `yaml:"reservation"`
	Notify      NotifyConfig      `yaml:"notify"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// CatalogPath YAML с каталогом; пустое значение означает встроенный каталог.
	CatalogPath string `yaml:"catalog_path"`
	Seed        bool   `yaml:"seed"`
}

type RedisConfig struct {
	Address   string        `yaml:"address"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	DialogTTL time.Duration `yaml:"dialog_ttl"`
}

type ReservationConfig struct {
	Submitter      string        `yaml:"submitter"`
	ServiceURL     string        `yaml:"service_url"`
	SimulatedDelay time.Duration `yaml:"simulated_delay"`
	SuccessDisplay time.Duration `yaml:"success_display"`
	FormTTL        time.Duration `yaml:"form_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

type NotifyConfig struct {
	Kafka         KafkaConfig `yaml:"kafka"`
	SES           SESConfig   `yaml:"ses"`
	TelegramChats []int64     `yaml:"telegram_chats"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SESConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	Sender  string `yaml:"sender"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

// Load читает .env (если есть), затем YAML по пути path.
func Load(path string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML после подстановки переменных окружения.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PathFromEnv путь к конфигурации из CONFIG_PATH.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "altomayo"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Redis.DialogTTL <= 0 {
		c.Redis.DialogTTL = 30 * time.Minute
	}
	r := &c.Reservation
	if r.Submitter == "" {
		r.Submitter = SubmitterBooking
	}
	if r.SimulatedDelay <= 0 {
		r.SimulatedDelay = 1500 * time.Millisecond
	}
	if r.SuccessDisplay <= 0 {
		r.SuccessDisplay = 2 * time.Second
	}
	if r.FormTTL <= 0 {
		r.FormTTL = 30 * time.Minute
	}
	if r.SweepInterval <= 0 {
		r.SweepInterval = time.Minute
	}
	if c.Notify.Kafka.Topic == "" {
		c.Notify.Kafka.Topic = "altomayo.reservations"
	}
	if c.Notify.SES.Region == "" {
		c.Notify.SES.Region = "us-west-2"
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn обязателен для драйвера %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("неизвестный драйвер хранилища %q", c.Storage.Driver)
	}

	switch c.Reservation.Submitter {
	case SubmitterBooking, SubmitterSimulated:
	case SubmitterHTTP:
		if c.Reservation.ServiceURL == "" {
			return errors.New("reservation.service_url обязателен для submitter http")
		}
	default:
		return fmt.Errorf("неизвестный submitter %q", c.Reservation.Submitter)
	}

	if c.Notify.Kafka.Enabled && len(c.Notify.Kafka.Brokers) == 0 {
		return errors.New("notify.kafka.brokers не заданы")
	}
	if c.Notify.SES.Enabled && c.Notify.SES.Sender == "" {
		return errors.New("notify.ses.sender не задан")
	}
	return nil
}

// ErrSharedStorageRequired хранилище в памяти видно только одному процессу.
var ErrSharedStorageRequired = errors.New("нужно общее SQL-хранилище (storage.driver postgres или sqlite3): в памяти у каждого процесса свой каталог")

// RequireSharedStorage проверяет, что каталог доступен нескольким процессам.
// Бот и API бронируют одни и те же места.
func (c *Config) RequireSharedStorage() error {
	if c.Storage.Driver == DriverMemory {
		return ErrSharedStorageRequired
	}
	return nil
}
