package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ledrent/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Sessions    SessionConfig     `yaml:"sessions"`
	Auth        AuthConfig        `yaml:"auth"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Backup      BackupConfig      `yaml:"backup"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Logging     LoggingConfig     `yaml:"logging"`
	Exports     ExportConfig      `yaml:"exports"`
	Company     CompanyConfig     `yaml:"company"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port              int `yaml:"port"`
	ReadHeaderTimeout int `yaml:"read_header_timeout"` // seconds
	WriteTimeout      int `yaml:"write_timeout"`       // seconds
	ShutdownTimeout   int `yaml:"shutdown_timeout"`    // seconds
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	TTL        int    `yaml:"ttl"` // seconds
	CookieName string `yaml:"cookie_name"`
}

type AuthConfig struct {
	BcryptCost      int     `yaml:"bcrypt_cost"`
	LoginRateRPS    float64 `yaml:"login_rate_rps"`
	LoginRateBurst  int     `yaml:"login_rate_burst"`
	BootstrapEmail  string  `yaml:"bootstrap_email"`
	BootstrapSecret string  `yaml:"bootstrap_secret"`
}

type MaintenanceConfig struct {
	Interval int `yaml:"interval"` // seconds, 0 disables the background worker
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// CompanyConfig заполняет реквизиты компании при первом запуске.
type CompanyConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в проде переменные приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Sessions.TTL < 0 {
		return errors.New("session ttl must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = models.DefaultSessionTTL
	}
	if c.Sessions.CookieName == "" {
		c.Sessions.CookieName = models.DefaultSessionCookie
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = models.DefaultBcryptCost
	}
	if c.Auth.LoginRateRPS == 0 {
		c.Auth.LoginRateRPS = models.LoginRateLimitRPS
	}
	if c.Auth.LoginRateBurst == 0 {
		c.Auth.LoginRateBurst = models.LoginRateLimitBurst
	}
	if c.Maintenance.Interval == 0 {
		c.Maintenance.Interval = models.DefaultMaintenanceInterval
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

// SessionTTL возвращает TTL сессии как time.Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTL) * time.Second
}

// MaintenanceInterval возвращает период фонового maintenance.
func (c *Config) MaintenanceInterval() time.Duration {
	return time.Duration(c.Maintenance.Interval) * time.Second
}
