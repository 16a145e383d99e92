package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, e.g. SUPPLYHUB_MYSQL_HOST overrides mysql.host.
const EnvPrefix = "SUPPLYHUB"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Consul   ConsulConfig   `mapstructure:"consul"`
	Mysql    MysqlConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Sentinel SentinelConfig `mapstructure:"sentinel"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
	// SQL controls the gorm logger: silent, error, warn, info.
	SQL string `mapstructure:"sql"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // mysql, memory
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type MysqlConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DbName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP host:port
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	Issuer string        `mapstructure:"issuer"`
}

// RateRule is one sentinel flow rule keyed by resource name.
type RateRule struct {
	Resource  string  `mapstructure:"resource"`
	Threshold float64 `mapstructure:"threshold"` // QPS
}

type SentinelConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	Rules   []RateRule `mapstructure:"rules"`
}

type CatalogConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

type QuotesConfig struct {
	// SweepInterval is how often sent quotes past validUntil are expired; 0 disables the sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AuthConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "storefront")
	v.SetDefault("service.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.sql", "warn")
	v.SetDefault("storage.driver", "mysql")
	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.dbname", "db_storefront")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "storefront.events")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("jwt.issuer", "supplyhub")
	v.SetDefault("sentinel.enabled", true)
	v.SetDefault("catalog.low_stock_threshold", 10)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("quotes.sweep_interval", time.Hour)
}

// LoadConfig 读取配置文件. A missing config.yaml is not an error: defaults
// and SUPPLYHUB_* environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Warn("config file not found, using defaults", "path", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	slog.Info("config loaded", "path", path, "storage", config.Storage.Driver)
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "mysql", "memory":
	default:
		return errors.New("storage.driver must be mysql or memory")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Quotes.SweepInterval < 0 {
		return errors.New("quotes.sweep_interval must not be negative")
	}
	if c.Catalog.LowStockThreshold < 0 {
		return errors.New("catalog.low_stock_threshold must not be negative")
	}
	return nil
}
