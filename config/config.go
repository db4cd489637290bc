package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Ton      TonConfig      `mapstructure:"ton"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig configures validation of admin bearer tokens. Token issuance
// is handled by the external auth service.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// FeesConfig holds the platform fee constants, denominated in TON.
type FeesConfig struct {
	DepositFee     string `mapstructure:"deposit_fee"`     // flat service fee booked per deposit
	NetworkReserve string `mapstructure:"network_reserve"` // held back from the on-chain balance for the transfer fee
}

// DepositFeeDecimal parses the deposit fee; zero on malformed input.
func (f FeesConfig) DepositFeeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(f.DepositFee)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NetworkReserveDecimal parses the network fee reserve; zero on malformed input.
func (f FeesConfig) NetworkReserveDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(f.NetworkReserve)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// TonConfig holds endpoints and credentials for the TON collaborators.
type TonConfig struct {
	APIURL         string        `mapstructure:"api_url"` // blockchain data provider
	APIKey         string        `mapstructure:"api_key"`
	WebhookAPIURL  string        `mapstructure:"webhook_api_url"` // notification subscription registry
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ForecastConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DispatchConfig bounds outbound merchant webhook deliveries.
type DispatchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"` // per-delivery deadline
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: TPG_ (TON Payment Gateway).
// Nested keys use underscore: TPG_DATABASE_HOST, TPG_FEES_DEPOSIT_FEE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "ton_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "ton-payment-gateway")
	v.SetDefault("fees.deposit_fee", "0.01")
	v.SetDefault("fees.network_reserve", "0.05")
	v.SetDefault("ton.api_url", "https://tonapi.io")
	v.SetDefault("ton.api_key", "")
	v.SetDefault("ton.webhook_api_url", "https://rt.tonapi.io")
	v.SetDefault("ton.request_timeout", "15s")
	v.SetDefault("forecast.url", "")
	v.SetDefault("forecast.request_timeout", "30s")
	v.SetDefault("dispatch.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: TPG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("TPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
