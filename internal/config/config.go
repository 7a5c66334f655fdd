package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// DatabaseConfig selects the store. Driver is "sqlite" (Path) or "postgres" (DSN).
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Path         string `mapstructure:"path"`
	DSN          string `mapstructure:"dsn"`
	LogMode      bool   `mapstructure:"log_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// LedgerConfig controls the fund-movement operations.
type LedgerConfig struct {
	Isolation                string `mapstructure:"isolation"`
	SolToFCRate              string `mapstructure:"sol_to_fc_rate"`
	USDToFCRate              string `mapstructure:"usd_to_fc_rate"`
	EnforceUniqueTxSignature bool   `mapstructure:"enforce_unique_tx_signature"`
	GuardMilestoneRerelease  bool   `mapstructure:"guard_milestone_rerelease"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = read(path)
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

func read(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. FUNDCHAIN_SERVER_PORT=9000
	v.SetEnvPrefix("FUNDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/fundchain.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "fundchain")
	v.SetDefault("ledger.isolation", "default")
	v.SetDefault("ledger.sol_to_fc_rate", "100")
	v.SetDefault("ledger.usd_to_fc_rate", "1")
	v.SetDefault("ledger.enforce_unique_tx_signature", true)
	v.SetDefault("ledger.guard_milestone_rerelease", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
