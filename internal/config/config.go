package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Ledger backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Journal backends.
const (
	JournalJSONL    = "jsonl"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store          string
	StateFile      string
	PGDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Journal        string
	JournalBackend string
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// Load merges .env, config file, environment variables, and flags into
// Config. Environment keys use the AMM_ prefix, e.g. AMM_PG_DSN.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Store:          strings.ToLower(v.GetString("store")),
		StateFile:      v.GetString("state-file"),
		PGDSN:          v.GetString("pg-dsn"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		Journal:        v.GetString("journal"),
		JournalBackend: strings.ToLower(v.GetString("journal-backend")),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and the settings each backend needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreFile:
		if c.StateFile == "" {
			return fmt.Errorf("state-file is required for the file store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.JournalBackend {
	case JournalNone:
	case JournalJSONL:
		if c.Journal == "" {
			return fmt.Errorf("journal path is required for the jsonl journal")
		}
	case JournalPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres journal")
		}
	default:
		return fmt.Errorf("unknown journal backend %q", c.JournalBackend)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative")
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreFile)
	v.SetDefault("state-file", "./data/ledger.json")
	v.SetDefault("redis-db", 0)
	v.SetDefault("journal", "./data/receipts.jsonl")
	v.SetDefault("journal-backend", JournalJSONL)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 50*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
