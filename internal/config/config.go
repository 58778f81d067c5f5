package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
// Env names follow the flag names with dashes replaced by underscores, so
// DATABASE_URL, POLL_INTERVAL_MS, and BATCH_SIZE work unprefixed.
type Config struct {
	DatabaseURL    string
	PollInterval   time.Duration
	BatchSize      int
	Channel        string
	ReconnectDelay time.Duration
	RPCURL         string
	SigDBURL       string
	SigCacheSize   int
	MigrationsPath string
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll-interval-ms", 5000)
	v.SetDefault("batch-size", 100)
	v.SetDefault("channel", "pending_txs")
	v.SetDefault("reconnect-delay", 5*time.Second)
	v.SetDefault("sig-cache-size", 4096)
	v.SetDefault("migrations", "./migrations")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		DatabaseURL:    v.GetString("database-url"),
		PollInterval:   time.Duration(v.GetInt("poll-interval-ms")) * time.Millisecond,
		BatchSize:      v.GetInt("batch-size"),
		Channel:        v.GetString("channel"),
		ReconnectDelay: v.GetDuration("reconnect-delay"),
		RPCURL:         v.GetString("rpc-url"),
		SigDBURL:       v.GetString("sigdb-url"),
		SigCacheSize:   v.GetInt("sig-cache-size"),
		MigrationsPath: v.GetString("migrations"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
