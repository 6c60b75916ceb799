// Package config loads configuration with
// viper.SetConfigName/AddConfigPath for an optional config.yaml, an
// UPTIME_ env prefix with AutomaticEnv, explicit defaults for every
// tunable, then Unmarshal into a typed struct.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Snapshot  SnapshotConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
}

type SchedulerConfig struct {
	WorkerCount    int
	TickLeaseSec   int64
	RollupLeaseSec int64
}

type SnapshotConfig struct {
	MaxAgeSeconds     int64
	RefreshAgeSeconds int64
}

type AdminConfig struct {
	Token string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("UPTIME")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("scheduler.workercount", 5)
	viper.SetDefault("scheduler.tickleasesec", 55)
	viper.SetDefault("scheduler.rollupleasesec", 600)
	viper.SetDefault("snapshot.maxageseconds", 60)
	viper.SetDefault("snapshot.refreshageseconds", 30)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if token := os.Getenv("ADMIN_TOKEN"); token != "" {
		cfg.Admin.Token = token
	}

	return &cfg, nil
}

// TickLease returns the scheduler tick lease as a duration.
func (c *SchedulerConfig) TickLease() time.Duration {
	return time.Duration(c.TickLeaseSec) * time.Second
}
