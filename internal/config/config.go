package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Auction  AuctionConfig  `mapstructure:"auction"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Collab   CollabConfig   `mapstructure:"collab"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuctionConfig struct {
	AntiSnipeWindow time.Duration `mapstructure:"anti_snipe_window"`
	MaxExtensions   int           `mapstructure:"max_extensions"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	ActorIdleTTL    time.Duration `mapstructure:"actor_idle_ttl"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout"`
	VersionRetries  int           `mapstructure:"version_retries"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type CollabConfig struct {
	OrderServiceURL   string `mapstructure:"order_service_url"`
	ProductServiceURL string `mapstructure:"product_service_url"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("auction.anti_snipe_window", 2*time.Minute)
	viper.SetDefault("auction.max_extensions", 10)
	viper.SetDefault("auction.sweep_interval", 15*time.Second)
	viper.SetDefault("auction.actor_idle_ttl", 5*time.Minute)
	viper.SetDefault("auction.submit_timeout", 3*time.Second)
	viper.SetDefault("auction.version_retries", 3)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("collab.order_service_url", "http://localhost:8081")
	viper.SetDefault("collab.product_service_url", "http://localhost:8082")
	viper.SetDefault("instance.id", "auction-engine-1")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-engine/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("auction.anti_snipe_window", "AUCTION_ANTI_SNIPE_WINDOW")
	viper.BindEnv("auction.max_extensions", "AUCTION_MAX_EXTENSIONS")
	viper.BindEnv("auction.sweep_interval", "AUCTION_SWEEP_INTERVAL")
	viper.BindEnv("auction.actor_idle_ttl", "AUCTION_ACTOR_IDLE_TTL")
	viper.BindEnv("auction.submit_timeout", "AUCTION_SUBMIT_TIMEOUT")
	viper.BindEnv("auction.version_retries", "AUCTION_VERSION_RETRIES")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("collab.order_service_url", "ORDER_SERVICE_URL")
	viper.BindEnv("collab.product_service_url", "PRODUCT_SERVICE_URL")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, MySQL: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.MySQL.DSN,
		c.Instance.ID,
	)
}
