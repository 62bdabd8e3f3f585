package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Tracker  TrackerConfig
	Index    IndexConfig
	Match    MatchConfig
	Refresh  RefreshConfig
	Feed     FeedConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// StoreConfig selects the record store backend: memory, sqlite or pgx.
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type TrackerConfig struct {
	MaxAccuracyMeters     float64
	FreshnessWindow       time.Duration
	RetentionWindow       time.Duration
	MinDisplacementMeters float64
}

type IndexConfig struct {
	CellLevel int
}

type MatchConfig struct {
	DefaultRadiusMeters float64
	MaxRadiusMeters     float64
	DefaultLimit        int
	MaxLimit            int
}

type RefreshConfig struct {
	Interval        time.Duration
	ChangeThreshold int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

type FeedConfig struct {
	Enabled        bool
	BaseURL        string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MinInterval    time.Duration
}

type WorkerConfig struct {
	StreamEnabled     bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	BatchSize         int
	ShutdownTimeout   time.Duration
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return FromViper(v), nil
}

// FromViper builds the typed config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("API_HOST"),
			Port: v.GetInt("API_PORT"),
			Env:  v.GetString("API_ENV"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(v.GetString("STORE_DRIVER")),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Tracker: TrackerConfig{
			MaxAccuracyMeters:     v.GetFloat64("TRACKER_MAX_ACCURACY_M"),
			FreshnessWindow:       time.Duration(v.GetInt("TRACKER_FRESHNESS_SEC")) * time.Second,
			RetentionWindow:       time.Duration(v.GetInt("TRACKER_RETENTION_SEC")) * time.Second,
			MinDisplacementMeters: v.GetFloat64("TRACKER_MIN_DISPLACEMENT_M"),
		},
		Index: IndexConfig{
			CellLevel: v.GetInt("INDEX_CELL_LEVEL"),
		},
		Match: MatchConfig{
			DefaultRadiusMeters: v.GetFloat64("MATCH_DEFAULT_RADIUS_M"),
			MaxRadiusMeters:     v.GetFloat64("MATCH_MAX_RADIUS_M"),
			DefaultLimit:        v.GetInt("MATCH_DEFAULT_LIMIT"),
			MaxLimit:            v.GetInt("MATCH_MAX_LIMIT"),
		},
		Refresh: RefreshConfig{
			Interval:        time.Duration(v.GetInt("REFRESH_INTERVAL_SEC")) * time.Second,
			ChangeThreshold: v.GetInt("REFRESH_CHANGE_THRESHOLD"),
			InitialBackoff:  time.Duration(v.GetInt("REFRESH_BACKOFF_INITIAL_MS")) * time.Millisecond,
			MaxBackoff:      time.Duration(v.GetInt("REFRESH_BACKOFF_MAX_MS")) * time.Millisecond,
		},
		Feed: FeedConfig{
			Enabled:        v.GetBool("FEED_ENABLED"),
			BaseURL:        strings.TrimRight(v.GetString("FEED_BASE_URL"), "/"),
			RequestTimeout: time.Duration(v.GetInt("FEED_REQUEST_TIMEOUT_SEC")) * time.Second,
			PollInterval:   time.Duration(v.GetInt("FEED_POLL_INTERVAL_SEC")) * time.Second,
			MinInterval:    time.Duration(v.GetInt("FEED_MIN_INTERVAL_SEC")) * time.Second,
		},
		Worker: WorkerConfig{
			StreamEnabled:     v.GetBool("WORKER_STREAM_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT_MS")) * time.Millisecond,
			BatchSize:         v.GetInt("WORKER_BATCH_SIZE"),
			ShutdownTimeout:   time.Duration(v.GetInt("WORKER_SHUTDOWN_TIMEOUT_SEC")) * time.Second,
		},
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")

	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "carpark.db")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("TRACKER_MAX_ACCURACY_M", 100)
	v.SetDefault("TRACKER_FRESHNESS_SEC", 120)
	v.SetDefault("TRACKER_RETENTION_SEC", 600)
	v.SetDefault("TRACKER_MIN_DISPLACEMENT_M", 10)

	v.SetDefault("INDEX_CELL_LEVEL", 13)

	v.SetDefault("MATCH_DEFAULT_RADIUS_M", 1000)
	v.SetDefault("MATCH_MAX_RADIUS_M", 50000)
	v.SetDefault("MATCH_DEFAULT_LIMIT", 20)
	v.SetDefault("MATCH_MAX_LIMIT", 200)

	v.SetDefault("REFRESH_INTERVAL_SEC", 120)
	v.SetDefault("REFRESH_CHANGE_THRESHOLD", 50)
	v.SetDefault("REFRESH_BACKOFF_INITIAL_MS", 1000)
	v.SetDefault("REFRESH_BACKOFF_MAX_MS", 60000)

	v.SetDefault("FEED_ENABLED", false)
	v.SetDefault("FEED_BASE_URL", "https://api.data.gov.sg/v1")
	v.SetDefault("FEED_REQUEST_TIMEOUT_SEC", 15)
	v.SetDefault("FEED_POLL_INTERVAL_SEC", 120)
	v.SetDefault("FEED_MIN_INTERVAL_SEC", 60)

	v.SetDefault("WORKER_STREAM_ENABLED", false)
	v.SetDefault("WORKER_CONSUMER_GROUP", "parking-availability-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT_MS", 2000)
	v.SetDefault("WORKER_BATCH_SIZE", 50)
	v.SetDefault("WORKER_SHUTDOWN_TIMEOUT_SEC", 30)
}

// Defaults returns the configuration used when no .env or environment is set.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
