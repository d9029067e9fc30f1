package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Kafka     KafkaConfig
	MinIO     MinIOConfig
	WebSocket WebSocketConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver   string // mysql or postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the driver specific connection string
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// Enabled reports whether a redis URL was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
	RequireOnWS    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PresignExpiry time.Duration
}

func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

type WebSocketConfig struct {
	SendBufferSize  int
	MaxMessageSize  int64
	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig reads configuration from the environment
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return Load(v)
}

// Load builds a Config from an already prepared viper instance
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("CHAT_HOST", "")
	v.SetDefault("CHAT_PORT", "8800")
	v.SetDefault("CHAT_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("CHAT_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("CHAT_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("CHAT_JWT_SECRET", "secret")
	v.SetDefault("CHAT_JWT_EXPIRE", "24h")
	v.SetDefault("CHAT_WS_REQUIRE_TOKEN", false)
	v.SetDefault("CHAT_WS_SEND_BUFFER", 256)
	v.SetDefault("CHAT_WS_MAX_MESSAGE_SIZE", 64*1024)
	v.SetDefault("CHAT_WS_RATE_LIMIT", 30)
	v.SetDefault("CHAT_WS_RATE_WINDOW", time.Minute)
	v.SetDefault("CHAT_WS_ALLOWED_ORIGINS", "")
	v.SetDefault("CHAT_LOG_LEVEL", "info")
	v.SetDefault("CHAT_LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "chat")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "chat.messages")
	v.SetDefault("KAFKA_GROUP_ID", "chat-eventlog")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_BUCKET", "attachments")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_PRESIGN_EXPIRY", time.Hour)

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("CHAT_HOST"),
			Port:         v.GetString("CHAT_PORT"),
			ReadTimeout:  v.GetDuration("CHAT_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("CHAT_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("CHAT_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("CHAT_JWT_SECRET"),
			ExpirationTime: v.GetDuration("CHAT_JWT_EXPIRE"),
			RequireOnWS:    v.GetBool("CHAT_WS_REQUIRE_TOKEN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		MinIO: MinIOConfig{
			Endpoint:      v.GetString("MINIO_ENDPOINT"),
			AccessKey:     v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     v.GetString("MINIO_SECRET_KEY"),
			Bucket:        v.GetString("MINIO_BUCKET"),
			UseSSL:        v.GetBool("MINIO_USE_SSL"),
			PresignExpiry: v.GetDuration("MINIO_PRESIGN_EXPIRY"),
		},
		WebSocket: WebSocketConfig{
			SendBufferSize:  v.GetInt("CHAT_WS_SEND_BUFFER"),
			MaxMessageSize:  v.GetInt64("CHAT_WS_MAX_MESSAGE_SIZE"),
			RateLimit:       v.GetInt("CHAT_WS_RATE_LIMIT"),
			RateLimitWindow: v.GetDuration("CHAT_WS_RATE_WINDOW"),
			AllowedOrigins:  splitList(v.GetString("CHAT_WS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("CHAT_LOG_LEVEL"),
			Format: v.GetString("CHAT_LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql or postgres)", c.Database.Driver)
	}
	if c.JWT.RequireOnWS && c.JWT.Secret == "" {
		return fmt.Errorf("CHAT_WS_REQUIRE_TOKEN needs CHAT_JWT_SECRET")
	}
	if c.WebSocket.SendBufferSize <= 0 {
		return fmt.Errorf("CHAT_WS_SEND_BUFFER must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
