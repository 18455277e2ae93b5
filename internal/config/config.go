package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/MGeorge0116/ezchat-cam/pkg/config"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RTC       RTCConfig
	Chat      ChatConfig
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       LogConfig
}

type ServerConfig struct {
	Host       string
	Port       int
	InstanceID string `mapstructure:"instance_id"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	SyncChannel string `mapstructure:"sync_channel"`
	EnableSync  bool   `mapstructure:"enable_sync"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type RTCConfig struct {
	AppID          string        `mapstructure:"app_id"`
	AppCertificate string        `mapstructure:"app_certificate"`
	TokenExpires   time.Duration `mapstructure:"token_expires"`
}

type ChatConfig struct {
	HistoryLimit int           `mapstructure:"history_limit"`
	HistoryTTL   time.Duration `mapstructure:"history_ttl"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "ezchat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/ezchat.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.sync_channel", "presence:heartbeats")
	v.SetDefault("redis.enable_sync", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("rtc.app_id", "")
	v.SetDefault("rtc.app_certificate", "")
	v.SetDefault("rtc.token_expires", "1h")
	v.SetDefault("chat.history_limit", 200)
	v.SetDefault("chat.history_ttl", "24h")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.instance_id", "INSTANCE_ID")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.sync_channel", "REDIS_SYNC_CHANNEL")
	v.BindEnv("redis.enable_sync", "REDIS_ENABLE_SYNC")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("rtc.app_id", "RTC_APP_ID")
	v.BindEnv("rtc.app_certificate", "RTC_APP_CERTIFICATE")
	v.BindEnv("rtc.token_expires", "RTC_TOKEN_EXPIRES")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.AccessTokenTTL = parseDuration(v, "auth.access_token_ttl", 24*time.Hour)
	cfg.RTC.TokenExpires = parseDuration(v, "rtc.token_expires", time.Hour)
	cfg.Chat.HistoryTTL = parseDuration(v, "chat.history_ttl", 24*time.Hour)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
