package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxFileSize  int64 = 5 * 1024 * 1024 * 1024  // 5 GiB
	DefaultUserQuota    int64 = 30 * 1024 * 1024 * 1024 // 30 GiB
	DefaultJWTExpire          = 24
	envPrefix                 = "SUPFILE"
	storageBackendLocal       = "local"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	JWT        JWTConfig        `mapstructure:"jwt" yaml:"jwt"`
	Share      ShareConfig      `mapstructure:"share" yaml:"share"`
	Thumbnail  ThumbnailConfig  `mapstructure:"thumbnail" yaml:"thumbnail"`
	RecycleBin RecycleBinConfig `mapstructure:"recycle_bin" yaml:"recycle_bin"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gt=0,lt=65536"`
	Mode string `mapstructure:"mode" yaml:"mode" validate:"oneof=debug release test"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" yaml:"driver" validate:"oneof=mysql sqlite"`
	Host         string `mapstructure:"host" yaml:"host" validate:"required_if=Driver mysql"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
	Database     string `mapstructure:"database" yaml:"database" validate:"required"`
	Charset      string `mapstructure:"charset" yaml:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=silent error warn info"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"gte=0"`
}

type StorageConfig struct {
	Backend          string        `mapstructure:"backend" yaml:"backend" validate:"oneof=local memory minio s3"`
	BasePath         string        `mapstructure:"base_path" yaml:"base_path" validate:"required_if=Backend local"`
	MaxFileSize      int64         `mapstructure:"max_file_size" yaml:"max_file_size" validate:"gt=0"`
	DefaultUserQuota int64         `mapstructure:"default_user_quota" yaml:"default_user_quota" validate:"gt=0"`
	Minio            MinioConfig   `mapstructure:"minio" yaml:"minio"`
	S3               S3Config      `mapstructure:"s3" yaml:"s3"`
	Breaker          BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	Region    string `mapstructure:"region" yaml:"region"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
	KeyPrefix       string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// BreakerConfig tunes the circuit breaker placed in front of remote blob backends.
type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests" yaml:"max_requests"`
	IntervalSeconds  int    `mapstructure:"interval_seconds" yaml:"interval_seconds" validate:"gte=0"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	FailureThreshold uint32 `mapstructure:"failure_threshold" yaml:"failure_threshold"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" yaml:"secret" validate:"required,min=16"`
	ExpireHours int    `mapstructure:"expire_hours" yaml:"expire_hours" validate:"gt=0"`
	Issuer      string `mapstructure:"issuer" yaml:"issuer"`
}

type ShareConfig struct {
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" validate:"gte=0"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=0"`
}

type ThumbnailConfig struct {
	Width   int `mapstructure:"width" yaml:"width" validate:"gt=0"`
	Height  int `mapstructure:"height" yaml:"height" validate:"gt=0"`
	Quality int `mapstructure:"quality" yaml:"quality" validate:"gt=0,lte=100"`
}

type RecycleBinConfig struct {
	RetentionDays   int `mapstructure:"retention_days" yaml:"retention_days" validate:"gte=0"`
	CleanupInterval int `mapstructure:"cleanup_interval" yaml:"cleanup_interval" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LoadConfig reads the YAML file at path (optional when empty) and applies
// SUPFILE_* environment overrides, e.g. SUPFILE_DATABASE_HOST.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write dumps cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "supfile.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.backend", storageBackendLocal)
	v.SetDefault("storage.base_path", "./data")
	v.SetDefault("storage.max_file_size", DefaultMaxFileSize)
	v.SetDefault("storage.default_user_quota", DefaultUserQuota)
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "supfile")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.force_path_style", false)
	v.SetDefault("storage.s3.key_prefix", "")
	v.SetDefault("storage.breaker.max_requests", 3)
	v.SetDefault("storage.breaker.interval_seconds", 60)
	v.SetDefault("storage.breaker.timeout_seconds", 30)
	v.SetDefault("storage.breaker.failure_threshold", 5)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", DefaultJWTExpire)
	v.SetDefault("jwt.issuer", "supfile")

	v.SetDefault("share.rate_limit_per_minute", 60)
	v.SetDefault("share.rate_limit_burst", 20)

	v.SetDefault("thumbnail.width", 256)
	v.SetDefault("thumbnail.height", 256)
	v.SetDefault("thumbnail.quality", 80)

	v.SetDefault("recycle_bin.retention_days", 30)
	v.SetDefault("recycle_bin.cleanup_interval", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

func applyDefaults(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Database.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Database.LogLevel))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = storageBackendLocal
	}
	if cfg.Storage.DefaultUserQuota == 0 {
		cfg.Storage.DefaultUserQuota = DefaultUserQuota
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Storage.Breaker.MaxRequests == 0 {
		cfg.Storage.Breaker.MaxRequests = 1
	}
	if cfg.Storage.Breaker.FailureThreshold == 0 {
		cfg.Storage.Breaker.FailureThreshold = 5
	}
	if cfg.Share.RateLimitPerMinute > 0 && cfg.Share.RateLimitBurst == 0 {
		cfg.Share.RateLimitBurst = cfg.Share.RateLimitPerMinute
	}
}
