package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config flat configuration, one key per env variable
type Config struct {
	// server
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// database
	DBType              string `mapstructure:"db_type"`
	DBHost              string `mapstructure:"db_host"`
	DBPort              int    `mapstructure:"db_port"`
	DBUsername          string `mapstructure:"db_username"`
	DBPassword          string `mapstructure:"db_password"`
	DBName              string `mapstructure:"db_name"`
	DBFilePath          string `mapstructure:"db_file_path"`
	DBMaxOpenConns      int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns      int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime   int    `mapstructure:"db_conn_max_lifetime"`
	DBCredentialSetting string `mapstructure:"db_credential_setting"`

	// storage
	StorageType          string `mapstructure:"storage_type"`
	StorageBucket        string `mapstructure:"storage_bucket"`
	StoragePublicBaseURL string `mapstructure:"storage_public_base_url"`
	StorageLocalPath     string `mapstructure:"storage_local_path"`

	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`

	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`

	WebDAVURL      string        `mapstructure:"webdav_url"`
	WebDAVUsername string        `mapstructure:"webdav_username"`
	WebDAVPassword string        `mapstructure:"webdav_password"`
	WebDAVRootPath string        `mapstructure:"webdav_root_path"`
	WebDAVTimeout  time.Duration `mapstructure:"webdav_timeout"`

	// upload
	UploadMaxSizeMB       int      `mapstructure:"upload_max_size_mb"`
	UploadAllowedTypes    []string `mapstructure:"upload_allowed_types"`
	BlobDeleteConcurrency int      `mapstructure:"blob_delete_concurrency"`

	// slugs
	SlugMaxAttempts   int `mapstructure:"slug_max_attempts"`
	SlugInsertRetries int `mapstructure:"slug_insert_retries"`

	// auth
	AuthJWTSecret string `mapstructure:"auth_jwt_secret"`

	// rate limit
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
	RateLimitIdleTTL time.Duration `mapstructure:"rate_limit_idle_ttl"`

	// clean
	CleanMinAge time.Duration `mapstructure:"clean_min_age"`

	LogDev bool `mapstructure:"log_dev"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key, strings.ToUpper(key))
	}

	if err := Decode(viper.AllSettings(), &globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// Decode decodes raw settings into cfg, converting durations and comma separated lists
func Decode(settings map[string]interface{}, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(settings); err != nil {
		return err
	}

	for i, t := range cfg.UploadAllowedTypes {
		cfg.UploadAllowedTypes[i] = strings.TrimSpace(t)
	}
	return nil
}

// setDefaults Default values
func setDefaults() {
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")

	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "memlane")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)
	viper.SetDefault("db_credential_setting", "request.jwt")

	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_bucket", "memories")
	viper.SetDefault("storage_public_base_url", "")
	viper.SetDefault("storage_local_path", "./data/uploads")

	viper.SetDefault("minio_endpoint", "")
	viper.SetDefault("minio_access_key_id", "")
	viper.SetDefault("minio_secret_access_key", "")
	viper.SetDefault("minio_use_ssl", false)

	viper.SetDefault("s3_region", "us-east-1")
	viper.SetDefault("s3_endpoint", "")
	viper.SetDefault("s3_access_key", "")
	viper.SetDefault("s3_secret_key", "")

	viper.SetDefault("webdav_url", "")
	viper.SetDefault("webdav_username", "")
	viper.SetDefault("webdav_password", "")
	viper.SetDefault("webdav_root_path", "")
	viper.SetDefault("webdav_timeout", "30s")

	viper.SetDefault("upload_max_size_mb", 10)
	viper.SetDefault("upload_allowed_types", "image/jpeg,image/png,image/gif,image/webp")
	viper.SetDefault("blob_delete_concurrency", 4)

	viper.SetDefault("slug_max_attempts", 100)
	viper.SetDefault("slug_insert_retries", 3)

	viper.SetDefault("auth_jwt_secret", "")

	viper.SetDefault("rate_limit_rps", 30.0)
	viper.SetDefault("rate_limit_burst", 60)
	viper.SetDefault("rate_limit_idle_ttl", "10m")

	viper.SetDefault("clean_min_age", "24h")

	viper.SetDefault("log_dev", false)
}

// Addr Listen address, formatted as "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL Base URL of the server
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// PublicBaseURL returns the prefix used to build public blob URLs
func (c *Config) PublicBaseURL() string {
	if c.StoragePublicBaseURL != "" {
		return strings.TrimRight(c.StoragePublicBaseURL, "/")
	}
	return c.BaseURL() + "/files/" + c.StorageBucket
}

// UploadMaxBytes Upload size limit in bytes
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 10 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}

// RateLimit per-client token bucket settings
type RateLimit struct {
	RPS   float64
	Burst int
	// IdleTTL how long a silent client keeps its bucket
	IdleTTL time.Duration
}

// APIRateLimit settings for the /api/v1 and /files routes, zero values fall back to defaults
func (c *Config) APIRateLimit() RateLimit {
	rl := RateLimit{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst, IdleTTL: c.RateLimitIdleTTL}
	if rl.RPS <= 0 {
		rl.RPS = 30
	}
	if rl.Burst <= 0 {
		rl.Burst = int(rl.RPS * 2)
	}
	if rl.IdleTTL <= 0 {
		rl.IdleTTL = 10 * time.Minute
	}
	return rl
}

// CleanMinAgeOrDefault how old an unreferenced object must be before clean may delete it
func (c *Config) CleanMinAgeOrDefault() time.Duration {
	if c.CleanMinAge <= 0 {
		return 24 * time.Hour
	}
	return c.CleanMinAge
}
