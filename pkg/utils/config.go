package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env          string       `mapstructure:"env"`
	HTTP         HTTPConfig   `mapstructure:"http"`
	Log          LogConfig    `mapstructure:"log"`
	Store        StoreConfig  `mapstructure:"store"`
	ObjectStore  ObjectConfig `mapstructure:"objectstore"`
	TTS          TTSConfig    `mapstructure:"tts"`
	Auth         AuthConfig   `mapstructure:"auth"`
	Uploads      UploadConfig `mapstructure:"uploads"`
	ContactsFile string       `mapstructure:"contacts_file"`
	FanoutLimit  int          `mapstructure:"fanout_limit"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type ObjectConfig struct {
	Backend       string        `mapstructure:"backend"`
	Endpoint      string        `mapstructure:"endpoint"`
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	PresignTTL    time.Duration `mapstructure:"presign_ttl"`
}

type TTSConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig guards the write routes. An empty secret disables the guard.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	JWTDuration time.Duration `mapstructure:"jwt_ttl"`
}

type UploadConfig struct {
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
	MaxImageFiles int   `mapstructure:"max_image_files"`
	MaxMediaBytes int64 `mapstructure:"max_media_bytes"`
	MaxMediaFiles int   `mapstructure:"max_media_files"`
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// legacy env names still honoured alongside the FLIPBOOK_ ones
var envAliases = map[string][]string{
	"env":                    {"NODE_ENV"},
	"objectstore.region":     {"AWS_REGION"},
	"objectstore.bucket":     {"S3_BUCKET_NAME"},
	"objectstore.access_key": {"AWS_ACCESS_KEY_ID"},
	"objectstore.secret_key": {"AWS_SECRET_ACCESS_KEY"},
	"tts.api_key":            {"ELEVEN_API_KEY"},
	"store.mongo_uri":        {"MONGODB_URI"},
}

// Load reads .env (if present), then FLIPBOOK_* environment variables on
// top of the defaults below.
func Load() (*Config, error) {
	_ = godotenv.Load() // fine when there is no .env (containers)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLIPBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{"FLIPBOOK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := os.Getenv("FLIPBOOK_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.ObjectStore.PublicBaseURL == "" && cfg.ObjectStore.Bucket != "" {
		cfg.ObjectStore.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com",
			cfg.ObjectStore.Bucket, cfg.ObjectStore.Region)
	}
	if cfg.FanoutLimit <= 0 {
		cfg.FanoutLimit = 16
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("contacts_file", "")
	v.SetDefault("fanout_limit", 16)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.backend", "mongo")
	v.SetDefault("store.sqlite_path", defaultSQLitePath())
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "flipbook")

	v.SetDefault("objectstore.backend", "s3")
	v.SetDefault("objectstore.endpoint", "s3.amazonaws.com")
	v.SetDefault("objectstore.region", "ap-south-1")
	v.SetDefault("objectstore.bucket", "")
	v.SetDefault("objectstore.access_key", "")
	v.SetDefault("objectstore.secret_key", "")
	v.SetDefault("objectstore.use_ssl", true)
	v.SetDefault("objectstore.public_base_url", "")
	v.SetDefault("objectstore.presign_ttl", time.Hour)

	v.SetDefault("tts.api_key", "")
	v.SetDefault("tts.base_url", "https://api.elevenlabs.io")
	v.SetDefault("tts.timeout", 60*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "flipbook-api")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)

	v.SetDefault("uploads.max_image_bytes", 10<<20)
	v.SetDefault("uploads.max_image_files", 1000)
	v.SetDefault("uploads.max_media_bytes", 500<<20)
	v.SetDefault("uploads.max_media_files", 50)
}

// local default: ~/.flipbook/data.db
func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".flipbook", "data.db")
}
