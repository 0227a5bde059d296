// Package config loads startup configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "achievement"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
	defaultBasePath   = "/achievement/api/v1"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	BasePath       string                `yaml:"base_path"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Features       map[string]bool       `yaml:"features"`
	Upload         UploadConfig          `yaml:"upload"`
	S3             S3Config              `yaml:"s3"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// UploadConfig configures the upload module.
type UploadConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend"`
	// ImageHost is the public base URL prepended to stored file paths.
	ImageHost string `yaml:"image_host"`
	// Folder is the target folder inside the storage backend.
	Folder string `yaml:"folder"`
	// MaxSizeMB caps the accepted upload size. Zero means the default.
	MaxSizeMB int `yaml:"max_size_mb"`
}

// S3Config holds credentials for the S3-compatible upload backend.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

// Load reads and validates the YAML config at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.normalize()
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	if cfg.Upload.Backend != "local" && cfg.Upload.Backend != "s3" {
		return nil, fmt.Errorf("invalid upload.backend %q in %q, expected local or s3", cfg.Upload.Backend, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		BasePath: defaultBasePath,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Upload: UploadConfig{
			Backend:   "local",
			Folder:    "badge-certificate",
			MaxSizeMB: 10,
		},
	}
}

func (c *AppConfig) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = defaultEnv
	}
	c.BasePath = strings.TrimSpace(c.BasePath)
	if c.BasePath == "" {
		c.BasePath = defaultBasePath
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	if c.Upload.Backend == "" {
		c.Upload.Backend = "local"
	}
	c.Upload.Backend = strings.ToLower(strings.TrimSpace(c.Upload.Backend))
	c.Upload.ImageHost = strings.TrimRight(strings.TrimSpace(c.Upload.ImageHost), "/")
	c.Upload.Folder = strings.Trim(strings.TrimSpace(c.Upload.Folder), "/")
	if c.Upload.Folder == "" {
		c.Upload.Folder = "badge-certificate"
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = 10
	}

	if c.DSN == "" {
		c.DSN = c.Database.DSNValue()
	}
	if c.RedisURL == "" {
		c.RedisURL = c.Redis.URLValue()
	}
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// LogDir resolves the log directory.
func (c *AppConfig) LogDir() string {
	if c == nil {
		return runtimePath("", "logs")
	}
	return runtimePath(c.Paths.Logs, "logs")
}

// StaticDir resolves the directory served for locally stored uploads.
func (c *AppConfig) StaticDir() string {
	if c == nil {
		return runtimePath("", "static")
	}
	return runtimePath(c.Paths.Static, "static")
}

// FeatureEnabled reports the static flag value for name. Flags absent from
// the config default to enabled; the feature service may override them with
// values stored in the options table.
func (c *AppConfig) FeatureEnabled(name string) bool {
	if c == nil || c.Features == nil {
		return true
	}
	v, ok := c.Features[name]
	if !ok {
		return true
	}
	return v
}
