// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kukshaus/family-planner/backup"
	"github.com/kukshaus/family-planner/store"
)

type Config struct {
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DataDir      string `mapstructure:"DATA_DIR"`
	KeyPrefix    string `mapstructure:"KEY_PREFIX"`
	SqlitePath   string `mapstructure:"SQLITE_PATH"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RedisTimeout  time.Duration `mapstructure:"REDIS_TIMEOUT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	BackupDir string `mapstructure:"BACKUP_DIR"`

	// --- S3 backups ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`
}

var defaults = map[string]any{
	"STORE_BACKEND":  "json",
	"DATA_DIR":       "./data",
	"KEY_PREFIX":     "family_planner_",
	"SQLITE_PATH":    "",
	"POSTGRES_DSN":   "",
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"REDIS_TIMEOUT":  "5s",
	"LOG_LEVEL":      "info",
	"LOG_FORMAT":     "console",
	"BACKUP_DIR":     ".",
	"S3_ENDPOINT":    "",
	"S3_REGION":      "",
	"S3_BUCKET":      "",
	"S3_ACCESS_KEY":  "",
	"S3_SECRET_KEY":  "",
	"S3_USE_SSL":     true,
	"S3_PATH_STYLE":  false,
}

// String implements fmt.Stringer with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  StoreBackend: %s\n", c.StoreBackend)
	fmt.Fprintf(&sb, "  DataDir: %s\n", c.DataDir)
	fmt.Fprintf(&sb, "  KeyPrefix: %s\n", c.KeyPrefix)
	fmt.Fprintf(&sb, "  SqlitePath: %s\n", c.SqlitePath)
	fmt.Fprintf(&sb, "  PostgresDSN: %s\n", mask(c.PostgresDSN))
	fmt.Fprintf(&sb, "  RedisAddr: %s\n", c.RedisAddr)
	fmt.Fprintf(&sb, "  RedisPassword: %s\n", mask(c.RedisPassword))
	fmt.Fprintf(&sb, "  RedisDB: %d\n", c.RedisDB)
	fmt.Fprintf(&sb, "  BackupDir: %s\n", c.BackupDir)
	fmt.Fprintf(&sb, "  S3Endpoint: %s\n", c.S3Endpoint)
	fmt.Fprintf(&sb, "  S3Bucket: %s\n", c.S3Bucket)
	fmt.Fprintf(&sb, "  S3AccessKey: %s\n", mask(c.S3AccessKey))
	fmt.Fprintf(&sb, "  S3SecretKey: %s\n", mask(c.S3SecretKey))
	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// Load reads ".env" from the working directory if it exists, then the
// process environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path. Variables already set in
// the environment win over the file.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Store returns the backend settings.
func (c *Config) Store() store.Config {
	sqlitePath := c.SqlitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(c.DataDir, "family.db")
	}
	return store.Config{
		Backend:     c.StoreBackend,
		DataDir:     c.DataDir,
		SqlitePath:  sqlitePath,
		PostgresDSN: c.PostgresDSN,
		Redis: store.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Timeout:  c.RedisTimeout,
		},
	}
}

// S3 returns the backup bucket settings.
func (c *Config) S3() backup.S3Config {
	return backup.S3Config{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		UseSSL:    c.S3UseSSL,
		PathStyle: c.S3PathStyle,
	}
}

// S3Enabled reports whether enough S3 settings are present to use it.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}
