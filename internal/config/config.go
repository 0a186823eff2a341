package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/pkg/log"
)

// Config holds all application configuration.
// Values come from environment variables (optionally seeded from a .env
// file) with sensible defaults.
//
// Environment Variables:
// HTTP:
// - SUBVIEW_ADDR: listen address (default: :8080)
// - CORS_ORIGINS: comma separated allowed origins (default: *)
// - UI_STATIC_DIR: built player assets (default: /app/web)
// - UI_ENABLED: serve the player from UI_STATIC_DIR (default: true)
// - MAX_UPLOAD_MB: upload limit for subtitle and video bodies (default: 2048)
//
// Media:
// - MEDIA_DIR: library root scanned for video/subtitle pairs (default: /media)
//
// Positions:
// - DATA_DIR: data directory (default: /app/data)
// - DB_PATH: SQLite file (default: $DATA_DIR/subview.db)
// - POSITION_BACKEND: sqlite, redis or memory (default: sqlite)
// - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis backend connection
// - POSITION_TTL_DAYS: validity window of a stored position (default: 30)
// - PURGE_CRON: schedule for deleting expired rows (default: 0 4 * * *)
//
// System:
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - SETTINGS_FILE: runtime settings file (default: /app/config/settings.json)
type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	Media    MediaConfig    `json:"media"`
	Position PositionConfig `json:"position"`
	System   SystemConfig   `json:"system"`
}

type HTTPConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	UIStaticDir string   `json:"ui_static_dir"`
	UIEnabled   bool     `json:"ui_enabled"`
	MaxUploadMB int      `json:"max_upload_mb"`
}

func (c HTTPConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

type MediaConfig struct {
	Dir string `json:"dir"`
}

type PositionConfig struct {
	Backend       string `json:"backend"`
	DBPath        string `json:"db_path"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`
	TTLDays       int    `json:"ttl_days"`
	PurgeCron     string `json:"purge_cron"`
}

func (c PositionConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// Settings converts the configuration into position store settings.
func (c PositionConfig) Settings() position.Settings {
	return position.Settings{
		Backend: c.Backend,
		DBPath:  c.DBPath,
		Redis: position.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		TTL: c.TTL(),
	}
}

type SystemConfig struct {
	DataDir      string `json:"data_dir"`
	LogLevel     string `json:"log_level"`
	SettingsFile string `json:"settings_file"`
}

// UploadDir is where uploaded videos are kept while a session lives.
func (c *Config) UploadDir() string {
	return filepath.Join(c.System.DataDir, "uploads")
}

// Option overrides a value after the environment has been read.
type Option func(*Config)

// WithAddr overrides SUBVIEW_ADDR.
func WithAddr(addr string) Option {
	return func(c *Config) {
		if strings.TrimSpace(addr) != "" {
			c.HTTP.Addr = addr
		}
	}
}

// WithMediaDir overrides MEDIA_DIR.
func WithMediaDir(dir string) Option {
	return func(c *Config) {
		if strings.TrimSpace(dir) != "" {
			c.Media.Dir = dir
		}
	}
}

// LoadDotEnv loads key=value pairs from the given files (".env" when
// none are given) without overriding variables already set.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warn("Failed to load %s: %v", f, err)
		}
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("DATA_DIR", "/app/data")
	config := &Config{
		HTTP: HTTPConfig{
			Addr:        getEnvString("SUBVIEW_ADDR", ":8080"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
			UIStaticDir: getEnvString("UI_STATIC_DIR", "/app/web"),
			UIEnabled:   getEnvBool("UI_ENABLED", true),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 2048),
		},
		Media: MediaConfig{
			Dir: getEnvString("MEDIA_DIR", "/media"),
		},
		Position: PositionConfig{
			Backend:       strings.ToLower(getEnvString("POSITION_BACKEND", position.BackendSQLite)),
			DBPath:        getEnvString("DB_PATH", filepath.Join(dataDir, "subview.db")),
			RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTLDays:       getEnvInt("POSITION_TTL_DAYS", 30),
			PurgeCron:     getEnvString("PURGE_CRON", "0 4 * * *"),
		},
		System: SystemConfig{
			DataDir:      dataDir,
			LogLevel:     getEnvString("LOG_LEVEL", "info"),
			SettingsFile: RuntimeSettingsFilePath(),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	switch c.Position.Backend {
	case position.BackendSQLite:
		if strings.TrimSpace(c.Position.DBPath) == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case position.BackendRedis:
		if strings.TrimSpace(c.Position.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case position.BackendMemory:
	default:
		return fmt.Errorf("unknown POSITION_BACKEND %q", c.Position.Backend)
	}
	if c.Position.TTLDays <= 0 {
		return fmt.Errorf("POSITION_TTL_DAYS must be positive")
	}
	if _, err := cron.ParseStandard(c.Position.PurgeCron); err != nil {
		return fmt.Errorf("invalid PURGE_CRON: %w", err)
	}
	if c.HTTP.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	ret := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ret = append(ret, p)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
