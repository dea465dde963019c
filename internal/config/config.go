// Package config loads environment-driven configuration, with optional
// .env files for local overrides, and persists the small YAML settings
// file that survives between runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel  string
	LogFormat string
	// BaseDir holds the log file, saved settings, the default SQLite
	// cache, and downloaded installers.
	BaseDir  string
	Data     DataConfig
	Geocoder GeocoderConfig
	Cache    CacheConfig
	Update   UpdateConfig
}

// DataConfig names the folders and files expected inside the shared space
// directory.
type DataConfig struct {
	FolderName     string
	PAFFileName    string
	ONSFolderName  string
	EventsFolder   string
	TemplateFolder string
}

type GeocoderConfig struct {
	// Enabled controls the HTTP fallback. The ONS snapshot is always
	// consulted first; disabling the geocoder makes runs fully offline.
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	// Backend is one of "sqlite", "postgres", "redis" or "off".
	Backend     string
	SQLitePath  string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
}

type UpdateConfig struct {
	Repo       string
	Installer  string
	APIBaseURL string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// No .env file is the normal case for installed copies.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	baseDir := getEnv("BASE_DIR", "")
	if baseDir == "" {
		baseDir = defaultBaseDir()
	}

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		BaseDir:   baseDir,
		Data: DataConfig{
			FolderName:     getEnv("DATA_FOLDER", "Data"),
			PAFFileName:    getEnv("PAF_FILE", "PAF.csv"),
			ONSFolderName:  getEnv("ONS_FOLDER", "ONS"),
			EventsFolder:   getEnv("EVENTS_FOLDER", "Events"),
			TemplateFolder: getEnv("TEMPLATE_FOLDER", "QGIS Template"),
		},
		Geocoder: GeocoderConfig{
			Enabled: getEnvBool("GEOCODER_ENABLED", true),
			BaseURL: getEnv("GEOCODER_BASE_URL", "https://api.postcodes.io"),
			Timeout: getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Backend:     getEnv("CACHE_BACKEND", "sqlite"),
			SQLitePath:  getEnv("CACHE_DB_PATH", filepath.Join(baseDir, "geocode.db")),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:     getEnvInt("REDIS_DB", 0),
		},
		Update: UpdateConfig{
			Repo:       getEnv("UPDATE_REPO", "marmstr93ng/PostcodeParse"),
			Installer:  getEnv("UPDATE_INSTALLER", "PostcodeParseSetup.exe"),
			APIBaseURL: getEnv("UPDATE_API_URL", "https://api.github.com"),
		},
	}

	switch cfg.Cache.Backend {
	case "sqlite", "postgres", "redis", "off":
	default:
		return nil, fmt.Errorf("config: CACHE_BACKEND must be sqlite, postgres, redis or off (got %q)", cfg.Cache.Backend)
	}

	if cfg.Cache.Backend == "postgres" && cfg.Cache.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required when CACHE_BACKEND=postgres")
	}

	if cfg.Geocoder.Timeout <= 0 {
		return nil, fmt.Errorf("config: GEOCODER_TIMEOUT must be positive")
	}

	return cfg, nil
}

// defaultBaseDir resolves the per-user application directory, falling back
// to the working directory when the platform dir cannot be determined.
func defaultBaseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "PostcodeParse"
	}
	return filepath.Join(dir, "PostcodeParse")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
