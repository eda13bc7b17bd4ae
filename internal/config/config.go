package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Service configuration
	ServicePort string
	ServiceName string

	// Media library roots
	HomeDir     string
	VideoDir    string
	MusicDir    string
	DocumentDir string
	PictureDir  string

	// Derived state directories
	ThumbnailDir string
	OverflowDir  string

	// Thumbnail extraction
	FFmpegPath   string
	ThumbWorkers int

	// Upload handling
	MinFreeBytes    int64
	UploadOverwrite bool
	MaxUploadMB     int

	// Audit store
	AuditDriver string // "sqlite" or "mysql"
	AuditDBPath string // sqlite file path
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	// Upload mirror (disabled when endpoint is empty)
	MirrorEndpoint  string
	MirrorAccessKey string
	MirrorSecretKey string
	MirrorBucket    string
	MirrorUseSSL    bool

	// Logging
	LogDir string

	// Jaeger configuration
	JaegerEndpoint string
}

// LoadConfig loads configuration from environment variables with sensible defaults
func LoadConfig() (*Config, error) {
	home := getEnv("SYNCNEST_HOME", "")
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = h
	}

	config := &Config{
		// Service defaults
		ServicePort: getEnv("SYNCNEST_PORT", "8080"),
		ServiceName: getEnv("SYNCNEST_SERVICE_NAME", "syncnest"),

		// Library defaults mirror the desktop layout
		HomeDir:     home,
		VideoDir:    getEnv("SYNCNEST_VIDEO_DIR", filepath.Join(home, "Videos")),
		MusicDir:    getEnv("SYNCNEST_MUSIC_DIR", filepath.Join(home, "Music")),
		DocumentDir: getEnv("SYNCNEST_DOCUMENT_DIR", filepath.Join(home, "Documents")),
		PictureDir:  getEnv("SYNCNEST_PICTURE_DIR", filepath.Join(home, "Pictures")),

		ThumbnailDir: getEnv("SYNCNEST_THUMBNAIL_DIR", filepath.Join(home, "SyncNestData")),
		OverflowDir:  getEnv("SYNCNEST_OVERFLOW_DIR", filepath.Join(home, "SyncNestUploads")),

		FFmpegPath:   getEnv("SYNCNEST_FFMPEG", "ffmpeg"),
		ThumbWorkers: getEnvAsInt("SYNCNEST_THUMB_WORKERS", 2),

		MinFreeBytes:    int64(getEnvAsInt("SYNCNEST_MIN_FREE_MB", 100)) * 1024 * 1024,
		UploadOverwrite: getEnvAsBool("SYNCNEST_UPLOAD_OVERWRITE", false),
		MaxUploadMB:     getEnvAsInt("SYNCNEST_MAX_UPLOAD_MB", 1024),

		// Audit store defaults
		AuditDriver: getEnv("SYNCNEST_AUDIT_DRIVER", "sqlite"),
		AuditDBPath: getEnv("SYNCNEST_AUDIT_DB", filepath.Join(home, "SyncNestDb", "data.db")),

		// MySQL defaults (used when SYNCNEST_AUDIT_DRIVER=mysql)
		MySQLHost:     getEnv("SYNCNEST_MYSQL_HOST", "localhost"),
		MySQLPort:     getEnv("SYNCNEST_MYSQL_PORT", "3306"),
		MySQLUser:     getEnv("SYNCNEST_MYSQL_USER", "root"),
		MySQLPassword: getEnv("SYNCNEST_MYSQL_PASSWORD", ""),
		MySQLDatabase: getEnv("SYNCNEST_MYSQL_DATABASE", "syncnest"),

		// Mirror defaults
		MirrorEndpoint:  getEnv("SYNCNEST_MIRROR_ENDPOINT", ""),
		MirrorAccessKey: getEnv("SYNCNEST_MIRROR_ACCESS_KEY", "minioadmin"),
		MirrorSecretKey: getEnv("SYNCNEST_MIRROR_SECRET_KEY", "minioadmin"),
		MirrorBucket:    getEnv("SYNCNEST_MIRROR_BUCKET", "syncnest-uploads"),
		MirrorUseSSL:    getEnvAsBool("SYNCNEST_MIRROR_USE_SSL", false),

		// Logging defaults (empty LogDir logs to stderr)
		LogDir: getEnv("SYNCNEST_LOG_DIR", ""),

		// Jaeger defaults
		JaegerEndpoint: getEnv("SYNCNEST_JAEGER_ENDPOINT", "http://localhost:4318"),
	}

	return config, nil
}

// GetDSN returns the MySQL connection string for the audit store
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser,
		c.MySQLPassword,
		c.MySQLHost,
		c.MySQLPort,
		c.MySQLDatabase,
	)
}

// GetMaxUploadBytes returns the upload request body cap in bytes
func (c *Config) GetMaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
