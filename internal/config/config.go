package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	ListenAddr string `validate:"required"`

	StoreBackend string `validate:"oneof=sqlite badger postgres"`
	DBPath       string `validate:"required_if=StoreBackend sqlite"`
	BadgerPath   string `validate:"required_if=StoreBackend badger"`
	PostgresDSN  string `validate:"required_if=StoreBackend postgres"`

	BlobBackend       string `validate:"oneof=local s3"`
	ExportPath        string `validate:"required_if=BlobBackend local"`
	S3Bucket          string `validate:"required_if=BlobBackend s3"`
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3AccessKeyID     string
	S3SecretAccessKey string

	CatalogFile        string
	PhotoMaxWidth      int   `validate:"gt=0"`
	FrontImageMaxWidth int   `validate:"gt=0"`
	JPEGQuality        int   `validate:"min=1,max=100"`
	MaxUploadBytes     int64 `validate:"gt=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

func Load() *Config {
	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:       getEnv("STORE_BACKEND", "sqlite"),
		DBPath:             getEnv("DB_PATH", "/data/propinv.db"),
		BadgerPath:         getEnv("BADGER_PATH", "/data/badger"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		BlobBackend:        getEnv("BLOB_BACKEND", "local"),
		ExportPath:         getEnv("EXPORT_PATH", "/data/exports"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3PathStyle:        getEnvBool("S3_PATH_STYLE", false),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		CatalogFile:        getEnv("CATALOG_FILE", ""),
		PhotoMaxWidth:      getEnvInt("PHOTO_MAX_WIDTH", 800),
		FrontImageMaxWidth: getEnvInt("FRONT_IMAGE_MAX_WIDTH", 1200),
		JPEGQuality:        getEnvInt("JPEG_QUALITY", 70),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
	}
}

// Validate reports the first inconsistent setting, such as a backend without
// the location it needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvInt falls back to defaultVal when the variable is unset or not a
// number.
func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
