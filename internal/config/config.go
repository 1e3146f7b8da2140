package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every setting the server needs. It is built once in main and
// passed into constructors.
type Config struct {
	Env        string `env:"APP_ENV" env-default:"development"`
	ServerPort string `env:"SERVER_PORT" env-default:"5001"`
	GinMode    string `env:"GIN_MODE" env-default:"debug"`

	DB        DBConfig
	JWT       JWTConfig
	Media     MediaConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Admin     AdminConfig
}

// JWTConfig configures the token service
type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET" env-required:"true"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" env-default:"720h"`
}

// MediaConfig selects and configures the remote media host.
type MediaConfig struct {
	Driver        string        `env:"MEDIA_DRIVER" env-default:"cloudinary"` // cloudinary or s3
	Folder        string        `env:"MEDIA_FOLDER" env-default:"micro-marketplace/products"`
	UploadTimeout time.Duration `env:"MEDIA_UPLOAD_TIMEOUT" env-default:"0s"` // 0 keeps the transport default

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	S3Endpoint      string `env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	S3Region        string `env:"S3_REGION" env-default:"us-east-1"`
	S3AccessKeyID   string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket        string `env:"S3_BUCKET" env-default:"public"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" env-default:"true"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL" env-default:"http://localhost:9000/public"`
}

// UploadConfig configures local staging of uploads.
type UploadConfig struct {
	StageDir string `env:"UPLOAD_STAGE_DIR"`
}

// RateLimitConfig configures the per-client request limit.
type RateLimitConfig struct {
	Max           int           `env:"RATE_LIMIT_MAX" env-default:"100"`
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"10m"`
	RedisAddr     string        `env:"REDIS_ADDR"` // empty selects the in-process limiter
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"console"` // json or console
}

// AdminConfig drives admin bootstrap.
type AdminConfig struct {
	InitialEmail string `env:"INITIAL_ADMIN_EMAIL"` // registering with this email yields an admin
	Email        string `env:"ADMIN_EMAIL" env-default:"admin@micromarket.com"`
	Password     string `env:"ADMIN_PASSWORD" env-default:"Admin@12345"`
	Name         string `env:"ADMIN_NAME" env-default:"Admin"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Media.Driver {
	case "cloudinary":
		if c.Media.CloudinaryCloudName == "" || c.Media.CloudinaryAPIKey == "" || c.Media.CloudinaryAPISecret == "" {
			return errors.New("cloudinary media driver requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "s3":
		if c.Media.S3Bucket == "" || c.Media.S3PublicBaseURL == "" {
			return errors.New("s3 media driver requires S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown MEDIA_DRIVER %q", c.Media.Driver)
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.Media.UploadTimeout < 0 {
		return errors.New("MEDIA_UPLOAD_TIMEOUT must not be negative")
	}
	return nil
}

const (
	defaultStageDir  = "uploads/temp"
	fallbackStageDir = "micro-marketplace-uploads"
)

// ResolveStageDir returns a writable directory for staged uploads, creating it
// if needed. Without an explicit setting it prefers uploads/temp under the
// working directory and falls back to the system temp dir on read-only trees.
func ResolveStageDir(cfg UploadConfig) (string, error) {
	if cfg.StageDir != "" {
		if err := ensureWritableDir(cfg.StageDir); err != nil {
			return "", fmt.Errorf("stage dir %s: %w", cfg.StageDir, err)
		}
		return cfg.StageDir, nil
	}
	if err := ensureWritableDir(defaultStageDir); err == nil {
		return defaultStageDir, nil
	}
	dir := filepath.Join(os.TempDir(), fallbackStageDir)
	if err := ensureWritableDir(dir); err != nil {
		return "", fmt.Errorf("stage dir %s: %w", dir, err)
	}
	return dir, nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
