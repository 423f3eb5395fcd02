package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	MinIO      MinIO      `yaml:"minio"`
	S3         S3         `yaml:"s3"`
	Local      Local      `yaml:"local"`
	Encoder    Encoder    `yaml:"encoder"`
	Workspace  Workspace  `yaml:"workspace"`
	Fetch      Fetch      `yaml:"fetch"`
	Redis      Redis      `yaml:"redis"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Media      Media      `yaml:"media"`
	CORS       CORS       `yaml:"cors"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
	// PublicURL is where clients reach this service; used for local artifact URLs.
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:5000"`
}

// Storage selects the artifact store driver: minio, s3 or local.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"local"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET_NAME" env-default:"video"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string `yaml:"region" env:"MINIO_REGION"`
	PublicBaseURL   string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL"`
}

type S3 struct {
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE" env-default:"false"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

type Local struct {
	Dir string `yaml:"dir" env:"LOCAL_STORAGE_DIR" env-default:"./artifacts"`
	// URLPath is the route the directory is served under.
	URLPath string `yaml:"url_path" env:"LOCAL_URL_PATH" env-default:"/files/"`
}

type Encoder struct {
	FfmpegBinPath  string        `yaml:"ffmpeg_bin" env:"FFMPEG_BIN" env-default:"ffmpeg"`
	FfprobeBinPath string        `yaml:"ffprobe_bin" env:"FFPROBE_BIN" env-default:"ffprobe"`
	FontPath       string        `yaml:"font_path" env:"FONT_PATH" env-default:"./assets/fonts/arial.ttf"`
	Timeout        time.Duration `yaml:"timeout" env:"ENCODER_TIMEOUT" env-default:"5m"`
	KillGrace      time.Duration `yaml:"kill_grace" env:"ENCODER_KILL_GRACE" env-default:"5s"`
	MaxConcurrent  int64         `yaml:"max_concurrent" env:"ENCODER_MAX_CONCURRENT" env-default:"4"`
}

type Workspace struct {
	Root          string        `yaml:"root" env:"WORKSPACE_ROOT" env-default:"./temp"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"WORKSPACE_SWEEP_INTERVAL" env-default:"10m"`
	MaxAge        time.Duration `yaml:"max_age" env:"WORKSPACE_MAX_AGE" env-default:"1h"`
}

type Fetch struct {
	Timeout  time.Duration `yaml:"timeout" env:"FETCH_TIMEOUT" env-default:"2m"`
	MaxBytes int64         `yaml:"max_bytes" env:"FETCH_MAX_BYTES" env-default:"1073741824"`
}

type Redis struct {
	// An empty address disables rate limiting.
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RateLimit struct {
	Capacity   int64         `yaml:"capacity" env:"RATE_LIMIT_CAPACITY" env-default:"10"`
	Refill     int64         `yaml:"refill" env:"RATE_LIMIT_REFILL" env-default:"10"`
	Window     time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	TrustProxy bool          `yaml:"trust_proxy" env:"RATE_LIMIT_TRUST_PROXY" env-default:"false"`
}

type Media struct {
	MaxThumbnailSize int64 `yaml:"max_thumbnail_size" env:"MAX_THUMBNAIL_SIZE" env-default:"5242880"`
	// MaxFormMemory is how much of a multipart body is kept in memory before
	// spilling to disk.
	MaxFormMemory int64 `yaml:"max_form_memory" env:"MAX_FORM_MEMORY" env-default:"1048576"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"FRONTEND_URL" env-separator:"," env-default:"http://localhost:5173"`
}

var errUnknownDriver = errors.New("unknown storage driver")

// Load reads the YAML file at path, applying environment overrides and
// defaults. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist at path %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "minio", "local":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, c.Storage.Driver)
	}
	if c.Encoder.MaxConcurrent < 0 {
		return errors.New("encoder.max_concurrent must not be negative")
	}
	// The sweeper must never see a workspace whose request is still running.
	if c.Encoder.Timeout > 0 && c.Fetch.Timeout > 0 {
		if busy := c.Encoder.Timeout + c.Fetch.Timeout; c.Workspace.MaxAge <= busy {
			return fmt.Errorf("workspace.max_age (%s) must exceed fetch.timeout + encoder.timeout (%s)",
				c.Workspace.MaxAge, busy)
		}
	}
	return nil
}

// MustLoad loads the config named by CONFIG_PATH or the -config flag and
// exits on failure. Without either the environment alone is used.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	return cfg
}
