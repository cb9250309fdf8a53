package config

import (
	"fmt"
	"os"
	"time"

	"insta-poster/internal/domain"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Minio     MinioConfig     `yaml:"minio"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Instagram InstagramConfig `yaml:"instagram"`
	Poster    PosterConfig    `yaml:"poster"`
	Platform  PlatformConfig  `yaml:"platform"`
	Retry     RetryConfig     `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"insta_poster"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-required:"true"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-required:"true"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"pending-posts"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	ResultsTopic string   `yaml:"results_topic" env:"KAFKA_RESULTS_TOPIC" env-default:"post-results"`
}

// Enabled reports whether result events should be produced at all.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type InstagramConfig struct {
	BaseURL  string        `yaml:"base_url" env:"INSTAGRAM_BASE_URL" env-default:"https://i.instagram.com/api/v1"`
	Username string        `yaml:"username" env:"INSTAGRAM_USERNAME" env-required:"true"`
	Password string        `yaml:"password" env:"INSTAGRAM_PASSWORD" env-required:"true"`
	Timeout  time.Duration `yaml:"timeout" env:"INSTAGRAM_TIMEOUT" env-default:"60s"`
}

type PosterConfig struct {
	// Interval between automatic posting cycles; zero disables the scheduler
	// and leaves only the HTTP trigger.
	Interval       time.Duration `yaml:"interval" env:"POSTER_INTERVAL" env-default:"0"`
	Caption        string        `yaml:"caption" env:"POSTER_CAPTION"`
	Enhance        bool          `yaml:"enhance" env:"POSTER_ENHANCE" env-default:"false"`
	InitialQuality int           `yaml:"initial_quality" env:"POSTER_INITIAL_QUALITY" env-default:"85"`
	MinQuality     int           `yaml:"min_quality" env:"POSTER_MIN_QUALITY" env-default:"60"`
	QualityStep    int           `yaml:"quality_step" env:"POSTER_QUALITY_STEP" env-default:"5"`
	ScaleStep      float64       `yaml:"scale_step" env:"POSTER_SCALE_STEP" env-default:"0.9"`
}

// PlatformConfig carries the publishing platform's image requirements. These
// are domain constants of the platform, not per-call tunables.
type PlatformConfig struct {
	MinResolutionPx int     `yaml:"min_resolution_px" env:"PLATFORM_MIN_RESOLUTION" env-default:"320"`
	MaxResolutionPx int     `yaml:"max_resolution_px" env:"PLATFORM_MAX_RESOLUTION" env-default:"1440"`
	MinAspectRatio  float64 `yaml:"min_aspect_ratio" env:"PLATFORM_MIN_ASPECT_RATIO" env-default:"0.8"`
	MaxAspectRatio  float64 `yaml:"max_aspect_ratio" env:"PLATFORM_MAX_ASPECT_RATIO" env-default:"1.91"`
	MaxFileSizeMB   int64   `yaml:"max_file_size_mb" env:"PLATFORM_MAX_FILE_SIZE_MB" env-default:"8"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"500ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads an optional .env file, then CONFIG_PATH (yaml) if set, and
// finally the environment.
func MustLoad() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// Constraints materializes the platform requirements once; everything below
// the config layer receives this value explicitly.
func (c *Config) Constraints() domain.Constraints {
	return domain.Constraints{
		MinResolutionPx:  c.Platform.MinResolutionPx,
		MaxResolutionPx:  c.Platform.MaxResolutionPx,
		MinAspectRatio:   c.Platform.MinAspectRatio,
		MaxAspectRatio:   c.Platform.MaxAspectRatio,
		MaxFileSizeBytes: c.Platform.MaxFileSizeMB << 20,
	}
}
