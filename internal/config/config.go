package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"

	BlobStoreLocal = "local"
	BlobStoreMinIO = "minio"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"production"`
	Database   Database   `yaml:"database"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	Redis      Redis      `yaml:"redis"`
	Media      Media      `yaml:"media"`
	BlobStore  BlobStore  `yaml:"blob_store"`
	MinIO      MinIO      `yaml:"minio"`
	Cleanup    Cleanup    `yaml:"cleanup"`
	Log        Log        `yaml:"log"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
}

type Database struct {
	Driver string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"postgres"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"password" env:"PGPASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PGDATABASE" env-default:"media_db"`
	SSLMode  string `yaml:"sslmode" env:"PGSSLMODE" env-default:"disable"`
}

// DSN returns the lib/pq key/value connection string.
func (p PQSQL) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Media holds upload and catalog settings shared by the blob store and the
// media service.
type Media struct {
	UploadDir        string   `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`
	TempDir          string   `yaml:"temp_dir" env:"MEDIA_TEMP_DIR"`
	BaseURL          string   `yaml:"base_url" env:"MEDIA_BASE_URL" env-default:"/media/files"`
	MaxFileSize      int64    `yaml:"max_file_size" env:"MEDIA_MAX_FILE_SIZE" env-default:"104857600"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env:"MEDIA_ALLOWED_MIME_TYPES" env-separator:","`
	UploadsPerMinute int64    `yaml:"uploads_per_minute" env:"MEDIA_UPLOADS_PER_MINUTE" env-default:"30"`
}

type BlobStore struct {
	Driver string `yaml:"driver" env:"BLOB_STORE_DRIVER" env-default:"local"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"media"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

// Cleanup configures the orphan sweep. Schedule is a robfig/cron expression.
type Cleanup struct {
	Schedule      string `yaml:"schedule" env:"CLEANUP_SCHEDULE" env-default:"@every 1h"`
	OlderThanDays int    `yaml:"older_than_days" env:"CLEANUP_OLDER_THAN_DAYS" env-default:"7"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DatabasePostgres, DatabaseMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.BlobStore.Driver {
	case BlobStoreLocal:
		if c.Media.UploadDir == "" {
			return errors.New("media.upload_dir is required for the local blob store")
		}
	case BlobStoreMinIO:
		if c.MinIO.BucketName == "" {
			return errors.New("minio.bucket_name is required for the minio blob store")
		}
	default:
		return fmt.Errorf("unknown blob store driver %q", c.BlobStore.Driver)
	}
	if c.Media.MaxFileSize <= 0 {
		return errors.New("media.max_file_size must be positive")
	}
	if c.Cleanup.OlderThanDays < 0 {
		return errors.New("cleanup.older_than_days must not be negative")
	}
	return nil
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
