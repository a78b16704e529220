package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	BackendCloudinary = "cloudinary"
	BackendMinio      = "minio"
	BackendMemory     = "memory"
)

type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`
	// PublicURL is the externally reachable base URL, e.g. "https://party.example.com".
	PublicURL  string `env:"PUBLIC_URL"`
	EventTitle string `env:"EVENT_TITLE" envDefault:"Slideshow"`
	PrintQR    bool   `env:"PRINT_QR" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"cloudinary"`
	Collection   string `env:"COLLECTION" envDefault:"slideshow"`
	MaxUploadMB  int    `env:"MAX_UPLOAD_MB" envDefault:"20"`
	GalleryLimit int    `env:"GALLERY_LIMIT" envDefault:"30"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"slideshow"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	Reclaim Reclaim
}

// Reclaim holds the stale-asset sweep policy.
type Reclaim struct {
	Retention time.Duration `env:"RETENTION" envDefault:"5m"`
	Interval  time.Duration `env:"RECLAIM_INTERVAL" envDefault:"1h"`
	PageSize  int           `env:"RECLAIM_PAGE_SIZE" envDefault:"100"`
	Order     string        `env:"RECLAIM_ORDER" envDefault:"asc"`
	OnUpload  bool          `env:"RECLAIM_ON_UPLOAD" envDefault:"true"`
	Timeout   time.Duration `env:"RECLAIM_TIMEOUT" envDefault:"2m"`
}

// Load loads .env (if present), parses environment variables and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports missing credentials for the selected backend and out of range values.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendCloudinary:
		errs = append(errs, required(map[string]string{
			"CLOUDINARY_CLOUD_NAME": c.CloudinaryCloudName,
			"CLOUDINARY_API_KEY":    c.CloudinaryAPIKey,
			"CLOUDINARY_API_SECRET": c.CloudinaryAPISecret,
		})...)
	case BackendMinio:
		errs = append(errs, required(map[string]string{
			"MINIO_ENDPOINT":   c.MinioEndpoint,
			"MINIO_ACCESS_KEY": c.MinioAccessKey,
			"MINIO_SECRET_KEY": c.MinioSecretKey,
			"MINIO_BUCKET":     c.MinioBucket,
		})...)
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of cloudinary, minio, memory", c.StoreBackend))
	}

	if c.Collection == "" {
		errs = append(errs, errors.New("COLLECTION must not be empty"))
	}
	if c.Reclaim.Retention <= 0 {
		errs = append(errs, errors.New("RETENTION must be positive"))
	}
	if c.Reclaim.Interval <= 0 {
		errs = append(errs, errors.New("RECLAIM_INTERVAL must be positive"))
	}
	if c.Reclaim.PageSize <= 0 {
		errs = append(errs, errors.New("RECLAIM_PAGE_SIZE must be positive"))
	}
	if o := c.Reclaim.Order; o != "asc" && o != "desc" {
		errs = append(errs, fmt.Errorf("RECLAIM_ORDER %q must be asc or desc", o))
	}
	if c.GalleryLimit <= 0 {
		errs = append(errs, errors.New("GALLERY_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

// UploadURL is the address guests open to upload.
func (c *Config) UploadURL(host string) string {
	return c.baseURL(host) + "/upload"
}

// GalleryURL is the address of the shared gallery view.
func (c *Config) GalleryURL(host string) string {
	return c.baseURL(host) + "/gallery"
}

func (c *Config) baseURL(host string) string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return fmt.Sprintf("http://%s:%s", host, c.ServerPort)
}

func required(vars map[string]string) []error {
	var errs []error
	for _, k := range sortedKeys(vars) {
		if vars[k] == "" {
			errs = append(errs, fmt.Errorf("%s is not set", k))
		}
	}
	return errs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
