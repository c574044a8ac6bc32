package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/archive-export/pkg/enums"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Region  RegionConfig
	Export  ExportConfig
	Redis   RedisConfig
	GCP     GCPConfig
	GCS     GCSConfig
	Metrics MetricsConfig
}

var validate = validator.New()

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs the struct-tag rules over every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if _, err := c.Region.BaseURL(c.Region.DefaultRegion()); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"ARCHIVE_EXPORT_APP_ENV" default:"local"`
	LogLevel     string `envconfig:"ARCHIVE_EXPORT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ARCHIVE_EXPORT_LOG_FORMAT" default:"console" validate:"oneof=json console"`
	LogWarnStack bool   `envconfig:"ARCHIVE_EXPORT_LOG_WARN_STACK" default:"false"`
}

// APIConfig carries the static archive credential. The token is never logged.
type APIConfig struct {
	Token          string        `envconfig:"ARCHIVE_EXPORT_API_TOKEN" required:"true" validate:"required"`
	RequestTimeout time.Duration `envconfig:"ARCHIVE_EXPORT_API_REQUEST_TIMEOUT" default:"60s" validate:"gt=0"`
}

type RegionConfig struct {
	Default  string `envconfig:"ARCHIVE_EXPORT_REGION" default:"eu" validate:"oneof=na eu china"`
	NAURL    string `envconfig:"ARCHIVE_EXPORT_REGION_NA_URL" default:"https://na.crave-cloud.com" validate:"required,url"`
	EUURL    string `envconfig:"ARCHIVE_EXPORT_REGION_EU_URL" default:"https://eu.crave-cloud.com" validate:"required,url"`
	ChinaURL string `envconfig:"ARCHIVE_EXPORT_REGION_CHINA_URL" default:"https://cn.crave-cloud.com" validate:"required,url"`
}

// DefaultRegion returns the region used when the invocation names none.
func (r RegionConfig) DefaultRegion() enums.Region {
	region, err := enums.ParseRegion(strings.ToLower(strings.TrimSpace(r.Default)))
	if err != nil {
		return enums.RegionEU
	}
	return region
}

// BaseURL maps a region to its configured API root without a trailing slash.
func (r RegionConfig) BaseURL(region enums.Region) (string, error) {
	var raw string
	switch region {
	case enums.RegionNA:
		raw = r.NAURL
	case enums.RegionEU:
		raw = r.EUURL
	case enums.RegionChina:
		raw = r.ChinaURL
	default:
		return "", fmt.Errorf("no base url for region %q", region)
	}
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("base url for region %q is empty", region)
	}
	return raw, nil
}

type ExportConfig struct {
	OutputDir  string   `envconfig:"ARCHIVE_EXPORT_OUTPUT_DIR" default:"."`
	MaxPages   int      `envconfig:"ARCHIVE_EXPORT_MAX_PAGES" default:"10000" validate:"gt=0"`
	DemoGroups []string `envconfig:"ARCHIVE_EXPORT_DEMO_GROUPS" default:"demo"`
}

// RedisConfig is optional; an empty URL disables the run lock.
type RedisConfig struct {
	URL         string        `envconfig:"ARCHIVE_EXPORT_REDIS_URL"`
	LockTTL     time.Duration `envconfig:"ARCHIVE_EXPORT_LOCK_TTL" default:"6h" validate:"gt=0"`
	DialTimeout time.Duration `envconfig:"ARCHIVE_EXPORT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout time.Duration `envconfig:"ARCHIVE_EXPORT_REDIS_READ_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"ARCHIVE_EXPORT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ARCHIVE_EXPORT_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig is optional; an empty bucket disables uploads.
type GCSConfig struct {
	BucketName   string `envconfig:"ARCHIVE_EXPORT_GCS_BUCKET_NAME"`
	ObjectPrefix string `envconfig:"ARCHIVE_EXPORT_GCS_OBJECT_PREFIX" default:"archive-export"`
}

// Enabled reports whether an upload bucket was configured.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type MetricsConfig struct {
	TextfilePath string `envconfig:"ARCHIVE_EXPORT_METRICS_TEXTFILE"`
}
