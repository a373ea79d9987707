// Package config loads and validates bucketsync configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// BucketEnvVar is the environment variable that names the target bucket.
const BucketEnvVar = "GCS_BUCKET_NAME"

// ErrBucketNotConfigured is returned when no bucket name could be resolved.
var ErrBucketNotConfigured = errors.New(BucketEnvVar + " is not set")

// Storage provider names accepted in bucket.provider.
const (
	ProviderGCS   = "gcs"
	ProviderS3    = "s3"
	ProviderLocal = "local"
	// ProviderNoop enumerates and reads files but sends nothing.
	ProviderNoop = "noop"
)

// Notification provider names accepted in notify.provider.
const (
	NotifyNoop   = "noop"
	NotifyPubSub = "pubsub"
)

// DefaultUploadItems is the item list backed up by upload-all when nothing else is configured.
func DefaultUploadItems() []string {
	return []string{
		".env",
		"config.ts",
		"dump/",
		"gcp-key.json",
		"services/",
		"unencrypted-dumps/",
	}
}

// Config captures every knob of a bucketsync invocation.
type Config struct {
	Bucket   BucketConfig   `mapstructure:"bucket"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Download DownloadConfig `mapstructure:"download"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// BucketConfig selects the object store and the bucket inside it.
type BucketConfig struct {
	Name     string `mapstructure:"name"`
	Provider string `mapstructure:"provider"`
	// CredentialsFile overrides Application Default Credentials for GCS.
	CredentialsFile string      `mapstructure:"credentials_file"`
	S3              S3Config    `mapstructure:"s3"`
	Local           LocalConfig `mapstructure:"local"`
}

// S3Config holds connection settings for S3-compatible stores.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LocalConfig points the local provider at a directory that stands in for a bucket.
type LocalConfig struct {
	Dir string `mapstructure:"dir"`
}

// UploadConfig lists the paths upload-all backs up.
type UploadConfig struct {
	Items []string `mapstructure:"items"`
}

// DownloadConfig sets where downloads land when no path is given.
type DownloadConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features and verbosity.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// NotifyConfig selects where run summaries are published.
type NotifyConfig struct {
	Provider string       `mapstructure:"provider"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// PubSubConfig identifies the Pub/Sub topic for run summaries.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Options are the CLI-level inputs to Load.
type Options struct {
	// ConfigFile is an optional YAML/JSON/TOML file.
	ConfigFile string
	// EnvFile is a dotenv file whose variables are exported when not already set.
	EnvFile string
	// Bucket overrides every other bucket name source when non-empty.
	Bucket string
}

// Load builds a Config from flags, environment, dotenv and config file, in that precedence.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := applyDotEnv(opts.EnvFile); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("BUCKETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("bucket.name", "BUCKETSYNC_BUCKET_NAME", BucketEnvVar); err != nil {
		return Config{}, fmt.Errorf("bind bucket env: %w", err)
	}

	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if name := strings.TrimSpace(opts.Bucket); name != "" {
		v.Set("bucket.name", name)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Bucket.Name = strings.TrimSpace(cfg.Bucket.Name)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bucket.name", "")
	v.SetDefault("bucket.provider", ProviderGCS)
	v.SetDefault("bucket.credentials_file", "")
	v.SetDefault("bucket.s3.endpoint", "")
	v.SetDefault("bucket.s3.access_key", "")
	v.SetDefault("bucket.s3.secret_key", "")
	v.SetDefault("bucket.s3.region", "us-east-1")
	v.SetDefault("bucket.s3.use_ssl", true)
	v.SetDefault("bucket.local.dir", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("notify.pubsub.project_id", "")
	v.SetDefault("notify.pubsub.topic_id", "")
	v.SetDefault("upload.items", DefaultUploadItems())
	v.SetDefault("download.dir", "tmp/download")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("notify.provider", NotifyNoop)
}

// Validate enforces required values.
func (c Config) Validate() error {
	if c.Bucket.Name == "" {
		return ErrBucketNotConfigured
	}
	switch c.Bucket.Provider {
	case ProviderGCS, ProviderNoop:
	case ProviderS3:
		if c.Bucket.S3.Endpoint == "" {
			return fmt.Errorf("bucket.s3.endpoint must be set when bucket.provider is %q", ProviderS3)
		}
	case ProviderLocal:
		if c.Bucket.Local.Dir == "" {
			return fmt.Errorf("bucket.local.dir must be set when bucket.provider is %q", ProviderLocal)
		}
	default:
		return fmt.Errorf("unknown bucket provider: %s", c.Bucket.Provider)
	}
	if strings.TrimSpace(c.Download.Dir) == "" {
		return fmt.Errorf("download.dir must not be empty")
	}
	switch c.Notify.Provider {
	case NotifyNoop:
	case NotifyPubSub:
		if c.Notify.PubSub.ProjectID == "" || c.Notify.PubSub.TopicID == "" {
			return fmt.Errorf("notify provider is 'pubsub' but project_id or topic_id is not set")
		}
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}
	return nil
}

// applyDotEnv exports the variables of a dotenv file that are not already set.
// A missing file is not an error.
func applyDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}
