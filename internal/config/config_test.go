package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// clearBucketEnv isolates a test from bucket names exported by the caller's shell.
func clearBucketEnv(t *testing.T) {
	t.Helper()
	t.Setenv(BucketEnvVar, "")
	t.Setenv("BUCKETSYNC_BUCKET_NAME", "")
}

func TestLoadWithFileOverrides(t *testing.T) {
	clearBucketEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
bucket:
  name: file-bucket
  provider: local
  local:
    dir: /srv/bucket
upload:
  items: ["notes.txt", "data/"]
download:
  dir: restore
logging:
  development: true
metrics:
  textfile: /var/lib/node_exporter/bucketsync.prom
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(Options{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bucket.Name != "file-bucket" {
		t.Fatalf("expected bucket from file, got %q", cfg.Bucket.Name)
	}
	if cfg.Bucket.Provider != ProviderLocal || cfg.Bucket.Local.Dir != "/srv/bucket" {
		t.Fatalf("expected local provider overrides, got %+v", cfg.Bucket)
	}
	if !reflect.DeepEqual(cfg.Upload.Items, []string{"notes.txt", "data/"}) {
		t.Fatalf("unexpected upload items %v", cfg.Upload.Items)
	}
	if cfg.Download.Dir != "restore" {
		t.Fatalf("expected download dir override, got %q", cfg.Download.Dir)
	}
	if !cfg.Logging.Development {
		t.Fatalf("expected development logging from file")
	}
	if cfg.Metrics.Textfile == "" {
		t.Fatalf("expected metrics textfile to be loaded")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bucket.Name != "env-bucket" {
		t.Fatalf("expected bucket from %s, got %q", BucketEnvVar, cfg.Bucket.Name)
	}
	if cfg.Bucket.Provider != ProviderGCS {
		t.Fatalf("expected gcs provider by default, got %q", cfg.Bucket.Provider)
	}
	if !reflect.DeepEqual(cfg.Upload.Items, DefaultUploadItems()) {
		t.Fatalf("unexpected default items %v", cfg.Upload.Items)
	}
	if cfg.Download.Dir != "tmp/download" {
		t.Fatalf("unexpected default download dir %q", cfg.Download.Dir)
	}
	if cfg.Notify.Provider != NotifyNoop {
		t.Fatalf("unexpected notify provider %q", cfg.Notify.Provider)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "" {
		t.Fatalf("expected production logging at info by default, got %+v", cfg.Logging)
	}
}

func TestLoadLoggingFromEnv(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")
	t.Setenv("BUCKETSYNC_LOGGING_DEVELOPMENT", "true")
	t.Setenv("BUCKETSYNC_LOGGING_LEVEL", "debug")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected env to enable debug logging, got %+v", cfg.Logging)
	}
}

func TestLoadBucketFlagWins(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")

	cfg, err := Load(Options{Bucket: "flag-bucket"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bucket.Name != "flag-bucket" {
		t.Fatalf("expected flag to win, got %q", cfg.Bucket.Name)
	}
}

func TestLoadPrefixedEnv(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")
	t.Setenv("BUCKETSYNC_DOWNLOAD_DIR", "elsewhere")
	t.Setenv("BUCKETSYNC_BUCKET_CREDENTIALS_FILE", "/keys/sa.json")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Download.Dir != "elsewhere" {
		t.Fatalf("expected prefixed env override, got %q", cfg.Download.Dir)
	}
	if cfg.Bucket.CredentialsFile != "/keys/sa.json" {
		t.Fatalf("expected credentials file from env, got %q", cfg.Bucket.CredentialsFile)
	}
}

func TestLoadMissingBucket(t *testing.T) {
	clearBucketEnv(t)

	_, err := Load(Options{})
	if !errors.Is(err, ErrBucketNotConfigured) {
		t.Fatalf("expected ErrBucketNotConfigured, got %v", err)
	}
	if !strings.Contains(err.Error(), BucketEnvVar) {
		t.Fatalf("expected message to name %s, got %q", BucketEnvVar, err.Error())
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	clearBucketEnv(t)
	os.Unsetenv(BucketEnvVar) //nolint:errcheck // t.Setenv restores the original value
	t.Setenv("BUCKETSYNC_TEST_DOTENV_EXTRA", "kept")

	path := filepath.Join(t.TempDir(), ".env")
	content := "GCS_BUCKET_NAME=dotenv-bucket\nBUCKETSYNC_TEST_DOTENV_EXTRA=overwritten\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	cfg, err := Load(Options{EnvFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bucket.Name != "dotenv-bucket" {
		t.Fatalf("expected bucket from dotenv, got %q", cfg.Bucket.Name)
	}
	if got := os.Getenv("BUCKETSYNC_TEST_DOTENV_EXTRA"); got != "kept" {
		t.Fatalf("dotenv must not override existing variables, got %q", got)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")

	if _, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadUnreadableConfigFile(t *testing.T) {
	clearBucketEnv(t)
	t.Setenv(BucketEnvVar, "env-bucket")

	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Bucket:   BucketConfig{Name: "bucket", Provider: ProviderGCS},
		Download: DownloadConfig{Dir: "tmp/download"},
		Notify:   NotifyConfig{Provider: NotifyNoop},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing bucket",
			cfg: func() Config {
				c := base
				c.Bucket.Name = ""
				return c
			}(),
			want: BucketEnvVar,
		},
		{
			name: "unknown provider",
			cfg: func() Config {
				c := base
				c.Bucket.Provider = "ftp"
				return c
			}(),
			want: "unknown bucket provider",
		},
		{
			name: "s3 missing endpoint",
			cfg: func() Config {
				c := base
				c.Bucket.Provider = ProviderS3
				return c
			}(),
			want: "bucket.s3.endpoint",
		},
		{
			name: "local missing dir",
			cfg: func() Config {
				c := base
				c.Bucket.Provider = ProviderLocal
				return c
			}(),
			want: "bucket.local.dir",
		},
		{
			name: "empty download dir",
			cfg: func() Config {
				c := base
				c.Download.Dir = " "
				return c
			}(),
			want: "download.dir",
		},
		{
			name: "pubsub missing topic",
			cfg: func() Config {
				c := base
				c.Notify.Provider = NotifyPubSub
				c.Notify.PubSub.ProjectID = "project"
				return c
			}(),
			want: "project_id or topic_id",
		},
		{
			name: "unknown notify provider",
			cfg: func() Config {
				c := base
				c.Notify.Provider = "smtp"
				return c
			}(),
			want: "unknown notify provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
