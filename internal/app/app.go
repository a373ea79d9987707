// Package app initializes and holds the services of one bucketsync invocation,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/bucketsync/internal/clock/system"
	"github.com/JakeFAU/bucketsync/internal/config"
	"github.com/JakeFAU/bucketsync/internal/id/uuid"
	"github.com/JakeFAU/bucketsync/internal/metrics"
	"github.com/JakeFAU/bucketsync/internal/notify"
	"github.com/JakeFAU/bucketsync/internal/storage"
	"github.com/JakeFAU/bucketsync/internal/storage/local"
	"github.com/JakeFAU/bucketsync/internal/storage/s3"
	"github.com/JakeFAU/bucketsync/internal/transfer"
)

// App holds the long-lived services for a single command run.
type App struct {
	cfg       config.Config
	runID     string
	logger    *zap.Logger
	storage   storage.Provider
	publisher notify.Publisher
	metrics   *metrics.Recorder
	transfer  *transfer.Service
}

// Services are the collaborators New wires together.
type Services struct {
	Storage   storage.Provider
	Publisher notify.Publisher
	Metrics   *metrics.Recorder
	Clock     transfer.Clock
}

// GetLogger returns the shared zap logger, already tagged with the run ID.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the resolved configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetStorage exposes the configured bucket provider.
func (a *App) GetStorage() storage.Provider {
	return a.storage
}

// GetPublisher returns the run summary publisher.
func (a *App) GetPublisher() notify.Publisher {
	return a.publisher
}

// GetMetrics returns the transfer metrics recorder.
func (a *App) GetMetrics() *metrics.Recorder {
	return a.metrics
}

// GetTransfer returns the transfer service bound to the configured bucket.
func (a *App) GetTransfer() *transfer.Service {
	return a.transfer
}

// RunID identifies this invocation in logs, metrics and notifications.
func (a *App) RunID() string {
	return a.runID
}

// New assembles an App from already-built services. Nil services get no-op defaults.
func New(cfg config.Config, logger *zap.Logger, svc Services, out io.Writer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if svc.Storage == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	if svc.Publisher == nil {
		svc.Publisher = &notify.NoOpPublisher{}
	}
	if svc.Metrics == nil {
		svc.Metrics = metrics.New()
	}
	if svc.Clock == nil {
		svc.Clock = system.New()
	}

	runID, err := uuid.NewUUIDGenerator().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID), zap.String("bucket", cfg.Bucket.Name))

	return &App{
		cfg:       cfg,
		runID:     runID,
		logger:    logger,
		storage:   svc.Storage,
		publisher: svc.Publisher,
		metrics:   svc.Metrics,
		transfer:  transfer.New(svc.Storage, svc.Metrics, svc.Clock, logger, out),
	}, nil
}

// NewApp builds every service from cfg. It fails fast if the bucket or the
// notification topic cannot be reached.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Initializing application services...")

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("Error closing storage provider", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to initialize notifications: %w", err)
	}

	return New(cfg, logger, Services{Storage: store, Publisher: publisher}, out)
}

func newStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Provider, error) {
	b := cfg.Bucket
	switch b.Provider {
	case config.ProviderGCS:
		logger.Debug("Using GCS storage provider", zap.String("bucket", b.Name))
		p, err := storage.NewGCSProvider(ctx, b.Name, &storage.DefaultGCSClientFactory{CredentialsFile: b.CredentialsFile}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderS3:
		logger.Debug("Using S3 storage provider", zap.String("endpoint", b.S3.Endpoint), zap.String("bucket", b.Name))
		p, err := s3.New(s3.Config{
			Endpoint:  b.S3.Endpoint,
			AccessKey: b.S3.AccessKey,
			SecretKey: b.S3.SecretKey,
			Region:    b.S3.Region,
			UseSSL:    b.S3.UseSSL,
			Bucket:    b.Name,
		})
		if err != nil {
			return nil, err
		}
		if err := p.CheckBucket(ctx); err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderLocal:
		dir := filepath.Join(b.Local.Dir, b.Name)
		logger.Debug("Using local storage provider", zap.String("dir", dir))
		p, err := local.New(local.Config{BaseDir: dir})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderNoop:
		logger.Info("Dry run: nothing will be sent to the bucket")
		return &storage.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", b.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case config.NotifyPubSub:
		ps := cfg.Notify.PubSub
		logger.Debug("Connecting to GCP Pub/Sub", zap.String("topic", ps.TopicID))
		client, err := pubsub.NewClient(ctx, ps.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		p, err := notify.NewPubSubPublisher(ctx, client, ps.TopicID)
		if err != nil {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("Failed to close pubsub client", zap.Error(closeErr))
			}
			return nil, err
		}
		return p, nil
	case config.NotifyNoop, "":
		return &notify.NoOpPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

// Finish records the run in metrics and publishes its summary. Neither side
// effect can fail the command; problems are logged.
func (a *App) Finish(ctx context.Context, report transfer.Report) {
	a.metrics.ObserveRun(report.Operation, report.OK())
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	summary := notify.Summary{
		RunID:      a.runID,
		Operation:  report.Operation,
		Bucket:     a.cfg.Bucket.Name,
		Succeeded:  report.Succeeded(),
		Failed:     report.Failed(),
		Skipped:    report.Skipped(),
		Bytes:      report.Bytes(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	if err := a.publisher.Publish(ctx, summary); err != nil {
		a.logger.Warn("Failed to publish run summary", zap.Error(err))
	}
}

// Close shuts down all services. It is called by a Cobra hook after the command finishes.
func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Error closing notification publisher", zap.Error(err))
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Warn("Error closing storage provider", zap.Error(err))
	}
	// Syncing stderr returns EINVAL on some platforms; nothing useful to do about it.
	_ = a.logger.Sync()
}
