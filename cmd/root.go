// Package cmd wires the bucketsync commands onto Cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bucketsync/internal/app"
	"github.com/JakeFAU/bucketsync/internal/config"
	"github.com/JakeFAU/bucketsync/internal/logging"
	"github.com/JakeFAU/bucketsync/internal/transfer"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// needsApp marks commands that talk to the bucket. Help and completion run without one.
const needsApp = "needs-app"

// errRunFailed signals a non-zero exit after the command already reported why.
var errRunFailed = errors.New("one or more transfers failed")

// App defines the application interface that commands will use.
// This allows us to inject a test app.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetConfig() config.Config
	GetTransfer() *transfer.Service
	Finish(ctx context.Context, report transfer.Report)
}

// newApp is the application factory. It's a variable so tests can swap in
// an app backed by an in-memory bucket.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) (App, error) {
	a, err := app.NewApp(ctx, cfg, logger, out)
	if err != nil {
		return nil, err
	}
	return a, nil
}

type rootOptions struct {
	configFile string
	envFile    string
	bucket     string
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cobra.EnableCaseInsensitive = true

	cmd := &cobra.Command{
		Use:   "bucketsync",
		Short: "Back up local files to a storage bucket and restore them.",
		Long: `bucketsync uploads local files and folders to a bucket and downloads them back.

The bucket is named by the GCS_BUCKET_NAME environment variable (which may come
from a .env file) or by the --bucket flag.`,
		SilenceErrors: true,
		// Cobra prints usage alongside this error.
		RunE: func(_ *cobra.Command, _ []string) error {
			return errors.New("no command given")
		},

		// Builds the App only for commands that transfer data.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[needsApp] != "true" {
				return nil
			}
			// Arguments are valid by now; later errors are not usage errors.
			cmd.SilenceUsage = true

			cfg, err := config.Load(config.Options{
				ConfigFile: opts.configFile,
				EnvFile:    opts.envFile,
				Bucket:     opts.bucket,
			})
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			appInstance, err := newApp(cmd.Context(), cfg, logger, cmd.OutOrStdout())
			if err != nil {
				_ = logger.Sync()
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Shuts services down after a successful command.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			closeApp(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML, JSON or TOML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to read before resolving configuration")
	cmd.PersistentFlags().StringVar(&opts.bucket, "bucket", "", "bucket name (overrides "+config.BucketEnvVar+")")

	cmd.AddCommand(
		newUploadCmd(),
		newUploadAllCmd(),
		newDownloadCmd(),
		newDownloadAllCmd(),
	)

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// closeApp is idempotent so it can run both after a failed RunE and in the post-run hook.
func closeApp(cmd *cobra.Command) {
	if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
		appInstance.Close()
		cmd.SetContext(context.WithValue(cmd.Context(), appKey, nil))
	}
}

// finish publishes the report and turns an unsuccessful one into an error.
// Cobra skips PostRun hooks when RunE fails, so the App is closed here.
func finish(cmd *cobra.Command, a App, report transfer.Report) error {
	a.Finish(cmd.Context(), report)
	if report.OK() {
		return nil
	}
	closeApp(cmd)
	if report.Err != nil {
		return fmt.Errorf("%s aborted: %w", report.Operation, report.Err)
	}
	return errRunFailed
}

// transferCmd stamps the annotation that makes the root hook build an App.
func transferCmd(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsApp] = "true"
	return cmd
}

// execute runs the root command and maps errors to an exit code.
func execute(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd())
	stop()
	os.Exit(code)
}
