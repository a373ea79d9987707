// Package transfer moves files between the local filesystem and a bucket.
//
// Every operation is a single sequential pass. Per-item errors never escape
// as Go errors: they are absorbed into a Result so one bad file does not stop
// a batch, and callers can tell success, skip and failure apart.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bucketsync/internal/storage"
)

// Operation names, shared with the CLI, metrics and notifications.
const (
	OpUpload      = "upload"
	OpUploadAll   = "upload-all"
	OpDownload    = "download"
	OpDownloadAll = "download-all"
)

// Transfer directions, used as the direction label on recorded transfers.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Recorder receives one observation per item.
type Recorder interface {
	ObserveTransfer(direction, outcome string, bytes int64, duration time.Duration)
}

// Clock supplies timestamps for reports.
type Clock interface {
	Now() time.Time
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransfer(string, string, int64, time.Duration) {}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// Service runs transfers against a single bucket.
type Service struct {
	store    storage.Provider
	recorder Recorder
	clock    Clock
	logger   *zap.Logger
	out      io.Writer
}

// New creates a Service. Nil collaborators fall back to no-op defaults;
// out receives the human-readable progress lines.
func New(store storage.Provider, recorder Recorder, clock Clock, logger *zap.Logger, out io.Writer) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if clock == nil {
		clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Service{
		store:    store,
		recorder: recorder,
		clock:    clock,
		logger:   logger,
		out:      out,
	}
}

// NewReport starts a report for operation.
func (s *Service) NewReport(operation string) Report {
	return Report{Operation: operation, StartedAt: s.clock.Now()}
}

// Finish stamps the report's end time.
func (s *Service) Finish(r *Report) {
	r.FinishedAt = s.clock.Now()
}

// UploadFile uploads exactly one local file to blobName.
func (s *Service) UploadFile(ctx context.Context, localPath, blobName string) Result {
	started := s.clock.Now()
	res := Result{LocalPath: localPath, BlobName: blobName}

	// #nosec G304 -- uploading user-named files is the point of this tool.
	f, err := os.Open(localPath)
	if err != nil {
		return s.fail(DirectionUpload, res, started, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	n, err := s.store.Upload(ctx, blobName, f)
	res.Bytes = n
	if err != nil {
		return s.fail(DirectionUpload, res, started, err)
	}
	res.Outcome = Success
	res.Duration = s.clock.Now().Sub(started)

	fmt.Fprintf(s.out, "Uploaded: %s -> %s\n", localPath, blobName)
	s.logger.Debug("Uploaded file",
		zap.String("path", localPath), zap.String("blob", blobName), zap.Int64("bytes", n))
	s.recorder.ObserveTransfer(DirectionUpload, res.Outcome.String(), n, res.Duration)
	return res
}

// UploadAll uploads every item: files directly, directories recursively.
// Missing paths are skipped and do not count as failures.
func (s *Service) UploadAll(ctx context.Context, items []string) Report {
	report := s.NewReport(OpUploadAll)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}

		clean := CleanItem(item)
		info, err := os.Stat(clean)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			report.Add(s.skip(DirectionUpload, Result{LocalPath: clean},
				fmt.Errorf("%s: %w", clean, fs.ErrNotExist), "File/Folder not found"))
		case err != nil:
			report.Add(s.fail(DirectionUpload, Result{LocalPath: clean}, s.clock.Now(), err))
		case info.Mode().IsRegular():
			report.Add(s.UploadFile(ctx, clean, clean))
		case info.IsDir():
			if err := s.uploadDir(ctx, clean, &report); err != nil {
				report.Err = err
			}
		default:
			report.Add(s.skip(DirectionUpload, Result{LocalPath: clean},
				fmt.Errorf("%s: unsupported file mode %s", clean, info.Mode()), "not a regular file or directory"))
		}
	}

	s.Finish(&report)
	fmt.Fprintf(s.out, "\nUpload Finished! Success: %d, Fail: %d, Skipped: %d\n",
		report.Succeeded(), report.Failed(), report.Skipped())
	s.logOutcome(report)
	return report
}

// uploadDir walks root and uploads every file below it. Symlinked directories
// inside the tree are not descended. A returned error aborts the batch.
func (s *Service) uploadDir(ctx context.Context, root string, report *Report) error {
	walkRoot := root
	if li, err := os.Lstat(root); err == nil && li.Mode()&fs.ModeSymlink != 0 {
		// A trailing separator makes WalkDir resolve a symlinked root.
		walkRoot = root + string(filepath.Separator)
	}

	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Add(s.fail(DirectionUpload, Result{LocalPath: path, BlobName: BlobName(path)}, s.clock.Now(), err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if target, statErr := os.Stat(path); statErr == nil && target.IsDir() {
				return nil
			}
		}
		report.Add(s.UploadFile(ctx, path, BlobName(path)))
		return nil
	})
}

// DownloadFile downloads one blob to localPath, creating parent directories.
// A partially written file is removed on failure.
func (s *Service) DownloadFile(ctx context.Context, blobName, localPath string) Result {
	started := s.clock.Now()
	res := Result{LocalPath: localPath, BlobName: blobName}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return s.fail(DirectionDownload, res, started, fmt.Errorf("create parent directories: %w", err))
	}

	// #nosec G304 -- destination chosen by the operator.
	f, err := os.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return s.fail(DirectionDownload, res, started, err)
	}

	n, err := s.store.Download(ctx, blobName, f)
	res.Bytes = n
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", localPath, closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(localPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("Failed to remove partial download", zap.String("path", localPath), zap.Error(rmErr))
		}
		return s.fail(DirectionDownload, res, started, err)
	}
	res.Outcome = Success
	res.Duration = s.clock.Now().Sub(started)

	fmt.Fprintf(s.out, "Downloaded: %s -> %s\n", blobName, localPath)
	s.logger.Debug("Downloaded blob",
		zap.String("blob", blobName), zap.String("path", localPath), zap.Int64("bytes", n))
	s.recorder.ObserveTransfer(DirectionDownload, res.Outcome.String(), n, res.Duration)
	return res
}

// DownloadAll downloads every blob in the bucket below destDir. Keys ending in
// "/" are directory placeholders and never materialized. A listing error
// aborts the operation and is reported in Report.Err; individual download
// failures are recorded and the walk continues.
func (s *Service) DownloadAll(ctx context.Context, destDir string) Report {
	report := s.NewReport(OpDownloadAll)

	err := s.store.List(ctx, func(blobName string) error {
		if strings.HasSuffix(blobName, "/") {
			return nil
		}
		localPath, err := LocalPath(destDir, blobName)
		if err != nil {
			report.Add(s.fail(DirectionDownload, Result{BlobName: blobName}, s.clock.Now(), err))
			return nil
		}
		report.Add(s.DownloadFile(ctx, blobName, localPath))
		return ctx.Err()
	})
	s.Finish(&report)

	if err != nil {
		report.Err = err
		fmt.Fprintf(s.out, "Error downloading all files: %v\n", err)
	} else {
		fmt.Fprintf(s.out, "\nSuccessfully downloaded %d files to %s\n", report.Succeeded(), destDir)
		if failed := report.Failed(); failed > 0 {
			fmt.Fprintf(s.out, "Failed: %d\n", failed)
		}
	}
	s.logOutcome(report)
	return report
}

func (s *Service) fail(direction string, res Result, started time.Time, err error) Result {
	res.Outcome = Failed
	res.Err = err
	res.Duration = s.clock.Now().Sub(started)

	if direction == DirectionUpload {
		fmt.Fprintf(s.out, "Error uploading %s: %v\n", res.LocalPath, err)
	} else {
		fmt.Fprintf(s.out, "Error downloading %s: %v\n", res.BlobName, err)
	}
	s.logger.Error("Transfer failed",
		zap.String("direction", direction),
		zap.String("path", res.LocalPath),
		zap.String("blob", res.BlobName),
		zap.Error(err))
	s.recorder.ObserveTransfer(direction, res.Outcome.String(), res.Bytes, res.Duration)
	return res
}

func (s *Service) skip(direction string, res Result, reason error, why string) Result {
	res.Outcome = Skipped
	res.Err = reason

	fmt.Fprintf(s.out, "Skip: %s (%s)\n", res.LocalPath, why)
	s.logger.Info("Skipped item", zap.String("path", res.LocalPath), zap.String("reason", why))
	s.recorder.ObserveTransfer(direction, res.Outcome.String(), 0, 0)
	return res
}

func (s *Service) logOutcome(r Report) {
	fields := []zap.Field{
		zap.String("operation", r.Operation),
		zap.Int("succeeded", r.Succeeded()),
		zap.Int("failed", r.Failed()),
		zap.Int("skipped", r.Skipped()),
		zap.Int64("bytes", r.Bytes()),
		zap.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
	}
	if r.Err != nil {
		s.logger.Error("Operation aborted", append(fields, zap.Error(r.Err))...)
		return
	}
	s.logger.Info("Operation finished", fields...)
}
