package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/bucketsync/internal/transfer"
)

// newDownloadCmd creates the 'download' subcommand, which fetches one blob.
func newDownloadCmd() *cobra.Command {
	return transferCmd(&cobra.Command{
		Use:   "download <remote_blob_name> [local_path]",
		Short: "Download a single blob",
		Long: `Downloads one blob. Without a local path the file lands in the
download directory (download.dir, default tmp/download) under the blob's base name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runDownloadCommand,
	})
}

func runDownloadCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	svc := appInstance.GetTransfer()

	blobName := args[0]
	localPath := transfer.DefaultDownloadPath(appInstance.GetConfig().Download.Dir, blobName)
	if len(args) == 2 {
		localPath = args[1]
	}

	report := svc.NewReport(transfer.OpDownload)
	report.Add(svc.DownloadFile(cmd.Context(), blobName, localPath))
	svc.Finish(&report)

	return finish(cmd, appInstance, report)
}
