package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/bucketsync/internal/transfer"
)

// newUploadCmd creates the 'upload' subcommand, which copies one local file to one blob.
func newUploadCmd() *cobra.Command {
	return transferCmd(&cobra.Command{
		Use:   "upload <local_path> <remote_blob_name>",
		Short: "Upload a single file",
		Example: `  bucketsync upload ./config.ts config.ts
  bucketsync upload ./dump/db.sql backups/2024/db.sql`,
		Args: cobra.ExactArgs(2),
		RunE: runUploadCommand,
	})
}

func runUploadCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	svc := appInstance.GetTransfer()

	report := svc.NewReport(transfer.OpUpload)
	report.Add(svc.UploadFile(cmd.Context(), args[0], args[1]))
	svc.Finish(&report)

	return finish(cmd, appInstance, report)
}
