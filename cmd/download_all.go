package cmd

import (
	"github.com/spf13/cobra"
)

// newDownloadAllCmd creates the 'download-all' subcommand, which restores the whole bucket.
func newDownloadAllCmd() *cobra.Command {
	return transferCmd(&cobra.Command{
		Use:   "download-all [destination_dir]",
		Short: "Download every blob in the bucket",
		Long: `Downloads every blob into the destination directory (download.dir by
default), recreating the key hierarchy. Folder placeholder keys ending in "/" are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			dest := appInstance.GetConfig().Download.Dir
			if len(args) == 1 {
				dest = args[0]
			}

			report := appInstance.GetTransfer().DownloadAll(cmd.Context(), dest)
			return finish(cmd, appInstance, report)
		},
	})
}
