package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newUploadAllCmd creates the 'upload-all' subcommand.
// Without --item it backs up the configured item list (upload.items).
func newUploadAllCmd() *cobra.Command {
	var items []string

	cmd := transferCmd(&cobra.Command{
		Use:   "upload-all",
		Short: "Upload the configured files and folders",
		Long: `Uploads every configured item. Files are uploaded as-is and folders
recursively, keyed by their relative path. Items that do not exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			list := appInstance.GetConfig().Upload.Items
			if cmd.Flags().Changed("item") {
				list = items
			}
			appInstance.GetLogger().Debug("Uploading items", zap.Strings("items", list))

			report := appInstance.GetTransfer().UploadAll(cmd.Context(), list)
			return finish(cmd, appInstance, report)
		},
	})

	cmd.Flags().StringSliceVar(&items, "item", nil, "file or folder to upload instead of the configured list (repeatable)")
	return cmd
}
