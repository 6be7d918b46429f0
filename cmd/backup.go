package cmd

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "backup commands",
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	backupCmd.AddCommand(listBackupsCmd())
	backupCmd.AddCommand(restoreBackupCmd())
}

func listBackupsCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "list",
		Short: "list the saved versions of a document",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			backups, err := client.ListBackups(ctx, docID)
			if err != nil {
				fail(err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Title", "Created"})
			for _, b := range backups {
				table.Append([]string{strconv.FormatInt(b.Version, 10), b.Title, shortTime(b.CreatedAt)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func restoreBackupCmd() *cobra.Command {
	var docID string
	var version int64

	var required = []string{"doc-id", "version"}

	command := &cobra.Command{
		Use:   "restore",
		Short: "make a saved version the current content",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			doc, err := client.RestoreBackup(ctx, docID, version)
			if err != nil {
				fail(err)
			}
			color.Green("restored version %d, document is now at version %d", version, doc.Version)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().Int64VarP(&version, "version", "v", 0, "version to restore (required)")
	command.Flags().SortFlags = false

	return command
}
