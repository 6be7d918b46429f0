package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "collaborative document editing tool",
	Example: `redline serve
redline context set --user <user-id> --name <name>
redline create -t <title> -f notes.md
redline get -d <doc-id>
redline mode -d <doc-id> suggesting
redline comment add -d <doc-id> --from 7 --to 12 -m "which world?"
redline suggestion accept -d <doc-id> --all
redline export -d <doc-id> --annotated`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(detectCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
