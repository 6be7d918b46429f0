package cmd

import (
	"os"

	"github.com/emrgen/redline/internal/markdown"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func detectCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "detect <file>",
		Short: "tell whether a file looks like markdown",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fail(err)
			}
			if markdown.LooksLikeMarkdown(string(data)) {
				color.Green("%s looks like markdown", args[0])
			} else {
				color.Yellow("%s looks like plain text", args[0])
			}
		},
	}

	return command
}
