package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var suggestionCmd = &cobra.Command{
	Use:   "suggestion",
	Short: "suggestion commands",
}

func init() {
	rootCmd.AddCommand(suggestionCmd)
	suggestionCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	suggestionCmd.AddCommand(listSuggestionsCmd())
	suggestionCmd.AddCommand(resolveSuggestionCmd(true))
	suggestionCmd.AddCommand(resolveSuggestionCmd(false))
}

func listSuggestionsCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "list",
		Short: "list the pending suggestions of a document",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			suggestions, err := client.ListSuggestions(ctx, docID)
			if err != nil {
				fail(err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Type", "Author", "Content"})
			for _, s := range suggestions {
				table.Append([]string{s.ID, s.Type, s.UserID, s.Content})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func resolveSuggestionCmd(accept bool) *cobra.Command {
	var docID, suggestionID string
	var all bool

	use := "reject"
	if accept {
		use = "accept"
	}
	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   use,
		Short: use + " one suggestion, or all with --all",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			if !all && suggestionID == "" {
				color.Red("missing: --suggestion-id or --all")
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if all {
				count, err := client.ResolveAll(ctx, docID, accept)
				if err != nil {
					fail(err)
				}
				color.Green("%sed %d suggestions", use, count)
				return
			}

			found, err := client.ResolveSuggestion(ctx, docID, suggestionID, accept)
			if err != nil {
				fail(err)
			}
			if !found {
				color.Yellow("no suggestion %s", suggestionID)
				return
			}
			color.Green("%sed suggestion %s", use, suggestionID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&suggestionID, "suggestion-id", "s", "", "suggestion id")
	command.Flags().BoolVar(&all, "all", false, "resolve every suggestion")
	command.Flags().SortFlags = false

	return command
}
