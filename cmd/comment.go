package cmd

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "comment commands",
}

func init() {
	rootCmd.AddCommand(commentCmd)
	commentCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	commentCmd.AddCommand(addCommentCmd())
	commentCmd.AddCommand(listCommentsCmd())
	commentCmd.AddCommand(resolveCommentCmd())
	commentCmd.AddCommand(deleteCommentCmd())
}

func addCommentCmd() *cobra.Command {
	var docID, text string
	var from, to int

	var required = []string{"doc-id", "from", "to", "message"}

	command := &cobra.Command{
		Use:     "add",
		Short:   "comment on a range of a document",
		Example: `redline comment add -d <doc-id> --from 7 --to 12 -m "which world?"`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			comment, err := client.AddComment(ctx, docID, from, to, text)
			if err != nil {
				fail(err)
			}
			color.Green("comment added with id: %s", comment.ID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().IntVar(&from, "from", 0, "start position (required)")
	command.Flags().IntVar(&to, "to", 0, "end position (required)")
	command.Flags().StringVarP(&text, "message", "m", "", "comment text (required)")
	command.Flags().SortFlags = false

	return command
}

func listCommentsCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "list",
		Short: "list the comments of a document",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			comments, err := client.ListComments(ctx, docID)
			if err != nil {
				fail(err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Author", "Range", "Resolved", "Comment"})
			for _, c := range comments {
				author := c.UserName
				if author == "" {
					author = c.UserID
				}
				table.Append([]string{
					c.ID,
					author,
					strconv.Itoa(c.From) + "-" + strconv.Itoa(c.To),
					strconv.FormatBool(c.Resolved),
					c.Content,
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func resolveCommentCmd() *cobra.Command {
	var docID, commentID string

	var required = []string{"doc-id", "comment-id"}

	command := &cobra.Command{
		Use:   "resolve",
		Short: "toggle the resolved flag of a comment",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			comment, err := client.ResolveComment(ctx, docID, commentID)
			if err != nil {
				fail(err)
			}
			if comment.Resolved {
				color.Green("comment resolved")
			} else {
				color.Yellow("comment reopened")
			}
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&commentID, "comment-id", "c", "", "comment id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteCommentCmd() *cobra.Command {
	var docID, commentID string

	var required = []string{"doc-id", "comment-id"}

	command := &cobra.Command{
		Use:   "delete",
		Short: "delete a comment and its highlight",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if err := client.DeleteComment(ctx, docID, commentID); err != nil {
				fail(err)
			}
			color.Green("comment deleted")
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&commentID, "comment-id", "c", "", "comment id (required)")
	command.Flags().SortFlags = false

	return command
}
