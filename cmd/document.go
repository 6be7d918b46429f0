package cmd

import (
	"os"
	"strconv"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(deleteDocCmd())
	rootCmd.AddCommand(titleDocCmd())
	rootCmd.AddCommand(modeDocCmd())
	rootCmd.AddCommand(importDocCmd())
	rootCmd.AddCommand(exportDocCmd())
	rootCmd.AddCommand(pasteDocCmd())
	rootCmd.AddCommand(splitDocCmd())
	rootCmd.AddCommand(flushDocCmd())
}

func createDocCmd() *cobra.Command {
	var title, file string

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document",
		Long:    `create a document with the given title, optionally filled from a markdown file`,
		Example: "redline create -t <title> -f <file.md>",
		Run: func(cmd *cobra.Command, args []string) {
			var content string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					fail(err)
				}
				content = string(data)
			}

			client, ctx, cancel := newClient()
			defer cancel()
			doc, err := client.CreateDocument(ctx, title, content)
			if err != nil {
				fail(err)
			}
			color.Green("document created with id: %s", doc.ID)
		},
	}

	command.Flags().StringVarP(&title, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&file, "file", "f", "", "markdown file with the content")
	command.Flags().SortFlags = false

	return command
}

func listDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "list the documents of the context user",
		Run: func(cmd *cobra.Command, args []string) {
			client, ctx, cancel := newClient()
			defer cancel()
			docs, err := client.ListDocuments(ctx)
			if err != nil {
				fail(err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Version", "Updated"})
			for _, doc := range docs {
				table.Append([]string{doc.ID, doc.Title, strconv.FormatInt(doc.Version, 10), shortTime(doc.UpdatedAt)})
			}
			table.Render()
		},
	}

	return command
}

func getDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document",
		Example: "redline get -d <doc-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			view, err := client.GetDocument(ctx, docID)
			if err != nil {
				fail(err)
			}

			printField("ID", view.ID)
			printField("Title", view.Title)
			printField("Mode", view.Mode)
			printField("Saved", strconv.FormatBool(view.Saved))
			if view.Content != nil {
				printField("Size", strconv.Itoa(view.Content.ContentSize()))
				printField("Text", view.Content.TextContent())
			}
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func deleteDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "delete",
		Short: "delete a document with its comments and backups",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if err := client.DeleteDocument(ctx, docID); err != nil {
				fail(err)
			}
			color.Green("document %s deleted", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func titleDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "title <title>",
		Short: "change the title of a document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if err := client.SetTitle(ctx, docID, args[0]); err != nil {
				fail(err)
			}
			color.Green("title updated")
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func modeDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:       "mode <editing|suggesting|viewing>",
		Short:     "switch the editing mode of a document",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"editing", "suggesting", "viewing"},
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if err := client.SetMode(ctx, docID, args[0]); err != nil {
				fail(err)
			}
			color.Green("mode set to %s", args[0])
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}

func importDocCmd() *cobra.Command {
	var docID, file string

	var required = []string{"doc-id", "file"}

	command := &cobra.Command{
		Use:   "import",
		Short: "replace the content of a document with a markdown file",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				fail(err)
			}
			client, ctx, cancel := newClient()
			defer cancel()
			if _, err := client.Import(ctx, docID, string(data)); err != nil {
				fail(err)
			}
			color.Green("imported %s", file)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "markdown file (required)")
	command.Flags().SortFlags = false

	return command
}

func exportDocCmd() *cobra.Command {
	var docID, out string
	var annotated bool

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "export",
		Short: "export a document as markdown",
		Long:  `export a document as markdown; --annotated includes suggestions and comments`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			name, text, err := client.Export(ctx, docID, annotated)
			if err != nil {
				fail(err)
			}

			if out == "-" {
				cmd.Println(text)
				return
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				fail(err)
			}
			color.Green("exported to %s", out)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().BoolVarP(&annotated, "annotated", "a", false, "include suggestions and comments")
	command.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	command.Flags().SortFlags = false

	return command
}

func pasteDocCmd() *cobra.Command {
	var docID string
	var pos int

	var required = []string{"doc-id", "pos"}

	command := &cobra.Command{
		Use:   "paste <text>",
		Short: "paste plain or markdown text at a position",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			view, err := client.Paste(ctx, docID, pos, args[0])
			if err != nil {
				fail(err)
			}
			printField("Text", view.Content.TextContent())
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().IntVarP(&pos, "pos", "p", 0, "position (required)")
	command.Flags().SortFlags = false

	return command
}

func splitDocCmd() *cobra.Command {
	var docID string
	var pos int

	var required = []string{"doc-id", "pos"}

	command := &cobra.Command{
		Use:   "split",
		Short: "split the block at a position",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			view, err := client.Apply(ctx, docID, doctree.NewTransaction().SplitBlock(pos))
			if err != nil {
				fail(err)
			}
			printField("Text", view.Content.TextContent())
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")
	command.Flags().IntVarP(&pos, "pos", "p", 0, "position (required)")
	command.Flags().SortFlags = false

	return command
}

func flushDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:   "flush",
		Short: "save pending edits of a document now",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client, ctx, cancel := newClient()
			defer cancel()
			if err := client.Flush(ctx, docID); err != nil {
				fail(err)
			}
			color.Green("saved")
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "document id (required)")

	return command
}
