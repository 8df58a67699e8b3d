package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/progress"
	"github.com/docassist/docassist/internal/services"
	"github.com/docassist/docassist/internal/util/filter"
	stringutil "github.com/docassist/docassist/internal/util/strings"
)

func newDocumentsCmd() *cobra.Command {
	cmd := requireLogin(&cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage uploaded documents",
	})

	cmd.AddCommand(newDocumentsListCmd())
	cmd.AddCommand(newDocumentsDeleteCmd())
	cmd.AddCommand(newDocumentsDeleteAllCmd())
	cmd.AddCommand(newDocumentsTextCmd())
	return cmd
}

func documentService(e *environment) *services.DocumentService {
	return services.NewDocumentService(e.client, e.bus, e.logger)
}

func newDocumentsListCmd() *cobra.Command {
	var includeStr, excludeStr, searchStr string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List uploaded documents",
		Long: `List the documents uploaded by the logged-in user.

Examples:
  docassist documents list
  docassist documents list --include "*.pdf"
  docassist documents list --search quarterly -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			docs, err := documentService(e).List(cmd.Context())
			if err != nil {
				return err
			}
			docs = filter.ApplyToDocuments(docs, filter.Config{
				Include: filter.ParsePatternList(includeStr),
				Exclude: filter.ParsePatternList(excludeStr),
				Search:  strings.Fields(searchStr),
			})
			if docs == nil {
				docs = []models.Document{}
			}

			return printValue(cmd, e.prefs.Output, docs, func() {
				printDocumentTable(cmd, docs)
			})
		},
	}

	cmd.Flags().StringVar(&includeStr, "include", "", "Only show names matching these globs (comma-separated)")
	cmd.Flags().StringVar(&excludeStr, "exclude", "", "Hide names matching these globs (comma-separated)")
	cmd.Flags().StringVar(&searchStr, "search", "", "Only show names containing every word")
	return cmd
}

const documentNameWidth = 60

func printDocumentTable(cmd *cobra.Command, docs []models.Document) {
	out := stdout(cmd)
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found")
		return
	}

	ids := make([]string, len(docs))
	names := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		names[i] = stringutil.Truncate(d.Name, documentNameWidth)
	}
	w := maxWidth(append(ids, "ID"))
	nw := maxWidth(append(names, "NAME"))

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%-*s  %s", w, "ID", "NAME")))
	for i, d := range docs {
		line := fmt.Sprintf("%-*s  %s", w, d.ID, names[i])
		if !d.UploadDate.IsZero() {
			line = fmt.Sprintf("%-*s  %-*s  %s", w, d.ID, nw, names[i],
				faintStyle.Render(d.UploadDate.Local().Format("2006-01-02 15:04")))
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%s\n", stringutil.CountNoun(len(docs), "document"))
}

func newDocumentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete uploaded documents by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			svc := documentService(e)
			out := stdout(cmd)

			failed := 0
			for _, id := range args {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(out, "✗ %s\n", err)
					failed++
					continue
				}
				fmt.Fprintf(out, "✓ Deleted document %s\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("failed to delete %s", stringutil.CountNoun(failed, "document"))
			}
			return nil
		},
	}
}

func newDocumentsDeleteAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every uploaded document",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			out := stdout(cmd)

			if !yes {
				ok, err := newPrompter(cmd.InOrStdin(), out).confirm("Delete ALL uploaded documents?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			summary, err := documentService(e).DeleteAllWithProgress(cmd.Context(), progress.NewCLIProgress(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			fmt.Fprintln(out, summary.Message)
			for _, f := range summary.Failed {
				fmt.Fprintf(out, "  %s (%s): %s\n", f.Name, f.ID, f.Error)
			}
			if len(summary.Failed) > 0 {
				return fmt.Errorf("failed to delete %s", stringutil.CountNoun(len(summary.Failed), "document"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newDocumentsTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text",
		Short: "Print the text the backend extracted from your documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			text, err := documentService(e).Text(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), strings.TrimRight(text, "\n"))
			return nil
		},
	}
}
