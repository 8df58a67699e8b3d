package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/collector"
	"github.com/docassist/docassist/internal/localfs"
	"github.com/docassist/docassist/internal/models"
	"github.com/docassist/docassist/internal/state"
	"github.com/docassist/docassist/internal/util/filter"
	stringutil "github.com/docassist/docassist/internal/util/strings"
)

// stagedRow is the structured form of a staged entry for json/yaml output.
type stagedRow struct {
	Index        int    `json:"index" yaml:"index"`
	Filename     string `json:"filename" yaml:"filename"`
	RelativePath string `json:"relativePath" yaml:"relativePath"`
	Folder       string `json:"folder" yaml:"folder"`
	Size         int64  `json:"size" yaml:"size"`
	ContentType  string `json:"contentType" yaml:"contentType"`
}

func newStageCmd() *cobra.Command {
	cmd := requireLogin(&cobra.Command{
		Use:   "stage",
		Short: "Manage the documents staged for the next upload",
		Long: `Stage documents for upload. Only PDF, PPT, PPTX, XLS and XLSX files
are accepted; anything else is skipped. The selection is kept in the
local database until it is uploaded or cleared.`,
	})

	cmd.AddCommand(newStageAddCmd())
	cmd.AddCommand(newStageListCmd())
	cmd.AddCommand(newStageRemoveCmd())
	cmd.AddCommand(newStageClearCmd())
	return cmd
}

func newStageAddCmd() *cobra.Command {
	var (
		policyName    string
		includeStr    string
		excludeStr    string
		pathStr       string
		includeHidden bool
		replace       bool
	)

	cmd := &cobra.Command{
		Use:   "add <path> [path...]",
		Short: "Stage files and folders",
		Long: `Stage files and folders. Folders are walked recursively.

With the folder policy (default) entries keep their path from the
dropped folder, e.g. "Reports/2024/q1.pdf". With --policy flat every
file is keyed by its name alone.

Examples:
  docassist stage add report.pdf deck.pptx
  docassist stage add ./Reports --exclude "draft*"
  docassist stage add ./Reports --path "Reports/2024/**"
  docassist stage add ./Reports --policy flat --replace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			if policyName == "" {
				policyName = e.prefs.FolderPolicy
			}
			policy, err := state.ParseFolderPolicy(policyName)
			if err != nil {
				return err
			}

			var entries []models.FileEntry
			var skipped int
			if policy == state.PolicyFolder {
				entries, skipped, err = collectEntries(cmd, args, includeHidden)
			} else {
				entries, skipped, err = pickFlat(args, includeHidden)
			}
			if err != nil {
				return err
			}

			fcfg := filter.Config{
				Include:     filter.ParsePatternList(includeStr),
				Exclude:     filter.ParsePatternList(excludeStr),
				PathInclude: filter.ParsePatternList(pathStr),
			}
			before := len(entries)
			entries = filter.ApplyToEntries(entries, fcfg)
			filtered := before - len(entries)

			out := stdout(cmd)
			if len(entries) == 0 {
				fmt.Fprintln(out, "No supported files found (accepted: pdf, ppt, pptx, xls, xlsx)")
				return nil
			}

			sel, st, err := e.Selection(cmd)
			if err != nil {
				return err
			}
			if replace {
				sel.ReplaceAll(entries)
			} else {
				sel.Add(entries...)
			}
			if _, err := st.SaveSelection(cmd.Context(), sel.Snapshot()); err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}

			fmt.Fprintf(out, "✓ Staged %s (%d total, %s)\n",
				stringutil.CountNoun(len(entries), "file"), sel.Len(), state.FormatSize(sel.TotalSize()))
			if skipped > 0 {
				fmt.Fprintf(out, "  Skipped %s\n", stringutil.CountNoun(skipped, "unsupported or unreadable item"))
			}
			if filtered > 0 {
				fmt.Fprintf(out, "  Filtered out %s\n", stringutil.CountNoun(filtered, "file"))
			}
			printLargeFileWarning(cmd, sel.LargeFiles())
			return nil
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "", "Folder policy: folder or flat (default from preferences)")
	cmd.Flags().StringVar(&includeStr, "include", "", "Only stage files matching these globs (comma-separated)")
	cmd.Flags().StringVar(&excludeStr, "exclude", "", "Skip files matching these globs (comma-separated)")
	cmd.Flags().StringVar(&pathStr, "path", "", "Only stage files whose relative path matches these globs; ** spans folders")
	cmd.Flags().BoolVar(&includeHidden, "hidden", false, "Include hidden files and folders")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the current selection instead of adding to it")
	return cmd
}

// collectEntries expands args with the concurrent collector. Its output
// order is unspecified, so entries are sorted by path.
func collectEntries(cmd *cobra.Command, args []string, includeHidden bool) ([]models.FileEntry, int, error) {
	items, err := localfs.NewItems(args, localfs.ListOptions{IncludeHidden: includeHidden})
	if err != nil {
		return nil, 0, err
	}
	entries, report := collector.New(GetLogger()).Collect(cmd.Context(), items)
	if err := cmd.Context().Err(); err != nil {
		return nil, 0, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})
	return entries, report.Skipped(), nil
}

func pickFlat(args []string, includeHidden bool) ([]models.FileEntry, int, error) {
	picked := state.NewSelectionModel(nil)
	skipped := 0
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, err
		}
		var files []models.PickedFile
		if info.IsDir() {
			files, err = localfs.PickFolder(arg, localfs.WalkOptions{IncludeHidden: includeHidden, SkipHiddenDirs: !includeHidden})
		} else {
			files, err = localfs.PickFiles([]string{arg})
		}
		if err != nil {
			return nil, 0, err
		}
		_, n := picked.AddFromPicker(files, state.PolicyFlat)
		skipped += n
	}
	return picked.Snapshot(), skipped, nil
}

func printLargeFileWarning(cmd *cobra.Command, large []models.FileEntry) {
	if len(large) == 0 {
		return
	}
	out := stdout(cmd)
	fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("⚠ %s over 50 MB may be slow to upload:", stringutil.CountNoun(len(large), "file"))))
	for _, e := range large {
		fmt.Fprintf(out, "    %s (%s)\n", e.RelativePath, state.FormatSize(e.Size()))
	}
}

func stagedRows(entries []models.FileEntry) []stagedRow {
	rows := make([]stagedRow, len(entries))
	for i, e := range entries {
		rows[i] = stagedRow{
			Index:        i + 1,
			Filename:     e.Filename,
			RelativePath: e.RelativePath,
			Folder:       e.FolderGroup(),
			Size:         e.Size(),
			ContentType:  e.ContentType(),
		}
	}
	return rows
}

func newStageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List staged documents grouped by folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			sel, _, err := e.Selection(cmd)
			if err != nil {
				return err
			}
			entries := sel.Snapshot()
			rows := stagedRows(entries)

			return printValue(cmd, e.prefs.Output, rows, func() {
				out := stdout(cmd)
				if len(rows) == 0 {
					fmt.Fprintln(out, "Nothing staged. Use 'docassist stage add <path>'.")
					return
				}
				// Indexes stay global so 'stage remove' can take them.
				byGroup := make(map[string][]stagedRow)
				for _, r := range rows {
					byGroup[r.Folder] = append(byGroup[r.Folder], r)
				}
				width := len(strconv.Itoa(len(rows)))
				for _, group := range state.GroupKeys(entries) {
					fmt.Fprintln(out, headingStyle.Render(group))
					for _, r := range byGroup[group] {
						fmt.Fprintf(out, "  %*d  %s  %s\n", width, r.Index, r.Filename, faintStyle.Render(state.FormatSize(r.Size)))
					}
				}
				fmt.Fprintf(out, "\n%s, %s\n", stringutil.CountNoun(len(rows), "file"), state.FormatSize(sel.TotalSize()))
				printLargeFileWarning(cmd, sel.LargeFiles())
			})
		},
	}
}

func newStageRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove one staged document by its list index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			e, err := env()
			if err != nil {
				return err
			}
			sel, st, err := e.Selection(cmd)
			if err != nil {
				return err
			}
			removed := sel.Snapshot()
			if err := sel.Remove(index - 1); err != nil {
				return fmt.Errorf("no staged file at index %d (%s staged)", index, stringutil.CountNoun(sel.Len(), "file"))
			}
			if _, err := st.SaveSelection(cmd.Context(), sel.Snapshot()); err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}
			fmt.Fprintf(stdout(cmd), "✓ Removed %s\n", removed[index-1].RelativePath)
			return nil
		},
	}
}

func newStageClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every staged document",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := env()
			if err != nil {
				return err
			}
			sel, st, err := e.Selection(cmd)
			if err != nil {
				return err
			}
			n := sel.Len()
			sel.Clear()
			if _, err := st.SaveSelection(cmd.Context(), nil); err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}
			fmt.Fprintf(stdout(cmd), "✓ Cleared %s\n", stringutil.CountNoun(n, "staged file"))
			return nil
		},
	}
}
