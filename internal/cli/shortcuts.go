package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newAddShortcut())
	rootCmd.AddCommand(newLsShortcut())
	rootCmd.AddCommand(newAskShortcut())
}

// newAddShortcut creates the 'add' shortcut command.
// Shortcut for: stage add
func newAddShortcut() *cobra.Command {
	cmd := newStageAddCmd()
	cmd.Short = "Stage files and folders (shortcut for 'stage add')"
	cmd.Long = `Shortcut for staging documents.

Equivalent to: docassist stage add <paths>

Examples:
  docassist add report.pdf
  docassist add ./Reports --exclude "draft*"`
	return requireLogin(cmd)
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: documents list
func newLsShortcut() *cobra.Command {
	cmd := newDocumentsListCmd()
	cmd.Use = "ls"
	cmd.Aliases = nil
	cmd.Short = "List uploaded documents (shortcut for 'documents list')"
	cmd.Long = `Shortcut for listing uploaded documents.

Equivalent to: docassist documents list

Examples:
  docassist ls
  docassist ls --include "*.pdf"`
	return requireLogin(cmd)
}

// newAskShortcut creates the 'ask' shortcut command.
// Shortcut for: chat ask
func newAskShortcut() *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask about your documents (shortcut for 'chat ask')",
		Long: `Shortcut for asking one question.

Equivalent to: docassist chat ask <question>

Examples:
  docassist ask "Which deck mentions the Q3 forecast?"
  docassist ask -d 12 "Summarize this document"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatAsk(cmd, strings.Join(args, " "), flags)
		},
	}
	flags.register(cmd)
	return requireLogin(cmd)
}
