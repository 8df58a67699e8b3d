package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/chat"
)

type chatFlags struct {
	documentID string
	plain      bool
}

func (f *chatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.documentID, "document", "d", "", "Ask about one document only (ID from 'documents list')")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print answers without markdown rendering")
}

// openConversation loads the persisted transcript of the logged-in user.
func openConversation(cmd *cobra.Command) (*environment, *chat.Conversation, error) {
	e, err := env()
	if err != nil {
		return nil, nil, err
	}
	user, err := e.session.CurrentUser(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	st, err := e.Store()
	if err != nil {
		return nil, nil, err
	}
	conv := chat.NewConversation(e.client, st, user.Username, e.logger)
	if err := conv.Load(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return e, conv, nil
}

func newChatCmd() *cobra.Command {
	cmd := requireLogin(&cobra.Command{
		Use:   "chat",
		Short: "Ask the assistant about your uploaded documents",
		Long: `Ask questions about your uploaded documents. The transcript is kept
in the local database per user until it is cleared.

Examples:
  docassist chat ask "What was Q3 revenue?"
  docassist chat ask --document 12 "Summarize this deck"
  docassist chat repl`,
	})

	cmd.AddCommand(newChatAskCmd())
	cmd.AddCommand(newChatReplCmd())
	cmd.AddCommand(newChatHistoryCmd())
	cmd.AddCommand(newChatClearCmd())
	return cmd
}

func newChatAskCmd() *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatAsk(cmd, strings.Join(args, " "), flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runChatAsk(cmd *cobra.Command, question string, flags chatFlags) error {
	e, conv, err := openConversation(cmd)
	if err != nil {
		return err
	}
	reply, ok, err := conv.Ask(cmd.Context(), question, flags.documentID)
	if !ok {
		return fmt.Errorf("question is empty")
	}
	renderer := chat.NewRenderer(e.cfg.RenderMarkdown && !flags.plain)
	fmt.Fprintln(stdout(cmd), renderer.Body(reply))
	return err
}

func newChatReplCmd() *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive chat",
		Long: `Start an interactive chat. Type a question and press Enter.
  /clear   start a new conversation
  /quit    leave (Ctrl+D works too)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, conv, err := openConversation(cmd)
			if err != nil {
				return err
			}
			repl := &chat.REPL{
				Conversation: conv,
				Renderer:     chat.NewRenderer(e.cfg.RenderMarkdown && !flags.plain),
				DocumentID:   flags.documentID,
			}
			return repl.Run(cmd.Context(), cmd.InOrStdin(), stdout(cmd))
		},
	}
	flags.register(cmd)
	return cmd
}

func newChatHistoryCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the saved transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, conv, err := openConversation(cmd)
			if err != nil {
				return err
			}
			msgs := conv.Messages()
			return printValue(cmd, e.prefs.Output, msgs, func() {
				renderer := chat.NewRenderer(e.cfg.RenderMarkdown && !plain)
				fmt.Fprintln(stdout(cmd), renderer.Transcript(msgs))
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print answers without markdown rendering")
	return cmd
}

func newChatClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the saved transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conv, err := openConversation(cmd)
			if err != nil {
				return err
			}
			if err := conv.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), "✓ Chat cleared")
			return nil
		},
	}
}
