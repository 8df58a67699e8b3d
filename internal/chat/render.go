package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/models"
)

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	clockStyle     = lipgloss.NewStyle().Faint(true)
)

// Renderer formats transcript messages. Assistant answers are rendered
// as markdown when enabled.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer creates a renderer. With markdown disabled, or if glamour
// cannot be set up, text is printed verbatim.
func NewRenderer(markdown bool) *Renderer {
	r := &Renderer{}
	if !markdown {
		return r
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(constants.MarkdownWrapWidth),
	)
	if err == nil {
		r.md = md
	}
	return r
}

// Body renders the message text.
func (r *Renderer) Body(msg models.ChatMessage) string {
	if msg.IsUser || r.md == nil {
		return msg.Text
	}
	out, err := r.md.Render(msg.Text)
	if err != nil {
		return msg.Text
	}
	return strings.Trim(out, "\n")
}

// Message renders "[HH:MM] You: text" or the assistant's block.
func (r *Renderer) Message(msg models.ChatMessage) string {
	label := assistantLabel.Render("Assistant")
	if msg.IsUser {
		label = userLabel.Render("You")
	}
	header := fmt.Sprintf("%s %s:", clockStyle.Render("["+msg.Clock()+"]"), label)

	body := r.Body(msg)
	if msg.IsUser || !strings.Contains(body, "\n") {
		return header + " " + strings.TrimSpace(body)
	}
	return header + "\n" + body
}

// Transcript renders every message separated by blank lines.
func (r *Renderer) Transcript(msgs []models.ChatMessage) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = r.Message(m)
	}
	return strings.Join(parts, "\n\n")
}
